package main

import (
	"testing"
	"time"
)

func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		fromTime, toTime = "", ""
		today, yesterday, lastMonth = false, false, false
	})
}

func TestParseTimeFlag(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected time.Time
		wantErr  bool
	}{
		{
			name:     "plain date",
			value:    "2023-01-15",
			expected: time.Date(2023, 1, 15, 0, 0, 0, 0, time.Local),
		},
		{
			name:     "local date-time",
			value:    "2023-01-15T09:30:00",
			expected: time.Date(2023, 1, 15, 9, 30, 0, 0, time.Local),
		},
		{
			name:     "rfc 3339",
			value:    "2023-01-15T09:30:00Z",
			expected: time.Date(2023, 1, 15, 9, 30, 0, 0, time.UTC),
		},
		{
			name:    "garbage",
			value:   "not-a-date",
			wantErr: true,
		},
		{
			name:    "empty",
			value:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTimeFlag(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseTimeFlag(%q) expected error", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTimeFlag(%q) returned error: %v", tt.value, err)
			}
			if !got.Equal(tt.expected) {
				t.Errorf("parseTimeFlag(%q) = %v, want %v", tt.value, got, tt.expected)
			}
		})
	}
}

func TestSyncWindow_Default(t *testing.T) {
	resetFlags(t)
	now := time.Date(2023, 1, 15, 14, 30, 0, 0, time.Local)

	start, end, err := syncWindow(now)
	if err != nil {
		t.Fatalf("syncWindow returned error: %v", err)
	}
	if !start.Equal(time.Date(2023, 1, 15, 0, 0, 0, 0, time.Local)) {
		t.Errorf("default start must be start of today, got %v", start)
	}
	if !end.Equal(now) {
		t.Errorf("default end must be now, got %v", end)
	}
}

func TestSyncWindow_Yesterday(t *testing.T) {
	resetFlags(t)
	yesterday = true
	now := time.Date(2023, 1, 15, 14, 30, 0, 0, time.Local)

	start, end, err := syncWindow(now)
	if err != nil {
		t.Fatalf("syncWindow returned error: %v", err)
	}
	if !start.Equal(time.Date(2023, 1, 14, 0, 0, 0, 0, time.Local)) {
		t.Errorf("unexpected start %v", start)
	}
	if !end.Equal(time.Date(2023, 1, 14, 23, 59, 59, 0, time.Local)) {
		t.Errorf("unexpected end %v", end)
	}
}

func TestSyncWindow_ExplicitFlags(t *testing.T) {
	resetFlags(t)
	fromTime = "2023-01-10"
	toTime = "2023-01-12"

	start, end, err := syncWindow(time.Now())
	if err != nil {
		t.Fatalf("syncWindow returned error: %v", err)
	}
	if start.Day() != 10 || end.Day() != 12 {
		t.Errorf("unexpected window %v to %v", start, end)
	}
}

func TestSyncWindow_EndBeforeStart(t *testing.T) {
	resetFlags(t)
	fromTime = "2023-01-12"
	toTime = "2023-01-10"

	if _, _, err := syncWindow(time.Now()); err == nil {
		t.Error("expected an error when the window is inverted")
	}
}

func TestEpicWindow_DefaultsToCurrentMonth(t *testing.T) {
	resetFlags(t)
	now := time.Date(2023, 2, 15, 14, 30, 0, 0, time.Local)

	start, end, err := epicWindow(now)
	if err != nil {
		t.Fatalf("epicWindow returned error: %v", err)
	}
	if !start.Equal(time.Date(2023, 2, 1, 0, 0, 0, 0, time.Local)) {
		t.Errorf("unexpected start %v", start)
	}
	if !end.Equal(time.Date(2023, 2, 28, 23, 59, 59, 0, time.Local)) {
		t.Errorf("unexpected end %v", end)
	}
}

func TestEpicWindow_LastMonth(t *testing.T) {
	resetFlags(t)
	lastMonth = true
	now := time.Date(2023, 3, 15, 14, 30, 0, 0, time.Local)

	start, end, err := epicWindow(now)
	if err != nil {
		t.Fatalf("epicWindow returned error: %v", err)
	}
	if !start.Equal(time.Date(2023, 2, 1, 0, 0, 0, 0, time.Local)) {
		t.Errorf("unexpected start %v", start)
	}
	if !end.Equal(time.Date(2023, 3, 1, 0, 0, 0, 0, time.Local)) {
		t.Errorf("unexpected end %v", end)
	}
}

func TestWeekdaysBetween(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected int
	}{
		{
			name:     "full january 2023",
			start:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			end:      time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
			expected: 22,
		},
		{
			name:     "single week",
			start:    time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
			end:      time.Date(2023, 1, 9, 0, 0, 0, 0, time.UTC),
			expected: 5,
		},
		{
			name:     "weekend only",
			start:    time.Date(2023, 1, 7, 0, 0, 0, 0, time.UTC),
			end:      time.Date(2023, 1, 9, 0, 0, 0, 0, time.UTC),
			expected: 0,
		},
		{
			name:     "empty window",
			start:    time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
			end:      time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := weekdaysBetween(tt.start, tt.end); got != tt.expected {
				t.Errorf("weekdaysBetween = %d, want %d", got, tt.expected)
			}
		})
	}
}
