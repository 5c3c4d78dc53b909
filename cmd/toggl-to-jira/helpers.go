package main

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
)

// secondsPerWorkday is an eight hour day.
const secondsPerWorkday = 28800

var timeFlagLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTimeFlag accepts a date or date/time flag value in RFC 3339, local
// date-time, or plain date form.
func parseTimeFlag(value string) (time.Time, error) {
	for _, layout := range timeFlagLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, use YYYY-MM-DD or RFC 3339", value)
}

// syncWindow resolves the sync command's flags to a [start, end) window.
func syncWindow(now time.Time) (time.Time, time.Time, error) {
	switch {
	case today:
		return startOfDay(now), now, nil
	case yesterday:
		start := startOfDay(now.AddDate(0, 0, -1))
		return start, endOfDay(start), nil
	}

	start := startOfDay(now)
	end := now
	var err error
	if fromTime != "" {
		if start, err = parseTimeFlag(fromTime); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if toTime != "" {
		if end, err = parseTimeFlag(toTime); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("to-time cannot be before from-time")
	}
	return start, end, nil
}

// epicWindow resolves the epic command's flags to a window, defaulting to the
// current month.
func epicWindow(now time.Time) (time.Time, time.Time, error) {
	if lastMonth {
		thisMonth := startOfMonth(now)
		return thisMonth.AddDate(0, -1, 0), thisMonth, nil
	}

	start := startOfMonth(now)
	end := endOfMonth(now)
	var err error
	if fromTime != "" {
		if start, err = parseTimeFlag(fromTime); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if toTime != "" {
		if end, err = parseTimeFlag(toTime); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("to-time cannot be before from-time")
	}
	return start, end, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Second)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func endOfMonth(t time.Time) time.Time {
	return startOfMonth(t).AddDate(0, 1, 0).Add(-time.Second)
}

// weekdaysBetween counts the Monday-to-Friday days in [start, end).
func weekdaysBetween(start, end time.Time) int {
	days := 0
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			days++
		}
	}
	return days
}

func newSpinner(description string) *progressbar.ProgressBar {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(15),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
	_ = bar.RenderBlank()
	return bar
}

func finishBar(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Finish()
	}
}
