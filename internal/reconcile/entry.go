package reconcile

import (
	"log/slog"
	"regexp"
	"time"

	"github.com/heymagurany/toggl-to-jira/internal/jira"
	"github.com/heymagurany/toggl-to-jira/internal/toggl"
)

// issueKeyPattern matches an issue key at the start of a time entry
// description: optional whitespace, optional opening bracket, then
// "<prefix>-<number>", case-insensitively. Examples that match:
// "ABC-123 fix login", "[abc-123] fix login".
var issueKeyPattern = regexp.MustCompile(`(?i)^\s*\[?(\w+-\d+)\]?`)

// TimeEntry is a normalized tracker record. Durations are rounded up to
// whole minutes.
type TimeEntry struct {
	Key             string    `json:"key"`
	Start           time.Time `json:"start"`
	DurationSeconds int       `json:"durationSeconds"`
}

// WorklogEntry is a normalized Jira worklog record.
type WorklogEntry struct {
	Key             string    `json:"key"`
	ID              string    `json:"id"`
	Start           time.Time `json:"start"`
	DurationSeconds int       `json:"durationSeconds"`
}

// ExtractIssueKey returns the issue key leading a description, or false when
// the description does not start with one.
func ExtractIssueKey(description string) (string, bool) {
	matches := issueKeyPattern.FindStringSubmatch(description)
	if len(matches) < 2 {
		return "", false
	}
	return matches[1], true
}

// RoundUpToMinute rounds a duration in seconds up to the next whole minute.
func RoundUpToMinute(seconds int) int {
	if seconds <= 0 {
		return 0
	}
	return ((seconds + 59) / 60) * 60
}

// NormalizeTimeEntries converts raw tracker entries into TimeEntry records.
// Entries whose description carries no issue key cannot be reconciled and are
// dropped.
func NormalizeTimeEntries(raw []toggl.TimeEntry) []TimeEntry {
	var entries []TimeEntry
	for _, entry := range raw {
		key, ok := ExtractIssueKey(entry.Description)
		if !ok {
			continue
		}
		entries = append(entries, TimeEntry{
			Key:             key,
			Start:           entry.Start,
			DurationSeconds: RoundUpToMinute(entry.Duration),
		})
	}
	return entries
}

// NormalizeWorklogs flattens a worklog-authored issue search into one
// WorklogEntry per worklog, keeping only worklogs started within
// [start, end] (inclusive both ends, second precision). A truncated per-issue
// worklog page is logged as a warning; the results may be incomplete but the
// run continues.
func NormalizeWorklogs(result *jira.SearchResult, start, end time.Time, logger *slog.Logger) []WorklogEntry {
	var entries []WorklogEntry
	for _, issue := range result.Issues {
		list := issue.Fields.Worklog
		if list == nil {
			continue
		}
		if list.Truncated() {
			logger.Warn("worklog page does not contain all results", "issue", issue.Key, "total", list.Total, "maxResults", list.MaxResults)
		}
		for _, worklog := range list.Worklogs {
			if !withinWindow(worklog.Started.Time, start, end) {
				continue
			}
			entries = append(entries, WorklogEntry{
				Key:             issue.Key,
				ID:              worklog.ID,
				Start:           worklog.Started.Time,
				DurationSeconds: worklog.TimeSpentSeconds,
			})
		}
	}
	return entries
}

func withinWindow(t, start, end time.Time) bool {
	t = t.Truncate(time.Second)
	return !t.Before(start.Truncate(time.Second)) && !t.After(end.Truncate(time.Second))
}
