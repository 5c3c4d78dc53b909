package reconcile

import "time"

// Plan is the set of mutations that would bring the Jira worklogs in line
// with the tracker entries. It is computed fresh each run and never
// persisted.
type Plan struct {
	Added   []TimeEntry    `json:"added"`
	Updated []WorklogEntry `json:"updated"`
	Removed []WorklogEntry `json:"removed"`
}

// sameIdentity reports whether a tracker entry and a worklog entry describe
// the same logical record: same key, same start truncated to whole seconds.
// Duration is deliberately not part of identity, so a changed duration shows
// up as an update rather than an add/remove pair.
func sameIdentity(entry TimeEntry, worklog WorklogEntry) bool {
	return entry.Key == worklog.Key &&
		entry.Start.Truncate(time.Second).Equal(worklog.Start.Truncate(time.Second))
}

// Diff computes the reconciliation plan between tracker entries and Jira
// worklog entries. The tracker is authoritative for start and duration; the
// worklog entry is authoritative for row identity. Result order follows the
// input order. Matching is pairwise over the full cross product, so duplicate
// identities on both sides can over-generate updates; callers must tolerate
// repeated worklog ids in Updated.
func Diff(tracker []TimeEntry, worklogs []WorklogEntry) Plan {
	plan := Plan{
		Added:   []TimeEntry{},
		Updated: []WorklogEntry{},
		Removed: []WorklogEntry{},
	}

	for _, entry := range tracker {
		matched := false
		for _, worklog := range worklogs {
			if sameIdentity(entry, worklog) {
				matched = true
				if entry.DurationSeconds != worklog.DurationSeconds {
					plan.Updated = append(plan.Updated, WorklogEntry{
						Key:             worklog.Key,
						ID:              worklog.ID,
						Start:           entry.Start,
						DurationSeconds: entry.DurationSeconds,
					})
				}
			}
		}
		if !matched {
			plan.Added = append(plan.Added, entry)
		}
	}

	for _, worklog := range worklogs {
		matched := false
		for _, entry := range tracker {
			if sameIdentity(entry, worklog) {
				matched = true
				break
			}
		}
		if !matched {
			plan.Removed = append(plan.Removed, worklog)
		}
	}

	return plan
}
