// Package reconcile diffs tracker time entries against Jira worklogs for a
// time window and optionally applies the resulting plan.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/heymagurany/toggl-to-jira/internal/jira"
	"github.com/heymagurany/toggl-to-jira/internal/toggl"
)

// TimeSource fetches tracker entries for a window.
type TimeSource interface {
	TimeEntries(ctx context.Context, start, end time.Time) ([]toggl.TimeEntry, error)
}

// WorklogStore searches and mutates worklogs in the ticket system.
type WorklogStore interface {
	Search(ctx context.Context, req jira.SearchRequest) (*jira.SearchResult, error)
	AddWorklog(ctx context.Context, issueKey string, in jira.WorklogInput) (*jira.Worklog, error)
	UpdateWorklog(ctx context.Context, issueKey, worklogID string, in jira.WorklogInput) (*jira.Worklog, error)
	DeleteWorklog(ctx context.Context, issueKey, worklogID string) error
}

type Reconciler struct {
	tracker TimeSource
	store   WorklogStore
	logger  *slog.Logger
}

func New(tracker TimeSource, store WorklogStore, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{tracker: tracker, store: store, logger: logger}
}

// Run fetches both sides for [start, end], computes the plan and, unless
// dryRun is set, applies it. The returned plan reflects only mutations that
// actually succeeded. A failure to fetch from either service aborts the run.
func (r *Reconciler) Run(ctx context.Context, start, end time.Time, dryRun bool) (*Plan, error) {
	var (
		wg           sync.WaitGroup
		rawEntries   []toggl.TimeEntry
		searchResult *jira.SearchResult
		trackerErr   error
		searchErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		rawEntries, trackerErr = r.tracker.TimeEntries(ctx, start, end)
	}()
	go func() {
		defer wg.Done()
		searchResult, searchErr = r.store.Search(ctx, jira.SearchRequest{
			JQL:        worklogJQL(start, end),
			StartAt:    0,
			MaxResults: 1000,
			Fields:     []string{"worklog"},
		})
	}()
	wg.Wait()

	if err := errors.Join(trackerErr, searchErr); err != nil {
		return nil, err
	}

	if searchResult.Truncated() {
		r.logger.Warn("search result does not contain all matches", "total", searchResult.Total, "maxResults", searchResult.MaxResults)
	}

	plan := Diff(
		NormalizeTimeEntries(rawEntries),
		NormalizeWorklogs(searchResult, start, end, r.logger),
	)

	if dryRun {
		return &plan, nil
	}
	return r.apply(ctx, plan), nil
}

// apply executes the plan in three phases, add then update then remove. Each
// phase fans out over its items concurrently and settles completely before
// the next phase starts. A failed item is logged and dropped from the
// returned plan; it never aborts its siblings.
func (r *Reconciler) apply(ctx context.Context, plan Plan) *Plan {
	emptyComment := ""

	applied := &Plan{}
	applied.Added = applyBatch(plan.Added,
		func(entry TimeEntry) error {
			_, err := r.store.AddWorklog(ctx, entry.Key, jira.WorklogInput{
				Comment:          &emptyComment,
				Started:          jira.Time{Time: entry.Start},
				TimeSpentSeconds: entry.DurationSeconds,
			})
			return err
		},
		func(entry TimeEntry, err error) {
			r.logger.Error("failed to add worklog", "key", entry.Key, "error", err)
		})

	applied.Updated = applyBatch(plan.Updated,
		func(entry WorklogEntry) error {
			_, err := r.store.UpdateWorklog(ctx, entry.Key, entry.ID, jira.WorklogInput{
				Started:          jira.Time{Time: entry.Start},
				TimeSpentSeconds: entry.DurationSeconds,
			})
			return err
		},
		func(entry WorklogEntry, err error) {
			r.logger.Error("failed to update worklog", "key", entry.Key, "id", entry.ID, "error", err)
		})

	applied.Removed = applyBatch(plan.Removed,
		func(entry WorklogEntry) error {
			return r.store.DeleteWorklog(ctx, entry.Key, entry.ID)
		},
		func(entry WorklogEntry, err error) {
			r.logger.Error("failed to delete worklog", "key", entry.Key, "id", entry.ID, "error", err)
		})

	return applied
}

// applyBatch runs op for every item concurrently, waits for all of them, and
// returns the items whose op succeeded, in input order. Outcomes are
// collected per index so completion order cannot mix results up.
func applyBatch[T any](items []T, op func(T) error, onFailure func(T, error)) []T {
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = op(items[i])
		}(i)
	}
	wg.Wait()

	kept := make([]T, 0, len(items))
	for i, err := range errs {
		if err != nil {
			onFailure(items[i], err)
			continue
		}
		kept = append(kept, items[i])
	}
	return kept
}

// worklogJQL builds the search clause for worklogs authored by the current
// user within the window. Jira's worklogDate has day granularity, so the
// window edges are widened to inclusive dates and the normalizer re-filters
// by second.
func worklogJQL(start, end time.Time) string {
	return fmt.Sprintf(
		"worklogAuthor = currentUser() AND worklogDate >= %s AND worklogDate <= %s",
		start.UTC().Format("2006-01-02"),
		end.UTC().Format("2006-01-02"),
	)
}
