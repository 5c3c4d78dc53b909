// Package epic rolls logged time up from a tree of issues to the epic each
// issue belongs to. Issues inherit the epic key of the nearest ancestor that
// declares one; time on issues with no epic anywhere above them lands under
// the "(none)" sentinel.
package epic

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heymagurany/toggl-to-jira/internal/jira"
)

// NoEpic is the grouping key for time that cannot be attributed to any epic.
const NoEpic = "(none)"

// Aggregate is the rolled-up time for one grouping key.
type Aggregate struct {
	TimeSpentSeconds int `json:"timeSpentSeconds"`
	TimeSpentPercent int `json:"timeSpentPercent"`
}

// Client is the slice of the Jira API the aggregator needs.
type Client interface {
	Search(ctx context.Context, req jira.SearchRequest) (*jira.SearchResult, error)
	Myself(ctx context.Context) (*jira.User, error)
	Issue(ctx context.Context, key string, fields []string) (*jira.Issue, error)
	Worklogs(ctx context.Context, issueKey string) (*jira.WorklogList, error)
}

// Options configure which custom field holds the epic link and which issue
// type id marks an epic. Zero values fall back to the classic Jira defaults.
type Options struct {
	EpicField     string
	EpicIssueType string
}

type Aggregator struct {
	client        Client
	epicField     string
	epicIssueType string
	logger        *slog.Logger
}

func New(client Client, opts Options, logger *slog.Logger) *Aggregator {
	if opts.EpicField == "" {
		opts.EpicField = "customfield_10300"
	}
	if opts.EpicIssueType == "" {
		opts.EpicIssueType = "6"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		client:        client,
		epicField:     opts.EpicField,
		epicIssueType: opts.EpicIssueType,
		logger:        logger,
	}
}

// Aggregate sums the current user's logged seconds per epic key for worklogs
// started within [start, end] (inclusive both ends) and converts the sums to
// a percentage of workingSeconds.
func (a *Aggregator) Aggregate(ctx context.Context, start, end time.Time, workingSeconds int) (map[string]Aggregate, error) {
	me, err := a.client.Myself(ctx)
	if err != nil {
		return nil, err
	}

	result, err := a.client.Search(ctx, jira.SearchRequest{
		JQL:        worklogJQL(start, end),
		StartAt:    0,
		MaxResults: 1000,
		Fields:     a.issueFields(),
	})
	if err != nil {
		return nil, err
	}
	if result.Truncated() {
		a.logger.Warn("search result does not contain all matches", "total", result.Total, "maxResults", result.MaxResults)
	}

	issues, err := a.expandParents(ctx, result.Issues)
	if err != nil {
		return nil, err
	}

	walk := &walker{
		agg:       a,
		accountID: me.AccountID,
		start:     start,
		end:       end,
		sums:      make(map[string]int),
		visited:   make(map[string]bool),
		byKey:     indexByKey(issues),
	}

	// Issues whose parent is part of the set are reached through that
	// parent's subtask recursion, so the inherited epic key flows top-down.
	for i := range issues {
		issue := &issues[i]
		if parent := issue.Fields.Parent; parent != nil {
			if _, ok := walk.byKey[parent.Key]; ok {
				continue
			}
		}
		if err := walk.visit(ctx, issue, ""); err != nil {
			return nil, err
		}
	}

	// Time logged directly on an epic is invisible to the subtask-rooted
	// traversal; pick it up from the original search result.
	for i := range result.Issues {
		issue := &result.Issues[i]
		if !a.isEpic(issue) {
			continue
		}
		seconds, err := walk.loggedSeconds(ctx, issue.Key)
		if err != nil {
			return nil, err
		}
		walk.sums[issue.Key] += seconds
	}

	aggregates := make(map[string]Aggregate, len(walk.sums))
	for key, seconds := range walk.sums {
		aggregates[key] = Aggregate{
			TimeSpentSeconds: seconds,
			TimeSpentPercent: percentOf(seconds, workingSeconds),
		}
	}
	return aggregates, nil
}

// expandParents adds the immediate parent of every subtask-originated issue
// that the search did not return, so the story hosting a subtask is part of
// the walk even when it authored no worklog itself. The union is keyed by
// issue key, first occurrence wins.
func (a *Aggregator) expandParents(ctx context.Context, issues []jira.Issue) ([]jira.Issue, error) {
	expanded := make([]jira.Issue, len(issues))
	copy(expanded, issues)

	seen := make(map[string]bool, len(expanded))
	for _, issue := range expanded {
		seen[issue.Key] = true
	}

	for i := range issues {
		parent := issues[i].Fields.Parent
		if parent == nil || seen[parent.Key] {
			continue
		}
		full, err := a.client.Issue(ctx, parent.Key, a.issueFields())
		if err != nil {
			return nil, fmt.Errorf("failed to resolve parent of %s: %w", issues[i].Key, err)
		}
		expanded = append(expanded, *full)
		seen[full.Key] = true
	}
	return expanded, nil
}

func (a *Aggregator) issueFields() []string {
	return []string{a.epicField, "subtasks", "issuetype", "parent"}
}

func (a *Aggregator) isEpic(issue *jira.Issue) bool {
	return issue.Fields.IssueType.ID == a.epicIssueType
}

type walker struct {
	agg       *Aggregator
	accountID string
	start     time.Time
	end       time.Time
	sums      map[string]int
	visited   map[string]bool
	byKey     map[string]*jira.Issue
}

// visit attributes the issue's matching worklog seconds to its effective
// grouping key and recurses into its subtasks, handing the key down. Each
// issue is counted at most once per run.
func (w *walker) visit(ctx context.Context, issue *jira.Issue, inherited string) error {
	if w.visited[issue.Key] {
		return nil
	}
	w.visited[issue.Key] = true

	if w.agg.isEpic(issue) {
		// Direct epic time is handled by the post-walk pass.
		return nil
	}

	groupKey := issue.EpicKey(w.agg.epicField)
	if groupKey == "" {
		groupKey = inherited
	}
	if groupKey == "" {
		groupKey = NoEpic
	}

	seconds, err := w.loggedSeconds(ctx, issue.Key)
	if err != nil {
		return err
	}
	w.sums[groupKey] += seconds

	for i := range issue.Fields.Subtasks {
		subtask := &issue.Fields.Subtasks[i]
		// Search results embed subtasks as stubs; prefer the full node when
		// the search returned one.
		if full, ok := w.byKey[subtask.Key]; ok {
			subtask = full
		}
		if err := w.visit(ctx, subtask, groupKey); err != nil {
			return err
		}
	}
	return nil
}

// loggedSeconds fetches the issue's worklogs and sums the ones authored by
// the current user within the window.
func (w *walker) loggedSeconds(ctx context.Context, issueKey string) (int, error) {
	list, err := w.agg.client.Worklogs(ctx, issueKey)
	if err != nil {
		return 0, err
	}
	if list.Truncated() {
		w.agg.logger.Warn("worklog page does not contain all results", "issue", issueKey, "total", list.Total, "maxResults", list.MaxResults)
	}

	total := 0
	for _, worklog := range list.Worklogs {
		if worklog.Author.AccountID != w.accountID {
			continue
		}
		if !withinWindow(worklog.Started.Time, w.start, w.end) {
			continue
		}
		total += worklog.TimeSpentSeconds
	}
	return total, nil
}

func indexByKey(issues []jira.Issue) map[string]*jira.Issue {
	byKey := make(map[string]*jira.Issue, len(issues))
	for i := range issues {
		if _, ok := byKey[issues[i].Key]; !ok {
			byKey[issues[i].Key] = &issues[i]
		}
	}
	return byKey
}

// percentOf is ceil(seconds / workingSeconds * 100). It can exceed 100.
func percentOf(seconds, workingSeconds int) int {
	if workingSeconds <= 0 || seconds <= 0 {
		return 0
	}
	return (seconds*100 + workingSeconds - 1) / workingSeconds
}

func withinWindow(t, start, end time.Time) bool {
	t = t.Truncate(time.Second)
	return !t.Before(start.Truncate(time.Second)) && !t.After(end.Truncate(time.Second))
}

func worklogJQL(start, end time.Time) string {
	return fmt.Sprintf(
		"worklogAuthor = currentUser() AND worklogDate >= %s AND worklogDate <= %s",
		start.UTC().Format("2006-01-02"),
		end.UTC().Format("2006-01-02"),
	)
}
