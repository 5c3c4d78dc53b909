package jira

import (
	"encoding/json"
	"time"
)

// timeLayout is the timestamp format Jira uses for worklog and issue dates.
const timeLayout = "2006-01-02T15:04:05.000-0700"

// Time wraps time.Time to handle Jira's timestamp format, which is close to
// RFC 3339 but drops the colon from the zone offset.
type Time struct {
	time.Time
}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(timeLayout))
}

func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(timeLayout, s)
	if err != nil {
		// Some Jira deployments return plain RFC 3339.
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
	}
	t.Time = parsed
	return nil
}

// User identifies a Jira account.
type User struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName,omitempty"`
}

// IssueType describes the type of an issue (story, sub-task, epic, ...).
type IssueType struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Subtask bool   `json:"subtask,omitempty"`
}

// Worklog is a single time record attached to an issue.
type Worklog struct {
	ID               string `json:"id"`
	Started          Time   `json:"started"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
	Author           User   `json:"author"`
	Comment          string `json:"comment,omitempty"`
}

// WorklogList is a page of worklogs. Total greater than MaxResults means the
// page is truncated.
type WorklogList struct {
	StartAt    int       `json:"startAt"`
	MaxResults int       `json:"maxResults"`
	Total      int       `json:"total"`
	Worklogs   []Worklog `json:"worklogs"`
}

// Truncated reports whether the server holds more records than this page.
func (l *WorklogList) Truncated() bool {
	return l.Total > l.MaxResults
}

// Issue is a Jira issue with the fields the pipelines care about. Custom
// fields (the epic link lives in one) are kept as raw JSON and read through
// EpicKey, so the field id stays configuration, not code.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

type IssueFields struct {
	IssueType IssueType    `json:"issuetype"`
	Parent    *Issue       `json:"parent,omitempty"`
	Subtasks  []Issue      `json:"subtasks,omitempty"`
	Worklog   *WorklogList `json:"worklog,omitempty"`

	custom map[string]json.RawMessage
}

type issueFieldsAlias IssueFields

func (f *IssueFields) UnmarshalJSON(data []byte) error {
	var a issueFieldsAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.custom = raw
	*f = IssueFields(a)
	return nil
}

// EpicKey returns the value of the epic link custom field, or "" when the
// field is absent, null, or not a string.
func (i *Issue) EpicKey(fieldID string) string {
	raw, ok := i.Fields.custom[fieldID]
	if !ok {
		return ""
	}
	var key string
	if err := json.Unmarshal(raw, &key); err != nil {
		return ""
	}
	return key
}

// SearchRequest is the body of a POST /search call.
type SearchRequest struct {
	JQL        string   `json:"jql"`
	StartAt    int      `json:"startAt"`
	MaxResults int      `json:"maxResults"`
	Fields     []string `json:"fields,omitempty"`
	Expand     []string `json:"expand,omitempty"`
}

// SearchResult is a page of issues matching a search.
type SearchResult struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// Truncated reports whether the search matched more issues than were returned.
func (r *SearchResult) Truncated() bool {
	return r.Total > r.MaxResults
}

// WorklogInput is the payload for creating or updating a worklog. Comment is
// a pointer so updates can leave the existing comment alone while creates
// send an explicit empty one.
type WorklogInput struct {
	Comment          *string `json:"comment,omitempty"`
	Started          Time    `json:"started"`
	TimeSpentSeconds int     `json:"timeSpentSeconds"`
}
