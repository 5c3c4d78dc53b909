// Package jira provides a typed client for the Jira Cloud REST API, covering
// the search, issue, and worklog operations the sync and epic pipelines use.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/heymagurany/toggl-to-jira/internal/credentials"
)

const apiPrefix = "/rest/api/2"

type Client struct {
	baseURL    string
	creds      credentials.Provider
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(baseURL string, creds credentials.Provider) *Client {
	return &Client{
		baseURL:    baseURL,
		creds:      creds,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		// Jira Cloud starts shaping traffic around 10 req/s per user.
		limiter: rate.NewLimiter(rate.Limit(8), 8),
	}
}

// Search runs a JQL search via POST /search.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	var result SearchResult
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/search", req, &result); err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return &result, nil
}

// Myself returns the account the credentials authenticate as.
func (c *Client) Myself(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/myself", nil, &user); err != nil {
		return nil, fmt.Errorf("failed to fetch current user: %w", err)
	}
	return &user, nil
}

// Issue fetches a single issue restricted to the given fields.
func (c *Client) Issue(ctx context.Context, key string, fields []string) (*Issue, error) {
	if key == "" {
		return nil, fmt.Errorf("empty issue key")
	}
	path := apiPrefix + "/issue/" + url.PathEscape(key)
	if len(fields) > 0 {
		q := url.Values{}
		for _, f := range fields {
			q.Add("fields", f)
		}
		path += "?" + q.Encode()
	}
	var issue Issue
	if err := c.do(ctx, http.MethodGet, path, nil, &issue); err != nil {
		return nil, fmt.Errorf("failed to fetch issue %s: %w", key, err)
	}
	return &issue, nil
}

// Worklogs fetches the worklogs attached to an issue.
func (c *Client) Worklogs(ctx context.Context, issueKey string) (*WorklogList, error) {
	if issueKey == "" {
		return nil, fmt.Errorf("empty issue key")
	}
	var list WorklogList
	path := apiPrefix + "/issue/" + url.PathEscape(issueKey) + "/worklog"
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, fmt.Errorf("failed to fetch worklogs for %s: %w", issueKey, err)
	}
	return &list, nil
}

// AddWorklog creates a worklog on an issue.
func (c *Client) AddWorklog(ctx context.Context, issueKey string, in WorklogInput) (*Worklog, error) {
	var created Worklog
	path := apiPrefix + "/issue/" + url.PathEscape(issueKey) + "/worklog"
	if err := c.do(ctx, http.MethodPost, path, in, &created); err != nil {
		return nil, fmt.Errorf("failed to add worklog to %s: %w", issueKey, err)
	}
	return &created, nil
}

// UpdateWorklog replaces the start and duration of an existing worklog.
func (c *Client) UpdateWorklog(ctx context.Context, issueKey, worklogID string, in WorklogInput) (*Worklog, error) {
	var updated Worklog
	path := apiPrefix + "/issue/" + url.PathEscape(issueKey) + "/worklog/" + url.PathEscape(worklogID)
	if err := c.do(ctx, http.MethodPut, path, in, &updated); err != nil {
		return nil, fmt.Errorf("failed to update worklog %s on %s: %w", worklogID, issueKey, err)
	}
	return &updated, nil
}

// DeleteWorklog removes a worklog from an issue.
func (c *Client) DeleteWorklog(ctx context.Context, issueKey, worklogID string) error {
	path := apiPrefix + "/issue/" + url.PathEscape(issueKey) + "/worklog/" + url.PathEscape(worklogID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete worklog %s on %s: %w", worklogID, issueKey, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	creds, err := c.creds.Credentials(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve credentials: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(creds.Username, creds.Password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
