// Package jira walks the Jira Agile API: boards by project key, sprints by
// board, issues by sprint. There is no agile-API client library in use
// anywhere else in the codebase, so this speaks plain HTTP with bearer auth.
package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/teamlens/teamlens/internal/analytics"
	"github.com/teamlens/teamlens/internal/domain"
)

const maxIssuesPerSprint = 1000

type Client struct {
	baseURL    string
	token      string
	fieldChain []string
	httpClient *http.Client
	log        *slog.Logger
}

func New(baseURL, token string, fieldChain []string, log *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		fieldChain: fieldChain,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

type boardsResponse struct {
	Values []struct {
		ID int64 `json:"id"`
	} `json:"values"`
}

type sprintsResponse struct {
	Values []sprintPayload `json:"values"`
}

type sprintPayload struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	State        string `json:"state"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	CompleteDate string `json:"completeDate"`
}

type issuesResponse struct {
	Issues []issuePayload `json:"issues"`
}

type issuePayload struct {
	Key    string                     `json:"key"`
	Fields map[string]json.RawMessage `json:"fields"`
}

type statusField struct {
	StatusCategory struct {
		Key string `json:"key"`
	} `json:"statusCategory"`
}

// FetchSprintsWithIssues resolves the project's board, lists its closed and
// active sprints, and reduces each sprint's issues to point metrics.
// Only the first board returned for the project is used; multi-board
// projects are not disambiguated.
func (c *Client) FetchSprintsWithIssues(ctx context.Context, projectKey string) ([]domain.Sprint, error) {
	const op = "internal.client.jira.FetchSprintsWithIssues"

	var boards boardsResponse
	if err := c.get(ctx, "rest/agile/1.0/board?projectKeyOrId="+url.QueryEscape(projectKey), &boards); err != nil {
		return nil, fmt.Errorf("%s: failed to fetch boards: %w", op, err)
	}

	if len(boards.Values) == 0 {
		c.log.Warn("no jira boards found", slog.String("project", projectKey))
		return nil, nil
	}

	boardID := boards.Values[0].ID

	var sprints sprintsResponse
	path := fmt.Sprintf("rest/agile/1.0/board/%d/sprint?state=closed,active", boardID)
	if err := c.get(ctx, path, &sprints); err != nil {
		return nil, fmt.Errorf("%s: failed to fetch sprints for board %d: %w", op, boardID, err)
	}

	records := make([]domain.Sprint, 0, len(sprints.Values))

	for _, sp := range sprints.Values {
		var issuesResp issuesResponse
		path := fmt.Sprintf("rest/agile/1.0/sprint/%d/issue?maxResults=%d", sp.ID, maxIssuesPerSprint)
		if err := c.get(ctx, path, &issuesResp); err != nil {
			return nil, fmt.Errorf("%s: failed to fetch issues for sprint %d: %w", op, sp.ID, err)
		}

		issues := make([]domain.SprintIssue, 0, len(issuesResp.Issues))
		for _, is := range issuesResp.Issues {
			issues = append(issues, c.reduceIssue(is))
		}

		metrics := analytics.SprintMetrics(issues)

		raw, _ := json.Marshal(sp)

		records = append(records, domain.Sprint{
			ID:              sp.ID,
			BoardID:         boardID,
			Name:            sp.Name,
			State:           sp.State,
			StartDate:       parseJiraTime(sp.StartDate),
			EndDate:         parseJiraTime(sp.EndDate),
			CompleteDate:    parseJiraTime(sp.CompleteDate),
			CommittedPoints: metrics.CommittedPoints,
			CompletedPoints: metrics.CompletedPoints,
			CompletionRate:  metrics.CompletionRate,
			IssueCount:      metrics.IssueCount,
			RawJSON:         string(raw),
		})
	}

	return records, nil
}

// reduceIssue extracts story points via the configured fallback chain
// (first non-empty field wins) and done-ness from the status category key.
func (c *Client) reduceIssue(is issuePayload) domain.SprintIssue {
	out := domain.SprintIssue{Key: is.Key}

	for _, field := range c.fieldChain {
		raw, ok := is.Fields[field]
		if !ok {
			continue
		}

		if points, ok := parsePoints(raw); ok {
			out.StoryPoints = points
			break
		}
	}

	if raw, ok := is.Fields["status"]; ok {
		var status statusField
		if err := json.Unmarshal(raw, &status); err == nil {
			out.Done = status.StatusCategory.Key == "done"
		}
	}

	return out
}

func (c *Client) get(ctx context.Context, path string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func parsePoints(raw json.RawMessage) (float64, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, false
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}

	// Some instances store the estimate as a quoted string.
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
			return f, true
		}
	}

	return 0, false
}

var jiraTimeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	time.RFC3339,
	"2006-01-02",
}

func parseJiraTime(s string) *time.Time {
	if s == "" {
		return nil
	}

	for _, layout := range jiraTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			utc := t.UTC()
			return &utc
		}
	}

	return nil
}
