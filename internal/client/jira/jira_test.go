package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchSprintsWithIssues(t *testing.T) {
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		switch r.URL.Path {
		case "/rest/agile/1.0/board":
			assert.Equal(t, "AAP", r.URL.Query().Get("projectKeyOrId"))
			fmt.Fprint(w, `{"values":[{"id":7},{"id":8}]}`)
		case "/rest/agile/1.0/board/7/sprint":
			assert.Equal(t, "closed,active", r.URL.Query().Get("state"))
			fmt.Fprint(w, `{"values":[{
				"id":42,"name":"Sprint 42","state":"closed",
				"startDate":"2025-05-01T09:00:00.000+0700",
				"endDate":"2025-05-14T18:00:00.000+0700",
				"completeDate":"2025-05-14T18:30:00.000+0700"
			}]}`)
		case "/rest/agile/1.0/sprint/42/issue":
			fmt.Fprint(w, `{"issues":[
				{"key":"AAP-1","fields":{
					"customfield_10031":3,
					"status":{"statusCategory":{"key":"done"}}}},
				{"key":"AAP-2","fields":{
					"customfield_10031":null,
					"customfield_10016":"5",
					"status":{"statusCategory":{"key":"indeterminate"}}}}
			]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", []string{"customfield_10031", "customfield_10016"}, testLogger())

	sprints, err := c.FetchSprintsWithIssues(context.Background(), "AAP")
	require.NoError(t, err)
	require.Len(t, sprints, 1)

	assert.Equal(t, "Bearer secret", gotAuth)

	sp := sprints[0]
	assert.Equal(t, int64(42), sp.ID)
	// First board wins, even with several boards on the project.
	assert.Equal(t, int64(7), sp.BoardID)
	assert.Equal(t, "closed", sp.State)

	// 3 done + 5 not done via the string-typed fallback field.
	assert.InDelta(t, 8.0, sp.CommittedPoints, 1e-9)
	assert.InDelta(t, 3.0, sp.CompletedPoints, 1e-9)
	assert.InDelta(t, 37.5, sp.CompletionRate, 1e-9)
	assert.Equal(t, 2, sp.IssueCount)

	require.NotNil(t, sp.StartDate)
	assert.Equal(t, time.Date(2025, 5, 1, 2, 0, 0, 0, time.UTC), *sp.StartDate)
	require.NotNil(t, sp.CompleteDate)
}

func TestFetchSprintsWithIssues_NoBoards(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"values":[]}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", nil, testLogger())

	sprints, err := c.FetchSprintsWithIssues(context.Background(), "AAP")
	require.NoError(t, err)
	assert.Empty(t, sprints)
}

func TestFetchSprintsWithIssues_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", nil, testLogger())

	_, err := c.FetchSprintsWithIssues(context.Background(), "AAP")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}

func TestParsePoints(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   float64
		wantOK bool
	}{
		{name: "number", raw: "5", want: 5, wantOK: true},
		{name: "fractional", raw: "0.5", want: 0.5, wantOK: true},
		{name: "quoted string", raw: `"8"`, want: 8, wantOK: true},
		{name: "null", raw: "null"},
		{name: "empty", raw: ""},
		{name: "object", raw: `{"value":3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parsePoints(json.RawMessage(tt.raw))

			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseJiraTime(t *testing.T) {
	assert.Nil(t, parseJiraTime(""))
	assert.Nil(t, parseJiraTime("garbage"))

	got := parseJiraTime("2025-05-01T09:00:00.000+0700")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2025, 5, 1, 2, 0, 0, 0, time.UTC), *got)

	got = parseJiraTime("2025-05-01")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), *got)
}
