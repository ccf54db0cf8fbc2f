package espn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type recordedQuery struct {
	url        string
	statusCode int
}

type fakeRecorder struct {
	mu      sync.Mutex
	queries []recordedQuery
}

func (r *fakeRecorder) RecordQuery(_ context.Context, url string, statusCode int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, recordedQuery{url: url, statusCode: statusCode})
}

func TestClient_FetchScoreboardGames(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/scoreboard" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("dates"); got != "20231125" {
			t.Errorf("unexpected dates param: %s", got)
		}
		if got := r.URL.Query().Get("groups"); got != "80" {
			t.Errorf("unexpected groups param: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"events":[{"id":"401520163","date":"2023-11-25T17:00Z","competitions":[{"broadcast":"ABC","competitors":[]}]}]}`))
	}))
	defer server.Close()

	recorder := &fakeRecorder{}
	client := NewClient(ClientConfig{BaseURL: server.URL, Recorder: recorder})

	games, err := client.FetchScoreboardGames(context.Background(), time.Date(2023, 11, 25, 12, 0, 0, 0, time.UTC), "")
	if err != nil {
		t.Fatalf("fetch scoreboard: %v", err)
	}
	if len(games) != 1 || games[0].ID != "401520163" {
		t.Fatalf("unexpected games: %+v", games)
	}

	if len(recorder.queries) != 1 {
		t.Fatalf("expected one audited query, got=%d", len(recorder.queries))
	}
	if recorder.queries[0].statusCode != http.StatusOK {
		t.Fatalf("unexpected audited status: %d", recorder.queries[0].statusCode)
	}
}

func TestClient_FetchScoringEvents_EmptySummary(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("event"); got != "401520163" {
			t.Errorf("unexpected event param: %s", got)
		}
		_, _ = w.Write([]byte(`{"header":{"id":"401520163","competitions":[{"status":{"type":{"completed":false}}}]}}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL})

	events, err := client.FetchScoringEvents(context.Background(), "401520163")
	if err != nil {
		t.Fatalf("fetch scoring events: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events for a summary without drives, got=%d", len(events))
	}
}

func TestClient_NonRetryableStatusFailsFast(t *testing.T) {
	t.Parallel()

	var calls int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	recorder := &fakeRecorder{}
	client := NewClient(ClientConfig{BaseURL: server.URL, MaxRetries: 3, Recorder: recorder})

	if _, err := client.FetchTeamStreak(context.Background(), "228"); err == nil {
		t.Fatal("expected error for 404 response")
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("non-retryable status must not be retried, calls=%d", calls)
	}
	if len(recorder.queries) != 1 || recorder.queries[0].statusCode != http.StatusNotFound {
		t.Fatalf("expected audited 404, got=%+v", recorder.queries)
	}
}
