package mailstats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/openclaw/clawdeck/internal/config"
)

func statsConfig(toolsURL string) *config.Config {
	return &config.Config{
		Gateway: config.GatewayConfig{ToolsURL: toolsURL, AuthToken: "gw-token"},
		Stats:   config.StatsConfig{RefreshInterval: time.Minute, MaxResults: 100},
		Agents: []config.AgentConfig{
			{ID: "althea", Name: "Althea", Email: "althea@trylifescribe.com"},
			{ID: "sage", Name: "Sage", Email: "sage@trylifescribe.com"},
			{ID: "team", Name: "Team"}, // no mailbox
		},
	}
}

func toolResult(text string) map[string]any {
	return map[string]any{
		"ok": true,
		"result": map[string]any{
			"content": []map[string]string{{"text": text}},
		},
	}
}

func TestRefreshAllParsesCounts(t *testing.T) {
	var mu sync.Mutex
	var requests []invokeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer gw-token" {
			t.Errorf("missing gateway auth, got %q", got)
		}
		var req invokeRequest
		json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		requests = append(requests, req)
		mu.Unlock()

		text := "Found 7 messages matching the query"
		if strings.HasPrefix(req.Args.Query, "from:") {
			text = "Found 2 messages matching the query"
		}
		json.NewEncoder(w).Encode(toolResult(text))
	}))
	defer srv.Close()

	got := map[string]Stats{}
	p := NewPoller(statsConfig(srv.URL), func(s Stats) { got[s.AgentID] = s }, nil)
	p.RefreshAll(context.Background())

	for _, id := range []string{"althea", "sage"} {
		s, ok := got[id]
		if !ok {
			t.Fatalf("no stats for %s", id)
		}
		if s.Unread != 7 || s.SentToday != 2 {
			t.Errorf("%s: got unread=%d sent=%d", id, s.Unread, s.SentToday)
		}
	}
	if _, ok := got["team"]; ok {
		t.Error("agents without a mailbox must be skipped")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(requests) != 4 {
		t.Fatalf("expected 4 tool calls, got %d", len(requests))
	}
	if requests[0].Tool != "mail_search" {
		t.Errorf("unexpected tool %q", requests[0].Tool)
	}
	if requests[0].SessionKey != "agent:althea:main" {
		t.Errorf("unexpected session key %q", requests[0].SessionKey)
	}
	if requests[0].Args.Query != "is:unread in:inbox" {
		t.Errorf("unexpected unread query %q", requests[0].Args.Query)
	}
	today := time.Now().Format("2006/01/02")
	want := fmt.Sprintf("from:althea@trylifescribe.com after:%s", today)
	if requests[1].Args.Query != want {
		t.Errorf("sent query = %q, want %q", requests[1].Args.Query, want)
	}
}

func TestAgentFailuresAreIndependent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req invokeRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.SessionKey == "agent:althea:main" {
			http.Error(w, "mailbox unavailable", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(toolResult("Found 1 message"))
	}))
	defer srv.Close()

	var updated, failed []string
	p := NewPoller(statsConfig(srv.URL),
		func(s Stats) { updated = append(updated, s.AgentID) },
		func(agentID string, err error) { failed = append(failed, agentID) })
	p.RefreshAll(context.Background())

	if len(failed) != 1 || failed[0] != "althea" {
		t.Errorf("failed agents = %v, want [althea]", failed)
	}
	if len(updated) != 1 || updated[0] != "sage" {
		t.Errorf("updated agents = %v, want [sage]", updated)
	}
}

func TestUnparsableTextCountsZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(toolResult("No matches."))
	}))
	defer srv.Close()

	var got Stats
	p := NewPoller(statsConfig(srv.URL), func(s Stats) { got = s }, nil)
	p.RefreshAll(context.Background())

	if got.AgentID == "" {
		t.Fatal("expected an update even with zero counts")
	}
	if got.Unread != 0 || got.SentToday != 0 {
		t.Errorf("got unread=%d sent=%d, want zeros", got.Unread, got.SentToday)
	}
}

func TestStartStopIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(toolResult("Found 0 messages"))
	}))
	defer srv.Close()

	p := NewPoller(statsConfig(srv.URL), nil, nil)
	p.Start(context.Background())
	p.Start(context.Background())
	p.Stop()
	p.Stop()
}
