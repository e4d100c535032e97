package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestListDraftsQuery(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{
			"drafts": []Draft{{ID: 1, Subject: "Invoice overdue", Status: StatusPending}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", time.Second)
	drafts, err := c.ListDrafts(context.Background(), "pending", "invoice", 100)
	if err != nil {
		t.Fatalf("ListDrafts: %v", err)
	}
	if gotPath != "/api/v1/queue/drafts" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if gotQuery != "limit=100&search=invoice&status=pending" {
		t.Errorf("unexpected query %s", gotQuery)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("unexpected auth header %s", gotAuth)
	}
	if len(drafts) != 1 || drafts[0].Subject != "Invoice overdue" {
		t.Errorf("unexpected drafts: %+v", drafts)
	}
}

func TestListDraftsAllOmitsStatus(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]any{"drafts": []Draft{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", time.Second)
	if _, err := c.ListDrafts(context.Background(), "all", "", 0); err != nil {
		t.Fatalf("ListDrafts: %v", err)
	}
	if gotQuery != "limit=100" {
		t.Errorf("status=all must not be forwarded, got %s", gotQuery)
	}
}

func TestApproveDraft(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", time.Second)
	if err := c.ApproveDraft(context.Background(), 42); err != nil {
		t.Fatalf("ApproveDraft: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/api/v1/queue/drafts/42/approve" {
		t.Errorf("unexpected request %s %s", gotMethod, gotPath)
	}
}

func TestEditDraftBody(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", time.Second)
	if err := c.EditDraft(context.Background(), 7, "Dear customer, ..."); err != nil {
		t.Fatalf("EditDraft: %v", err)
	}
	if gotBody["response"] != "Dear customer, ..." {
		t.Errorf("unexpected body %v", gotBody)
	}
}

func TestErrorResponseSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "draft already sent"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", time.Second)
	err := c.ApproveDraft(context.Background(), 9)
	apiErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T (%v)", err, err)
	}
	if apiErr.StatusCode != http.StatusConflict || apiErr.Message != "draft already sent" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"token": "fresh-token",
			"user":  User{ID: "u1", Email: "op@example.com", Role: "admin"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	user, err := c.Login(context.Background(), "op@example.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Role != "admin" {
		t.Errorf("unexpected user %+v", user)
	}
	if c.Token() != "fresh-token" {
		t.Errorf("token not stored, got %q", c.Token())
	}
}

func TestQueueStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"stats": Stats{Total: 10, Pending: 3, Sent: 6, Deleted: 1},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", time.Second)
	stats, err := c.QueueStats(context.Background())
	if err != nil {
		t.Fatalf("QueueStats: %v", err)
	}
	if stats.Pending != 3 || stats.Total != 10 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestToggleMonitor(t *testing.T) {
	var gotBody map[string]bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"status": MonitorStatus{Enabled: true, ProcessedCount: 12},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", time.Second)
	status, err := c.ToggleMonitor(context.Background(), true)
	if err != nil {
		t.Fatalf("ToggleMonitor: %v", err)
	}
	if !gotBody["enabled"] {
		t.Error("enabled flag not sent")
	}
	if !status.Enabled || status.ProcessedCount != 12 {
		t.Errorf("unexpected status %+v", status)
	}
}
