package dashboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/openclaw/clawdeck/internal/api"
	"github.com/openclaw/clawdeck/internal/bus"
	"github.com/openclaw/clawdeck/internal/state"
)

// The real REST client must slot in where the fake does.
var _ QueueClient = (*api.Client)(nil)

type fakeQueueClient struct {
	mu        sync.Mutex
	drafts    []api.Draft
	stats     api.Stats
	listCalls []listCall
	approves  []int64
	edits     map[int64]string
	deletes   []int64
	failWith  error
}

type listCall struct {
	status, search string
}

func (c *fakeQueueClient) ListDrafts(_ context.Context, status, search string, _ int) ([]api.Draft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listCalls = append(c.listCalls, listCall{status: status, search: search})
	out := make([]api.Draft, len(c.drafts))
	copy(out, c.drafts)
	return out, nil
}

func (c *fakeQueueClient) ApproveDraft(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return c.failWith
	}
	c.approves = append(c.approves, id)
	return nil
}

func (c *fakeQueueClient) EditDraft(_ context.Context, id int64, response string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return c.failWith
	}
	if c.edits == nil {
		c.edits = map[int64]string{}
	}
	c.edits[id] = response
	return nil
}

func (c *fakeQueueClient) DeleteDraft(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return c.failWith
	}
	c.deletes = append(c.deletes, id)
	return nil
}

func (c *fakeQueueClient) QueueStats(context.Context) (api.Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats, nil
}

func (c *fakeQueueClient) listCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listCalls)
}

type fakeConfirmer struct {
	answer bool
	asked  []string
}

func (c *fakeConfirmer) Confirm(title, _ string) bool {
	c.asked = append(c.asked, title)
	return c.answer
}

type fakeNotifier struct {
	mu     sync.Mutex
	toasts []string
}

func (n *fakeNotifier) Toast(level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, level+": "+message)
}

func (n *fakeNotifier) has(prefix string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, s := range n.toasts {
		if len(s) >= len(prefix) && s[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

func newQueueFixture(t *testing.T, confirm bool) (*QueuePanel, *fakeQueueClient, *fakeConfirmer, *fakeNotifier, *bus.Bus) {
	t.Helper()
	prefs := state.New(t.TempDir(), state.DefaultPreferences())
	prefs.SetDebounce(0)
	b := bus.New()
	client := &fakeQueueClient{
		drafts: []api.Draft{
			{ID: 1, FromAddress: "ada@example.com", Subject: "Invoice", Status: api.StatusPending},
			{ID: 2, FromAddress: "bob@example.com", Subject: "Refund", Status: api.StatusPending},
		},
		stats: api.Stats{Total: 2, Pending: 2},
	}
	conf := &fakeConfirmer{answer: confirm}
	notify := &fakeNotifier{}
	p := NewQueuePanel(client, prefs, b, conf, notify, nil)
	return p, client, conf, notify, b
}

func TestActivateLoadsListAndStats(t *testing.T) {
	p, client, _, _, _ := newQueueFixture(t, true)

	if err := p.OnActivate(context.Background(), nil); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if got := len(p.Drafts()); got != 2 {
		t.Errorf("expected 2 drafts, got %d", got)
	}
	if p.Stats().Pending != 2 {
		t.Errorf("stats not loaded: %+v", p.Stats())
	}
	if client.listCount() != 1 {
		t.Errorf("expected one list call, got %d", client.listCount())
	}
	if p.Badge() {
		t.Error("badge must clear on activation")
	}
}

func TestSearchBurstCollapsesToOneRequest(t *testing.T) {
	p, client, _, _, _ := newQueueFixture(t, true)
	p.SetDebounce(30 * time.Millisecond)
	p.OnActivate(context.Background(), nil)
	base := client.listCount()

	p.SetSearch("i")
	p.SetSearch("in")
	p.SetSearch("invoice")

	time.Sleep(10 * time.Millisecond)
	if client.listCount() != base {
		t.Fatal("request fired inside the debounce window")
	}
	time.Sleep(60 * time.Millisecond)

	client.mu.Lock()
	defer client.mu.Unlock()
	if got := len(client.listCalls) - base; got != 1 {
		t.Fatalf("expected exactly one search request, got %d", got)
	}
	last := client.listCalls[len(client.listCalls)-1]
	if last.search != "invoice" {
		t.Errorf("search = %q, want invoice", last.search)
	}
}

func TestApproveRequiresConfirmation(t *testing.T) {
	p, client, conf, _, _ := newQueueFixture(t, false)
	p.OnActivate(context.Background(), nil)

	if err := p.Approve(context.Background(), 1); err != nil {
		t.Fatalf("declined approve must not error: %v", err)
	}
	if len(conf.asked) != 1 {
		t.Fatalf("confirmation not requested")
	}
	if len(client.approves) != 0 {
		t.Error("declined confirmation must not fire the request")
	}
}

func TestApproveSuccessReloads(t *testing.T) {
	p, client, _, notify, _ := newQueueFixture(t, true)
	p.OnActivate(context.Background(), nil)
	base := client.listCount()

	if err := p.Approve(context.Background(), 1); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if len(client.approves) != 1 || client.approves[0] != 1 {
		t.Errorf("approves = %v", client.approves)
	}
	if client.listCount() != base+1 {
		t.Error("success must trigger a full reload")
	}
	if !notify.has("success") {
		t.Errorf("missing success toast: %v", notify.toasts)
	}
}

func TestApproveFailureLeavesStateUntouched(t *testing.T) {
	p, client, _, notify, _ := newQueueFixture(t, true)
	p.OnActivate(context.Background(), nil)
	before := p.Drafts()
	base := client.listCount()
	client.failWith = &api.Error{StatusCode: 409, Message: "already sent"}

	if err := p.Approve(context.Background(), 1); err == nil {
		t.Fatal("expected error")
	}
	if client.listCount() != base {
		t.Error("failure must not reload")
	}
	if got := p.Drafts(); len(got) != len(before) {
		t.Error("failure must not mutate local state")
	}
	if !notify.has("error: already sent") {
		t.Errorf("API message must surface in the toast: %v", notify.toasts)
	}
}

func TestEditSendsNewResponse(t *testing.T) {
	p, client, _, _, _ := newQueueFixture(t, true)
	p.OnActivate(context.Background(), nil)

	if err := p.Edit(context.Background(), 2, "Hi Bob, the refund is on its way."); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got := client.edits[2]; got != "Hi Bob, the refund is on its way." {
		t.Errorf("edit body = %q", got)
	}
}

func TestDeleteRemovesDraft(t *testing.T) {
	p, client, _, notify, _ := newQueueFixture(t, true)
	p.OnActivate(context.Background(), nil)

	if err := p.Delete(context.Background(), 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(client.deletes) != 1 || client.deletes[0] != 2 {
		t.Errorf("deletes = %v", client.deletes)
	}
	if !notify.has("info: Draft deleted") {
		t.Errorf("toasts = %v", notify.toasts)
	}
}

func TestDraftNewWhileInactiveSetsBadge(t *testing.T) {
	p, client, _, _, b := newQueueFixture(t, true)
	p.OnActivate(context.Background(), nil)
	p.OnDeactivate()
	base := client.listCount()

	b.Publish(bus.TopicDraftNew, nil)

	if !p.Badge() {
		t.Error("badge must set while inactive")
	}
	if client.listCount() != base+1 {
		t.Error("push event must trigger a reload")
	}

	// Reactivating clears the badge.
	p.OnActivate(context.Background(), nil)
	if p.Badge() {
		t.Error("badge must clear on activation")
	}
}

func TestStatsEventAppliesDirectly(t *testing.T) {
	p, _, _, _, b := newQueueFixture(t, true)
	p.OnActivate(context.Background(), nil)

	b.Publish(bus.TopicQueueStats, api.Stats{Total: 9, Pending: 3, Sent: 6})
	if got := p.Stats(); got.Total != 9 || got.Pending != 3 {
		t.Errorf("stats = %+v", got)
	}
}

func TestSelectDraftPersists(t *testing.T) {
	p, _, _, _, _ := newQueueFixture(t, true)
	p.OnActivate(context.Background(), nil)

	d, ok := p.SelectDraft(2)
	if !ok || d.Subject != "Refund" {
		t.Fatalf("select failed: %+v ok=%v", d, ok)
	}
	if p.Selected() != 2 {
		t.Errorf("selected = %d", p.Selected())
	}
	if _, ok := p.SelectDraft(99); ok {
		t.Error("unknown draft must not select")
	}
}

func TestFilterChangeReloads(t *testing.T) {
	p, client, _, _, _ := newQueueFixture(t, true)
	p.OnActivate(context.Background(), nil)

	if err := p.SetFilter(context.Background(), api.StatusPending); err != nil {
		t.Fatalf("filter: %v", err)
	}
	client.mu.Lock()
	defer client.mu.Unlock()
	last := client.listCalls[len(client.listCalls)-1]
	if last.status != api.StatusPending {
		t.Errorf("status = %q", last.status)
	}
}
