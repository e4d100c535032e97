package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/openclaw/clawdeck/internal/activity"
	"github.com/openclaw/clawdeck/internal/api"
	"github.com/openclaw/clawdeck/internal/bus"
	"github.com/openclaw/clawdeck/internal/state"
)

// SearchDebounce is how long the queue panel waits after the last keystroke
// before issuing the search request.
const SearchDebounce = 300 * time.Millisecond

// Confirmer asks the operator to confirm a mutating action.
type Confirmer interface {
	Confirm(title, message string) bool
}

// Notifier surfaces transient notifications. Level is one of info, success,
// error.
type Notifier interface {
	Toast(level, message string)
}

// QueueClient is the slice of the REST client the queue panel uses.
type QueueClient interface {
	ListDrafts(ctx context.Context, status, search string, limit int) ([]api.Draft, error)
	ApproveDraft(ctx context.Context, id int64) error
	EditDraft(ctx context.Context, id int64, response string) error
	DeleteDraft(ctx context.Context, id int64) error
	QueueStats(ctx context.Context) (api.Stats, error)
}

// QueuePanel drives the draft review queue: list, search, select, and the
// three mutating actions. The in-memory draft list is always replaced
// wholesale by a reload, never merged.
type QueuePanel struct {
	client  QueueClient
	prefs   *state.Store
	bus     *bus.Bus
	confirm Confirmer
	notify  Notifier
	log     *activity.Log

	debounce time.Duration

	mu       sync.Mutex
	active   bool
	filter   string
	search   string
	drafts   []api.Draft
	selected int64
	stats    api.Stats
	badge    bool
	timer    *time.Timer
	onChange func()
}

// NewQueuePanel wires the panel and its bus subscriptions. log may be nil.
func NewQueuePanel(client QueueClient, prefs *state.Store, b *bus.Bus, confirm Confirmer, notify Notifier, log *activity.Log) *QueuePanel {
	p := &QueuePanel{
		client:   client,
		prefs:    prefs,
		bus:      b,
		confirm:  confirm,
		notify:   notify,
		log:      log,
		debounce: SearchDebounce,
		filter:   "all",
	}

	b.Subscribe(bus.TopicDraftNew, func(any) {
		p.reload(context.Background())
		p.mu.Lock()
		if !p.active {
			p.badge = true
		}
		p.mu.Unlock()
		p.notify.Toast("info", "New draft received")
		p.changed()
	})
	b.Subscribe(bus.TopicDraftUpdated, func(any) {
		p.reload(context.Background())
		p.changed()
	})
	b.Subscribe(bus.TopicQueueStats, func(payload any) {
		p.applyStats(payload)
	})
	return p
}

// SetOnChange registers a hook run after panel state changes, so a view can
// re-render. Must be set before the panel is activated.
func (p *QueuePanel) SetOnChange(fn func()) {
	p.mu.Lock()
	p.onChange = fn
	p.mu.Unlock()
}

// SetDebounce overrides the search debounce window (tests).
func (p *QueuePanel) SetDebounce(d time.Duration) {
	p.mu.Lock()
	p.debounce = d
	p.mu.Unlock()
}

func (p *QueuePanel) ID() string { return "queue" }

// OnActivate restores persisted filter, search and selection, then loads the
// list and counters. The unread badge clears on activation.
func (p *QueuePanel) OnActivate(ctx context.Context, _ Params) error {
	prefs := p.prefs.Get()
	p.mu.Lock()
	p.active = true
	p.badge = false
	p.filter = prefs.QueueFilter
	if p.filter == "" {
		p.filter = "all"
	}
	p.search = prefs.SearchText
	p.selected = prefs.SelectedDraftID
	p.mu.Unlock()

	if err := p.LoadDrafts(ctx); err != nil {
		return err
	}
	p.LoadStats(ctx)
	return nil
}

func (p *QueuePanel) OnDeactivate() {
	p.mu.Lock()
	p.active = false
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()
}

// LoadDrafts issues one list request and replaces the in-memory list.
func (p *QueuePanel) LoadDrafts(ctx context.Context) error {
	p.mu.Lock()
	filter, search := p.filter, p.search
	p.mu.Unlock()

	drafts, err := p.client.ListDrafts(ctx, filter, search, 100)
	if err != nil {
		p.notify.Toast("error", "Failed to load drafts")
		return err
	}

	p.mu.Lock()
	p.drafts = drafts
	p.mu.Unlock()
	p.changed()
	return nil
}

// LoadStats refreshes the aggregate counters. Failures are logged only.
func (p *QueuePanel) LoadStats(ctx context.Context) {
	stats, err := p.client.QueueStats(ctx)
	if err != nil {
		slog.Warn("Queue stats load failed", "error", err)
		return
	}
	p.mu.Lock()
	p.stats = stats
	p.mu.Unlock()
	p.changed()
}

// SetFilter switches the status filter and reloads immediately.
func (p *QueuePanel) SetFilter(ctx context.Context, filter string) error {
	p.mu.Lock()
	p.filter = filter
	p.mu.Unlock()
	p.prefs.SetQueueFilter(filter)
	return p.LoadDrafts(ctx)
}

// SetSearch records the search text and schedules a debounced reload, so a
// keystroke burst yields one request.
func (p *QueuePanel) SetSearch(text string) {
	p.prefs.SetSearchText(text)
	p.mu.Lock()
	p.search = text
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.debounce, func() {
		p.LoadDrafts(context.Background())
	})
	p.mu.Unlock()
}

// SelectDraft marks one draft selected and returns its read view.
func (p *QueuePanel) SelectDraft(id int64) (api.Draft, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, d := range p.drafts {
		if d.ID == id {
			p.selected = id
			p.prefs.SetSelectedDraft(id)
			return d, true
		}
	}
	return api.Draft{}, false
}

// Approve sends the draft after confirmation. Success reloads list and
// counters; failure leaves local state untouched.
func (p *QueuePanel) Approve(ctx context.Context, id int64) error {
	draft, ok := p.draftByID(id)
	if !ok {
		return fmt.Errorf("draft %d not loaded", id)
	}
	if !p.confirm.Confirm("Approve & Send Email",
		fmt.Sprintf("Are you sure you want to send this email to %s? This action cannot be undone.", draft.FromAddress)) {
		return nil
	}
	if err := p.client.ApproveDraft(ctx, id); err != nil {
		p.notify.Toast("error", errorMessage(err, "Failed to send email"))
		return err
	}
	p.notify.Toast("success", "Email sent successfully!")
	p.record(activity.KindDraftApproved, id, "")
	return p.reload(ctx)
}

// Edit sends the draft with a replacement response after confirmation.
func (p *QueuePanel) Edit(ctx context.Context, id int64, response string) error {
	draft, ok := p.draftByID(id)
	if !ok {
		return fmt.Errorf("draft %d not loaded", id)
	}
	if !p.confirm.Confirm("Send Edited Response",
		fmt.Sprintf("Send the edited response to %s?", draft.FromAddress)) {
		return nil
	}
	if err := p.client.EditDraft(ctx, id, response); err != nil {
		p.notify.Toast("error", errorMessage(err, "Failed to send email"))
		return err
	}
	p.notify.Toast("success", "Email sent with edited response!")
	p.record(activity.KindDraftEdited, id, "")
	return p.reload(ctx)
}

// Delete drops the draft after confirmation; no mail is sent.
func (p *QueuePanel) Delete(ctx context.Context, id int64) error {
	draft, ok := p.draftByID(id)
	if !ok {
		return fmt.Errorf("draft %d not loaded", id)
	}
	if !p.confirm.Confirm("Delete Draft",
		fmt.Sprintf("Are you sure you want to delete this draft? The email to %s will NOT be sent.", draft.FromAddress)) {
		return nil
	}
	if err := p.client.DeleteDraft(ctx, id); err != nil {
		p.notify.Toast("error", errorMessage(err, "Failed to delete draft"))
		return err
	}
	p.notify.Toast("info", "Draft deleted")
	p.record(activity.KindDraftDeleted, id, "")
	return p.reload(ctx)
}

// Refresh reloads list and counters on demand.
func (p *QueuePanel) Refresh(ctx context.Context) error {
	return p.reload(ctx)
}

// Drafts returns a copy of the current list.
func (p *QueuePanel) Drafts() []api.Draft {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]api.Draft, len(p.drafts))
	copy(out, p.drafts)
	return out
}

func (p *QueuePanel) Stats() api.Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *QueuePanel) Selected() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected
}

func (p *QueuePanel) Filter() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

// Badge reports whether unseen drafts arrived while the panel was inactive.
func (p *QueuePanel) Badge() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.badge
}

func (p *QueuePanel) reload(ctx context.Context) error {
	err := p.LoadDrafts(ctx)
	p.LoadStats(ctx)
	return err
}

func (p *QueuePanel) draftByID(id int64) (api.Draft, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, d := range p.drafts {
		if d.ID == id {
			return d, true
		}
	}
	return api.Draft{}, false
}

func (p *QueuePanel) applyStats(payload any) {
	var s api.Stats
	switch v := payload.(type) {
	case api.Stats:
		s = v
	case json.RawMessage:
		if err := json.Unmarshal(v, &s); err != nil {
			slog.Warn("Unreadable stats payload", "error", err)
			return
		}
	default:
		return
	}
	p.mu.Lock()
	p.stats = s
	p.mu.Unlock()
	p.changed()
}

func (p *QueuePanel) record(kind string, draftID int64, detail string) {
	if p.log != nil {
		p.log.Record(kind, draftID, p.prefs.Get().ActiveAgentID, detail)
	}
}

func (p *QueuePanel) changed() {
	p.mu.Lock()
	fn := p.onChange
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func errorMessage(err error, fallback string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
