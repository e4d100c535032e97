// Package dashboard holds the control-deck semantics: tab lifecycle with
// fragment routing, the draft review queue, the chat surface, and the agent
// selector. Everything here is view-agnostic; the TUI renders whatever these
// controllers hold.
package dashboard

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/openclaw/clawdeck/internal/state"
)

// Params carries activation parameters, e.g. {"agent": "sage"} for the chat
// tab.
type Params map[string]string

// Panel is one tab's lifecycle surface. OnDeactivate must be synchronous;
// OnActivate may fetch data before returning.
type Panel interface {
	ID() string
	OnActivate(ctx context.Context, params Params) error
	OnDeactivate()
}

// Tabs owns the active-panel state machine. At most one panel is active, and
// a panel's activation never begins before the previous panel's deactivation
// hook has returned.
type Tabs struct {
	prefs     *state.Store
	defaultID string

	mu       sync.Mutex
	panels   map[string]Panel
	active   string
	fragment string
}

func NewTabs(prefs *state.Store, defaultID string) *Tabs {
	return &Tabs{
		prefs:     prefs,
		defaultID: defaultID,
		panels:    map[string]Panel{},
	}
}

func (t *Tabs) Register(p Panel) {
	t.mu.Lock()
	t.panels[p.ID()] = p
	t.mu.Unlock()
}

// Active returns the active panel id, empty before the first switch.
func (t *Tabs) Active() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Fragment returns the current deep-link fragment, e.g. "#chat?agent=sage".
func (t *Tabs) Fragment() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fragment
}

// SwitchTo deactivates the current panel, activates the named one, and
// updates the fragment. Switching to the already-active tab re-runs its
// activation (matching a repeated tab click).
func (t *Tabs) SwitchTo(ctx context.Context, id string, params Params) error {
	t.mu.Lock()
	next, ok := t.panels[id]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("unknown tab %q", id)
	}
	prev := t.panels[t.active]
	t.mu.Unlock()

	if prev != nil && prev.ID() != id {
		prev.OnDeactivate()
	}

	if params == nil {
		params = Params{}
	}
	if id == "chat" && params["agent"] == "" {
		params["agent"] = t.prefs.Get().ActiveAgentID
	}

	t.mu.Lock()
	t.active = id
	t.fragment = buildFragment(id, params)
	t.mu.Unlock()
	t.prefs.SetActiveTab(id)

	if err := next.OnActivate(ctx, params); err != nil {
		return fmt.Errorf("activate %s: %w", id, err)
	}
	return nil
}

// Navigate routes a fragment like "#chat?agent=sage". Unknown routes fall
// back to the default tab.
func (t *Tabs) Navigate(ctx context.Context, fragment string) error {
	id, params := ParseFragment(fragment)
	t.mu.Lock()
	_, known := t.panels[id]
	t.mu.Unlock()
	if !known {
		id, params = t.defaultID, nil
	}
	return t.SwitchTo(ctx, id, params)
}

// Restore opens the tab saved in preferences, falling back to the default.
func (t *Tabs) Restore(ctx context.Context) error {
	id := t.prefs.Get().ActiveTabID
	t.mu.Lock()
	_, known := t.panels[id]
	t.mu.Unlock()
	if !known {
		id = t.defaultID
	}
	return t.SwitchTo(ctx, id, nil)
}

// ParseFragment splits "#<tab>?<query>" into the tab id and its params. The
// leading # is optional; an empty fragment yields an empty tab id.
func ParseFragment(fragment string) (string, Params) {
	fragment = strings.TrimPrefix(fragment, "#")
	id, query, _ := strings.Cut(fragment, "?")
	params := Params{}
	values, err := url.ParseQuery(query)
	if err == nil {
		for k := range values {
			params[k] = values.Get(k)
		}
	}
	return id, params
}

func buildFragment(id string, params Params) string {
	values := url.Values{}
	for k, v := range params {
		if v != "" {
			values.Set(k, v)
		}
	}
	if len(values) == 0 {
		return "#" + id
	}
	return "#" + id + "?" + values.Encode()
}
