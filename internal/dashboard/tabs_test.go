package dashboard

import (
	"context"
	"sync"
	"testing"

	"github.com/openclaw/clawdeck/internal/state"
)

type recordingPanel struct {
	id     string
	events *[]string
	mu     *sync.Mutex
	params Params
}

func (p *recordingPanel) ID() string { return p.id }

func (p *recordingPanel) OnActivate(_ context.Context, params Params) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	*p.events = append(*p.events, "activate:"+p.id)
	p.params = params
	return nil
}

func (p *recordingPanel) OnDeactivate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	*p.events = append(*p.events, "deactivate:"+p.id)
}

func newTabsFixture(t *testing.T) (*Tabs, *[]string, *sync.Mutex) {
	t.Helper()
	prefs := state.New(t.TempDir(), state.DefaultPreferences())
	prefs.SetDebounce(0)

	var events []string
	var mu sync.Mutex
	tabs := NewTabs(prefs, "queue")
	tabs.Register(&recordingPanel{id: "queue", events: &events, mu: &mu})
	tabs.Register(&recordingPanel{id: "chat", events: &events, mu: &mu})
	return tabs, &events, &mu
}

func TestDeactivateCompletesBeforeActivate(t *testing.T) {
	tabs, events, mu := newTabsFixture(t)
	ctx := context.Background()

	if err := tabs.SwitchTo(ctx, "queue", nil); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if err := tabs.SwitchTo(ctx, "chat", Params{"agent": "sage"}); err != nil {
		t.Fatalf("switch: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"activate:queue", "deactivate:queue", "activate:chat"}
	if len(*events) != len(want) {
		t.Fatalf("events = %v", *events)
	}
	for i, e := range want {
		if (*events)[i] != e {
			t.Fatalf("events = %v, want %v", *events, want)
		}
	}
}

func TestFragmentReflectsChatAgent(t *testing.T) {
	tabs, _, _ := newTabsFixture(t)

	if err := tabs.SwitchTo(context.Background(), "chat", Params{"agent": "sage"}); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if got := tabs.Fragment(); got != "#chat?agent=sage" {
		t.Errorf("fragment = %q", got)
	}
	if got := tabs.Active(); got != "chat" {
		t.Errorf("active = %q", got)
	}
}

func TestChatAgentDefaultsFromPreferences(t *testing.T) {
	tabs, _, _ := newTabsFixture(t)

	// DefaultPreferences carries althea as active agent.
	if err := tabs.SwitchTo(context.Background(), "chat", nil); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if got := tabs.Fragment(); got != "#chat?agent=althea" {
		t.Errorf("fragment = %q", got)
	}
}

func TestNavigateUnknownFallsBackToDefault(t *testing.T) {
	tabs, _, _ := newTabsFixture(t)

	if err := tabs.Navigate(context.Background(), "#settings?x=1"); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if got := tabs.Active(); got != "queue" {
		t.Errorf("active = %q, want fallback queue", got)
	}
}

func TestNavigateParsesQuery(t *testing.T) {
	tabs, events, mu := newTabsFixture(t)

	if err := tabs.Navigate(context.Background(), "#chat?agent=tally"); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	_ = events
	mu.Lock()
	defer mu.Unlock()
	if got := tabs.Fragment(); got != "#chat?agent=tally" {
		t.Errorf("fragment = %q", got)
	}
}

func TestSwitchToUnknownTabErrors(t *testing.T) {
	tabs, _, _ := newTabsFixture(t)
	if err := tabs.SwitchTo(context.Background(), "nope", nil); err == nil {
		t.Fatal("expected error for unknown tab")
	}
}

func TestRepeatedSwitchDoesNotDeactivateSelf(t *testing.T) {
	tabs, events, mu := newTabsFixture(t)
	ctx := context.Background()

	tabs.SwitchTo(ctx, "queue", nil)
	tabs.SwitchTo(ctx, "queue", nil)

	mu.Lock()
	defer mu.Unlock()
	for _, e := range *events {
		if e == "deactivate:queue" {
			t.Fatalf("re-selecting the active tab must not deactivate it: %v", *events)
		}
	}
}

func TestParseFragment(t *testing.T) {
	id, params := ParseFragment("#chat?agent=sage")
	if id != "chat" || params["agent"] != "sage" {
		t.Errorf("got %q %v", id, params)
	}
	id, params = ParseFragment("queue")
	if id != "queue" || len(params) != 0 {
		t.Errorf("got %q %v", id, params)
	}
	id, _ = ParseFragment("")
	if id != "" {
		t.Errorf("got %q", id)
	}
}
