package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/openclaw/clawdeck/internal/bus"
	"github.com/openclaw/clawdeck/internal/config"
	"github.com/openclaw/clawdeck/internal/dashboard"
	"github.com/openclaw/clawdeck/internal/state"
	"github.com/openclaw/clawdeck/internal/voice"
)

type nopSynth struct{}

func (nopSynth) Synthesize(context.Context, string, string, float64) ([]byte, error) {
	return []byte("audio"), nil
}

type nopPlayer struct{}

func (nopPlayer) Play(context.Context, []byte, float64) error { return nil }
func (nopPlayer) Stop()                                       {}

func TestDeferredConfirmerOnlyWhenArmed(t *testing.T) {
	c := NewDeferredConfirmer()
	if c.Confirm("t", "m") {
		t.Fatal("unarmed confirmer approved")
	}
	c.arm()
	if !c.Confirm("t", "m") {
		t.Fatal("armed confirmer declined")
	}
	c.disarm()
	if c.Confirm("t", "m") {
		t.Fatal("disarmed confirmer approved")
	}
}

func TestToasterBuffersBeforeBind(t *testing.T) {
	n := NewToaster()
	n.Toast("error", "boom")
	n.Toast("success", "ok")

	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.backlog) != 2 {
		t.Fatalf("backlog = %d, want 2", len(n.backlog))
	}
	if n.backlog[0].text != "boom" || n.backlog[1].level != "success" {
		t.Fatalf("backlog order wrong: %+v", n.backlog)
	}
}

func TestToastLifecycle(t *testing.T) {
	m := &Model{width: 80, height: 24}

	_, cmd := m.Update(toastMsg{level: "info", text: "hello"})
	if len(m.toasts) != 1 {
		t.Fatalf("toasts = %d, want 1", len(m.toasts))
	}
	if cmd == nil {
		t.Fatal("expected expiry command")
	}

	m.Update(toastExpireMsg{id: m.toasts[0].id})
	if len(m.toasts) != 0 {
		t.Fatalf("toasts = %d after expiry, want 0", len(m.toasts))
	}
}

func TestSpeakingMsgTogglesFlag(t *testing.T) {
	m := &Model{}
	m.Update(speakingMsg{on: true})
	if !m.speaking {
		t.Fatal("speaking flag not set")
	}
	m.Update(speakingMsg{on: false})
	if m.speaking {
		t.Fatal("speaking flag not cleared")
	}
}

func TestConfirmDeclineClearsPending(t *testing.T) {
	ran := false
	m := &Model{
		confirm: NewDeferredConfirmer(),
		mode:    modeConfirm,
		pending: &pendingAction{
			title:   "Delete Draft",
			message: "sure?",
			run: func(context.Context) error {
				ran = true
				return nil
			},
		},
	}

	_, cmd := m.handleConfirmKey(tea.KeyMsg{Type: tea.KeyEsc})
	if m.pending != nil || m.mode != modeList {
		t.Fatal("decline did not clear pending state")
	}
	if cmd != nil {
		t.Fatal("decline should not produce a command")
	}
	if ran {
		t.Fatal("declined action ran")
	}
}

func TestConfirmAcceptRunsAction(t *testing.T) {
	done := make(chan struct{})
	m := &Model{
		confirm: NewDeferredConfirmer(),
		mode:    modeConfirm,
		pending: &pendingAction{
			run: func(context.Context) error {
				close(done)
				return nil
			},
		},
	}

	_, cmd := m.handleConfirmKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})
	if cmd == nil {
		t.Fatal("accept produced no command")
	}
	go cmd()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("action did not run")
	}
	if m.pending != nil {
		t.Fatal("pending not cleared after accept")
	}
}

func TestStatusBarShowsSwitchedAgentVoice(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Voice.Agents["sage"] = config.AgentVoice{VoiceID: "7ba3c1e2", VoiceName: "Mora", Speed: 0.9}

	prefs := state.New(t.TempDir(), state.DefaultPreferences())
	b := bus.New()
	vc := voice.NewController(cfg.Voice, nopSynth{}, nopPlayer{}, b)
	sel := dashboard.NewAgentSelector(cfg, prefs, b)

	m := NewModel(Deps{
		Tabs:    dashboard.NewTabs(prefs, "queue"),
		Agents:  sel,
		Voice:   vc,
		Prefs:   prefs,
		Confirm: NewDeferredConfirmer(),
		Toaster: NewToaster(),
	})

	if bar := m.renderStatusBar(); !strings.Contains(bar, "Anya") {
		t.Errorf("status bar should show the default agent's voice, got %q", bar)
	}

	if err := sel.Select("sage"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if bar := m.renderStatusBar(); !strings.Contains(bar, "Mora") {
		t.Errorf("status bar should show the switched agent's voice, got %q", bar)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate(short) = %q", got)
	}
	if got := truncate("a long subject line", 10); got != "a long ..." {
		t.Fatalf("truncate = %q", got)
	}
}
