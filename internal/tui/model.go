// Package tui renders the control deck in the terminal. It is strictly a
// view over the dashboard controllers: every action routes through the panel
// operations so behavior stays identical between the TUI and tests.
package tui

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/openclaw/clawdeck/internal/api"
	"github.com/openclaw/clawdeck/internal/bus"
	"github.com/openclaw/clawdeck/internal/dashboard"
	"github.com/openclaw/clawdeck/internal/gateway"
	"github.com/openclaw/clawdeck/internal/state"
	"github.com/openclaw/clawdeck/internal/voice"
)

// Input modes. Exactly one is active; it decides where keystrokes go.
const (
	modeList = iota
	modeSearch
	modeConfirm
	modeEdit
	modeAgents
	modeChatInput
)

const (
	toastLifetime = 3 * time.Second
	actionTimeout = 30 * time.Second
)

type syncMsg struct{}

type toastMsg struct {
	level string
	text  string
}

type toastExpireMsg struct{ id int }

type speakingMsg struct{ on bool }

type connChangedMsg struct{}

type toast struct {
	id    int
	level string
	text  string
}

// DeferredConfirmer satisfies the queue panel's Confirmer. The TUI shows its
// own modal first and arms the confirmer only for the action it just
// approved, so the panel's confirm-before-mutate contract still holds.
type DeferredConfirmer struct {
	mu    sync.Mutex
	allow bool
}

func NewDeferredConfirmer() *DeferredConfirmer { return &DeferredConfirmer{} }

func (c *DeferredConfirmer) Confirm(_, _ string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allow
}

func (c *DeferredConfirmer) arm() {
	c.mu.Lock()
	c.allow = true
	c.mu.Unlock()
}

func (c *DeferredConfirmer) disarm() {
	c.mu.Lock()
	c.allow = false
	c.mu.Unlock()
}

// Toaster satisfies the queue panel's Notifier, forwarding toasts into the
// message loop. Toasts raised before Bind are buffered.
type Toaster struct {
	mu      sync.Mutex
	program *tea.Program
	backlog []toastMsg
}

func NewToaster() *Toaster { return &Toaster{} }

func (t *Toaster) Toast(level, message string) {
	t.mu.Lock()
	p := t.program
	if p == nil {
		t.backlog = append(t.backlog, toastMsg{level: level, text: message})
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()
	p.Send(toastMsg{level: level, text: message})
}

func (t *Toaster) bind(p *tea.Program) {
	t.mu.Lock()
	t.program = p
	backlog := t.backlog
	t.backlog = nil
	t.mu.Unlock()
	for _, msg := range backlog {
		p.Send(msg)
	}
}

type pendingAction struct {
	title   string
	message string
	run     func(ctx context.Context) error
}

// Model is the bubbletea model for the whole deck.
type Model struct {
	tabs    *dashboard.Tabs
	queue   *dashboard.QueuePanel
	chat    *dashboard.ChatPanel
	agents  *dashboard.AgentSelector
	voice   *voice.Controller
	gw      *gateway.Manager
	prefs   *state.Store
	confirm *DeferredConfirmer
	toaster *Toaster

	mode        int
	width       int
	height      int
	cursor      int
	listOffset  int
	agentCursor int

	searchInput textinput.Model
	chatInput   textinput.Model
	editArea    textarea.Model
	editDraftID int64

	pending *pendingAction

	toasts   []toast
	nextID   int
	speaking bool
}

// Deps bundles everything the model renders and drives.
type Deps struct {
	Tabs    *dashboard.Tabs
	Queue   *dashboard.QueuePanel
	Chat    *dashboard.ChatPanel
	Agents  *dashboard.AgentSelector
	Voice   *voice.Controller
	Gateway *gateway.Manager
	Prefs   *state.Store
	Confirm *DeferredConfirmer
	Toaster *Toaster
}

func NewModel(d Deps) *Model {
	search := textinput.New()
	search.Placeholder = "search drafts"
	search.CharLimit = 120
	search.SetValue(d.Prefs.Get().SearchText)

	chatIn := textinput.New()
	chatIn.Placeholder = "message the agent (enter to send)"
	chatIn.CharLimit = 2000

	edit := textarea.New()
	edit.Placeholder = "edited response"
	edit.CharLimit = 0

	return &Model{
		tabs:        d.Tabs,
		queue:       d.Queue,
		chat:        d.Chat,
		agents:      d.Agents,
		voice:       d.Voice,
		gw:          d.Gateway,
		prefs:       d.Prefs,
		confirm:     d.Confirm,
		toaster:     d.Toaster,
		searchInput: search,
		chatInput:   chatIn,
		editArea:    edit,
	}
}

// Bind connects the controllers' change hooks and bus events to the running
// program. Call after tea.NewProgram and before Run.
func (m *Model) Bind(p *tea.Program, b *bus.Bus) {
	m.toaster.bind(p)
	sync := func() { p.Send(syncMsg{}) }
	m.queue.SetOnChange(sync)
	m.chat.SetOnChange(sync)
	m.agents.SetOnChange(sync)

	for _, topic := range []string{
		bus.TopicPrimaryUp, bus.TopicPrimaryDown, bus.TopicPrimaryError,
		bus.TopicSecondaryUp, bus.TopicSecondaryDown, bus.TopicSecondaryErr,
	} {
		b.Subscribe(topic, func(any) { p.Send(connChangedMsg{}) })
	}
	b.Subscribe(bus.TopicVoiceSpeaking, func(payload any) {
		if ev, ok := payload.(voice.SpeakingEvent); ok {
			p.Send(speakingMsg{on: ev.Speaking})
		}
	})
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.editArea.SetWidth(min(m.width-8, 100))
		m.editArea.SetHeight(min(m.height-10, 16))
		return m, nil

	case syncMsg:
		m.clampCursor()
		return m, nil

	case connChangedMsg:
		return m, nil

	case speakingMsg:
		m.speaking = msg.on
		return m, nil

	case toastMsg:
		m.nextID++
		id := m.nextID
		m.toasts = append(m.toasts, toast{id: id, level: msg.level, text: msg.text})
		return m, tea.Tick(toastLifetime, func(time.Time) tea.Msg {
			return toastExpireMsg{id: id}
		})

	case toastExpireMsg:
		for i, t := range m.toasts {
			if t.id == msg.id {
				m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
				break
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeConfirm:
		return m.handleConfirmKey(msg)
	case modeEdit:
		return m.handleEditKey(msg)
	case modeAgents:
		return m.handleAgentsKey(msg)
	case modeChatInput:
		return m.handleChatInputKey(msg)
	}
	return m.handleListKey(msg)
}

func (m *Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keyMatches(msg, keys.Quit):
		return m, tea.Quit

	case keyMatches(msg, keys.QueueTab):
		return m, m.switchTab("queue", nil)
	case keyMatches(msg, keys.ChatTab):
		return m, m.switchTab("chat", nil)

	case keyMatches(msg, keys.Agents):
		m.mode = modeAgents
		m.agentCursor = m.agentIndex(m.agents.Current())
		m.agents.Open(nil)
		return m, nil

	case keyMatches(msg, keys.Voice):
		if m.voice != nil {
			enabled := !m.voice.AutoPlay()
			m.voice.SetAutoPlay(enabled)
			m.prefs.SetAutoPlay(enabled)
		}
		return m, nil

	case keyMatches(msg, keys.StopTTS):
		if m.voice != nil {
			m.voice.Stop()
		}
		return m, nil

	case msg.String() == "+" || msg.String() == "=":
		return m, m.adjustSpeed(0.1)
	case msg.String() == "-":
		return m, m.adjustSpeed(-0.1)
	}

	if m.tabs.Active() == "chat" {
		switch msg.String() {
		case "i", "enter":
			m.mode = modeChatInput
			m.chatInput.Focus()
			return m, textinput.Blink
		}
		return m, nil
	}
	return m.handleQueueKey(msg)
}

func (m *Model) handleQueueKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	drafts := m.queue.Drafts()
	switch {
	case keyMatches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.prefs.SetQueueScroll(m.cursor)
		return m, nil

	case keyMatches(msg, keys.Down):
		if m.cursor < len(drafts)-1 {
			m.cursor++
		}
		m.prefs.SetQueueScroll(m.cursor)
		return m, nil

	case keyMatches(msg, keys.Select):
		if d, ok := m.cursorDraft(); ok {
			m.queue.SelectDraft(d.ID)
		}
		return m, nil

	case keyMatches(msg, keys.Search):
		m.mode = modeSearch
		m.searchInput.Focus()
		return m, textinput.Blink

	case keyMatches(msg, keys.Refresh):
		return m, m.runAction(m.queue.Refresh)

	case keyMatches(msg, keys.Filter):
		return m, m.cycleFilter()

	case keyMatches(msg, keys.Approve):
		if d, ok := m.cursorDraft(); ok {
			id := d.ID
			m.pending = &pendingAction{
				title:   "Approve & Send Email",
				message: "Send this email to " + d.FromAddress + "? This action cannot be undone.",
				run:     func(ctx context.Context) error { return m.queue.Approve(ctx, id) },
			}
			m.mode = modeConfirm
		}
		return m, nil

	case keyMatches(msg, keys.Delete):
		if d, ok := m.cursorDraft(); ok {
			id := d.ID
			m.pending = &pendingAction{
				title:   "Delete Draft",
				message: "Delete this draft? The email to " + d.FromAddress + " will NOT be sent.",
				run:     func(ctx context.Context) error { return m.queue.Delete(ctx, id) },
			}
			m.mode = modeConfirm
		}
		return m, nil

	case keyMatches(msg, keys.Edit):
		if d, ok := m.cursorDraft(); ok {
			m.editDraftID = d.ID
			m.editArea.SetValue(d.DraftResponse)
			m.editArea.Focus()
			m.mode = modeEdit
			return m, textarea.Blink
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keyMatches(msg, keys.Cancel):
		m.mode = modeList
		m.searchInput.Blur()
		return m, nil
	case msg.Type == tea.KeyEnter:
		m.mode = modeList
		m.searchInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.queue.SetSearch(m.searchInput.Value())
	return m, cmd
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keyMatches(msg, keys.Confirm):
		pending := m.pending
		m.pending = nil
		m.mode = modeList
		if pending == nil {
			return m, nil
		}
		return m, m.runAction(pending.run)
	case keyMatches(msg, keys.Cancel), msg.String() == "n":
		m.pending = nil
		m.mode = modeList
		return m, nil
	}
	return m, nil
}

func (m *Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keyMatches(msg, keys.Cancel):
		m.mode = modeList
		m.editArea.Blur()
		return m, nil
	case msg.Type == tea.KeyCtrlD:
		id := m.editDraftID
		text := m.editArea.Value()
		m.mode = modeConfirm
		m.editArea.Blur()
		m.pending = &pendingAction{
			title:   "Send Edited Response",
			message: "Send the edited response?",
			run:     func(ctx context.Context) error { return m.queue.Edit(ctx, id, text) },
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.editArea, cmd = m.editArea.Update(msg)
	return m, cmd
}

func (m *Model) handleAgentsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	agents := m.agents.Agents()
	switch {
	case keyMatches(msg, keys.Cancel):
		m.mode = modeList
		m.agents.Close()
		return m, nil
	case keyMatches(msg, keys.Up):
		if m.agentCursor > 0 {
			m.agentCursor--
		}
		return m, nil
	case keyMatches(msg, keys.Down):
		if m.agentCursor < len(agents)-1 {
			m.agentCursor++
		}
		return m, nil
	case msg.Type == tea.KeyEnter:
		m.mode = modeList
		if m.agentCursor < len(agents) {
			id := agents[m.agentCursor].ID
			if err := m.agents.Select(id); err == nil && m.tabs.Active() == "chat" {
				return m, m.switchTab("chat", dashboard.Params{"agent": id})
			}
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleChatInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keyMatches(msg, keys.Cancel):
		m.mode = modeList
		m.chatInput.Blur()
		return m, nil
	case msg.Type == tea.KeyEnter:
		text := m.chatInput.Value()
		if text == "" {
			return m, nil
		}
		m.chatInput.SetValue("")
		return m, func() tea.Msg {
			if err := m.chat.Send(text); err != nil {
				return toastMsg{level: "error", text: "Send failed: " + err.Error()}
			}
			return syncMsg{}
		}
	}
	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

// switchTab routes through the tab controller so deactivate/activate hooks
// and the fragment stay correct.
func (m *Model) switchTab(id string, params dashboard.Params) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		if err := m.tabs.SwitchTo(ctx, id, params); err != nil {
			return toastMsg{level: "error", text: err.Error()}
		}
		return syncMsg{}
	}
}

// runAction arms the deferred confirmer and executes one panel operation off
// the update loop.
func (m *Model) runAction(run func(ctx context.Context) error) tea.Cmd {
	m.confirm.arm()
	return func() tea.Msg {
		defer m.confirm.disarm()
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		run(ctx) // failures surface as toasts from the panel
		return syncMsg{}
	}
}

func (m *Model) adjustSpeed(delta float64) tea.Cmd {
	if m.voice == nil {
		return nil
	}
	speed := m.prefs.Get().PlaybackSpeed + delta
	if speed < 0.5 {
		speed = 0.5
	}
	if speed > 2.0 {
		speed = 2.0
	}
	m.voice.SetSpeed(speed)
	m.prefs.SetPlaybackSpeed(speed)
	return nil
}

var filterCycle = []string{"all", "pending", "sent", "deleted", "failed"}

func (m *Model) cycleFilter() tea.Cmd {
	current := m.queue.Filter()
	next := filterCycle[0]
	for i, f := range filterCycle {
		if f == current {
			next = filterCycle[(i+1)%len(filterCycle)]
			break
		}
	}
	return m.runAction(func(ctx context.Context) error {
		return m.queue.SetFilter(ctx, next)
	})
}

func (m *Model) cursorDraft() (d api.Draft, ok bool) {
	drafts := m.queue.Drafts()
	if m.cursor >= 0 && m.cursor < len(drafts) {
		return drafts[m.cursor], true
	}
	return d, false
}

func (m *Model) clampCursor() {
	n := len(m.queue.Drafts())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) agentIndex(id string) int {
	for i, a := range m.agents.Agents() {
		if a.ID == id {
			return i
		}
	}
	return 0
}

func keyMatches(msg tea.KeyMsg, binding key.Binding) bool {
	return key.Matches(msg, binding)
}
