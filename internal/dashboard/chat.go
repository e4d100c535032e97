package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/openclaw/clawdeck/internal/bus"
	"github.com/openclaw/clawdeck/internal/state"
)

// ChatMessage is one message on the chat gateway, in either direction.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	AgentID string `json:"agentId,omitempty"`
}

// ChatGateway is the slice of the connection manager the chat panel sends
// through.
type ChatGateway interface {
	SendChat(v any) error
}

// VoiceSink receives assistant replies for spoken playback.
type VoiceSink interface {
	OnAssistantMessage(text, agentID string)
	SwitchAgent(agentID string)
}

// ChatPanel keeps the conversation transcript for the current agent and
// forwards assistant replies to the voice controller.
type ChatPanel struct {
	gw    ChatGateway
	prefs *state.Store
	voice VoiceSink

	mu       sync.Mutex
	active   bool
	agent    string
	messages []ChatMessage
	onChange func()
}

// NewChatPanel wires the panel. voice may be nil when playback is disabled.
func NewChatPanel(gw ChatGateway, prefs *state.Store, b *bus.Bus, voice VoiceSink) *ChatPanel {
	p := &ChatPanel{gw: gw, prefs: prefs, voice: voice}

	b.Subscribe(bus.TopicChatMessage, func(payload any) {
		p.onGatewayMessage(payload)
	})
	b.Subscribe(bus.TopicAgentSwitched, func(payload any) {
		if id, ok := payload.(string); ok {
			p.setAgent(id)
		}
	})
	return p
}

// SetOnChange registers a re-render hook. Must be set before activation.
func (p *ChatPanel) SetOnChange(fn func()) {
	p.mu.Lock()
	p.onChange = fn
	p.mu.Unlock()
}

func (p *ChatPanel) ID() string { return "chat" }

// OnActivate binds the panel to the agent named in params, falling back to
// the persisted current agent.
func (p *ChatPanel) OnActivate(_ context.Context, params Params) error {
	agent := params["agent"]
	if agent == "" {
		agent = p.prefs.Get().ActiveAgentID
	}
	p.mu.Lock()
	p.active = true
	p.mu.Unlock()
	p.setAgent(agent)
	return nil
}

func (p *ChatPanel) OnDeactivate() {
	p.mu.Lock()
	p.active = false
	p.mu.Unlock()
}

// Agent returns the agent this panel currently talks to.
func (p *ChatPanel) Agent() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.agent
}

// Messages returns a copy of the transcript.
func (p *ChatPanel) Messages() []ChatMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ChatMessage, len(p.messages))
	copy(out, p.messages)
	return out
}

// Send puts one operator message on the chat gateway and appends it to the
// transcript.
func (p *ChatPanel) Send(text string) error {
	p.mu.Lock()
	msg := ChatMessage{Role: "user", Content: text, AgentID: p.agent}
	p.mu.Unlock()

	if err := p.gw.SendChat(msg); err != nil {
		return err
	}
	p.mu.Lock()
	p.messages = append(p.messages, msg)
	p.mu.Unlock()
	p.changed()
	return nil
}

func (p *ChatPanel) setAgent(agent string) {
	p.mu.Lock()
	changed := p.agent != agent
	p.agent = agent
	if changed {
		p.messages = nil
	}
	p.mu.Unlock()

	if changed {
		p.prefs.SetActiveAgent(agent)
		if p.voice != nil {
			p.voice.SwitchAgent(agent)
		}
		p.changed()
	}
}

func (p *ChatPanel) onGatewayMessage(payload any) {
	raw, ok := payload.(json.RawMessage)
	if !ok {
		return
	}
	var msg ChatMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		slog.Warn("Unreadable chat message", "error", err)
		return
	}

	p.mu.Lock()
	p.messages = append(p.messages, msg)
	agent := p.agent
	p.mu.Unlock()
	p.changed()

	if msg.Role == "assistant" && p.voice != nil {
		if msg.AgentID != "" {
			agent = msg.AgentID
		}
		p.voice.OnAssistantMessage(msg.Content, agent)
	}
}

func (p *ChatPanel) changed() {
	p.mu.Lock()
	fn := p.onChange
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}
