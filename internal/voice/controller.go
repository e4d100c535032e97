// Package voice speaks assistant replies through a TTS vendor. The controller
// is a small state machine (idle, requesting, playing) fed by explicit
// notifications about new assistant messages; playback runs on a single
// worker so audio never overlaps.
package voice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/openclaw/clawdeck/internal/bus"
	"github.com/openclaw/clawdeck/internal/config"
)

// Controller states.
const (
	StateIdle       = "idle"
	StateRequesting = "requesting"
	StatePlaying    = "playing"
)

// DefaultMaxChars caps synthesized text length when the config leaves it unset.
const DefaultMaxChars = 500

// Synthesizer converts text to audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceUUID string, speed float64) ([]byte, error)
}

// SpeakingEvent is the bus payload on voice:speaking.
type SpeakingEvent struct {
	AgentID  string
	Speaking bool
}

type queuedMessage struct {
	text    string
	agentID string
}

// Controller queues assistant messages and plays them in arrival order.
type Controller struct {
	cfg    config.VoiceConfig
	synth  Synthesizer
	player Player
	bus    *bus.Bus

	mu       sync.Mutex
	state    string
	queue    []queuedMessage
	working  bool
	autoPlay bool
	speed    float64
	agentID  string
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewController wires a controller. autoPlay and speed usually come from the
// persisted voice preferences.
func NewController(cfg config.VoiceConfig, synth Synthesizer, player Player, b *bus.Bus) *Controller {
	return &Controller{
		cfg:      cfg,
		synth:    synth,
		player:   player,
		bus:      b,
		state:    StateIdle,
		autoPlay: true,
		speed:    1.0,
		agentID:  "althea",
	}
}

// State reports the controller's current phase.
func (c *Controller) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// QueueLen reports how many messages wait behind the current one.
func (c *Controller) QueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// AutoPlay reports whether new assistant messages are spoken automatically.
func (c *Controller) AutoPlay() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoPlay
}

// SetAutoPlay flips the auto-play gate.
func (c *Controller) SetAutoPlay(enabled bool) {
	c.mu.Lock()
	c.autoPlay = enabled
	c.mu.Unlock()
}

// SetSpeed changes playback speed. It applies from the current item onward;
// already-synthesized audio keeps the rate it was launched with.
func (c *Controller) SetSpeed(speed float64) {
	if speed <= 0 {
		speed = 1.0
	}
	c.mu.Lock()
	c.speed = speed
	c.mu.Unlock()
}

// SwitchAgent changes the default voice used for messages without an explicit
// agent.
func (c *Controller) SwitchAgent(agentID string) {
	c.mu.Lock()
	c.agentID = agentID
	c.mu.Unlock()
}

// VoiceName returns the display name of the agent's configured voice.
func (c *Controller) VoiceName(agentID string) string {
	if av, ok := c.cfg.VoiceFor(agentID); ok {
		return av.VoiceName
	}
	return ""
}

// OnAssistantMessage feeds one new assistant reply into the controller. With
// auto-play off, or when voice is disabled entirely, the message is dropped.
func (c *Controller) OnAssistantMessage(text, agentID string) {
	text = strings.TrimSpace(text)
	if text == "" || !c.cfg.Enabled {
		return
	}

	c.mu.Lock()
	if !c.autoPlay {
		c.mu.Unlock()
		return
	}
	if agentID == "" {
		agentID = c.agentID
	}
	c.queue = append(c.queue, queuedMessage{text: truncate(text, c.maxChars()), agentID: agentID})
	c.startWorkerLocked()
	c.mu.Unlock()
}

// Speak plays one message immediately regardless of the auto-play gate. Used
// by voice test commands.
func (c *Controller) Speak(text, agentID string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	c.mu.Lock()
	if agentID == "" {
		agentID = c.agentID
	}
	c.queue = append(c.queue, queuedMessage{text: truncate(text, c.maxChars()), agentID: agentID})
	c.startWorkerLocked()
	c.mu.Unlock()
}

// TestVoice speaks a canned line in the agent's configured voice.
func (c *Controller) TestVoice(agentID string) {
	av, ok := c.cfg.VoiceFor(agentID)
	if !ok {
		slog.Warn("No voice configured", "agent", agentID)
		return
	}
	c.Speak(fmt.Sprintf(
		"Hello! I'm %s, the voice of %s. This is a test of the text-to-speech system.",
		av.VoiceName, agentID), agentID)
}

// Stop halts the currently playing item. Queued messages still play.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.player.Stop()
}

// ClearQueue drops all pending messages without touching current playback.
func (c *Controller) ClearQueue() {
	c.mu.Lock()
	c.queue = nil
	c.mu.Unlock()
}

// Drain blocks until the worker finishes the backlog. Used by tests and the
// voice test commands.
func (c *Controller) Drain() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (c *Controller) maxChars() int {
	if c.cfg.MaxChars > 0 {
		return c.cfg.MaxChars
	}
	return DefaultMaxChars
}

// startWorkerLocked launches the drain goroutine if none is running. Caller
// holds c.mu.
func (c *Controller) startWorkerLocked() {
	if c.working {
		return
	}
	c.working = true
	c.done = make(chan struct{})
	go c.drainQueue(c.done)
}

func (c *Controller) drainQueue(done chan struct{}) {
	defer close(done)
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.working = false
			c.state = StateIdle
			c.mu.Unlock()
			return
		}
		msg := c.queue[0]
		c.queue = c.queue[1:]
		c.state = StateRequesting
		speed := c.speed
		ctx, cancel := context.WithCancel(context.Background())
		c.cancel = cancel
		c.mu.Unlock()

		c.playOne(ctx, msg, speed)

		cancel()
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
	}
}

// playOne runs the requesting and playing phases for one message. Failures
// are logged and the message skipped, never surfaced to the user.
func (c *Controller) playOne(ctx context.Context, msg queuedMessage, speed float64) {
	av, ok := c.cfg.VoiceFor(msg.agentID)
	if !ok {
		slog.Warn("No voice configured", "agent", msg.agentID)
		return
	}
	if av.Speed > 0 {
		speed = av.Speed
	}

	directive := fmt.Sprintf("[[tts:provider=resemble]][[tts:resemble_voice=%s]]%s", av.VoiceID, msg.text)
	audio, err := c.synth.Synthesize(ctx, directive, av.VoiceID, speed)
	if err != nil {
		slog.Warn("Synthesis failed", "agent", msg.agentID, "error", err)
		return
	}

	c.mu.Lock()
	c.state = StatePlaying
	c.mu.Unlock()
	c.bus.Publish(bus.TopicVoiceSpeaking, SpeakingEvent{AgentID: msg.agentID, Speaking: true})
	defer c.bus.Publish(bus.TopicVoiceSpeaking, SpeakingEvent{AgentID: msg.agentID, Speaking: false})

	if err := c.player.Play(ctx, audio, speed); err != nil && ctx.Err() == nil {
		slog.Warn("Playback failed", "agent", msg.agentID, "error", err)
	}
}

// truncate caps text at max runes, marking the cut like the web UI did.
func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
