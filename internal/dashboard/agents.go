package dashboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/openclaw/clawdeck/internal/bus"
	"github.com/openclaw/clawdeck/internal/config"
	"github.com/openclaw/clawdeck/internal/mailstats"
	"github.com/openclaw/clawdeck/internal/state"
)

// StatsPoller is the mailbox poller lifecycle the selector drives.
type StatsPoller interface {
	Start(ctx context.Context)
	Stop()
}

// AgentSelector owns the static agent catalogue, the current-agent
// preference, and the per-agent mailbox stats shown next to each entry.
type AgentSelector struct {
	agents []config.AgentConfig
	prefs  *state.Store
	bus    *bus.Bus
	poller StatsPoller

	mu       sync.Mutex
	current  string
	open     bool
	stats    map[string]mailstats.Stats
	failed   map[string]bool
	onChange func()
}

// NewAgentSelector builds the selector. Attach the poller afterwards with
// SetPoller; its callbacks should point at ApplyStats and ApplyFailure.
func NewAgentSelector(cfg *config.Config, prefs *state.Store, b *bus.Bus) *AgentSelector {
	current := prefs.Get().ActiveAgentID
	if current == "" {
		current = cfg.DefaultAgentID()
	}
	return &AgentSelector{
		agents:  cfg.Agents,
		prefs:   prefs,
		bus:     b,
		current: current,
		stats:   map[string]mailstats.Stats{},
		failed:  map[string]bool{},
	}
}

func (s *AgentSelector) SetPoller(p StatsPoller) { s.poller = p }

// SetOnChange registers a re-render hook.
func (s *AgentSelector) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Agents returns the immutable catalogue.
func (s *AgentSelector) Agents() []config.AgentConfig { return s.agents }

// Current returns the selected agent id.
func (s *AgentSelector) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Select switches the current agent: the preference updates, interested
// components are notified over the bus, and any open selection UI closes.
func (s *AgentSelector) Select(agentID string) error {
	if !s.knows(agentID) {
		return fmt.Errorf("unknown agent %q", agentID)
	}
	s.mu.Lock()
	s.current = agentID
	s.open = false
	s.mu.Unlock()

	s.prefs.SetActiveAgent(agentID)
	s.bus.Publish(bus.TopicAgentSwitched, agentID)
	s.changed()
	return nil
}

// Open expands the selection UI and refreshes stats, matching the dropdown
// behavior of the original panel.
func (s *AgentSelector) Open(refresh func()) {
	s.mu.Lock()
	s.open = true
	s.mu.Unlock()
	if refresh != nil {
		refresh()
	}
	s.changed()
}

func (s *AgentSelector) Close() {
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
	s.changed()
}

func (s *AgentSelector) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Mount starts periodic stats refreshes; Unmount stops them.
func (s *AgentSelector) Mount(ctx context.Context) {
	if s.poller != nil {
		s.poller.Start(ctx)
	}
}

func (s *AgentSelector) Unmount() {
	if s.poller != nil {
		s.poller.Stop()
	}
}

// ApplyStats records a fresh snapshot for one agent.
func (s *AgentSelector) ApplyStats(st mailstats.Stats) {
	s.mu.Lock()
	s.stats[st.AgentID] = st
	delete(s.failed, st.AgentID)
	s.mu.Unlock()
	s.changed()
}

// ApplyFailure marks one agent's stats unavailable without touching others.
func (s *AgentSelector) ApplyFailure(agentID string, _ error) {
	s.mu.Lock()
	s.failed[agentID] = true
	s.mu.Unlock()
	s.changed()
}

// StatsFor returns the last snapshot for an agent, if any.
func (s *AgentSelector) StatsFor(agentID string) (mailstats.Stats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[agentID]
	return st, ok
}

// Failed reports whether the agent's last refresh failed.
func (s *AgentSelector) Failed(agentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed[agentID]
}

func (s *AgentSelector) knows(agentID string) bool {
	for _, a := range s.agents {
		if a.ID == agentID {
			return true
		}
	}
	return false
}

func (s *AgentSelector) changed() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}
