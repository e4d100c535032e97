// Package config provides configuration types and loading for clawdeck.
package config

import "time"

// Config is the root configuration struct.
// Top-level groups: Paths, Server, Gateway, Agents, Voice, Stats.
type Config struct {
	Paths   PathsConfig   `json:"paths"`
	Server  ServerConfig  `json:"server"`
	Gateway GatewayConfig `json:"gateway"`
	Agents  []AgentConfig `json:"agents,omitempty"`
	Voice   VoiceConfig   `json:"voice"`
	Stats   StatsConfig   `json:"stats"`
}

// ---------------------------------------------------------------------------
// Paths – filesystem locations
// ---------------------------------------------------------------------------

// PathsConfig groups all filesystem path settings.
type PathsConfig struct {
	StateDir string `json:"stateDir" envconfig:"STATE_DIR"`
}

// ---------------------------------------------------------------------------
// Server – queue backend REST API
// ---------------------------------------------------------------------------

// ServerConfig contains settings for the draft-queue backend.
type ServerConfig struct {
	BaseURL   string        `json:"baseUrl" envconfig:"URL"`
	AuthToken string        `json:"authToken" envconfig:"TOKEN"`
	Timeout   time.Duration `json:"timeout" envconfig:"TIMEOUT"`
}

// ---------------------------------------------------------------------------
// Gateway – real-time sockets + tool invocation
// ---------------------------------------------------------------------------

// GatewayConfig contains the websocket endpoints and reconnect policy.
type GatewayConfig struct {
	QueueSocketURL string `json:"queueSocketUrl" envconfig:"QUEUE_SOCKET_URL"`
	ChatSocketURL  string `json:"chatSocketUrl" envconfig:"CHAT_SOCKET_URL"`
	ToolsURL       string `json:"toolsUrl" envconfig:"TOOLS_URL"`
	AuthToken      string `json:"authToken" envconfig:"TOKEN"`

	MaxReconnectAttempts int           `json:"maxReconnectAttempts" envconfig:"MAX_RECONNECT_ATTEMPTS"`
	ReconnectDelay       time.Duration `json:"reconnectDelay" envconfig:"RECONNECT_DELAY"`
}

// ---------------------------------------------------------------------------
// Agents – static identity catalogue
// ---------------------------------------------------------------------------

// AgentConfig describes one assistant identity. The catalogue is immutable
// for the process lifetime.
type AgentConfig struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Icon    string `json:"icon,omitempty"`
	Role    string `json:"role,omitempty"`
	Email   string `json:"email,omitempty"`
	Default bool   `json:"default,omitempty"`
}

// ---------------------------------------------------------------------------
// Voice – TTS vendor + per-agent voices
// ---------------------------------------------------------------------------

// VoiceConfig contains TTS vendor settings and the per-agent voice map.
type VoiceConfig struct {
	Enabled    bool                  `json:"enabled" envconfig:"ENABLED"`
	BaseURL    string                `json:"baseUrl" envconfig:"URL"`
	APIKey     string                `json:"apiKey" envconfig:"API_KEY"`
	APIKeyFile string                `json:"apiKeyFile" envconfig:"API_KEY_FILE"`
	VoicesURL  string                `json:"voicesUrl" envconfig:"VOICES_URL"`
	MaxChars   int                   `json:"maxChars" envconfig:"MAX_CHARS"`
	Agents     map[string]AgentVoice `json:"agents,omitempty"`

	// DefaultAgent is the fallback voice owner, filled from the agent
	// catalogue at load time.
	DefaultAgent string `json:"-" ignored:"true"`
}

// AgentVoice maps one agent to a vendor voice.
type AgentVoice struct {
	VoiceID   string  `json:"voiceId"`
	VoiceName string  `json:"voiceName"`
	Speed     float64 `json:"speed,omitempty"`
}

// VoiceFor returns the voice for an agent, falling back to the default
// agent's voice when the agent has none configured.
func (v VoiceConfig) VoiceFor(agentID string) (AgentVoice, bool) {
	if av, ok := v.Agents[agentID]; ok {
		return av, true
	}
	av, ok := v.Agents[v.DefaultAgent]
	return av, ok
}

// ---------------------------------------------------------------------------
// Stats – per-agent mail usage polling
// ---------------------------------------------------------------------------

// StatsConfig contains settings for mail usage statistics polling.
type StatsConfig struct {
	RefreshInterval time.Duration `json:"refreshInterval" envconfig:"REFRESH_INTERVAL"`
	MaxResults      int           `json:"maxResults" envconfig:"MAX_RESULTS"`
}

// DefaultAgentID returns the catalogue's default agent, or the first entry.
func (c *Config) DefaultAgentID() string {
	for _, a := range c.Agents {
		if a.Default {
			return a.ID
		}
	}
	if len(c.Agents) > 0 {
		return c.Agents[0].ID
	}
	return ""
}

// AgentByID looks up a catalogue entry.
func (c *Config) AgentByID(id string) (AgentConfig, bool) {
	for _, a := range c.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return AgentConfig{}, false
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			BaseURL: "http://127.0.0.1:18790",
			Timeout: 30 * time.Second,
		},
		Gateway: GatewayConfig{
			QueueSocketURL:       "ws://127.0.0.1:18790/api/v1/events",
			ChatSocketURL:        "ws://127.0.0.1:18789/gateway",
			ToolsURL:             "http://127.0.0.1:18789/tools/invoke",
			MaxReconnectAttempts: 10,
			ReconnectDelay:       time.Second,
		},
		Agents: []AgentConfig{
			{ID: "althea", Name: "Althea", Icon: "🌸", Role: "Team Lead", Email: "althea@trylifescribe.com", Default: true},
			{ID: "sage", Name: "Sage", Icon: "🌿", Role: "Customer Support", Email: "sage@trylifescribe.com"},
			{ID: "tally", Name: "Tally", Icon: "📊", Role: "Finance", Email: "tally@trylifescribe.com"},
			{ID: "echo", Name: "Echo", Icon: "🔊", Role: "Marketing", Email: "echo@trylifescribe.com"},
			{ID: "team", Name: "Team", Icon: "👥", Role: "All Agents"},
		},
		Voice: VoiceConfig{
			Enabled:   true,
			BaseURL:   "https://p2.cluster.resemble.ai",
			VoicesURL: "https://app.resemble.ai/api/v2",
			MaxChars:  500,
			Agents: map[string]AgentVoice{
				"althea": {VoiceID: "c99f388c", VoiceName: "Anya", Speed: 1.0},
			},
		},
		Stats: StatsConfig{
			RefreshInterval: 2 * time.Minute,
			MaxResults:      100,
		},
	}
	cfg.Voice.DefaultAgent = cfg.DefaultAgentID()
	return cfg
}
