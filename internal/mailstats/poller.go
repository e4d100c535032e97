// Package mailstats polls per-agent mailbox usage through the gateway's
// tool-invoke endpoint. Each agent with a mail address gets two reads per
// refresh: unread inbox count and messages sent today. Agents fail
// independently; one broken mailbox never hides the others.
package mailstats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openclaw/clawdeck/internal/config"
)

// Stats is one agent's mailbox snapshot.
type Stats struct {
	AgentID   string
	Unread    int
	SentToday int
}

// UpdateFunc receives a fresh snapshot for one agent.
type UpdateFunc func(Stats)

// FailFunc receives per-agent refresh failures.
type FailFunc func(agentID string, err error)

// Search result text reads like "Found 12 messages matching ...".
var countRe = regexp.MustCompile(`(\d+)\s+message`)

// Poller refreshes mailbox stats on a fixed interval while started.
type Poller struct {
	toolsURL   string
	authToken  string
	interval   time.Duration
	maxResults int
	agents     []config.AgentConfig
	http       *http.Client

	onUpdate UpdateFunc
	onFail   FailFunc

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewPoller wires a poller from the gateway and stats config sections.
func NewPoller(cfg *config.Config, onUpdate UpdateFunc, onFail FailFunc) *Poller {
	interval := cfg.Stats.RefreshInterval
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	maxResults := cfg.Stats.MaxResults
	if maxResults <= 0 {
		maxResults = 100
	}
	return &Poller{
		toolsURL:   cfg.Gateway.ToolsURL,
		authToken:  cfg.Gateway.AuthToken,
		interval:   interval,
		maxResults: maxResults,
		agents:     cfg.Agents,
		http:       &http.Client{Timeout: 15 * time.Second},
		onUpdate:   onUpdate,
		onFail:     onFail,
	}
}

// Start begins periodic refreshes. An immediate refresh runs first, then one
// per interval until Stop. Calling Start while running is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	go func() {
		p.RefreshAll(ctx)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.RefreshAll(ctx)
			}
		}
	}()
}

// Stop halts periodic refreshes. Safe when not running.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// RefreshAll refreshes every agent that has a mail address.
func (p *Poller) RefreshAll(ctx context.Context) {
	for _, agent := range p.agents {
		if agent.Email == "" {
			continue
		}
		stats, err := p.refreshAgent(ctx, agent)
		if err != nil {
			slog.Warn("Mail stats refresh failed", "agent", agent.ID, "error", err)
			if p.onFail != nil {
				p.onFail(agent.ID, err)
			}
			continue
		}
		if p.onUpdate != nil {
			p.onUpdate(stats)
		}
	}
}

func (p *Poller) refreshAgent(ctx context.Context, agent config.AgentConfig) (Stats, error) {
	unread, err := p.countMessages(ctx, agent.ID, "is:unread in:inbox")
	if err != nil {
		return Stats{}, fmt.Errorf("unread count: %w", err)
	}

	today := time.Now().Format("2006/01/02")
	sent, err := p.countMessages(ctx, agent.ID, fmt.Sprintf("from:%s after:%s", agent.Email, today))
	if err != nil {
		return Stats{}, fmt.Errorf("sent count: %w", err)
	}

	return Stats{AgentID: agent.ID, Unread: unread, SentToday: sent}, nil
}

type invokeRequest struct {
	Tool       string     `json:"tool"`
	Args       invokeArgs `json:"args"`
	SessionKey string     `json:"sessionKey"`
}

type invokeArgs struct {
	Query      string `json:"query"`
	MaxResults int    `json:"maxResults"`
}

type invokeResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	} `json:"result"`
}

// countMessages runs one mail_search through the gateway and parses the
// message count out of the result text.
func (p *Poller) countMessages(ctx context.Context, agentID, query string) (int, error) {
	body, err := json.Marshal(invokeRequest{
		Tool:       "mail_search",
		Args:       invokeArgs{Query: query, MaxResults: p.maxResults},
		SessionKey: fmt.Sprintf("agent:%s:main", agentID),
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.toolsURL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Trace-ID", uuid.NewString())
	if p.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.authToken)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, err
	}
	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("tools/invoke returned %d", resp.StatusCode)
	}

	var out invokeResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, fmt.Errorf("decode tool result: %w", err)
	}
	if !out.OK {
		return 0, fmt.Errorf("tool call rejected")
	}
	if len(out.Result.Content) == 0 {
		return 0, nil
	}

	match := countRe.FindStringSubmatch(out.Result.Content[0].Text)
	if match == nil {
		return 0, nil
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, nil
	}
	return n, nil
}
