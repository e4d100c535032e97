// Package state persists dashboard UI preferences across restarts.
//
// The in-memory record is the source of truth for readers; the files on
// disk are an eventually consistent mirror written behind a debounce window
// so a burst of mutations collapses into a single write.
package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// DashboardFile holds tab/queue/chat UI state.
	DashboardFile = "dashboard_state.json"
	// VoiceFile holds voice playback preferences.
	VoiceFile = "voice_prefs.json"

	// DefaultDebounce is the persistence debounce window.
	DefaultDebounce = 500 * time.Millisecond
)

// Preferences is the single mutable preference record. Zero draft id means
// no selection.
type Preferences struct {
	ActiveTabID       string
	QueueFilter       string
	SelectedDraftID   int64
	QueueScrollOffset int
	SearchText        string
	ActiveAgentID     string
	ChatScrollOffset  int
	AutoPlayEnabled   bool
	PlaybackSpeed     float64
}

// DefaultPreferences returns the record used before anything is persisted.
func DefaultPreferences() Preferences {
	return Preferences{
		ActiveTabID:     "queue",
		QueueFilter:     "all",
		ActiveAgentID:   "althea",
		AutoPlayEnabled: true,
		PlaybackSpeed:   1.0,
	}
}

// Wire formats. The dashboard blob keeps the nested shape the web dashboard
// used so a state file from either frontend reads back cleanly.
type dashboardBlob struct {
	CurrentTab *string `json:"currentTab,omitempty"`
	Queue      struct {
		Filter          *string `json:"filter,omitempty"`
		SelectedDraftID *int64  `json:"selectedDraftId,omitempty"`
		ScrollPosition  *int    `json:"scrollPosition,omitempty"`
		SearchQuery     *string `json:"searchQuery,omitempty"`
	} `json:"queue"`
	Chat struct {
		CurrentAgent   *string `json:"currentAgent,omitempty"`
		ScrollPosition *int    `json:"scrollPosition,omitempty"`
	} `json:"chat"`
}

type voiceBlob struct {
	AutoPlayEnabled *bool    `json:"autoPlayEnabled,omitempty"`
	Speed           *float64 `json:"speed,omitempty"`
}

// Store owns the preference record and its persistence.
type Store struct {
	mu       sync.Mutex
	dir      string
	defaults Preferences
	prefs    Preferences
	debounce time.Duration
	timer    *time.Timer
}

// New creates a store rooted at dir. Nothing is read until Load.
func New(dir string, defaults Preferences) *Store {
	return &Store{
		dir:      dir,
		defaults: defaults,
		prefs:    defaults,
		debounce: DefaultDebounce,
	}
}

// SetDebounce overrides the persistence window. Zero flushes synchronously.
func (s *Store) SetDebounce(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debounce = d
}

// Load reads the persisted blobs, merging them over the defaults. Missing
// or partial files keep defaults; corrupt data is logged and skipped.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs = s.defaults

	if data, err := os.ReadFile(filepath.Join(s.dir, DashboardFile)); err == nil {
		var blob dashboardBlob
		if err := json.Unmarshal(data, &blob); err != nil {
			slog.Warn("Dashboard state unreadable, using defaults", "error", err)
		} else {
			if blob.CurrentTab != nil {
				s.prefs.ActiveTabID = *blob.CurrentTab
			}
			if blob.Queue.Filter != nil {
				s.prefs.QueueFilter = *blob.Queue.Filter
			}
			if blob.Queue.SelectedDraftID != nil {
				s.prefs.SelectedDraftID = *blob.Queue.SelectedDraftID
			}
			if blob.Queue.ScrollPosition != nil {
				s.prefs.QueueScrollOffset = *blob.Queue.ScrollPosition
			}
			if blob.Queue.SearchQuery != nil {
				s.prefs.SearchText = *blob.Queue.SearchQuery
			}
			if blob.Chat.CurrentAgent != nil {
				s.prefs.ActiveAgentID = *blob.Chat.CurrentAgent
			}
			if blob.Chat.ScrollPosition != nil {
				s.prefs.ChatScrollOffset = *blob.Chat.ScrollPosition
			}
		}
	}

	if data, err := os.ReadFile(filepath.Join(s.dir, VoiceFile)); err == nil {
		var blob voiceBlob
		if err := json.Unmarshal(data, &blob); err != nil {
			slog.Warn("Voice prefs unreadable, using defaults", "error", err)
		} else {
			if blob.AutoPlayEnabled != nil {
				s.prefs.AutoPlayEnabled = *blob.AutoPlayEnabled
			}
			if blob.Speed != nil {
				s.prefs.PlaybackSpeed = *blob.Speed
			}
		}
	}
}

// Get returns a snapshot of the current record.
func (s *Store) Get() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// SetActiveTab records the active tab id.
func (s *Store) SetActiveTab(tabID string) {
	s.update(func(p *Preferences) { p.ActiveTabID = tabID })
}

// SetQueueFilter records the queue status filter.
func (s *Store) SetQueueFilter(filter string) {
	s.update(func(p *Preferences) { p.QueueFilter = filter })
}

// SetSelectedDraft records the selected draft id (0 clears the selection).
func (s *Store) SetSelectedDraft(id int64) {
	s.update(func(p *Preferences) { p.SelectedDraftID = id })
}

// SetQueueScroll records the queue list scroll offset.
func (s *Store) SetQueueScroll(offset int) {
	s.update(func(p *Preferences) { p.QueueScrollOffset = offset })
}

// SetSearchText records the queue search text.
func (s *Store) SetSearchText(text string) {
	s.update(func(p *Preferences) { p.SearchText = text })
}

// SetActiveAgent records the current agent id.
func (s *Store) SetActiveAgent(agentID string) {
	s.update(func(p *Preferences) { p.ActiveAgentID = agentID })
}

// SetChatScroll records the chat scroll offset.
func (s *Store) SetChatScroll(offset int) {
	s.update(func(p *Preferences) { p.ChatScrollOffset = offset })
}

// SetAutoPlay records whether new assistant messages are spoken.
func (s *Store) SetAutoPlay(enabled bool) {
	s.update(func(p *Preferences) { p.AutoPlayEnabled = enabled })
}

// SetPlaybackSpeed records the voice playback speed.
func (s *Store) SetPlaybackSpeed(speed float64) {
	s.update(func(p *Preferences) { p.PlaybackSpeed = speed })
}

func (s *Store) update(apply func(*Preferences)) {
	s.mu.Lock()
	apply(&s.prefs)
	if s.debounce <= 0 {
		prefs := s.prefs
		s.mu.Unlock()
		s.persist(prefs)
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.flushTimer)
	s.mu.Unlock()
}

func (s *Store) flushTimer() {
	s.mu.Lock()
	s.timer = nil
	prefs := s.prefs
	s.mu.Unlock()
	s.persist(prefs)
}

// Flush cancels any pending debounce and writes the current record now.
func (s *Store) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	prefs := s.prefs
	s.mu.Unlock()
	s.persist(prefs)
}

// Clear resets the record to defaults and removes the persisted blobs
// immediately, skipping the debounce.
func (s *Store) Clear() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.prefs = s.defaults
	s.mu.Unlock()

	os.Remove(filepath.Join(s.dir, DashboardFile))
	os.Remove(filepath.Join(s.dir, VoiceFile))
}

func (s *Store) persist(p Preferences) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		slog.Warn("State dir unavailable", "dir", s.dir, "error", err)
		return
	}

	var dash dashboardBlob
	dash.CurrentTab = &p.ActiveTabID
	dash.Queue.Filter = &p.QueueFilter
	dash.Queue.SelectedDraftID = &p.SelectedDraftID
	dash.Queue.ScrollPosition = &p.QueueScrollOffset
	dash.Queue.SearchQuery = &p.SearchText
	dash.Chat.CurrentAgent = &p.ActiveAgentID
	dash.Chat.ScrollPosition = &p.ChatScrollOffset

	voice := voiceBlob{AutoPlayEnabled: &p.AutoPlayEnabled, Speed: &p.PlaybackSpeed}

	if err := writeJSON(filepath.Join(s.dir, DashboardFile), dash); err != nil {
		slog.Warn("Dashboard state save failed", "error", err)
	}
	if err := writeJSON(filepath.Join(s.dir, VoiceFile), voice); err != nil {
		slog.Warn("Voice prefs save failed", "error", err)
	}
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}
