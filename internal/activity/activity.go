// Package activity keeps a local history of operator actions and connection
// events in a sqlite database under the state directory. Writes are
// best-effort: the dashboard never blocks or fails because history could not
// be recorded.
package activity

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// Entry kinds recorded by the dashboard.
const (
	KindDraftApproved  = "draft_approved"
	KindDraftEdited    = "draft_edited"
	KindDraftDeleted   = "draft_deleted"
	KindAgentSwitched  = "agent_switched"
	KindLogin          = "login"
	KindLogout         = "logout"
	KindMonitorToggled = "monitor_toggled"
	KindConnectionLost = "connection_lost"
	KindVoicePlayed    = "voice_played"
)

// Entry is one recorded action.
type Entry struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	DraftID   int64     `json:"draft_id,omitempty"`
	AgentID   string    `json:"agent_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS activity (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	draft_id INTEGER NOT NULL DEFAULT 0,
	agent_id TEXT NOT NULL DEFAULT '',
	detail TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_activity_kind ON activity(kind);
CREATE INDEX IF NOT EXISTS idx_activity_created ON activity(created_at);
`

// Log stores activity entries.
type Log struct {
	db *sql.DB
}

// Open opens (or creates) the activity database at dbPath.
func Open(dbPath string) (*Log, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open activity db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Log{db: db}, nil
}

func (l *Log) Close() error {
	return l.db.Close()
}

// Record inserts one entry. Failures are logged and swallowed so callers
// stay on their happy path.
func (l *Log) Record(kind string, draftID int64, agentID, detail string) {
	_, err := l.db.Exec(
		`INSERT INTO activity (kind, draft_id, agent_id, detail) VALUES (?, ?, ?, ?)`,
		kind, draftID, agentID, detail,
	)
	if err != nil {
		slog.Warn("Activity record failed", "kind", kind, "error", err)
	}
}

// Recent returns the newest entries, newest first. limit <= 0 means 50.
func (l *Log) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.Query(
		`SELECT id, kind, draft_id, agent_id, detail, created_at
		 FROM activity ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ByKind returns the newest entries of one kind, newest first.
func (l *Log) ByKind(kind string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.Query(
		`SELECT id, kind, draft_id, agent_id, detail, created_at
		 FROM activity WHERE kind = ? ORDER BY id DESC LIMIT ?`, kind, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Prune deletes entries older than the cutoff and reports how many went.
func (l *Log) Prune(olderThan time.Time) (int64, error) {
	res, err := l.db.Exec(`DELETE FROM activity WHERE created_at < ?`, olderThan)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Kind, &e.DraftID, &e.AgentID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
