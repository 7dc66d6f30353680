// Copyright 2026 The linguistic-chatbot Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package store provides the durable conversation log: an append-only turn
// log, per-session summary records, and incrementally maintained daily
// aggregate statistics, all backed by an embedded SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	log "github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// Turn is one immutable logged exchange. Category is empty when no
// knowledge-base category matched.
type Turn struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	Timestamp   time.Time `json:"timestamp"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	Language    string    `json:"language"`
	Confidence  float64   `json:"confidence"`
	Category    string    `json:"category,omitempty"`
	NeedsHuman  bool      `json:"needs_human"`
}

// Session is the mutable per-session summary row.
type Session struct {
	SessionID     string    `json:"session_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	MessageCount  int       `json:"message_count"`
	LanguagesUsed []string  `json:"languages_used"`
}

// DailyStat is the per-calendar-date aggregate, created lazily on the first
// turn of a day and updated incrementally with every turn.
type DailyStat struct {
	Date               string         `json:"date"`
	TotalConversations int            `json:"total_conversations"`
	TotalSessions      int            `json:"total_sessions"`
	Languages          map[string]int `json:"languages_breakdown"`
	Categories         map[string]int `json:"categories_breakdown"`
	AvgConfidence      float64        `json:"avg_confidence"`
	HumanHandoffCount  int            `json:"human_handoff_count"`
}

// Store wraps the SQLite database holding sessions, conversations, and
// daily_stats. A single connection serializes all writes, which also
// serializes the read-modify-write of the per-day aggregate row.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	message_count INTEGER NOT NULL DEFAULT 0,
	languages_used TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS conversations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	user_message TEXT NOT NULL,
	bot_response TEXT NOT NULL,
	language TEXT NOT NULL,
	confidence REAL NOT NULL DEFAULT 0.0,
	category TEXT,
	needs_human INTEGER NOT NULL DEFAULT 0,
	FOREIGN KEY (session_id) REFERENCES sessions (session_id)
);

CREATE INDEX IF NOT EXISTS idx_conversations_timestamp ON conversations(timestamp);
CREATE INDEX IF NOT EXISTS idx_conversations_session ON conversations(session_id);

CREATE TABLE IF NOT EXISTS daily_stats (
	date TEXT PRIMARY KEY,
	total_conversations INTEGER NOT NULL DEFAULT 0,
	total_sessions INTEGER NOT NULL DEFAULT 0,
	languages_breakdown TEXT NOT NULL DEFAULT '{}',
	categories_breakdown TEXT NOT NULL DEFAULT '{}',
	avg_confidence REAL NOT NULL DEFAULT 0.0,
	human_handoff_count INTEGER NOT NULL DEFAULT 0
);
`

// Open creates or opens the conversation database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single connection; this also makes every
	// LogTurn transaction a serialization point for the daily aggregate.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Infof("Conversation store initialized (db: %s)", path)
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// LogTurn records one turn: it upserts the session summary, appends the
// immutable conversation row, and updates the daily aggregate for the
// turn's date. All three writes commit in a single transaction, so readers
// never observe a turn without its aggregate update.
func (s *Store) LogTurn(ctx context.Context, t *Turn) error {
	if t == nil {
		return fmt.Errorf("turn cannot be nil")
	}
	if t.SessionID == "" {
		return fmt.Errorf("turn has no session id")
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}
	t.Timestamp = t.Timestamp.UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	newSession, err := upsertSession(ctx, tx, t)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO conversations
			(session_id, timestamp, user_message, bot_response, language, confidence, category, needs_human)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.SessionID, t.Timestamp, t.UserMessage, t.BotResponse, t.Language,
		t.Confidence, nullableString(t.Category), boolToInt(t.NeedsHuman),
	)
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		t.ID = id
	}

	if err := updateDailyStats(ctx, tx, t, newSession); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit turn: %w", err)
	}
	return nil
}

// upsertSession creates the session row on first contact or increments its
// counters, reporting whether the session is new. Membership in
// languages_used is exact set membership on the decoded list, never
// substring containment on the serialized form.
func upsertSession(ctx context.Context, tx *sql.Tx, t *Turn) (bool, error) {
	var languagesJSON string
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT languages_used, message_count FROM sessions WHERE session_id = ?`,
		t.SessionID).Scan(&languagesJSON, &count)

	switch {
	case err == sql.ErrNoRows:
		langs, merr := json.Marshal([]string{t.Language})
		if merr != nil {
			return false, fmt.Errorf("failed to encode languages: %w", merr)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sessions (session_id, created_at, updated_at, message_count, languages_used)
			VALUES (?, ?, ?, 1, ?)`,
			t.SessionID, t.Timestamp, t.Timestamp, string(langs))
		if err != nil {
			return false, fmt.Errorf("failed to insert session: %w", err)
		}
		return true, nil

	case err != nil:
		return false, fmt.Errorf("failed to read session: %w", err)
	}

	var languages []string
	if err := json.Unmarshal([]byte(languagesJSON), &languages); err != nil {
		return false, fmt.Errorf("failed to decode session languages: %w", err)
	}
	found := false
	for _, l := range languages {
		if l == t.Language {
			found = true
			break
		}
	}
	if !found {
		languages = append(languages, t.Language)
	}
	langs, err := json.Marshal(languages)
	if err != nil {
		return false, fmt.Errorf("failed to encode languages: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE sessions SET updated_at = ?, message_count = ?, languages_used = ?
		WHERE session_id = ?`,
		t.Timestamp, count+1, string(langs), t.SessionID)
	if err != nil {
		return false, fmt.Errorf("failed to update session: %w", err)
	}
	return false, nil
}

// updateDailyStats inserts the first aggregate row of a date or applies the
// incremental update. The running average uses the weighted-average form
// (old_avg*old_count + c) / (old_count+1), which keeps
// avg_confidence * total_conversations equal to the sum of logged
// confidences under repeated small updates.
func updateDailyStats(ctx context.Context, tx *sql.Tx, t *Turn, newSession bool) error {
	date := t.Timestamp.Format(dateLayout)

	var total, sessions, handoffs int
	var langsJSON, catsJSON string
	var avg float64
	err := tx.QueryRowContext(ctx, `
		SELECT total_conversations, total_sessions, languages_breakdown, categories_breakdown, avg_confidence, human_handoff_count
		FROM daily_stats WHERE date = ?`, date).
		Scan(&total, &sessions, &langsJSON, &catsJSON, &avg, &handoffs)

	switch {
	case err == sql.ErrNoRows:
		langs := map[string]int{t.Language: 1}
		cats := map[string]int{}
		if t.Category != "" {
			cats[t.Category] = 1
		}
		langsB, _ := json.Marshal(langs)
		catsB, _ := json.Marshal(cats)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO daily_stats
				(date, total_conversations, total_sessions, languages_breakdown, categories_breakdown, avg_confidence, human_handoff_count)
			VALUES (?, 1, ?, ?, ?, ?, ?)`,
			date, boolToInt(newSession), string(langsB), string(catsB), t.Confidence, boolToInt(t.NeedsHuman))
		if err != nil {
			return fmt.Errorf("failed to insert daily stats: %w", err)
		}
		return nil

	case err != nil:
		return fmt.Errorf("failed to read daily stats: %w", err)
	}

	var langs, cats map[string]int
	if err := json.Unmarshal([]byte(langsJSON), &langs); err != nil {
		return fmt.Errorf("failed to decode languages breakdown: %w", err)
	}
	if err := json.Unmarshal([]byte(catsJSON), &cats); err != nil {
		return fmt.Errorf("failed to decode categories breakdown: %w", err)
	}
	langs[t.Language]++
	if t.Category != "" {
		cats[t.Category]++
	}

	newTotal := total + 1
	newAvg := (avg*float64(total) + t.Confidence) / float64(newTotal)
	newSessions := sessions
	if newSession {
		newSessions++
	}
	newHandoffs := handoffs
	if t.NeedsHuman {
		newHandoffs++
	}

	langsB, _ := json.Marshal(langs)
	catsB, _ := json.Marshal(cats)
	_, err = tx.ExecContext(ctx, `
		UPDATE daily_stats SET
			total_conversations = ?,
			total_sessions = ?,
			languages_breakdown = ?,
			categories_breakdown = ?,
			avg_confidence = ?,
			human_handoff_count = ?
		WHERE date = ?`,
		newTotal, newSessions, string(langsB), string(catsB), newAvg, newHandoffs, date)
	if err != nil {
		return fmt.Errorf("failed to update daily stats: %w", err)
	}
	return nil
}

// GetSession returns the session summary, or nil when the session is
// unknown.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var sess Session
	var languagesJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, created_at, updated_at, message_count, languages_used
		FROM sessions WHERE session_id = ?`, sessionID).
		Scan(&sess.SessionID, &sess.CreatedAt, &sess.UpdatedAt, &sess.MessageCount, &languagesJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	if err := json.Unmarshal([]byte(languagesJSON), &sess.LanguagesUsed); err != nil {
		return nil, fmt.Errorf("failed to decode session languages: %w", err)
	}
	return &sess, nil
}

// GetTurnsForDate returns all turns logged on a calendar date, newest
// first. The date uses the YYYY-MM-DD layout.
func (s *Store) GetTurnsForDate(ctx context.Context, date string) ([]*Turn, error) {
	start, end, err := dayBounds(date)
	if err != nil {
		return nil, err
	}
	return s.queryTurns(ctx, `
		SELECT id, session_id, timestamp, user_message, bot_response, language, confidence, category, needs_human
		FROM conversations
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp DESC, id DESC`, start, end)
}

// GetTurnsForSession returns the full chronological history of a session,
// oldest first.
func (s *Store) GetTurnsForSession(ctx context.Context, sessionID string) ([]*Turn, error) {
	return s.queryTurns(ctx, `
		SELECT id, session_id, timestamp, user_message, bot_response, language, confidence, category, needs_human
		FROM conversations
		WHERE session_id = ?
		ORDER BY timestamp ASC, id ASC`, sessionID)
}

// GetDailyStats returns the aggregate row for a date, or nil when no turn
// was logged that day.
func (s *Store) GetDailyStats(ctx context.Context, date string) (*DailyStat, error) {
	var stat DailyStat
	var langsJSON, catsJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT date, total_conversations, total_sessions, languages_breakdown, categories_breakdown, avg_confidence, human_handoff_count
		FROM daily_stats WHERE date = ?`, date).
		Scan(&stat.Date, &stat.TotalConversations, &stat.TotalSessions,
			&langsJSON, &catsJSON, &stat.AvgConfidence, &stat.HumanHandoffCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stats: %w", err)
	}

	if err := json.Unmarshal([]byte(langsJSON), &stat.Languages); err != nil {
		return nil, fmt.Errorf("failed to decode languages breakdown: %w", err)
	}
	if err := json.Unmarshal([]byte(catsJSON), &stat.Categories); err != nil {
		return nil, fmt.Errorf("failed to decode categories breakdown: %w", err)
	}
	return &stat, nil
}

// ExportRange serializes all turns between startDate and endDate inclusive,
// newest first, as indented JSON.
func (s *Store) ExportRange(ctx context.Context, startDate, endDate string) ([]byte, error) {
	start, _, err := dayBounds(startDate)
	if err != nil {
		return nil, err
	}
	_, end, err := dayBounds(endDate)
	if err != nil {
		return nil, err
	}

	turns, err := s.queryTurns(ctx, `
		SELECT id, session_id, timestamp, user_message, bot_response, language, confidence, category, needs_human
		FROM conversations
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp DESC, id DESC`, start, end)
	if err != nil {
		return nil, err
	}
	if turns == nil {
		turns = []*Turn{}
	}

	data, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize export: %w", err)
	}
	return data, nil
}

// Cleanup deletes turns older than retentionDays, sessions left with no
// turns, and daily_stats rows older than the cutoff date. The three
// deletions are individually atomic; running concurrently with LogTurn is
// safe because the single connection serializes each statement against
// in-flight transactions.
func (s *Store) Cleanup(ctx context.Context, retentionDays int) error {
	if retentionDays <= 0 {
		return fmt.Errorf("retention days must be positive, got %d", retentionDays)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	cutoffDate := cutoff.Format(dateLayout)

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE timestamp < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete old turns: %w", err)
	}
	turnsDeleted, _ := res.RowsAffected()

	res, err = s.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE session_id NOT IN (
			SELECT DISTINCT session_id FROM conversations
		)`)
	if err != nil {
		return fmt.Errorf("failed to delete empty sessions: %w", err)
	}
	sessionsDeleted, _ := res.RowsAffected()

	res, err = s.db.ExecContext(ctx,
		`DELETE FROM daily_stats WHERE date < ?`, cutoffDate)
	if err != nil {
		return fmt.Errorf("failed to delete old daily stats: %w", err)
	}
	statsDeleted, _ := res.RowsAffected()

	if turnsDeleted > 0 || sessionsDeleted > 0 || statsDeleted > 0 {
		log.Infof("Retention cleanup removed %d turns, %d sessions, %d daily stats (older than %d days)",
			turnsDeleted, sessionsDeleted, statsDeleted, retentionDays)
	}
	return nil
}

func (s *Store) queryTurns(ctx context.Context, query string, args ...any) ([]*Turn, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []*Turn
	for rows.Next() {
		var t Turn
		var category sql.NullString
		var needsHuman int
		err := rows.Scan(&t.ID, &t.SessionID, &t.Timestamp, &t.UserMessage,
			&t.BotResponse, &t.Language, &t.Confidence, &category, &needsHuman)
		if err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		if category.Valid {
			t.Category = category.String
		}
		t.NeedsHuman = needsHuman == 1
		turns = append(turns, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating turns: %w", err)
	}
	return turns, nil
}

// dayBounds converts a YYYY-MM-DD date to the UTC [start, end) interval of
// that calendar day.
func dayBounds(date string) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", date, err)
	}
	return day, day.AddDate(0, 0, 1), nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
