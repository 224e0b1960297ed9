package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/poorehouse/twotruths/internal/logging"
	"github.com/poorehouse/twotruths/internal/store/migrations"
	"github.com/poorehouse/twotruths/internal/types"
)

const (
	kindPrompt   = "prompt"
	kindResponse = "response"
)

// SQLiteBackend persists sessions in a local database file. Unlike the
// Redis backend, expiry is not native, so Purge does the retention work.
type SQLiteBackend struct {
	db   *sql.DB
	opts Options
}

func NewSQLiteBackend(path string, opts Options) (*SQLiteBackend, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Open database with WAL mode and single connection (no concurrency)
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=cache_size(1000000000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Force single connection - SQLite doesn't handle concurrent writers well
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logging.Infof("SQLite session store initialized at %s", path)
	return &SQLiteBackend{db: db, opts: opts.withDefaults()}, nil
}

func (s *SQLiteBackend) History(ctx context.Context, sessionID string) (types.History, error) {
	count, err := s.ensureSession(ctx, sessionID)
	if err != nil {
		return types.History{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM rounds WHERE session_id = ? ORDER BY seq DESC LIMIT ?`,
		sessionID, s.opts.MaxRounds)
	if err != nil {
		return types.History{}, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	var rounds []types.Round
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return types.History{}, fmt.Errorf("scan round: %w", err)
		}
		var round types.Round
		if err := json.Unmarshal([]byte(payload), &round); err != nil {
			logging.Warnf("store: skipping unreadable round in session %s: %v", sessionID, err)
			continue
		}
		rounds = append(rounds, round)
	}
	if err := rows.Err(); err != nil {
		return types.History{}, fmt.Errorf("iterate rounds: %w", err)
	}

	return types.History{RoundCount: count, Rounds: rounds}, nil
}

func (s *SQLiteBackend) Append(ctx context.Context, sessionID string, round types.Round) error {
	payload, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("marshal round: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().UnixNano()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, round_count, updated_at) VALUES (?, 1, ?)
		 ON CONFLICT(id) DO UPDATE SET round_count = round_count + 1, updated_at = excluded.updated_at`,
		sessionID, now)
	if err != nil {
		return fmt.Errorf("bump round count: %w", err)
	}

	var seq int
	if err := tx.QueryRowContext(ctx,
		`SELECT round_count FROM sessions WHERE id = ?`, sessionID).Scan(&seq); err != nil {
		return fmt.Errorf("read round count: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO rounds (session_id, seq, payload, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, seq, string(payload), now)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM rounds WHERE session_id = ? AND seq <= ?`,
		sessionID, seq-s.opts.MaxRounds)
	if err != nil {
		return fmt.Errorf("trim rounds: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteBackend) Reset(ctx context.Context, sessionID string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	count := 0
	err = tx.QueryRowContext(ctx,
		`SELECT round_count FROM sessions WHERE id = ?`, sessionID).Scan(&count)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("read round count: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM rounds WHERE session_id = ?`, sessionID); err != nil {
		return 0, fmt.Errorf("clear rounds: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM gen_logs WHERE session_id = ?`, sessionID); err != nil {
		return 0, fmt.Errorf("clear logs: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, round_count, updated_at) VALUES (?, 0, ?)
		 ON CONFLICT(id) DO UPDATE SET round_count = 0, updated_at = excluded.updated_at`,
		sessionID, time.Now().UTC().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("reset session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *SQLiteBackend) LogPrompt(ctx context.Context, sessionID string, entry types.PromptLog) error {
	return s.insertLog(ctx, sessionID, kindPrompt, entry)
}

func (s *SQLiteBackend) LogResponse(ctx context.Context, sessionID string, entry types.ResponseLog) error {
	return s.insertLog(ctx, sessionID, kindResponse, entry)
}

func (s *SQLiteBackend) Prompts(ctx context.Context, sessionID string) ([]types.PromptLog, error) {
	payloads, err := s.readLogs(ctx, sessionID, kindPrompt)
	if err != nil {
		return nil, err
	}
	out := make([]types.PromptLog, 0, len(payloads))
	for _, p := range payloads {
		var entry types.PromptLog
		if err := json.Unmarshal([]byte(p), &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *SQLiteBackend) Responses(ctx context.Context, sessionID string) ([]types.ResponseLog, error) {
	payloads, err := s.readLogs(ctx, sessionID, kindResponse)
	if err != nil {
		return nil, err
	}
	out := make([]types.ResponseLog, 0, len(payloads))
	for _, p := range payloads {
		var entry types.ResponseLog
		if err := json.Unmarshal([]byte(p), &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *SQLiteBackend) Purge(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.opts.TTL).UnixNano()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin purge: %w", err)
	}
	defer tx.Rollback()

	stale := `SELECT id FROM sessions WHERE updated_at < ?`
	if _, err := tx.ExecContext(ctx, `DELETE FROM rounds WHERE session_id IN (`+stale+`)`, cutoff); err != nil {
		return 0, fmt.Errorf("purge rounds: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM gen_logs WHERE session_id IN (`+stale+`)`, cutoff); err != nil {
		return 0, fmt.Errorf("purge logs: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	removed, _ := res.RowsAffected()
	return int(removed), nil
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}

// ensureSession reads the round counter, inserting a zero row the first
// time a session is seen.
func (s *SQLiteBackend) ensureSession(ctx context.Context, sessionID string) (int, error) {
	count := 0
	err := s.db.QueryRowContext(ctx,
		`SELECT round_count FROM sessions WHERE id = ?`, sessionID).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO sessions (id, round_count, updated_at) VALUES (?, 0, ?)`,
			sessionID, time.Now().UTC().UnixNano())
		if err != nil {
			return 0, fmt.Errorf("create session: %w", err)
		}
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read session: %w", err)
	}
	return count, nil
}

func (s *SQLiteBackend) insertLog(ctx context.Context, sessionID, kind string, entry any) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal %s log: %w", kind, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s log: %w", kind, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO gen_logs (session_id, kind, payload, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, kind, string(payload), time.Now().UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("insert %s log: %w", kind, err)
	}

	// Keep only the newest MaxRounds entries per kind.
	_, err = tx.ExecContext(ctx,
		`DELETE FROM gen_logs WHERE session_id = ? AND kind = ? AND id NOT IN (
			SELECT id FROM gen_logs WHERE session_id = ? AND kind = ? ORDER BY id DESC LIMIT ?
		)`,
		sessionID, kind, sessionID, kind, s.opts.MaxRounds)
	if err != nil {
		return fmt.Errorf("trim %s logs: %w", kind, err)
	}

	return tx.Commit()
}

func (s *SQLiteBackend) readLogs(ctx context.Context, sessionID, kind string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM gen_logs WHERE session_id = ? AND kind = ? ORDER BY id DESC LIMIT ?`,
		sessionID, kind, s.opts.MaxRounds)
	if err != nil {
		return nil, fmt.Errorf("query %s logs: %w", kind, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan %s log: %w", kind, err)
		}
		out = append(out, payload)
	}
	return out, rows.Err()
}
