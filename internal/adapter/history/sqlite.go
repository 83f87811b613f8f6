package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"codeqa/internal/domain"
)

// SQLiteHistory persists history across restarts and trims the table to
// capacity on every insert.
type SQLiteHistory struct {
	db       *sql.DB
	capacity int
}

func OpenSQLite(path string, capacity int) (*SQLiteHistory, error) {
	p := filepath.Clean(strings.TrimSpace(path))
	if p == "" || p == "." {
		return nil, errors.New("missing history path")
	}
	if capacity < 1 {
		capacity = 1
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Single-process local DB.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &SQLiteHistory{db: db, capacity: capacity}, nil
}

func initSchema(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		return fmt.Errorf("pragma journal_mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=3000;`); err != nil {
		return fmt.Errorf("pragma busy_timeout: %w", err)
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS qa_history (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  question TEXT NOT NULL,
  answer TEXT NOT NULL,
  references_json TEXT NOT NULL DEFAULT '[]',
  snippets_json TEXT NOT NULL DEFAULT '[]',
  created_at_unix_ms INTEGER NOT NULL
);
`); err != nil {
		return fmt.Errorf("create table qa_history: %w", err)
	}
	return nil
}

func (h *SQLiteHistory) Add(ctx context.Context, entry domain.HistoryEntry) error {
	refs, err := json.Marshal(entry.References)
	if err != nil {
		return err
	}
	snippets, err := json.Marshal(entry.RetrievedSnippets)
	if err != nil {
		return err
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO qa_history (question, answer, references_json, snippets_json, created_at_unix_ms)
VALUES (?, ?, ?, ?, ?)
`, entry.Question, entry.Answer, string(refs), string(snippets), time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
DELETE FROM qa_history
WHERE id NOT IN (SELECT id FROM qa_history ORDER BY id DESC LIMIT ?)
`, h.capacity); err != nil {
		return fmt.Errorf("trim history: %w", err)
	}

	return tx.Commit()
}

func (h *SQLiteHistory) List(ctx context.Context) ([]domain.HistoryEntry, error) {
	rows, err := h.db.QueryContext(ctx, `
SELECT question, answer, references_json, snippets_json
FROM qa_history
ORDER BY id ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.HistoryEntry{}
	for rows.Next() {
		var e domain.HistoryEntry
		var refs, snippets string
		if err := rows.Scan(&e.Question, &e.Answer, &refs, &snippets); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(refs), &e.References); err != nil {
			return nil, fmt.Errorf("decode references: %w", err)
		}
		if err := json.Unmarshal([]byte(snippets), &e.RetrievedSnippets); err != nil {
			return nil, fmt.Errorf("decode snippets: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (h *SQLiteHistory) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}
