package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"fable_ai/story"
)

const schema = `
CREATE TABLE IF NOT EXISTS playthroughs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	theme      TEXT NOT NULL,
	ended_at   TEXT NOT NULL,
	message    TEXT NOT NULL,
	transcript TEXT NOT NULL
);`

// Store keeps finished playthroughs in a local sqlite file.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Playthrough is one archived game.
type Playthrough struct {
	ID      int64
	Theme   string
	EndedAt time.Time
	Message string
	Log     []story.LogEntry
}

// Open creates or opens the archive at path. Use ":memory:" in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating archive schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// SaveEnded implements story.Recorder.
func (s *Store) SaveEnded(ctx context.Context, theme string, log []story.LogEntry, message string) error {
	transcript, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("encoding transcript: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO playthroughs (theme, ended_at, message, transcript) VALUES (?, ?, ?, ?)`,
		theme, s.now().UTC().Format(time.RFC3339), message, string(transcript))
	if err != nil {
		return fmt.Errorf("saving playthrough: %w", err)
	}
	return nil
}

// Recent returns up to n playthroughs, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Playthrough, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, theme, ended_at, message, transcript FROM playthroughs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("listing playthroughs: %w", err)
	}
	defer rows.Close()

	var out []Playthrough
	for rows.Next() {
		var (
			p          Playthrough
			endedAt    string
			transcript string
		)
		if err := rows.Scan(&p.ID, &p.Theme, &endedAt, &p.Message, &transcript); err != nil {
			return nil, fmt.Errorf("scanning playthrough: %w", err)
		}
		if p.EndedAt, err = time.Parse(time.RFC3339, endedAt); err != nil {
			return nil, fmt.Errorf("parsing ended_at: %w", err)
		}
		if err := json.Unmarshal([]byte(transcript), &p.Log); err != nil {
			return nil, fmt.Errorf("decoding transcript: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
