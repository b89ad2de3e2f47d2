package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/llm-notify-gateway/internal/core"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the MemoryRepository interface
type SQLiteStore struct {
	db        *sql.DB
	rulesFile string
	logger    *zap.Logger
}

// NewSQLiteStore creates a new SQLite-backed store
func NewSQLiteStore(dbPath, rulesFile string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Create tables if they don't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS memories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			source TEXT
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create memories table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS responses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			response TEXT NOT NULL,
			message_summary TEXT NOT NULL,
			timestamp TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create responses table: %w", err)
	}

	return &SQLiteStore{
		db:        db,
		rulesFile: rulesFile,
		logger:    logger,
	}, nil
}

// AppendMemory appends an observation to the memory log
func (s *SQLiteStore) AppendMemory(ctx context.Context, text, source string) (*core.MemoryEntry, error) {
	entry := core.MemoryEntry{
		Text:      text,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Source:    source,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memories (text, timestamp, source)
		VALUES (?, ?, ?)
	`, entry.Text, entry.Timestamp, entry.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to insert memory: %w", err)
	}

	return &entry, nil
}

// AllMemories returns the full memory log, oldest first
func (s *SQLiteStore) AllMemories(ctx context.Context) ([]core.MemoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT text, timestamp, source
		FROM memories
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	return scanMemories(rows)
}

// RecentMemories returns up to n entries from the tail of the memory log
func (s *SQLiteStore) RecentMemories(ctx context.Context, n int) ([]core.MemoryEntry, error) {
	if n <= 0 {
		return s.AllMemories(ctx)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT text, timestamp, source
		FROM (
			SELECT id, text, timestamp, source
			FROM memories
			ORDER BY id DESC
			LIMIT ?
		)
		ORDER BY id
	`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	return scanMemories(rows)
}

// Forget removes every memory whose text contains query, case-insensitively
func (s *SQLiteStore) Forget(ctx context.Context, query string) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM memories
		WHERE instr(lower(text), lower(?)) > 0
	`, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete memories: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if removed > 0 {
		s.logger.Info("Memories forgotten",
			zap.String("query", query),
			zap.Int64("removed", removed))
	}
	return int(removed), nil
}

// AppendResponse appends an operator response to the response log
func (s *SQLiteStore) AppendResponse(ctx context.Context, response, messageSummary string) (*core.ResponseEntry, error) {
	entry := core.ResponseEntry{
		Response:       response,
		MessageSummary: messageSummary,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO responses (response, message_summary, timestamp)
		VALUES (?, ?, ?)
	`, entry.Response, entry.MessageSummary, entry.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to insert response: %w", err)
	}

	return &entry, nil
}

// RecentResponses returns up to n entries from the tail of the response log
func (s *SQLiteStore) RecentResponses(ctx context.Context, n int) ([]core.ResponseEntry, error) {
	query := `
		SELECT response, message_summary, timestamp
		FROM responses
		ORDER BY id
	`
	args := []interface{}{}
	if n > 0 {
		query = `
			SELECT response, message_summary, timestamp
			FROM (
				SELECT id, response, message_summary, timestamp
				FROM responses
				ORDER BY id DESC
				LIMIT ?
			)
			ORDER BY id
		`
		args = append(args, n)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	defer rows.Close()

	return scanResponses(rows)
}

// MemoryCount returns the number of entries in the memory log
func (s *SQLiteStore) MemoryCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count memories: %w", err)
	}
	return count, nil
}

// ResponseCount returns the number of entries in the response log
func (s *SQLiteStore) ResponseCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM responses`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}
	return count, nil
}

// Rules returns the contents of the rules document
func (s *SQLiteStore) Rules(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.rulesFile)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read rules file: %w", err)
	}
	return string(data), nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanMemories(rows *sql.Rows) ([]core.MemoryEntry, error) {
	var memories []core.MemoryEntry
	for rows.Next() {
		var entry core.MemoryEntry
		var source sql.NullString
		if err := rows.Scan(&entry.Text, &entry.Timestamp, &source); err != nil {
			return nil, fmt.Errorf("failed to scan memory row: %w", err)
		}
		entry.Source = source.String
		memories = append(memories, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memory rows: %w", err)
	}
	return memories, nil
}

func scanResponses(rows *sql.Rows) ([]core.ResponseEntry, error) {
	var responses []core.ResponseEntry
	for rows.Next() {
		var entry core.ResponseEntry
		if err := rows.Scan(&entry.Response, &entry.MessageSummary, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan response row: %w", err)
		}
		responses = append(responses, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate response rows: %w", err)
	}
	return responses, nil
}
