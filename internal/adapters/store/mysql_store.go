package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/llm-notify-gateway/internal/core"
	"go.uber.org/zap"
)

// MySQLStore is a MySQL implementation of the MemoryRepository interface
type MySQLStore struct {
	db        *sql.DB
	rulesFile string
	logger    *zap.Logger
}

// NewMySQLStore creates a new MySQL-backed store
func NewMySQLStore(dsn, rulesFile string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	// Create tables if they don't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS memories (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			text TEXT NOT NULL,
			timestamp VARCHAR(64) NOT NULL,
			source VARCHAR(255)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create memories table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS responses (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			response TEXT NOT NULL,
			message_summary TEXT NOT NULL,
			timestamp VARCHAR(64) NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create responses table: %w", err)
	}

	return &MySQLStore{
		db:        db,
		rulesFile: rulesFile,
		logger:    logger,
	}, nil
}

// AppendMemory appends an observation to the memory log
func (s *MySQLStore) AppendMemory(ctx context.Context, text, source string) (*core.MemoryEntry, error) {
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
func (s *MySQLStore) AllMemories(ctx context.Context) ([]core.MemoryEntry, error) {
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
func (s *MySQLStore) RecentMemories(ctx context.Context, n int) ([]core.MemoryEntry, error) {
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
		) tail
		ORDER BY id
	`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	return scanMemories(rows)
}

// Forget removes every memory whose text contains query, case-insensitively
func (s *MySQLStore) Forget(ctx context.Context, query string) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM memories
		WHERE INSTR(LOWER(text), LOWER(?)) > 0
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
func (s *MySQLStore) AppendResponse(ctx context.Context, response, messageSummary string) (*core.ResponseEntry, error) {
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
func (s *MySQLStore) RecentResponses(ctx context.Context, n int) ([]core.ResponseEntry, error) {
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
			) tail
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
func (s *MySQLStore) MemoryCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count memories: %w", err)
	}
	return count, nil
}

// ResponseCount returns the number of entries in the response log
func (s *MySQLStore) ResponseCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM responses`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}
	return count, nil
}

// Rules returns the contents of the rules document
func (s *MySQLStore) Rules(ctx context.Context) (string, error) {
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
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
