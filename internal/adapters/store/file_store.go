package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mikey/llm-notify-gateway/internal/core"
	"go.uber.org/zap"
)

const (
	memoriesFile  = "memories.json"
	responsesFile = "responses.json"
)

// FileStore is a JSON-file implementation of the MemoryRepository interface.
// Each log lives in its own file under dataDir and is rewritten in full on
// every append. A single mutex serializes all access so concurrent handlers
// never interleave a read with a partial rewrite.
type FileStore struct {
	dataDir   string
	rulesFile string
	logger    *zap.Logger
	mu        sync.Mutex
}

// NewFileStore creates a new file-backed store rooted at dataDir
func NewFileStore(dataDir, rulesFile string, logger *zap.Logger) *FileStore {
	return &FileStore{
		dataDir:   dataDir,
		rulesFile: rulesFile,
		logger:    logger,
	}
}

// AppendMemory appends an observation to the memory log
func (s *FileStore) AppendMemory(ctx context.Context, text, source string) (*core.MemoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var memories []core.MemoryEntry
	if err := s.load(memoriesFile, &memories); err != nil {
		return nil, err
	}

	entry := core.MemoryEntry{
		Text:      text,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Source:    source,
	}
	memories = append(memories, entry)

	if err := s.save(memoriesFile, memories); err != nil {
		return nil, err
	}

	s.logger.Debug("Memory appended", zap.Int("total", len(memories)))
	return &entry, nil
}

// AllMemories returns the full memory log, oldest first
func (s *FileStore) AllMemories(ctx context.Context) ([]core.MemoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var memories []core.MemoryEntry
	if err := s.load(memoriesFile, &memories); err != nil {
		return nil, err
	}
	return memories, nil
}

// RecentMemories returns up to n entries from the tail of the memory log
func (s *FileStore) RecentMemories(ctx context.Context, n int) ([]core.MemoryEntry, error) {
	memories, err := s.AllMemories(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(memories) > n {
		memories = memories[len(memories)-n:]
	}
	return memories, nil
}

// Forget removes every memory whose text contains query, case-insensitively
func (s *FileStore) Forget(ctx context.Context, query string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var memories []core.MemoryEntry
	if err := s.load(memoriesFile, &memories); err != nil {
		return 0, err
	}

	needle := strings.ToLower(query)
	kept := memories[:0]
	for _, m := range memories {
		if !strings.Contains(strings.ToLower(m.Text), needle) {
			kept = append(kept, m)
		}
	}

	removed := len(memories) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	if err := s.save(memoriesFile, kept); err != nil {
		return 0, err
	}

	s.logger.Info("Memories forgotten",
		zap.String("query", query),
		zap.Int("removed", removed))
	return removed, nil
}

// AppendResponse appends an operator response to the response log
func (s *FileStore) AppendResponse(ctx context.Context, response, messageSummary string) (*core.ResponseEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var responses []core.ResponseEntry
	if err := s.load(responsesFile, &responses); err != nil {
		return nil, err
	}

	entry := core.ResponseEntry{
		Response:       response,
		MessageSummary: messageSummary,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}
	responses = append(responses, entry)

	if err := s.save(responsesFile, responses); err != nil {
		return nil, err
	}
	return &entry, nil
}

// RecentResponses returns up to n entries from the tail of the response log
func (s *FileStore) RecentResponses(ctx context.Context, n int) ([]core.ResponseEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var responses []core.ResponseEntry
	if err := s.load(responsesFile, &responses); err != nil {
		return nil, err
	}
	if n > 0 && len(responses) > n {
		responses = responses[len(responses)-n:]
	}
	return responses, nil
}

// MemoryCount returns the number of entries in the memory log
func (s *FileStore) MemoryCount(ctx context.Context) (int, error) {
	memories, err := s.AllMemories(ctx)
	if err != nil {
		return 0, err
	}
	return len(memories), nil
}

// ResponseCount returns the number of entries in the response log
func (s *FileStore) ResponseCount(ctx context.Context) (int, error) {
	responses, err := s.RecentResponses(ctx, 0)
	if err != nil {
		return 0, err
	}
	return len(responses), nil
}

// Rules returns the contents of the rules document, or an empty string when
// the file does not exist yet
func (s *FileStore) Rules(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.rulesFile)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read rules file: %w", err)
	}
	return string(data), nil
}

// load reads a JSON log file into out. A missing file is an empty log.
func (s *FileStore) load(name string, out interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.dataDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// save rewrites a JSON log file in full
func (s *FileStore) save(name string, in interface{}) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.dataDir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
