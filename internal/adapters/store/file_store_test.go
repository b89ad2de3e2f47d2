package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	dir := t.TempDir()
	return NewFileStore(dir, filepath.Join(dir, "MANIFEST.md"), zap.NewNop())
}

func TestAppendAndListMemories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entry, err := s.AppendMemory(ctx, "buy milk", "cli")
	require.NoError(t, err)
	assert.Equal(t, "buy milk", entry.Text)
	assert.Equal(t, "cli", entry.Source)
	assert.NotEmpty(t, entry.Timestamp)

	_, err = s.AppendMemory(ctx, "call mum", "")
	require.NoError(t, err)

	all, err := s.AllMemories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "buy milk", all[0].Text)
	assert.Equal(t, "call mum", all[1].Text)

	count, err := s.MemoryCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRecentMemoriesReturnsTailInOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.AppendMemory(ctx, fmt.Sprintf("memory %d", i), "cli")
		require.NoError(t, err)
	}

	recent, err := s.RecentMemories(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "memory 3", recent[0].Text)
	assert.Equal(t, "memory 4", recent[1].Text)
}

func TestForgetIsCaseInsensitiveAndIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, text := range []string{"buy milk", "Buy MILK again", "call mum"} {
		_, err := s.AppendMemory(ctx, text, "cli")
		require.NoError(t, err)
	}

	removed, err := s.Forget(ctx, "milk")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	removed, err = s.Forget(ctx, "milk")
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	all, err := s.AllMemories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "call mum", all[0].Text)
}

func TestAppendAndListResponses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.AppendResponse(ctx, "Yes (acknowledged)", "restart request")
	require.NoError(t, err)
	_, err = s.AppendResponse(ctx, "No (dismissed)", "lunch invite")
	require.NoError(t, err)

	recent, err := s.RecentResponses(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "No (dismissed)", recent[0].Response)
	assert.Equal(t, "lunch invite", recent[0].MessageSummary)

	count, err := s.ResponseCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestEmptyStoreReadsAsEmptyLogs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	all, err := s.AllMemories(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	count, err := s.ResponseCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRulesMissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)

	rules, err := s.Rules(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestRulesReadsDocument(t *testing.T) {
	dir := t.TempDir()
	rulesFile := filepath.Join(dir, "MANIFEST.md")
	require.NoError(t, os.WriteFile(rulesFile, []byte("Always notify about deploys."), 0o644))

	s := NewFileStore(dir, rulesFile, zap.NewNop())
	rules, err := s.Rules(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Always notify about deploys.", rules)
}

func TestStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	rulesFile := filepath.Join(dir, "MANIFEST.md")
	ctx := context.Background()

	s := NewFileStore(dir, rulesFile, zap.NewNop())
	_, err := s.AppendMemory(ctx, "persisted", "cli")
	require.NoError(t, err)

	reopened := NewFileStore(dir, rulesFile, zap.NewNop())
	all, err := reopened.AllMemories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "persisted", all[0].Text)
}
