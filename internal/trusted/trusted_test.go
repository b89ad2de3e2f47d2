package trusted

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestIsTrusted(t *testing.T) {
	c := NewChecker([]string{"claude-code", " Ops-Bot "}, zap.NewNop())

	assert.True(t, c.IsTrusted("claude-code"))
	assert.True(t, c.IsTrusted("CLAUDE-CODE"))
	assert.True(t, c.IsTrusted("ops-bot"))
	assert.False(t, c.IsTrusted("random-caller"))
}

func TestEmptySourceIsNeverTrusted(t *testing.T) {
	c := NewChecker([]string{"claude-code"}, zap.NewNop())
	assert.False(t, c.IsTrusted(""))
}

func TestNoConfiguredSources(t *testing.T) {
	c := NewChecker(nil, zap.NewNop())
	assert.False(t, c.IsTrusted("claude-code"))
}
