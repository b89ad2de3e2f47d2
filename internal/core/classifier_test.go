package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClassifier(llm LLMClient) *ClassifierGateway {
	return NewClassifierGateway(llm, zap.NewNop(), 0, 0, 0, 0, 0)
}

func TestClassifyParsesJSONDecision(t *testing.T) {
	llm := &fakeLLM{response: `{"notify": true, "reason": "production down", "summary": "API is on fire"}`}
	g := newTestClassifier(llm)

	result, err := g.Classify(context.Background(), "the api is down", nil, nil, "")
	require.NoError(t, err)

	assert.True(t, result.Notify)
	assert.Equal(t, "production down", result.Reason)
	assert.Equal(t, "API is on fire", result.Summary)
	assert.GreaterOrEqual(t, result.LatencyMS, int64(0))
}

func TestClassifyStripsCodeFences(t *testing.T) {
	llm := &fakeLLM{response: "```json\n{\"notify\": true, \"reason\": \"urgent\", \"summary\": \"ping\"}\n```"}
	g := newTestClassifier(llm)

	result, err := g.Classify(context.Background(), "hello", nil, nil, "")
	require.NoError(t, err)
	assert.True(t, result.Notify)
}

func TestClassifyFailsSafeOnGarbage(t *testing.T) {
	llm := &fakeLLM{response: "I think you should probably be notified about this one."}
	g := newTestClassifier(llm)

	result, err := g.Classify(context.Background(), "hello", nil, nil, "")
	require.NoError(t, err)

	assert.False(t, result.Notify)
	assert.Equal(t, "failed to parse classification", result.Reason)
}

func TestClassifyPropagatesTransportError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("connection refused")}
	g := newTestClassifier(llm)

	_, err := g.Classify(context.Background(), "hello", nil, nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classification call failed")
}

func TestClassifyPromptContainsContext(t *testing.T) {
	llm := &fakeLLM{response: `{"notify": false, "reason": "noise", "summary": ""}`}
	g := newTestClassifier(llm)

	memories := []MemoryEntry{{Text: "deploy went out", Timestamp: "2026-08-30T10:00:00Z"}}
	responses := []ResponseEntry{{Response: "Yes (acknowledged)", MessageSummary: "deploy question", Timestamp: "2026-08-29T09:00:00Z"}}

	_, err := g.Classify(context.Background(), "anyone around?", memories, responses, "Always notify about deploys.")
	require.NoError(t, err)

	require.Len(t, llm.prompts, 1)
	prompt := llm.prompts[0]
	assert.Contains(t, prompt, "Always notify about deploys.")
	assert.Contains(t, prompt, "- deploy went out (2026-08-30T10:00:00Z)")
	assert.Contains(t, prompt, "- Yes (acknowledged) (re: deploy question, 2026-08-29T09:00:00Z)")
	assert.Contains(t, prompt, `Current message: "anyone around?"`)
}

func TestClassifyPromptDefaultsEmptyRules(t *testing.T) {
	llm := &fakeLLM{response: `{"notify": false, "reason": "", "summary": ""}`}
	g := newTestClassifier(llm)

	_, err := g.Classify(context.Background(), "hi", nil, nil, "   ")
	require.NoError(t, err)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "No rules defined yet.")
}

func TestClassifyPromptClampsContextWindows(t *testing.T) {
	llm := &fakeLLM{response: `{"notify": false, "reason": "", "summary": ""}`}
	g := NewClassifierGateway(llm, zap.NewNop(), 0, 0, 0, 2, 2)

	memories := []MemoryEntry{
		{Text: "oldest"}, {Text: "middle"}, {Text: "newest"},
	}

	_, err := g.Classify(context.Background(), "hi", memories, nil, "")
	require.NoError(t, err)

	require.Len(t, llm.prompts, 1)
	assert.NotContains(t, llm.prompts[0], "oldest")
	assert.Contains(t, llm.prompts[0], "middle")
	assert.Contains(t, llm.prompts[0], "newest")
}

func TestChatReplyIncludesMemories(t *testing.T) {
	llm := &fakeLLM{response: "You were going to call the dentist."}
	g := newTestClassifier(llm)

	memories := []MemoryEntry{{Text: "call the dentist", Timestamp: "2026-08-30T10:00:00Z"}}
	reply, err := g.ChatReply(context.Background(), "what was I supposed to do?", memories)
	require.NoError(t, err)
	assert.Equal(t, "You were going to call the dentist.", reply)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Here's what you remember:")
	assert.Contains(t, llm.prompts[0], "- call the dentist (2026-08-30T10:00:00Z)")
	assert.Contains(t, llm.prompts[0], "User says: what was I supposed to do?")
}

func TestChatReplyWithoutMemories(t *testing.T) {
	llm := &fakeLLM{response: "Nothing on file."}
	g := newTestClassifier(llm)

	_, err := g.ChatReply(context.Background(), "anything?", nil)
	require.NoError(t, err)

	require.Len(t, llm.prompts, 1)
	assert.NotContains(t, llm.prompts[0], "Here's what you remember:")
	assert.Contains(t, llm.prompts[0], "User says: anything?")
}
