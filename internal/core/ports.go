package core

import (
	"context"
)

// LLMClient defines the interface for interacting with a text-generation service
type LLMClient interface {
	// Complete sends a single-turn prompt and returns the generated text
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Messenger defines the interface for the messaging platform used to reach
// the operator
type Messenger interface {
	// Configured reports whether messaging credentials are present
	Configured() bool

	// SendAlert delivers an alert with Yes/No/Prompt buttons and returns the
	// platform message identifier the alert is tracked under
	SendAlert(ctx context.Context, summary, preview string) (string, error)

	// SendPrompt asks the operator to type a free-text response for summary
	SendPrompt(ctx context.Context, summary string) error

	// AnswerCallback acknowledges a button press, clearing its loading state
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// MemoryRepository defines the interface for the persistent memory and
// response logs plus the static rules document
type MemoryRepository interface {
	// AppendMemory appends an observation to the memory log
	AppendMemory(ctx context.Context, text, source string) (*MemoryEntry, error)

	// AllMemories returns the full memory log, oldest first
	AllMemories(ctx context.Context) ([]MemoryEntry, error)

	// RecentMemories returns up to n entries from the tail of the memory log,
	// oldest to newest
	RecentMemories(ctx context.Context, n int) ([]MemoryEntry, error)

	// Forget removes every entry whose text contains query (case-insensitive
	// substring match) and returns the number removed
	Forget(ctx context.Context, query string) (int, error)

	// AppendResponse appends an operator response to the response log
	AppendResponse(ctx context.Context, response, messageSummary string) (*ResponseEntry, error)

	// RecentResponses returns up to n entries from the tail of the response
	// log, oldest to newest
	RecentResponses(ctx context.Context, n int) ([]ResponseEntry, error)

	// MemoryCount returns the number of entries in the memory log
	MemoryCount(ctx context.Context) (int, error)

	// ResponseCount returns the number of entries in the response log
	ResponseCount(ctx context.Context) (int, error)

	// Rules returns the operator's rules document
	Rules(ctx context.Context) (string, error)
}
