package core

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// fakeLLM returns canned output and records every prompt it sees
type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// fakeMessenger records alerts, prompts and callback answers
type fakeMessenger struct {
	configured bool
	sendErr    error
	promptErr  error
	answerErr  error

	alerts    []string
	previews  []string
	prompts   []string
	callbacks []string
	nextID    int
}

func (f *fakeMessenger) Configured() bool {
	return f.configured
}

func (f *fakeMessenger) SendAlert(ctx context.Context, summary, preview string) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.alerts = append(f.alerts, summary)
	f.previews = append(f.previews, preview)
	f.nextID++
	return strconv.Itoa(f.nextID), nil
}

func (f *fakeMessenger) SendPrompt(ctx context.Context, summary string) error {
	if f.promptErr != nil {
		return f.promptErr
	}
	f.prompts = append(f.prompts, summary)
	return nil
}

func (f *fakeMessenger) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if f.answerErr != nil {
		return f.answerErr
	}
	f.callbacks = append(f.callbacks, text)
	return nil
}

// fakeRepo is an in-memory MemoryRepository
type fakeRepo struct {
	memories  []MemoryEntry
	responses []ResponseEntry
	rules     string
	err       error
}

func (r *fakeRepo) AppendMemory(ctx context.Context, text, source string) (*MemoryEntry, error) {
	if r.err != nil {
		return nil, r.err
	}
	entry := MemoryEntry{Text: text, Timestamp: time.Now().UTC().Format(time.RFC3339), Source: source}
	r.memories = append(r.memories, entry)
	return &entry, nil
}

func (r *fakeRepo) AllMemories(ctx context.Context) ([]MemoryEntry, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.memories, nil
}

func (r *fakeRepo) RecentMemories(ctx context.Context, n int) ([]MemoryEntry, error) {
	if r.err != nil {
		return nil, r.err
	}
	if n > 0 && len(r.memories) > n {
		return r.memories[len(r.memories)-n:], nil
	}
	return r.memories, nil
}

func (r *fakeRepo) Forget(ctx context.Context, query string) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	needle := strings.ToLower(query)
	kept := r.memories[:0]
	removed := 0
	for _, m := range r.memories {
		if strings.Contains(strings.ToLower(m.Text), needle) {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	r.memories = kept
	return removed, nil
}

func (r *fakeRepo) AppendResponse(ctx context.Context, response, messageSummary string) (*ResponseEntry, error) {
	if r.err != nil {
		return nil, r.err
	}
	entry := ResponseEntry{Response: response, MessageSummary: messageSummary, Timestamp: time.Now().UTC().Format(time.RFC3339)}
	r.responses = append(r.responses, entry)
	return &entry, nil
}

func (r *fakeRepo) RecentResponses(ctx context.Context, n int) ([]ResponseEntry, error) {
	if r.err != nil {
		return nil, r.err
	}
	if n > 0 && len(r.responses) > n {
		return r.responses[len(r.responses)-n:], nil
	}
	return r.responses, nil
}

func (r *fakeRepo) MemoryCount(ctx context.Context) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	return len(r.memories), nil
}

func (r *fakeRepo) ResponseCount(ctx context.Context) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	return len(r.responses), nil
}

func (r *fakeRepo) Rules(ctx context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return r.rules, nil
}
