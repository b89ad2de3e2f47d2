package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const classifyPromptFormat = `You are the gatekeeper for the operator's attention.
You receive messages sent to a public endpoint that anyone can call.

The operator's rules:
%s

%s%sCurrent message: "%s"

Decide: should the operator be notified on their phone?

NOTIFY only if:
- Someone specifically needs the operator (the person)
- Production issue or system alert
- A decision only the operator can make
- Time-sensitive request

DO NOT notify for:
- Casual messages, greetings, spam
- Things the bot can handle alone
- Repeated/duplicate requests
- Anything that doesn't require human attention

Respond ONLY as JSON (no other text):
{"notify": true/false, "reason": "brief explanation", "summary": "1-line notification text"}`

// ClassifierGateway decides whether a message warrants interrupting the
// operator. Malformed model output never triggers an interruption: parse
// failures produce a notify=false result instead of an error.
type ClassifierGateway struct {
	llm               LLMClient
	logger            *zap.Logger
	classifyMaxTokens int
	chatMaxTokens     int
	timeout           time.Duration
	memoryContext     int
	responseContext   int
}

// NewClassifierGateway creates a new classifier gateway
func NewClassifierGateway(
	llm LLMClient,
	logger *zap.Logger,
	classifyMaxTokens int,
	chatMaxTokens int,
	timeout time.Duration,
	memoryContext int,
	responseContext int,
) *ClassifierGateway {
	if classifyMaxTokens <= 0 {
		classifyMaxTokens = 256
	}
	if chatMaxTokens <= 0 {
		chatMaxTokens = 1024
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if memoryContext <= 0 {
		memoryContext = 20
	}
	if responseContext <= 0 {
		responseContext = 10
	}

	return &ClassifierGateway{
		llm:               llm,
		logger:            logger,
		classifyMaxTokens: classifyMaxTokens,
		chatMaxTokens:     chatMaxTokens,
		timeout:           timeout,
		memoryContext:     memoryContext,
		responseContext:   responseContext,
	}
}

// Classify asks the model whether the operator should be notified about
// message. A transport failure is returned to the caller; unparseable model
// output yields the fail-safe notify=false result.
func (g *ClassifierGateway) Classify(
	ctx context.Context,
	message string,
	memories []MemoryEntry,
	responses []ResponseEntry,
	rules string,
) (*ClassificationResult, error) {
	prompt := g.buildClassifyPrompt(message, memories, responses, rules)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	raw, err := g.llm.Complete(ctx, prompt, g.classifyMaxTokens)
	latencyMS := time.Since(start).Milliseconds()
	if err != nil {
		return nil, fmt.Errorf("classification call failed: %w", err)
	}

	g.logger.Info("Classification completed", zap.Int64("latency_ms", latencyMS))

	result := g.parseClassification(raw)
	result.LatencyMS = latencyMS
	return result, nil
}

// ChatReply generates a conversational reply using only memory context.
func (g *ClassifierGateway) ChatReply(ctx context.Context, message string, memories []MemoryEntry) (string, error) {
	if len(memories) > g.memoryContext {
		memories = memories[len(memories)-g.memoryContext:]
	}

	var b strings.Builder
	if len(memories) > 0 {
		b.WriteString("Here's what you remember:\n")
		for _, m := range memories {
			fmt.Fprintf(&b, "- %s (%s)\n", m.Text, m.Timestamp)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "User says: %s", message)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	reply, err := g.llm.Complete(ctx, b.String(), g.chatMaxTokens)
	if err != nil {
		return "", fmt.Errorf("chat reply failed: %w", err)
	}
	return reply, nil
}

// buildClassifyPrompt renders the deterministic classification prompt: the
// rules document verbatim, the response and memory context windows, and the
// literal current message.
func (g *ClassifierGateway) buildClassifyPrompt(
	message string,
	memories []MemoryEntry,
	responses []ResponseEntry,
	rules string,
) string {
	if len(memories) > g.memoryContext {
		memories = memories[len(memories)-g.memoryContext:]
	}
	if len(responses) > g.responseContext {
		responses = responses[len(responses)-g.responseContext:]
	}

	var responsesText strings.Builder
	if len(responses) > 0 {
		responsesText.WriteString("What the operator has said before:\n")
		for _, r := range responses {
			fmt.Fprintf(&responsesText, "- %s (re: %s, %s)\n", r.Response, r.MessageSummary, r.Timestamp)
		}
		responsesText.WriteString("\n")
	}

	var memoriesText strings.Builder
	if len(memories) > 0 {
		fmt.Fprintf(&memoriesText, "Recent memories (last %d):\n", g.memoryContext)
		for _, m := range memories {
			fmt.Fprintf(&memoriesText, "- %s (%s)\n", m.Text, m.Timestamp)
		}
		memoriesText.WriteString("\n")
	}

	if strings.TrimSpace(rules) == "" {
		rules = "No rules defined yet."
	}

	return fmt.Sprintf(classifyPromptFormat, rules, responsesText.String(), memoriesText.String(), message)
}

// parseClassification extracts the JSON decision from the raw model output.
// Parse failures fall back to notify=false rather than surfacing an error.
func (g *ClassifierGateway) parseClassification(raw string) *ClassificationResult {
	text := stripCodeFences(raw)

	var result ClassificationResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		g.logger.Warn("Failed to parse classification response as JSON",
			zap.String("response", raw),
			zap.Error(err))
		return &ClassificationResult{
			Notify: false,
			Reason: "failed to parse classification",
		}
	}
	return &result
}

// stripCodeFences removes a surrounding markdown code fence, if present.
func stripCodeFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:]
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
