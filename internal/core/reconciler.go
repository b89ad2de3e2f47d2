package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Actions an operator can take on an alert.
const (
	ActionYes     = "yes"
	ActionNo      = "no"
	ActionPrompt  = "prompt"
	ActionUnknown = "unknown"
)

const (
	actionTokenPrefix = "response:"

	// promptPrefix and promptSuffix form the force-reply prompt template.
	// Free-text replies are correlated back to their alert by parsing this
	// exact text out of the quoted prompt, so the wording must not change.
	promptPrefix = "Type your response for: _"
	promptSuffix = "_"

	unknownSummary = "unknown message"
)

// ActionToken renders the opaque callback token carried by an alert button.
func ActionToken(action string) string {
	return actionTokenPrefix + action
}

// PromptText renders the force-reply prompt for a summary.
// ResolveFreeTextReply depends on this exact wording.
func PromptText(summary string) string {
	return promptPrefix + summary + promptSuffix
}

// CallbackReconciler matches asynchronous human actions (button presses and
// free-text replies) back to their originating alerts and records the outcome.
type CallbackReconciler struct {
	dispatcher *NotificationDispatcher
	messenger  Messenger
	store      MemoryRepository
	logger     *zap.Logger
}

// NewCallbackReconciler creates a new callback reconciler
func NewCallbackReconciler(
	dispatcher *NotificationDispatcher,
	messenger Messenger,
	store MemoryRepository,
	logger *zap.Logger,
) *CallbackReconciler {
	return &CallbackReconciler{
		dispatcher: dispatcher,
		messenger:  messenger,
		store:      store,
		logger:     logger,
	}
}

// ResolveAction looks up and removes the pending alert for alertID and derives
// the action from the button token. A second resolution for the same id yields
// summary "unknown message" with the action still derived from the token. For
// the prompt action a force-reply follow-up is sent asking for free text.
func (r *CallbackReconciler) ResolveAction(ctx context.Context, actionToken, alertID string) (*ResolvedAction, error) {
	action := strings.TrimPrefix(actionToken, actionTokenPrefix)

	summary, ok := r.dispatcher.TakePending(alertID)
	if !ok {
		summary = unknownSummary
	}

	switch action {
	case ActionYes:
		return &ResolvedAction{Action: ActionYes, Summary: summary}, nil
	case ActionNo:
		return &ResolvedAction{Action: ActionNo, Summary: summary}, nil
	case ActionPrompt:
		if err := r.messenger.SendPrompt(ctx, summary); err != nil {
			return nil, fmt.Errorf("failed to send follow-up prompt: %w", err)
		}
		return &ResolvedAction{Action: ActionPrompt, Summary: summary, NeedsText: true}, nil
	}

	return &ResolvedAction{Action: ActionUnknown, Summary: summary}, nil
}

// ResolveFreeTextReply pairs a typed reply with the summary embedded in the
// earlier force-reply prompt. The correlation is purely textual: the summary
// is re-derived from the quoted prompt text. The returned entry carries no
// timestamp; the store assigns one when the entry is persisted.
func (r *CallbackReconciler) ResolveFreeTextReply(replyText, originalPromptText string) (*ResponseEntry, bool) {
	if replyText == "" || originalPromptText == "" {
		return nil, false
	}

	summary := strings.Replace(originalPromptText, promptPrefix, "", 1)
	summary = strings.TrimRight(summary, promptSuffix)

	return &ResponseEntry{Response: replyText, MessageSummary: summary}, true
}

// HandleCallback resolves a button press end to end: the outcome is persisted
// to the response log for yes/no, and the triggering platform event is
// acknowledged. The acknowledgement is best effort; its failure is logged and
// never propagated.
func (r *CallbackReconciler) HandleCallback(ctx context.Context, actionToken, alertID, callbackID string) (*ResolvedAction, error) {
	resolved, err := r.ResolveAction(ctx, actionToken, alertID)
	if err != nil {
		return nil, err
	}

	switch resolved.Action {
	case ActionYes:
		if _, err := r.store.AppendResponse(ctx, "Yes (acknowledged)", resolved.Summary); err != nil {
			return nil, fmt.Errorf("failed to record response: %w", err)
		}
		r.answerCallback(ctx, callbackID, "Acknowledged")
	case ActionNo:
		if _, err := r.store.AppendResponse(ctx, "No (dismissed)", resolved.Summary); err != nil {
			return nil, fmt.Errorf("failed to record response: %w", err)
		}
		r.answerCallback(ctx, callbackID, "Dismissed")
	case ActionPrompt:
		r.answerCallback(ctx, callbackID, "Type your response...")
	}

	return resolved, nil
}

// HandleReply records a typed reply to an earlier force-reply prompt.
// Replies that cannot be correlated are ignored.
func (r *CallbackReconciler) HandleReply(ctx context.Context, replyText, originalPromptText string) error {
	entry, ok := r.ResolveFreeTextReply(replyText, originalPromptText)
	if !ok {
		return nil
	}

	if _, err := r.store.AppendResponse(ctx, entry.Response, entry.MessageSummary); err != nil {
		return fmt.Errorf("failed to record response: %w", err)
	}

	r.logger.Info("Operator responded",
		zap.String("response", entry.Response),
		zap.String("summary", entry.MessageSummary))
	return nil
}

// answerCallback clears the loading state on the pressed button.
func (r *CallbackReconciler) answerCallback(ctx context.Context, callbackID, text string) {
	if callbackID == "" {
		return
	}
	if err := r.messenger.AnswerCallback(ctx, callbackID, text); err != nil {
		r.logger.Warn("Failed to answer callback query", zap.Error(err))
	}
}
