package core

import (
	"context"
	"errors"
	"testing"

	"github.com/mikey/llm-notify-gateway/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestReconciler(messenger *fakeMessenger, repo *fakeRepo) (*CallbackReconciler, *NotificationDispatcher) {
	dispatcher := NewNotificationDispatcher(messenger, utils.NewTextProcessor(zap.NewNop()), zap.NewNop(), 3, 0)
	return NewCallbackReconciler(dispatcher, messenger, repo, zap.NewNop()), dispatcher
}

func sendAlert(t *testing.T, d *NotificationDispatcher) string {
	t.Helper()
	result, err := d.Send(context.Background(), "server needs a restart", "please restart the server")
	require.NoError(t, err)
	require.True(t, result.Sent)
	return result.AlertID
}

func TestHandleCallbackYesRecordsAcknowledgement(t *testing.T) {
	messenger := &fakeMessenger{configured: true}
	repo := &fakeRepo{}
	r, d := newTestReconciler(messenger, repo)
	alertID := sendAlert(t, d)

	resolved, err := r.HandleCallback(context.Background(), ActionToken(ActionYes), alertID, "cb-1")
	require.NoError(t, err)

	assert.Equal(t, ActionYes, resolved.Action)
	assert.Equal(t, "server needs a restart", resolved.Summary)
	require.Len(t, repo.responses, 1)
	assert.Equal(t, "Yes (acknowledged)", repo.responses[0].Response)
	assert.Equal(t, "server needs a restart", repo.responses[0].MessageSummary)
	assert.Equal(t, []string{"Acknowledged"}, messenger.callbacks)
}

func TestHandleCallbackNoRecordsDismissal(t *testing.T) {
	messenger := &fakeMessenger{configured: true}
	repo := &fakeRepo{}
	r, d := newTestReconciler(messenger, repo)
	alertID := sendAlert(t, d)

	resolved, err := r.HandleCallback(context.Background(), ActionToken(ActionNo), alertID, "cb-1")
	require.NoError(t, err)

	assert.Equal(t, ActionNo, resolved.Action)
	require.Len(t, repo.responses, 1)
	assert.Equal(t, "No (dismissed)", repo.responses[0].Response)
	assert.Equal(t, []string{"Dismissed"}, messenger.callbacks)
}

func TestHandleCallbackPromptSendsFollowUp(t *testing.T) {
	messenger := &fakeMessenger{configured: true}
	repo := &fakeRepo{}
	r, d := newTestReconciler(messenger, repo)
	alertID := sendAlert(t, d)

	resolved, err := r.HandleCallback(context.Background(), ActionToken(ActionPrompt), alertID, "cb-1")
	require.NoError(t, err)

	assert.Equal(t, ActionPrompt, resolved.Action)
	assert.True(t, resolved.NeedsText)
	assert.Equal(t, []string{"server needs a restart"}, messenger.prompts)
	// Nothing is recorded until the free-text reply arrives
	assert.Empty(t, repo.responses)
}

func TestHandleCallbackSecondPressFindsUnknown(t *testing.T) {
	messenger := &fakeMessenger{configured: true}
	repo := &fakeRepo{}
	r, d := newTestReconciler(messenger, repo)
	alertID := sendAlert(t, d)

	_, err := r.HandleCallback(context.Background(), ActionToken(ActionYes), alertID, "cb-1")
	require.NoError(t, err)

	resolved, err := r.HandleCallback(context.Background(), ActionToken(ActionNo), alertID, "cb-2")
	require.NoError(t, err)
	assert.Equal(t, "unknown message", resolved.Summary)
}

func TestHandleCallbackAfterRestartResolvesUnknown(t *testing.T) {
	messenger := &fakeMessenger{configured: true}
	repo := &fakeRepo{}
	_, d := newTestReconciler(messenger, repo)
	alertID := sendAlert(t, d)

	// A restart empties the pending registry, so the button press on the
	// pre-restart alert can only resolve against the unknown placeholder
	restarted, _ := newTestReconciler(messenger, repo)
	resolved, err := restarted.HandleCallback(context.Background(), ActionToken(ActionYes), alertID, "cb-1")
	require.NoError(t, err)
	assert.Equal(t, "unknown message", resolved.Summary)
	require.Len(t, repo.responses, 1)
	assert.Equal(t, "unknown message", repo.responses[0].MessageSummary)
}

func TestHandleCallbackAnswerFailureIsSwallowed(t *testing.T) {
	messenger := &fakeMessenger{configured: true, answerErr: errors.New("callback expired")}
	repo := &fakeRepo{}
	r, d := newTestReconciler(messenger, repo)
	alertID := sendAlert(t, d)

	_, err := r.HandleCallback(context.Background(), ActionToken(ActionYes), alertID, "cb-1")
	require.NoError(t, err)
	require.Len(t, repo.responses, 1)
}

func TestHandleCallbackUnknownAction(t *testing.T) {
	messenger := &fakeMessenger{configured: true}
	repo := &fakeRepo{}
	r, d := newTestReconciler(messenger, repo)
	alertID := sendAlert(t, d)

	resolved, err := r.HandleCallback(context.Background(), "response:maybe", alertID, "cb-1")
	require.NoError(t, err)
	assert.Equal(t, ActionUnknown, resolved.Action)
	assert.Empty(t, repo.responses)
}

func TestResolveFreeTextReplyRoundTrip(t *testing.T) {
	repo := &fakeRepo{}
	r, _ := newTestReconciler(&fakeMessenger{configured: true}, repo)

	entry, ok := r.ResolveFreeTextReply("I'll handle it tonight", PromptText("server needs a restart"))
	require.True(t, ok)
	assert.Equal(t, "I'll handle it tonight", entry.Response)
	assert.Equal(t, "server needs a restart", entry.MessageSummary)
}

func TestResolveFreeTextReplyRejectsEmpty(t *testing.T) {
	r, _ := newTestReconciler(&fakeMessenger{configured: true}, &fakeRepo{})

	_, ok := r.ResolveFreeTextReply("", PromptText("summary"))
	assert.False(t, ok)

	_, ok = r.ResolveFreeTextReply("reply", "")
	assert.False(t, ok)
}

func TestHandleReplyPersistsCorrelatedEntry(t *testing.T) {
	repo := &fakeRepo{}
	r, _ := newTestReconciler(&fakeMessenger{configured: true}, repo)

	err := r.HandleReply(context.Background(), "ship it", PromptText("release decision"))
	require.NoError(t, err)

	require.Len(t, repo.responses, 1)
	assert.Equal(t, "ship it", repo.responses[0].Response)
	assert.Equal(t, "release decision", repo.responses[0].MessageSummary)
	assert.NotEmpty(t, repo.responses[0].Timestamp)
}
