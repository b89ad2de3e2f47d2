package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mikey/llm-notify-gateway/internal/utils"
	"go.uber.org/zap"
)

// NotificationDispatcher enforces the daily alert quota and tracks alerts
// awaiting a human action. Quota state and the pending-alert registry live in
// process memory only: a restart drops in-flight pending alerts.
type NotificationDispatcher struct {
	messenger  Messenger
	textProc   *utils.TextProcessor
	logger     *zap.Logger
	maxPerDay  int
	previewMax int

	mu      sync.Mutex
	day     string
	count   int
	pending map[string]string
	now     func() time.Time
}

// NewNotificationDispatcher creates a new notification dispatcher
func NewNotificationDispatcher(
	messenger Messenger,
	textProc *utils.TextProcessor,
	logger *zap.Logger,
	maxPerDay int,
	previewMax int,
) *NotificationDispatcher {
	if maxPerDay <= 0 {
		maxPerDay = 3
	}
	if previewMax <= 0 {
		previewMax = 500
	}

	return &NotificationDispatcher{
		messenger:  messenger,
		textProc:   textProc,
		logger:     logger,
		maxPerDay:  maxPerDay,
		previewMax: previewMax,
		pending:    make(map[string]string),
		now:        time.Now,
	}
}

// rolloverLocked resets the counter when the observed calendar day differs
// from the stored one. Callers must hold d.mu.
func (d *NotificationDispatcher) rolloverLocked() {
	today := d.now().Format("2006-01-02")
	if d.day != today {
		d.day = today
		d.count = 0
	}
}

// CanSend reports whether the daily quota still allows an alert.
func (d *NotificationDispatcher) CanSend() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rolloverLocked()
	return d.count < d.maxPerDay
}

// NotificationsToday returns the number of alerts sent so far today.
func (d *NotificationDispatcher) NotificationsToday() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rolloverLocked()
	return d.count
}

// MaxPerDay returns the configured daily alert cap.
func (d *NotificationDispatcher) MaxPerDay() int {
	return d.maxPerDay
}

// Send dispatches an alert for summary with a capped preview of the original
// text and Yes/No/Prompt buttons. An exhausted quota or missing messaging
// credentials decline the send without side effects; a transport failure from
// the messaging platform is returned as an error. A quota slot is reserved
// before the network call and released again if the send fails, so concurrent
// sends can never push the counter past the cap. On success the alert is
// registered as pending under the platform's message identifier.
func (d *NotificationDispatcher) Send(ctx context.Context, summary, originalText string) (*SendResult, error) {
	d.mu.Lock()
	d.rolloverLocked()
	if d.count >= d.maxPerDay {
		d.mu.Unlock()
		return &SendResult{
			Sent:   false,
			Reason: fmt.Sprintf("daily limit reached (%d)", d.maxPerDay),
		}, nil
	}
	if !d.messenger.Configured() {
		d.mu.Unlock()
		return &SendResult{Sent: false, Reason: "messaging not configured"}, nil
	}
	d.count++
	number := d.count
	d.mu.Unlock()

	preview := d.textProc.Preview(originalText, d.previewMax)

	alertID, err := d.messenger.SendAlert(ctx, summary, preview)
	if err != nil {
		// Release the reserved slot; the rollover guard covers a day change
		// while the send was in flight
		d.mu.Lock()
		d.rolloverLocked()
		if d.count > 0 {
			d.count--
		}
		d.mu.Unlock()
		return nil, fmt.Errorf("failed to send alert: %w", err)
	}

	d.mu.Lock()
	if alertID != "" {
		d.pending[alertID] = summary
	}
	d.mu.Unlock()

	d.logger.Info("Notification sent",
		zap.Int("number", number),
		zap.Int("max_per_day", d.maxPerDay),
		zap.String("summary", summary),
		zap.String("alert_id", alertID))

	return &SendResult{Sent: true, Number: number, AlertID: alertID}, nil
}

// TakePending removes and returns the pending alert summary for alertID.
// A second call for the same id finds nothing: resolution is at most once.
func (d *NotificationDispatcher) TakePending(alertID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	summary, ok := d.pending[alertID]
	if ok {
		delete(d.pending, alertID)
	}
	return summary, ok
}

// PendingCount returns the number of alerts awaiting a human action.
func (d *NotificationDispatcher) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
