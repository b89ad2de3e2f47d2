package core

// MemoryEntry is a single observation in the rolling memory log. Entries are
// immutable once written and ordered by insertion.
type MemoryEntry struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source,omitempty"`
}

// ResponseEntry records how the operator resolved a previously dispatched alert.
type ResponseEntry struct {
	Response       string `json:"response"`
	MessageSummary string `json:"message_summary"`
	Timestamp      string `json:"timestamp"`
}

// ClassificationResult is the outcome of a single classification call.
// It is transient and never persisted.
type ClassificationResult struct {
	Notify    bool   `json:"notify"`
	Reason    string `json:"reason"`
	Summary   string `json:"summary"`
	LatencyMS int64  `json:"latency_ms"`
}

// SendResult reports whether an alert was dispatched and, if so, its daily
// ordinal number and the opaque id under which it is tracked as pending.
type SendResult struct {
	Sent    bool   `json:"sent"`
	Reason  string `json:"reason,omitempty"`
	Number  int    `json:"notification_number,omitempty"`
	AlertID string `json:"alert_id,omitempty"`
}

// ResolvedAction is the outcome of matching a button press back to its alert.
type ResolvedAction struct {
	Action    string
	Summary   string
	NeedsText bool
}

// WorkflowResult is the composite outcome of processing one inbound message.
type WorkflowResult struct {
	Remembered       bool                  `json:"remembered"`
	Reply            string                `json:"reply,omitempty"`
	NotificationSent bool                  `json:"notification_sent"`
	Classification   *ClassificationResult `json:"classification,omitempty"`
}

// MemoryPage is a most-recent-first slice of the memory log.
type MemoryPage struct {
	Total    int           `json:"total"`
	Offset   int           `json:"offset"`
	Limit    int           `json:"limit"`
	Memories []MemoryEntry `json:"memories"`
}

// HealthStatus summarizes the gateway's observable state.
type HealthStatus struct {
	Status             string `json:"status"`
	Service            string `json:"service"`
	Memories           int    `json:"memories"`
	Responses          int    `json:"responses"`
	NotificationsToday int    `json:"notifications_today"`
	MaxNotifications   int    `json:"max_notifications"`
	CanNotify          bool   `json:"can_notify"`
}
