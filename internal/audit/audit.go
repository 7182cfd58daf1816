package audit

import (
	"log"
	"time"
)

// EventType represents the type of audit event
type EventType string

const (
	EventScoutCreated    EventType = "scout_created"
	EventScoutCompleted  EventType = "scout_completed"
	EventScoutErrored    EventType = "scout_errored"
	EventRunStarted      EventType = "run_started"
	EventPaymentSettled  EventType = "payment_settled"
	EventPaymentRejected EventType = "payment_rejected"
	EventEmailSent       EventType = "email_sent"
	EventOperatorCreated EventType = "operator_created"
)

// Log records an audit event
// In production, this should write to a database or external audit service
func Log(eventType EventType, actor, targetID string, details map[string]interface{}) {
	timestamp := time.Now().UTC().Format(time.RFC3339)

	// For now, log to stdout. In production, store in DB or send to audit service
	log.Printf("AUDIT [%s] event=%s actor=%s target=%s details=%v",
		timestamp, eventType, actor, targetID, details)
}
