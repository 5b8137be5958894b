package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies the domain transition an audit event records.
// Values are persisted verbatim, so they never change once released.
type EventType string

const (
	EventIssue          EventType = "ISSUE"
	EventReturn         EventType = "RETURN"
	EventRenew          EventType = "RENEW"
	EventActivateItem   EventType = "ACTIVATE_ITEM"
	EventDeactivateItem EventType = "DEACTIVATE_ITEM"
)

// AuditEvent is an immutable record of a completed domain transition: who did
// what, to what, when. Events are appended in the same transaction as the
// mutation they describe and are never updated or deleted afterward.
// ID is assigned by the database and is monotonically increasing, making it
// the ordering key for the trail.
//
// ItemCode, LoanID, Quantity, Recipient, and Detail are optional — an
// activation event carries no loan, a renewal carries no quantity.
type AuditEvent struct {
	ID         int64      `json:"id"`
	Timestamp  time.Time  `json:"timestamp"`
	OperatorID string     `json:"operator_id"`
	EventType  EventType  `json:"event_type"`
	ItemCode   string     `json:"item_code,omitempty"`
	LoanID     *uuid.UUID `json:"loan_id,omitempty"`
	Quantity   *int       `json:"quantity,omitempty"`
	Recipient  string     `json:"recipient,omitempty"`
	Detail     string     `json:"detail,omitempty"`
}
