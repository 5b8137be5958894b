package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LoanState is the lifecycle state of a loan.
// OPEN is the initial state; RETURNED is terminal. There are no other
// transitions — a returned loan can never be reopened, renewed, or re-returned.
type LoanState string

const (
	LoanOpen     LoanState = "OPEN"
	LoanReturned LoanState = "RETURNED"
)

// Loan records that a quantity of one item is held by a recipient until a due
// date. ItemCode is a weak reference by key, not an ownership relation.
// Quantity is fixed at creation. ReturnedAt is nil exactly while State is OPEN.
type Loan struct {
	ID         uuid.UUID  `json:"id"`
	ItemCode   string     `json:"item_code"`
	OperatorID string     `json:"operator_id"`
	Recipient  string     `json:"recipient"`
	Quantity   int        `json:"quantity"`
	IssuedAt   time.Time  `json:"issued_at"`
	DueAt      time.Time  `json:"due_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"` // nil while the loan is OPEN
	State      LoanState  `json:"state"`
}

// Open reports whether the loan is still in the OPEN state.
func (l Loan) Open() bool {
	return l.State == LoanOpen
}

// NewLoan builds an OPEN loan ready for persistence.
// Identifiers are trimmed; blank identifiers, a non-positive quantity, or a
// non-positive day count are rejected with ErrInvalidInput.
// IssuedAt is set to now; DueAt is the calendar date days from today.
func NewLoan(itemCode, operatorID, recipient string, quantity, days int, now time.Time) (Loan, error) {
	itemCode = strings.TrimSpace(itemCode)
	operatorID = strings.TrimSpace(operatorID)
	recipient = strings.TrimSpace(recipient)

	if itemCode == "" {
		return Loan{}, fmt.Errorf("%w: item code is required", ErrInvalidInput)
	}
	if operatorID == "" {
		return Loan{}, fmt.Errorf("%w: operator is required", ErrInvalidInput)
	}
	if recipient == "" {
		return Loan{}, fmt.Errorf("%w: recipient is required", ErrInvalidInput)
	}
	if quantity <= 0 {
		return Loan{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if days <= 0 {
		return Loan{}, fmt.Errorf("%w: days must be positive", ErrInvalidInput)
	}

	return Loan{
		ItemCode:   itemCode,
		OperatorID: operatorID,
		Recipient:  recipient,
		Quantity:   quantity,
		IssuedAt:   now,
		DueAt:      DueDate(now, days),
		State:      LoanOpen,
	}, nil
}

// DueDate returns the calendar date days after the date of now, at midnight in
// now's location. Due dates are whole days; the time of day a loan was issued
// never affects when it falls due.
func DueDate(now time.Time, days int) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, days)
}
