// Package service contains the business logic for the lending engine.
// Services validate inputs, enforce domain rules, and orchestrate repo calls.
// No SQL lives here — services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lcastillo/librarian/internal/domain"
	"github.com/lcastillo/librarian/internal/repo"
)

// Engine is the transaction coordinator for the loan lifecycle. Each of its
// three operations runs inside a single transactional scope: the loan write,
// the stock adjustment, and the audit append commit together or not at all.
type Engine struct {
	store repo.TxRunner
	now   func() time.Time // injectable for tests
}

// NewEngine constructs the Engine over the provided transaction runner.
func NewEngine(store repo.TxRunner) *Engine {
	return &Engine{store: store, now: time.Now}
}

// Issue creates an OPEN loan for quantity units of the item, reserves the
// stock, and appends an ISSUE audit event — atomically.
//
// The active and stock checks before the insert are advisory: they produce a
// clear early error without burning a loan row. The conditional decrement is
// the authoritative guard, so when two callers race for the last unit exactly
// one commits and the loser's whole transaction — including the loan row it
// tentatively inserted — is discarded.
//
// Fails with domain.ErrInvalidInput on malformed arguments,
// domain.ErrNotFound on an unknown item, domain.ErrItemInactive when the item
// cannot be loaned, and domain.ErrInsufficientStock when stock is short.
func (e *Engine) Issue(ctx context.Context, operatorID, itemCode, recipient string, quantity, days int) (domain.Loan, error) {
	loan, err := domain.NewLoan(itemCode, operatorID, recipient, quantity, days, e.now())
	if err != nil {
		return domain.Loan{}, err
	}

	var issued domain.Loan
	err = e.store.InTx(ctx, func(s repo.Store) error {
		item, err := s.Items.GetByCode(ctx, loan.ItemCode)
		if err != nil {
			return err
		}
		if !item.Active {
			return fmt.Errorf("item %s: %w", item.Code, domain.ErrItemInactive)
		}
		if !item.HasStock(loan.Quantity) {
			return fmt.Errorf("item %s: %w", item.Code, domain.ErrInsufficientStock)
		}

		issued, err = s.Loans.Insert(ctx, loan)
		if err != nil {
			return err
		}
		if err := s.Items.Decrement(ctx, issued.ItemCode, issued.Quantity); err != nil {
			return err
		}

		_, err = s.Audit.Append(ctx, domain.AuditEvent{
			Timestamp:  e.now(),
			OperatorID: issued.OperatorID,
			EventType:  domain.EventIssue,
			ItemCode:   issued.ItemCode,
			LoanID:     &issued.ID,
			Quantity:   &issued.Quantity,
			Recipient:  issued.Recipient,
			Detail:     "due=" + issued.DueAt.Format("2006-01-02"),
		})
		return err
	})
	if err != nil {
		return domain.Loan{}, fmt.Errorf("service.Engine.Issue: %w", err)
	}
	return issued, nil
}

// Return closes an OPEN loan, restores its quantity to the item's stock, and
// appends a RETURN audit event — atomically. The operator, recipient, and
// quantity on the audit event come from the loan row itself, not from the
// caller, so the trail reflects the original issuing context.
//
// Fails with domain.ErrInvalidState if the loan is not OPEN or does not exist.
func (e *Engine) Return(ctx context.Context, loanID uuid.UUID) (domain.Loan, error) {
	var returned domain.Loan
	err := e.store.InTx(ctx, func(s repo.Store) error {
		var err error
		returned, err = s.Loans.ClaimReturn(ctx, loanID, e.now())
		if err != nil {
			return err
		}
		if err := s.Items.Increment(ctx, returned.ItemCode, returned.Quantity); err != nil {
			return err
		}

		_, err = s.Audit.Append(ctx, domain.AuditEvent{
			Timestamp:  e.now(),
			OperatorID: returned.OperatorID,
			EventType:  domain.EventReturn,
			ItemCode:   returned.ItemCode,
			LoanID:     &returned.ID,
			Quantity:   &returned.Quantity,
			Recipient:  returned.Recipient,
		})
		return err
	})
	if err != nil {
		return domain.Loan{}, fmt.Errorf("service.Engine.Return: %w", err)
	}
	return returned, nil
}

// Renew extends an OPEN loan's due date by extraDays and appends a RENEW audit
// event recording the extension — atomically. Stock is untouched.
//
// Fails with domain.ErrInvalidInput if extraDays is not positive and
// domain.ErrInvalidState if the loan is not OPEN or does not exist.
func (e *Engine) Renew(ctx context.Context, loanID uuid.UUID, extraDays int) (domain.Loan, error) {
	if extraDays <= 0 {
		return domain.Loan{}, fmt.Errorf("%w: days must be positive", domain.ErrInvalidInput)
	}

	var renewed domain.Loan
	err := e.store.InTx(ctx, func(s repo.Store) error {
		var err error
		renewed, err = s.Loans.ExtendDue(ctx, loanID, extraDays)
		if err != nil {
			return err
		}

		_, err = s.Audit.Append(ctx, domain.AuditEvent{
			Timestamp:  e.now(),
			OperatorID: renewed.OperatorID,
			EventType:  domain.EventRenew,
			ItemCode:   renewed.ItemCode,
			LoanID:     &renewed.ID,
			Recipient:  renewed.Recipient,
			Detail:     fmt.Sprintf("+%dd", extraDays),
		})
		return err
	})
	if err != nil {
		return domain.Loan{}, fmt.Errorf("service.Engine.Renew: %w", err)
	}
	return renewed, nil
}
