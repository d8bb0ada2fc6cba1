package debtcase

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"recon-ledger/internal/domain"
	"recon-ledger/pkg/logger"
)

// AttemptStore is the append-only collection log.
type AttemptStore interface {
	ListByOrder(ctx context.Context, orderID string) ([]domain.CollectionAttempt, error)
	// Append stores attempt only if the latest stored attempt id still equals
	// expectedLatestID (nil meaning no attempts), otherwise it returns a
	// *domain.StateConflictError.
	Append(ctx context.Context, attempt *domain.CollectionAttempt, expectedLatestID *int64) error
	// MarkReopened clears is_complete on a closing attempt, failing with a
	// *domain.StateConflictError if it was already cleared.
	MarkReopened(ctx context.Context, orderID string, attemptID, userID int64, at time.Time) error
}

// Locker serializes mutations of one order's case.
type Locker interface {
	WithLock(ctx context.Context, orderID string, fn func(ctx context.Context) error) error
}

// Machine applies the recordAttempt and reopen transitions. They are the only
// writers of the attempt log.
type Machine struct {
	store  AttemptStore
	locker Locker
	now    func() time.Time
}

func NewMachine(store AttemptStore, locker Locker) *Machine {
	return &Machine{store: store, locker: locker, now: time.Now}
}

// State loads the current derived case for order.
func (m *Machine) State(ctx context.Context, order domain.Order) (*domain.DebtCase, error) {
	attempts, err := m.store.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempts: %w", err)
	}
	c := Derive(order, attempts, m.now())
	return &c, nil
}

// RecordAttempt appends a collection attempt. A complete attempt closes the
// case and zeroes its remaining debt.
func (m *Machine) RecordAttempt(ctx context.Context, order domain.Order, in NewAttempt) (*domain.DebtCase, error) {
	in.OrderID = order.ID
	if err := ValidateAttempt(in); err != nil {
		return nil, err
	}

	log := logger.GetLogger().WithFields(logrus.Fields{
		"order_id":      order.ID,
		"user_id":       in.UserID,
		"result_status": in.ResultStatus,
		"is_complete":   in.IsComplete,
	})

	var result domain.DebtCase
	err := m.locker.WithLock(ctx, order.ID, func(ctx context.Context) error {
		now := m.now()
		if !Eligible(order, now) {
			return domain.NewStateConflict(order.ID, "order is not in the debt pool")
		}

		attempts, err := m.store.ListByOrder(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("failed to load attempts: %w", err)
		}

		current := Derive(order, attempts, now)
		if err := CheckTransition(current, in); err != nil {
			return err
		}

		attempt := domain.CollectionAttempt{
			OrderID:         order.ID,
			UserID:          in.UserID,
			AmountCollected: in.AmountCollected,
			ResultStatus:    in.ResultStatus,
			Note:            in.Note,
			IsComplete:      in.IsComplete,
			CreatedAt:       now,
		}
		if err := m.store.Append(ctx, &attempt, current.LatestAttemptID); err != nil {
			return err
		}

		result = Derive(order, append(attempts, attempt), now)
		return nil
	})
	if err != nil {
		log.WithError(err).Warn("Collection attempt rejected")
		return nil, err
	}

	log.WithField("case_status", result.Status).Info("Collection attempt recorded")
	return &result, nil
}

// CloseQuick resolves a case without crediting money.
func (m *Machine) CloseQuick(ctx context.Context, order domain.Order, userID int64, note string, expectedLatestID *int64) (*domain.DebtCase, error) {
	return m.RecordAttempt(ctx, order, QuickClose(order.ID, userID, note, expectedLatestID))
}

// Reopen flips the most recent closing attempt back to incomplete. Nothing
// changes when the order has no closing attempt.
func (m *Machine) Reopen(ctx context.Context, order domain.Order, userID int64, expectedLatestID *int64) (*domain.DebtCase, error) {
	log := logger.GetLogger().WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  userID,
	})

	var result domain.DebtCase
	err := m.locker.WithLock(ctx, order.ID, func(ctx context.Context) error {
		now := m.now()
		attempts, err := m.store.ListByOrder(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("failed to load attempts: %w", err)
		}

		current := Derive(order, attempts, now)
		target, err := ReopenTarget(order.ID, attempts)
		if err != nil {
			return err
		}
		if err := checkExpected(current, expectedLatestID); err != nil {
			return err
		}

		if err := m.store.MarkReopened(ctx, order.ID, target.ID, userID, now); err != nil {
			return err
		}

		for i := range attempts {
			if attempts[i].ID == target.ID {
				attempts[i].IsComplete = false
				attempts[i].ReopenedAt = &now
				attempts[i].ReopenedBy = &userID
			}
		}
		result = Derive(order, attempts, now)
		return nil
	})
	if err != nil {
		log.WithError(err).Warn("Reopen rejected")
		return nil, err
	}

	log.WithField("latest_attempt_id", *result.LatestAttemptID).Info("Debt case reopened")
	return &result, nil
}
