package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"recon-ledger/internal/domain"
	"recon-ledger/pkg/logger"
)

// AttemptRepository is the append-only collection log. The only update it
// allows is clearing the completion flag of a closing attempt on reopen.
type AttemptRepository interface {
	ListByOrder(ctx context.Context, orderID string) ([]domain.CollectionAttempt, error)
	ListByOrders(ctx context.Context, orderIDs []string) (map[string][]domain.CollectionAttempt, error)
	Append(ctx context.Context, attempt *domain.CollectionAttempt, expectedLatestID *int64) error
	MarkReopened(ctx context.Context, orderID string, attemptID, userID int64, at time.Time) error
}

type attemptRepository struct {
	db *sql.DB
}

func NewAttemptRepository(db *sql.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

const selectAttempts = `
	SELECT id, order_id, user_id, amount_collected, result_status, note,
		   is_complete, created_at, reopened_at, reopened_by
	FROM collection_attempts
`

func scanAttempt(row rowScanner) (domain.CollectionAttempt, error) {
	var (
		a          domain.CollectionAttempt
		reopenedAt sql.NullTime
		reopenedBy sql.NullInt64
	)
	err := row.Scan(
		&a.ID,
		&a.OrderID,
		&a.UserID,
		&a.AmountCollected,
		&a.ResultStatus,
		&a.Note,
		&a.IsComplete,
		&a.CreatedAt,
		&reopenedAt,
		&reopenedBy,
	)
	if err != nil {
		return a, err
	}
	if reopenedAt.Valid {
		t := reopenedAt.Time
		a.ReopenedAt = &t
	}
	if reopenedBy.Valid {
		id := reopenedBy.Int64
		a.ReopenedBy = &id
	}
	return a, nil
}

func (r *attemptRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.CollectionAttempt, error) {
	rows, err := r.db.QueryContext(ctx, selectAttempts+`WHERE order_id = $1 ORDER BY created_at, id`, orderID)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("order_id", orderID).Error("Failed to query collection attempts")
		return nil, err
	}
	defer rows.Close()

	attempts := make([]domain.CollectionAttempt, 0)
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan collection attempt")
			return nil, err
		}
		attempts = append(attempts, a)
	}

	return attempts, rows.Err()
}

func (r *attemptRepository) ListByOrders(ctx context.Context, orderIDs []string) (map[string][]domain.CollectionAttempt, error) {
	byOrder := make(map[string][]domain.CollectionAttempt)
	if len(orderIDs) == 0 {
		return byOrder, nil
	}

	rows, err := r.db.QueryContext(ctx, selectAttempts+`WHERE order_id = ANY($1) ORDER BY order_id, created_at, id`, pq.Array(orderIDs))
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query collection attempts")
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan collection attempt")
			return nil, err
		}
		byOrder[a.OrderID] = append(byOrder[a.OrderID], a)
	}

	return byOrder, rows.Err()
}

// Append inserts attempt only while the order's latest attempt id still equals
// expectedLatestID. A transaction-scoped advisory lock on the order id keeps
// the check and the insert atomic even when the order has no attempts yet.
func (r *attemptRepository) Append(ctx context.Context, attempt *domain.CollectionAttempt, expectedLatestID *int64) error {
	log := logger.GetLogger().WithField("order_id", attempt.OrderID)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.WithError(err).Error("Failed to begin transaction")
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, attempt.OrderID); err != nil {
		log.WithError(err).Error("Failed to lock order")
		return err
	}

	var latest sql.NullInt64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM collection_attempts
		WHERE order_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
		FOR UPDATE
	`, attempt.OrderID).Scan(&latest)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.WithError(err).Error("Failed to read latest collection attempt")
		return err
	}

	if !sameLatest(latest, expectedLatestID) {
		log.WithFields(logrus.Fields{"latest": latest.Int64, "expected": expectedLatestID}).Warn("Latest attempt changed concurrently")
		return domain.NewStateConflict(attempt.OrderID, "case changed since it was loaded")
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO collection_attempts (order_id, user_id, amount_collected, result_status, note, is_complete, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		attempt.OrderID,
		attempt.UserID,
		attempt.AmountCollected,
		attempt.ResultStatus,
		attempt.Note,
		attempt.IsComplete,
		attempt.CreatedAt,
	).Scan(&attempt.ID)
	if err != nil {
		log.WithError(err).Error("Failed to insert collection attempt")
		return err
	}

	if err := tx.Commit(); err != nil {
		log.WithError(err).Error("Failed to commit transaction")
		return err
	}

	return nil
}

func sameLatest(latest sql.NullInt64, expected *int64) bool {
	if !latest.Valid {
		return expected == nil
	}
	return expected != nil && *expected == latest.Int64
}

func (r *attemptRepository) MarkReopened(ctx context.Context, orderID string, attemptID, userID int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE collection_attempts
		SET is_complete = FALSE, reopened_at = $2, reopened_by = $3
		WHERE id = $1 AND order_id = $4 AND is_complete = TRUE
	`, attemptID, at, userID, orderID)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("attempt_id", attemptID).Error("Failed to reopen collection attempt")
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NewStateConflict(orderID, fmt.Sprintf("attempt %d was already reopened", attemptID))
	}

	return nil
}
