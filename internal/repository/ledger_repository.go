package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"recon-ledger/internal/domain"
	"recon-ledger/pkg/logger"
)

// LedgerRepository is the append-only store of verified return records.
// There is no update or delete.
type LedgerRepository interface {
	InsertBatch(ctx context.Context, records []domain.VerifiedReturnRecord) ([]domain.VerifiedReturnRecord, error)
	Insert(ctx context.Context, record *domain.VerifiedReturnRecord) error
	VerifiedOrderIDs(ctx context.Context, companyID int64, orderIDs []string) (map[string]bool, error)
	ListByBatch(ctx context.Context, companyID int64, batchID string) ([]domain.VerifiedReturnRecord, error)
	ListByOrder(ctx context.Context, companyID int64, orderID string) ([]domain.VerifiedReturnRecord, error)
	ListCreatedBetween(ctx context.Context, companyID int64, from, to time.Time) ([]domain.VerifiedReturnRecord, error)
}

type ledgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

const insertRecord = `
	INSERT INTO verified_return_records (company_id, order_id, return_amount, note, batch_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id
`

const selectRecords = `
	SELECT id, company_id, order_id, return_amount, note, batch_id, created_at
	FROM verified_return_records
`

func (r *ledgerRepository) Insert(ctx context.Context, record *domain.VerifiedReturnRecord) error {
	err := r.db.QueryRowContext(
		ctx,
		insertRecord,
		record.CompanyID,
		record.OrderID,
		record.VerifiedAmount,
		record.Note,
		record.BatchID,
		record.CreatedAt,
	).Scan(&record.ID)

	if err != nil {
		logger.GetLogger().WithError(err).WithFields(logrus.Fields{
			"order_id": record.OrderID,
			"batch_id": record.BatchID,
		}).Error("Failed to insert verified return record")
		return err
	}

	return nil
}

// InsertBatch writes every record in one transaction. Nothing is kept when a
// row fails; the returned *domain.PersistenceError names that row.
func (r *ledgerRepository) InsertBatch(ctx context.Context, records []domain.VerifiedReturnRecord) ([]domain.VerifiedReturnRecord, error) {
	if len(records) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to begin transaction")
		return nil, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertRecord)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to prepare statement")
		return nil, err
	}
	defer stmt.Close()

	written := make([]domain.VerifiedReturnRecord, len(records))
	copy(written, records)

	for i := range written {
		rec := &written[i]
		err := stmt.QueryRowContext(
			ctx,
			rec.CompanyID,
			rec.OrderID,
			rec.VerifiedAmount,
			rec.Note,
			rec.BatchID,
			rec.CreatedAt,
		).Scan(&rec.ID)
		if err != nil {
			logger.GetLogger().WithError(err).WithFields(logrus.Fields{
				"order_id": rec.OrderID,
				"batch_id": rec.BatchID,
				"index":    i,
			}).Error("Failed to insert verified return record, rolling back batch")
			return nil, &domain.PersistenceError{
				Written:  []domain.VerifiedReturnRecord{},
				FailedAt: i,
				OrderID:  rec.OrderID,
				Err:      err,
			}
		}
	}

	if err := tx.Commit(); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to commit transaction")
		return nil, err
	}

	return written, nil
}

func (r *ledgerRepository) VerifiedOrderIDs(ctx context.Context, companyID int64, orderIDs []string) (map[string]bool, error) {
	verified := make(map[string]bool)
	if len(orderIDs) == 0 {
		return verified, nil
	}

	query := `
		SELECT DISTINCT order_id
		FROM verified_return_records
		WHERE company_id = $1 AND order_id = ANY($2)
	`

	rows, err := r.db.QueryContext(ctx, query, companyID, pq.Array(orderIDs))
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query verified orders")
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan verified order id")
			return nil, err
		}
		verified[id] = true
	}

	return verified, rows.Err()
}

func (r *ledgerRepository) ListByBatch(ctx context.Context, companyID int64, batchID string) ([]domain.VerifiedReturnRecord, error) {
	return r.list(ctx, selectRecords+`WHERE company_id = $1 AND batch_id = $2 ORDER BY id`, companyID, batchID)
}

func (r *ledgerRepository) ListByOrder(ctx context.Context, companyID int64, orderID string) ([]domain.VerifiedReturnRecord, error) {
	return r.list(ctx, selectRecords+`WHERE company_id = $1 AND order_id = $2 ORDER BY created_at, id`, companyID, orderID)
}

func (r *ledgerRepository) ListCreatedBetween(ctx context.Context, companyID int64, from, to time.Time) ([]domain.VerifiedReturnRecord, error) {
	return r.list(ctx, selectRecords+`WHERE company_id = $1 AND created_at >= $2 AND created_at <= $3 ORDER BY created_at, id`, companyID, from, to)
}

func (r *ledgerRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.VerifiedReturnRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query verified return records")
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.VerifiedReturnRecord, 0)
	for rows.Next() {
		var rec domain.VerifiedReturnRecord
		err := rows.Scan(
			&rec.ID,
			&rec.CompanyID,
			&rec.OrderID,
			&rec.VerifiedAmount,
			&rec.Note,
			&rec.BatchID,
			&rec.CreatedAt,
		)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan verified return record")
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
