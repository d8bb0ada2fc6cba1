package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"recon-ledger/internal/domain"
	"recon-ledger/pkg/logger"
)

// ErrDuplicateDocument is returned when a statement document number is taken.
var ErrDuplicateDocument = errors.New("statement document number already exists")

const uniqueViolation = "23505"

type StatementRepository interface {
	CreateBatch(ctx context.Context, batch *domain.StatementBatch) error
	NextDocumentSequence(ctx context.Context, prefix string) (int, error)
	GetBatch(ctx context.Context, companyID, id int64) (*domain.StatementBatch, error)
}

type statementRepository struct {
	db *sql.DB
}

func NewStatementRepository(db *sql.DB) StatementRepository {
	return &statementRepository{db: db}
}

// CreateBatch stores the batch header and its rows in one transaction.
func (r *statementRepository) CreateBatch(ctx context.Context, batch *domain.StatementBatch) error {
	log := logger.GetLogger().WithField("document_no", batch.DocumentNo)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.WithError(err).Error("Failed to begin transaction")
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO statement_batches (document_no, company_id, bank_account_id, created_by, notes, transfer_from, transfer_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`,
		batch.DocumentNo,
		batch.CompanyID,
		batch.BankAccountID,
		batch.CreatedBy,
		batch.Notes,
		batch.TransferRange.From,
		batch.TransferRange.To,
	).Scan(&batch.ID, &batch.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateDocument
		}
		log.WithError(err).Error("Failed to create statement batch")
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO statement_rows (batch_id, row_no, reference, amount, transferred_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`)
	if err != nil {
		log.WithError(err).Error("Failed to prepare statement")
		return err
	}
	defer stmt.Close()

	for i := range batch.Rows {
		row := &batch.Rows[i]
		row.BatchID = batch.ID
		err := stmt.QueryRowContext(ctx, row.BatchID, row.RowNo, row.Reference, row.Amount, row.TransferredAt).Scan(&row.ID)
		if err != nil {
			log.WithError(err).WithField("row_no", row.RowNo).Error("Failed to insert statement row")
			return fmt.Errorf("statement row %d: %w", row.RowNo, err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.WithError(err).Error("Failed to commit transaction")
		return err
	}

	return nil
}

// NextDocumentSequence returns the next free sequence for a "<prefix>-" document number.
func (r *statementRepository) NextDocumentSequence(ctx context.Context, prefix string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM statement_batches WHERE document_no LIKE $1`,
		prefix+"-%",
	).Scan(&n)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("prefix", prefix).Error("Failed to count statement batches")
		return 0, err
	}
	return n + 1, nil
}

func (r *statementRepository) GetBatch(ctx context.Context, companyID, id int64) (*domain.StatementBatch, error) {
	var b domain.StatementBatch
	err := r.db.QueryRowContext(ctx, `
		SELECT id, document_no, company_id, bank_account_id, created_by, notes, transfer_from, transfer_to, created_at
		FROM statement_batches
		WHERE company_id = $1 AND id = $2
	`, companyID, id).Scan(
		&b.ID,
		&b.DocumentNo,
		&b.CompanyID,
		&b.BankAccountID,
		&b.CreatedBy,
		&b.Notes,
		&b.TransferRange.From,
		&b.TransferRange.To,
		&b.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("statement batch %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		logger.GetLogger().WithError(err).WithField("batch_id", id).Error("Failed to get statement batch")
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, batch_id, row_no, reference, amount, transferred_at
		FROM statement_rows
		WHERE batch_id = $1
		ORDER BY row_no
	`, b.ID)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("batch_id", id).Error("Failed to query statement rows")
		return nil, err
	}
	defer rows.Close()

	b.Rows = make([]domain.StatementRow, 0)
	for rows.Next() {
		var row domain.StatementRow
		if err := rows.Scan(&row.ID, &row.BatchID, &row.RowNo, &row.Reference, &row.Amount, &row.TransferredAt); err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan statement row")
			return nil, err
		}
		b.Rows = append(b.Rows, row)
	}

	return &b, rows.Err()
}
