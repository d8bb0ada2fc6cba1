package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"recon-ledger/internal/domain"
	"recon-ledger/pkg/logger"
)

// DirectoryRepository reads the user directory and the bank account registry.
type DirectoryRepository interface {
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetBankAccount(ctx context.Context, companyID, id int64) (*domain.BankAccount, error)
}

type directoryRepository struct {
	db *sql.DB
}

func NewDirectoryRepository(db *sql.DB) DirectoryRepository {
	return &directoryRepository{db: db}
}

func (r *directoryRepository) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, company_id, first_name, last_name, active
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.CompanyID, &u.FirstName, &u.LastName, &u.Active)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		logger.GetLogger().WithError(err).WithField("user_id", id).Error("Failed to get user")
		return nil, err
	}

	return &u, nil
}

// GetBankAccount only finds accounts owned by the company.
func (r *directoryRepository) GetBankAccount(ctx context.Context, companyID, id int64) (*domain.BankAccount, error) {
	var a domain.BankAccount
	err := r.db.QueryRowContext(ctx, `
		SELECT id, company_id, bank, bank_number
		FROM bank_accounts
		WHERE company_id = $1 AND id = $2
	`, companyID, id).Scan(&a.ID, &a.CompanyID, &a.Bank, &a.BankNumber)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bank account %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		logger.GetLogger().WithError(err).WithField("bank_account_id", id).Error("Failed to get bank account")
		return nil, err
	}

	return &a, nil
}
