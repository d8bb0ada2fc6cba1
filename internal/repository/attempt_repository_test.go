package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recon-ledger/internal/domain"
)

var attemptColumns = []string{
	"id", "order_id", "user_id", "amount_collected", "result_status", "note",
	"is_complete", "created_at", "reopened_at", "reopened_by",
}

func newAttempt() *domain.CollectionAttempt {
	return &domain.CollectionAttempt{
		OrderID:         "OD123",
		UserID:          9,
		AmountCollected: decimal.Zero,
		ResultStatus:    domain.ResultCollectedAll,
		IsComplete:      true,
		CreatedAt:       time.Date(2024, 11, 20, 9, 0, 0, 0, time.UTC),
	}
}

func TestAttemptRepository_AppendFirstAttempt(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAttemptRepository(db)
	a := newAttempt()

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WithArgs("OD123").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT id FROM collection_attempts`).WithArgs("OD123").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO collection_attempts`).
		WithArgs("OD123", int64(9), a.AmountCollected, a.ResultStatus, "", true, a.CreatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(41))
	mock.ExpectCommit()

	require.NoError(t, repo.Append(context.Background(), a, nil))
	assert.Equal(t, int64(41), a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepository_AppendDetectsStaleLatest(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAttemptRepository(db)
	seen := int64(40)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT id FROM collection_attempts`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectRollback()

	err := repo.Append(context.Background(), newAttempt(), &seen)
	assert.ErrorIs(t, err, domain.ErrStateConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepository_AppendExpectedButEmpty(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAttemptRepository(db)
	seen := int64(40)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT id FROM collection_attempts`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := repo.Append(context.Background(), newAttempt(), &seen)
	assert.ErrorIs(t, err, domain.ErrStateConflict)
}

func TestAttemptRepository_MarkReopened(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAttemptRepository(db)
	at := time.Date(2024, 11, 21, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE collection_attempts`).WithArgs(int64(41), at, int64(7), "OD123").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkReopened(context.Background(), "OD123", 41, 7, at))

	mock.ExpectExec(`UPDATE collection_attempts`).WithArgs(int64(41), at, int64(7), "OD123").WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.MarkReopened(context.Background(), "OD123", 41, 7, at)
	var conflict *domain.StateConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "OD123", conflict.OrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttemptRepository_ListByOrders(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAttemptRepository(db)
	at := time.Date(2024, 11, 20, 9, 0, 0, 0, time.UTC)
	reopened := at.Add(time.Hour)

	mock.ExpectQuery(`WHERE order_id = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(attemptColumns).
			AddRow(1, "OD1", 9, "0", "CollectedAll", "", false, at, reopened, 7).
			AddRow(2, "OD1", 9, "250", "PartialPayment", "cash", false, reopened, nil, nil).
			AddRow(3, "OD2", 9, "0", "Unreachable", "", false, at, nil, nil))

	byOrder, err := repo.ListByOrders(context.Background(), []string{"OD1", "OD2"})
	require.NoError(t, err)
	require.Len(t, byOrder["OD1"], 2)
	require.Len(t, byOrder["OD2"], 1)

	first := byOrder["OD1"][0]
	require.NotNil(t, first.ReopenedBy)
	assert.Equal(t, int64(7), *first.ReopenedBy)
	assert.Nil(t, byOrder["OD1"][1].ReopenedAt)
	assert.True(t, byOrder["OD1"][1].AmountCollected.Equal(decimal.NewFromInt(250)))
	assert.NoError(t, mock.ExpectationsWereMet())
}
