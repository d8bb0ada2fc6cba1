package handler

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"recon-ledger/internal/debtcase"
	"recon-ledger/internal/domain"
	"recon-ledger/internal/service"
)

type mockReconciliationService struct {
	mock.Mock
}

func (m *mockReconciliationService) Match(ctx context.Context, in service.MatchInput) (*domain.MatchReport, error) {
	args := m.Called(ctx, in)
	report, _ := args.Get(0).(*domain.MatchReport)
	return report, args.Error(1)
}

func (m *mockReconciliationService) Confirm(ctx context.Context, in service.ConfirmInput) (*service.ConfirmResult, error) {
	args := m.Called(ctx, in)
	result, _ := args.Get(0).(*service.ConfirmResult)
	return result, args.Error(1)
}

func (m *mockReconciliationService) Pending(ctx context.Context, companyID int64, statuses []domain.OrderStatus) ([]domain.Order, error) {
	args := m.Called(ctx, companyID, statuses)
	orders, _ := args.Get(0).([]domain.Order)
	return orders, args.Error(1)
}

func (m *mockReconciliationService) BatchRecords(ctx context.Context, companyID int64, batchID string) ([]domain.VerifiedReturnRecord, error) {
	args := m.Called(ctx, companyID, batchID)
	records, _ := args.Get(0).([]domain.VerifiedReturnRecord)
	return records, args.Error(1)
}

func (m *mockReconciliationService) OrderRecords(ctx context.Context, companyID int64, orderID string) ([]domain.VerifiedReturnRecord, error) {
	args := m.Called(ctx, companyID, orderID)
	records, _ := args.Get(0).([]domain.VerifiedReturnRecord)
	return records, args.Error(1)
}

type mockStatementService struct {
	mock.Mock
}

func (m *mockStatementService) Ingest(ctx context.Context, in service.StatementInput) (*service.StatementResult, error) {
	args := m.Called(ctx, in)
	result, _ := args.Get(0).(*service.StatementResult)
	return result, args.Error(1)
}

func (m *mockStatementService) Get(ctx context.Context, companyID, id int64) (*domain.StatementBatch, error) {
	args := m.Called(ctx, companyID, id)
	batch, _ := args.Get(0).(*domain.StatementBatch)
	return batch, args.Error(1)
}

type mockDebtService struct {
	mock.Mock
}

func (m *mockDebtService) ListCases(ctx context.Context, companyID int64, filter debtcase.Filter) ([]domain.DebtCase, error) {
	args := m.Called(ctx, companyID, filter)
	cases, _ := args.Get(0).([]domain.DebtCase)
	return cases, args.Error(1)
}

func (m *mockDebtService) GetCase(ctx context.Context, companyID int64, orderID string) (*domain.DebtCase, error) {
	args := m.Called(ctx, companyID, orderID)
	c, _ := args.Get(0).(*domain.DebtCase)
	return c, args.Error(1)
}

func (m *mockDebtService) RecordAttempt(ctx context.Context, companyID int64, in debtcase.NewAttempt) (*domain.DebtCase, error) {
	args := m.Called(ctx, companyID, in)
	c, _ := args.Get(0).(*domain.DebtCase)
	return c, args.Error(1)
}

func (m *mockDebtService) Close(ctx context.Context, companyID int64, orderID string, userID int64, note string, expectedLatestID *int64) (*domain.DebtCase, error) {
	args := m.Called(ctx, companyID, orderID, userID, note, expectedLatestID)
	c, _ := args.Get(0).(*domain.DebtCase)
	return c, args.Error(1)
}

func (m *mockDebtService) Reopen(ctx context.Context, companyID int64, orderID string, userID int64, expectedLatestID *int64) (*domain.DebtCase, error) {
	args := m.Called(ctx, companyID, orderID, userID, expectedLatestID)
	c, _ := args.Get(0).(*domain.DebtCase)
	return c, args.Error(1)
}

func (m *mockDebtService) Export(ctx context.Context, companyID int64, filter debtcase.Filter, w io.Writer) error {
	args := m.Called(ctx, companyID, filter, w)
	if args.Error(0) == nil {
		_, _ = w.Write([]byte("xlsx"))
	}
	return args.Error(0)
}

type mockSummaryService struct {
	mock.Mock
}

func (m *mockSummaryService) Summarize(ctx context.Context, q domain.SummaryQuery) (*domain.Summary, error) {
	args := m.Called(ctx, q)
	s, _ := args.Get(0).(*domain.Summary)
	return s, args.Error(1)
}
