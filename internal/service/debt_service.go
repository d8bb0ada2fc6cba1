package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"recon-ledger/internal/debtcase"
	"recon-ledger/internal/domain"
	"recon-ledger/internal/repository"
	"recon-ledger/pkg/logger"
)

const exportSheet = "Debt Cases"

type DebtService interface {
	ListCases(ctx context.Context, companyID int64, filter debtcase.Filter) ([]domain.DebtCase, error)
	GetCase(ctx context.Context, companyID int64, orderID string) (*domain.DebtCase, error)
	RecordAttempt(ctx context.Context, companyID int64, in debtcase.NewAttempt) (*domain.DebtCase, error)
	Close(ctx context.Context, companyID int64, orderID string, userID int64, note string, expectedLatestID *int64) (*domain.DebtCase, error)
	Reopen(ctx context.Context, companyID int64, orderID string, userID int64, expectedLatestID *int64) (*domain.DebtCase, error)
	Export(ctx context.Context, companyID int64, filter debtcase.Filter, w io.Writer) error
}

type debtService struct {
	orderRepo   repository.OrderRepository
	attemptRepo repository.AttemptRepository
	directory   repository.DirectoryRepository
	machine     *debtcase.Machine
	cache       SummaryCache
	location    *time.Location
	now         func() time.Time
}

func NewDebtService(
	orderRepo repository.OrderRepository,
	attemptRepo repository.AttemptRepository,
	directory repository.DirectoryRepository,
	locker debtcase.Locker,
	cache SummaryCache,
	location *time.Location,
) DebtService {
	return &debtService{
		orderRepo:   orderRepo,
		attemptRepo: attemptRepo,
		directory:   directory,
		machine:     debtcase.NewMachine(attemptRepo, locker),
		cache:       cache,
		location:    location,
		now:         time.Now,
	}
}

// ListCases derives every open or closed case of the company's debt pool.
// Listed cases omit their attempt log.
func (s *debtService) ListCases(ctx context.Context, companyID int64, filter debtcase.Filter) ([]domain.DebtCase, error) {
	if err := requireCompany(companyID); err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.ListByCompany(ctx, companyID, debtcase.PoolStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	now := s.now()
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		if debtcase.Eligible(o, now) {
			ids = append(ids, o.ID)
		}
	}

	attempts, err := s.attemptRepo.ListByOrders(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempts: %w", err)
	}

	cases := debtcase.Build(orders, attempts, now, filter)
	for i := range cases {
		cases[i].Attempts = nil
	}
	return cases, nil
}

func (s *debtService) GetCase(ctx context.Context, companyID int64, orderID string) (*domain.DebtCase, error) {
	if err := requireCompany(companyID); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, companyID, orderID)
	if err != nil {
		return nil, err
	}
	return s.machine.State(ctx, *order)
}

func (s *debtService) RecordAttempt(ctx context.Context, companyID int64, in debtcase.NewAttempt) (*domain.DebtCase, error) {
	order, err := s.loadForWrite(ctx, companyID, in.OrderID, in.UserID)
	if err != nil {
		return nil, err
	}

	c, err := s.machine.RecordAttempt(ctx, *order, in)
	if err != nil {
		return nil, err
	}
	invalidateSummary(ctx, s.cache, companyID)
	return c, nil
}

func (s *debtService) Close(ctx context.Context, companyID int64, orderID string, userID int64, note string, expectedLatestID *int64) (*domain.DebtCase, error) {
	return s.RecordAttempt(ctx, companyID, debtcase.QuickClose(orderID, userID, note, expectedLatestID))
}

func (s *debtService) Reopen(ctx context.Context, companyID int64, orderID string, userID int64, expectedLatestID *int64) (*domain.DebtCase, error) {
	order, err := s.loadForWrite(ctx, companyID, orderID, userID)
	if err != nil {
		return nil, err
	}

	c, err := s.machine.Reopen(ctx, *order, userID, expectedLatestID)
	if err != nil {
		return nil, err
	}
	invalidateSummary(ctx, s.cache, companyID)
	return c, nil
}

func (s *debtService) loadForWrite(ctx context.Context, companyID int64, orderID string, userID int64) (*domain.Order, error) {
	if err := requireCompany(companyID); err != nil {
		return nil, err
	}
	if err := checkOperator(ctx, s.directory, companyID, userID); err != nil {
		return nil, err
	}
	return s.orderRepo.GetByID(ctx, companyID, orderID)
}

// Export writes the filtered case list as an xlsx workbook.
func (s *debtService) Export(ctx context.Context, companyID int64, filter debtcase.Filter, w io.Writer) error {
	cases, err := s.ListCases(ctx, companyID, filter)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}

	header := []interface{}{
		"Order ID", "Customer ID", "Order Status", "Delivery Date", "Days Overdue",
		"Total Amount", "Collected", "Remaining Debt", "Attempts", "Case Status",
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return err
	}

	for i, c := range cases {
		delivered := ""
		if c.DeliveryDate != nil {
			delivered = c.DeliveryDate.In(s.location).Format("2006-01-02")
		}
		row := []interface{}{
			c.OrderID,
			c.CustomerID,
			string(c.OrderStatus),
			delivered,
			c.DaysOverdue,
			c.TotalAmount.InexactFloat64(),
			c.TotalCollected.InexactFloat64(),
			c.RemainingDebt.InexactFloat64(),
			c.AttemptCount,
			string(c.Status),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		logger.GetLogger().WithError(err).WithField("company_id", companyID).Error("Failed to write debt case export")
		return err
	}
	return nil
}
