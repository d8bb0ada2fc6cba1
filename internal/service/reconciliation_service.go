package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"recon-ledger/internal/domain"
	"recon-ledger/internal/ledger"
	"recon-ledger/internal/matcher"
	"recon-ledger/internal/parser"
	"recon-ledger/internal/repository"
)

// MatchInput is one reconciliation session. Rows holds pre-split spreadsheet
// rows; when nil, Text is split line by line.
type MatchInput struct {
	CompanyID     int64
	Text          string
	Rows          [][]string
	SkipHeader    bool
	OrderStatuses []domain.OrderStatus
}

type ConfirmInput struct {
	CompanyID   int64
	BatchID     string
	Acceptances []ledger.Acceptance
}

type ConfirmResult struct {
	BatchID string                        `json:"batch_id"`
	Records []domain.VerifiedReturnRecord `json:"records"`
}

type ReconciliationService interface {
	Match(ctx context.Context, in MatchInput) (*domain.MatchReport, error)
	Confirm(ctx context.Context, in ConfirmInput) (*ConfirmResult, error)
	Pending(ctx context.Context, companyID int64, statuses []domain.OrderStatus) ([]domain.Order, error)
	BatchRecords(ctx context.Context, companyID int64, batchID string) ([]domain.VerifiedReturnRecord, error)
	OrderRecords(ctx context.Context, companyID int64, orderID string) ([]domain.VerifiedReturnRecord, error)
}

type reconciliationService struct {
	session    *sessionMatcher
	orderRepo  repository.OrderRepository
	ledgerRepo repository.LedgerRepository
	ledger     *ledger.Ledger
	cache      SummaryCache
}

func NewReconciliationService(
	orderRepo repository.OrderRepository,
	ledgerRepo repository.LedgerRepository,
	m *matcher.Matcher,
	atomicConfirm bool,
	cache SummaryCache,
) ReconciliationService {
	l := ledger.New(ledgerRepo, atomicConfirm)
	return &reconciliationService{
		session:    newSessionMatcher(orderRepo, l, m),
		orderRepo:  orderRepo,
		ledgerRepo: ledgerRepo,
		ledger:     l,
		cache:      cache,
	}
}

func (s *reconciliationService) Match(ctx context.Context, in MatchInput) (*domain.MatchReport, error) {
	if err := requireCompany(in.CompanyID); err != nil {
		return nil, err
	}

	normalizer := parser.NewImportNormalizer(in.SkipHeader)
	var normalized *parser.NormalizeResult
	if in.Rows != nil {
		normalized = normalizer.NormalizeRows(in.Rows)
	} else {
		normalized = normalizer.NormalizeText(in.Text)
	}

	if len(normalized.Records) == 0 && len(normalized.Errors) == 0 {
		return nil, domain.ValidationError{Field: "text", Code: domain.CodeRequired, Message: "no rows to reconcile"}
	}

	return s.session.match(ctx, in.CompanyID, in.OrderStatuses, normalized.Records, normalized.Errors)
}

func (s *reconciliationService) Confirm(ctx context.Context, in ConfirmInput) (*ConfirmResult, error) {
	if err := requireCompany(in.CompanyID); err != nil {
		return nil, err
	}

	batchID := strings.TrimSpace(in.BatchID)
	if batchID == "" {
		batchID = uuid.New().String()
	}

	known, err := s.orderRepo.ExistingIDs(ctx, in.CompanyID, ledger.TargetIDs(in.Acceptances))
	if err != nil {
		return nil, fmt.Errorf("failed to check order ids: %w", err)
	}
	if verrs := ledger.UnknownTargets(in.Acceptances, known); len(verrs) > 0 {
		return nil, verrs
	}

	written, err := s.ledger.Confirm(ctx, in.CompanyID, batchID, in.Acceptances)
	if len(written) > 0 {
		invalidateSummary(ctx, s.cache, in.CompanyID)
	}
	if err != nil {
		return nil, err
	}

	return &ConfirmResult{BatchID: batchID, Records: written}, nil
}

func (s *reconciliationService) Pending(ctx context.Context, companyID int64, statuses []domain.OrderStatus) ([]domain.Order, error) {
	if err := requireCompany(companyID); err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.ListByCompany(ctx, companyID, statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	return s.ledger.Pending(ctx, companyID, orders)
}

func (s *reconciliationService) BatchRecords(ctx context.Context, companyID int64, batchID string) ([]domain.VerifiedReturnRecord, error) {
	if err := requireCompany(companyID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(batchID) == "" {
		return nil, domain.ValidationError{Field: "batch_id", Code: domain.CodeRequired, Message: "batch id is required"}
	}
	records, err := s.ledgerRepo.ListByBatch(ctx, companyID, batchID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("batch %s: %w", batchID, domain.ErrNotFound)
	}
	return records, nil
}

func (s *reconciliationService) OrderRecords(ctx context.Context, companyID int64, orderID string) ([]domain.VerifiedReturnRecord, error) {
	if err := requireCompany(companyID); err != nil {
		return nil, err
	}
	return s.ledgerRepo.ListByOrder(ctx, companyID, orderID)
}
