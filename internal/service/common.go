package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"recon-ledger/internal/domain"
	"recon-ledger/internal/ledger"
	"recon-ledger/internal/matcher"
	"recon-ledger/internal/orderindex"
	"recon-ledger/internal/repository"
	"recon-ledger/pkg/logger"
)

// SummaryCache is optional; a nil cache disables caching. Get reports the
// version it looked under and Set writes under that same version.
type SummaryCache interface {
	Get(ctx context.Context, q domain.SummaryQuery) (*domain.Summary, int64, error)
	Set(ctx context.Context, q domain.SummaryQuery, version int64, s *domain.Summary) error
	Invalidate(ctx context.Context, companyID int64) error
}

func requireCompany(companyID int64) error {
	if companyID <= 0 {
		return domain.ValidationError{Field: "company_id", Code: domain.CodeRequired, Message: "company id is required"}
	}
	return nil
}

// invalidateSummary drops cached reports after a write. A cache failure only
// leaves reports stale until their TTL, so it is logged and ignored.
func invalidateSummary(ctx context.Context, cache SummaryCache, companyID int64) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, companyID); err != nil {
		logger.GetLogger().WithError(err).WithField("company_id", companyID).Warn("Failed to invalidate summary cache")
	}
}

// sessionMatcher runs one match session against a fresh order snapshot. Both
// pasted imports and bank statements go through it.
type sessionMatcher struct {
	orderRepo repository.OrderRepository
	ledger    *ledger.Ledger
	matcher   *matcher.Matcher
}

func newSessionMatcher(orderRepo repository.OrderRepository, l *ledger.Ledger, m *matcher.Matcher) *sessionMatcher {
	return &sessionMatcher{orderRepo: orderRepo, ledger: l, matcher: m}
}

func (s *sessionMatcher) match(
	ctx context.Context,
	companyID int64,
	statuses []domain.OrderStatus,
	records []domain.ImportRecord,
	rejected []domain.ValidationError,
) (*domain.MatchReport, error) {
	sessionID := uuid.New().String()
	log := logger.GetLogger().WithFields(logrus.Fields{"session_id": sessionID, "company_id": companyID})

	orders, err := s.orderRepo.ListByCompany(ctx, companyID, statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	output := s.matcher.Match(records, orderindex.New(orders))
	if err := s.ledger.AnnotateVerified(ctx, companyID, output.Results); err != nil {
		return nil, err
	}

	report := &domain.MatchReport{
		SessionID:         sessionID,
		Results:           output.Results,
		UnmatchedInSystem: output.UnmatchedInSystem,
		ValidationErrors:  rejected,
		Totals:            matcher.Totals(output, len(rejected)),
	}

	log.WithFields(logrus.Fields{
		"records":  report.Totals.TotalRecords,
		"matched":  report.Totals.Matched,
		"mismatch": report.Totals.AmountMismatch,
		"rejected": report.Totals.Rejected,
	}).Info("Reconciliation session matched")

	return report, nil
}
