package service

import (
	"context"
	"fmt"
	"time"

	"recon-ledger/internal/domain"
	"recon-ledger/internal/repository"
	"recon-ledger/internal/summary"
	"recon-ledger/pkg/logger"
)

type SummaryService interface {
	Summarize(ctx context.Context, q domain.SummaryQuery) (*domain.Summary, error)
}

type summaryService struct {
	orderRepo   repository.OrderRepository
	attemptRepo repository.AttemptRepository
	ledgerRepo  repository.LedgerRepository
	cache       SummaryCache
	location    *time.Location
	now         func() time.Time
}

func NewSummaryService(
	orderRepo repository.OrderRepository,
	attemptRepo repository.AttemptRepository,
	ledgerRepo repository.LedgerRepository,
	cache SummaryCache,
	location *time.Location,
) SummaryService {
	return &summaryService{
		orderRepo:   orderRepo,
		attemptRepo: attemptRepo,
		ledgerRepo:  ledgerRepo,
		cache:       cache,
		location:    location,
		now:         time.Now,
	}
}

func (s *summaryService) Summarize(ctx context.Context, q domain.SummaryQuery) (*domain.Summary, error) {
	if err := summary.Validate(q); err != nil {
		return nil, err
	}

	log := logger.GetLogger().WithField("company_id", q.CompanyID)

	// The version is read before the snapshot so a write racing this request
	// bumps it and the report below lands under an orphaned key.
	var (
		version   int64
		cacheable bool
	)
	if s.cache != nil {
		cached, ver, err := s.cache.Get(ctx, q)
		if err != nil {
			log.WithError(err).Warn("Failed to read summary cache")
		} else if cached != nil {
			return cached, nil
		} else {
			version, cacheable = ver, true
		}
	}

	orders, err := s.orderRepo.ListByCompany(ctx, q.CompanyID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	attempts, err := s.attemptRepo.ListByOrders(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempts: %w", err)
	}

	start, end := summary.Period(q.Year, q.Month, s.location)
	verified, err := s.ledgerRepo.ListCreatedBetween(ctx, q.CompanyID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load verified returns: %w", err)
	}

	result, err := summary.Summarize(q, summary.Input{Orders: orders, Attempts: attempts, Verified: verified}, s.now(), s.location)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.Set(ctx, q, version, result); err != nil {
			log.WithError(err).Warn("Failed to write summary cache")
		}
	}

	return result, nil
}
