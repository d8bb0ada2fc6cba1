package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"recon-ledger/internal/domain"
	"recon-ledger/pkg/logger"
)

// Store persists verified return records. InsertBatch must be all-or-nothing
// and report failures as *domain.PersistenceError.
type Store interface {
	InsertBatch(ctx context.Context, records []domain.VerifiedReturnRecord) ([]domain.VerifiedReturnRecord, error)
	Insert(ctx context.Context, record *domain.VerifiedReturnRecord) error
	VerifiedOrderIDs(ctx context.Context, companyID int64, orderIDs []string) (map[string]bool, error)
}

// Acceptance is one reviewed match result the operator chose to keep.
// ManualOrderID is mandatory for UnmatchedInFile rows and, when set on
// other rows, replaces the matched order.
type Acceptance struct {
	Result        domain.MatchResult
	ManualOrderID string
}

// Ledger is the append-only audit trail of verification decisions.
type Ledger struct {
	store  Store
	atomic bool
	now    func() time.Time
}

func New(store Store, atomic bool) *Ledger {
	return &Ledger{store: store, atomic: atomic, now: time.Now}
}

// Confirm writes one record per acceptance, tagged with batchID. Confirming
// the same rows twice writes them twice; history is never merged.
func (l *Ledger) Confirm(ctx context.Context, companyID int64, batchID string, acceptances []Acceptance) ([]domain.VerifiedReturnRecord, error) {
	if strings.TrimSpace(batchID) == "" {
		return nil, domain.ValidationError{Field: "batch_id", Code: domain.CodeRequired, Message: "batch id is required"}
	}

	records, verrs := BuildRecords(companyID, batchID, acceptances, l.now())
	if len(verrs) > 0 {
		return nil, verrs
	}
	if len(records) == 0 {
		return nil, domain.ValidationError{Field: "rows", Code: domain.CodeRequired, Message: "no rows to confirm"}
	}

	log := logger.GetLogger().WithFields(logrus.Fields{
		"company_id": companyID,
		"batch_id":   batchID,
		"rows":       len(records),
		"atomic":     l.atomic,
	})

	if l.atomic {
		written, err := l.store.InsertBatch(ctx, records)
		if err != nil {
			log.WithError(err).Error("Failed to confirm batch")
			return nil, err
		}
		log.Info("Batch confirmed")
		return written, nil
	}

	written := make([]domain.VerifiedReturnRecord, 0, len(records))
	for i := range records {
		record := records[i]
		if err := l.store.Insert(ctx, &record); err != nil {
			log.WithError(err).WithField("failed_at", i).Error("Batch confirm stopped at first failed row")
			return written, &domain.PersistenceError{
				Written:  written,
				FailedAt: i,
				OrderID:  record.OrderID,
				Err:      err,
			}
		}
		written = append(written, record)
	}

	log.Info("Batch confirmed")
	return written, nil
}

// Pending returns the orders that have no verified record yet.
func (l *Ledger) Pending(ctx context.Context, companyID int64, orders []domain.Order) ([]domain.Order, error) {
	verified, err := l.store.VerifiedOrderIDs(ctx, companyID, orderIDs(orders))
	if err != nil {
		return nil, fmt.Errorf("failed to load verified orders: %w", err)
	}
	return Pending(orders, verified), nil
}

// AnnotateVerified flags results whose order already has a ledger record.
func (l *Ledger) AnnotateVerified(ctx context.Context, companyID int64, results []domain.MatchResult) error {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		if r.MatchedOrderID != nil {
			ids = append(ids, *r.MatchedOrderID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	verified, err := l.store.VerifiedOrderIDs(ctx, companyID, ids)
	if err != nil {
		return fmt.Errorf("failed to load verified orders: %w", err)
	}
	for i := range results {
		if id := results[i].MatchedOrderID; id != nil && verified[*id] {
			results[i].AlreadyVerified = true
		}
	}
	return nil
}

// BuildRecords applies the acceptance policy: Matched and AmountMismatch rows
// may be accepted as is, UnmatchedInFile rows need a manual order id and
// UnmatchedInSystem rows carry no reported amount so they cannot be accepted.
func BuildRecords(companyID int64, batchID string, acceptances []Acceptance, now time.Time) ([]domain.VerifiedReturnRecord, domain.ValidationErrors) {
	records := make([]domain.VerifiedReturnRecord, 0, len(acceptances))
	var verrs domain.ValidationErrors

	for _, a := range acceptances {
		r := a.Result
		if r.Record == nil {
			verrs = append(verrs, domain.ValidationError{
				Field: "record", Code: domain.CodeNotAccepted, Message: fmt.Sprintf("%s rows have no reported amount", r.Status),
			})
			continue
		}
		row := r.Record.SourceRow

		var orderID string
		switch r.Status {
		case domain.Matched, domain.AmountMismatch:
			if r.MatchedOrderID != nil {
				orderID = *r.MatchedOrderID
			}
		case domain.UnmatchedInFile:
			if strings.TrimSpace(a.ManualOrderID) == "" {
				verrs = append(verrs, domain.ValidationError{
					Row: row, Field: "manual_order_id", Code: domain.CodeRequired,
					Message: "unmatched rows need an order id before they can be accepted", Value: r.Record.ExternalRef,
				})
				continue
			}
		default:
			verrs = append(verrs, domain.ValidationError{
				Row: row, Field: "status", Code: domain.CodeNotAccepted, Message: fmt.Sprintf("status %q cannot be accepted", r.Status),
			})
			continue
		}

		if target, _ := a.target(); target != "" {
			orderID = target
		}
		if orderID == "" {
			verrs = append(verrs, domain.ValidationError{
				Row: row, Field: "matched_order_id", Code: domain.CodeRequired, Message: "order id is required",
			})
			continue
		}

		records = append(records, domain.VerifiedReturnRecord{
			CompanyID:      companyID,
			OrderID:        orderID,
			VerifiedAmount: r.Record.Amount,
			Note:           r.Record.Note,
			BatchID:        batchID,
			CreatedAt:      now,
		})
	}

	return records, verrs
}

// target is the order an acceptance would be written against and the request
// field it came from. A manual id always wins over the matched one.
func (a Acceptance) target() (string, string) {
	if manual := strings.TrimSpace(a.ManualOrderID); manual != "" {
		return manual, "manual_order_id"
	}
	if a.Result.MatchedOrderID != nil {
		return strings.TrimSpace(*a.Result.MatchedOrderID), "matched_order_id"
	}
	return "", ""
}

// TargetIDs lists the distinct order ids the acceptances point at.
func TargetIDs(acceptances []Acceptance) []string {
	seen := make(map[string]bool, len(acceptances))
	ids := make([]string, 0, len(acceptances))
	for _, a := range acceptances {
		if id, _ := a.target(); id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// UnknownTargets reports every acceptance whose order id is not in known.
func UnknownTargets(acceptances []Acceptance, known map[string]bool) domain.ValidationErrors {
	var verrs domain.ValidationErrors
	for _, a := range acceptances {
		id, field := a.target()
		if id == "" || known[id] {
			continue
		}
		var row int
		if a.Result.Record != nil {
			row = a.Result.Record.SourceRow
		}
		verrs = append(verrs, domain.ValidationError{
			Row: row, Field: field, Code: domain.CodeNotAccepted,
			Message: "order does not exist for this company", Value: id,
		})
	}
	return verrs
}

// Pending filters out orders present in verified, preserving order.
func Pending(orders []domain.Order, verified map[string]bool) []domain.Order {
	pending := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if !verified[o.ID] {
			pending = append(pending, o)
		}
	}
	return pending
}

func orderIDs(orders []domain.Order) []string {
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	return ids
}
