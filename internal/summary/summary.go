package summary

import (
	"time"

	"github.com/shopspring/decimal"

	"recon-ledger/internal/debtcase"
	"recon-ledger/internal/domain"
)

// Input is the data one report is computed from.
type Input struct {
	Orders   []domain.Order
	Attempts map[string][]domain.CollectionAttempt
	Verified []domain.VerifiedReturnRecord
}

// Period returns the first and last instant of a calendar month in loc.
func Period(year, month int, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// Validate checks a reporting query.
func Validate(q domain.SummaryQuery) error {
	var errs domain.ValidationErrors
	if q.CompanyID <= 0 {
		errs = append(errs, domain.ValidationError{Field: "company_id", Code: domain.CodeRequired, Message: "company id is required"})
	}
	if q.Month < 1 || q.Month > 12 {
		errs = append(errs, domain.ValidationError{Field: "month", Code: domain.CodeInvalidValue, Message: "month must be between 1 and 12"})
	}
	if q.Year < 2000 || q.Year > 9999 {
		errs = append(errs, domain.ValidationError{Field: "year", Code: domain.CodeInvalidValue, Message: "year is out of range"})
	}
	if !q.Status.Valid() {
		errs = append(errs, domain.ValidationError{Field: "status", Code: domain.CodeInvalidValue, Message: "status must be active or completed", Value: string(q.Status)})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Summarize partitions the company's orders into reporting buckets for the
// month in q. Debt buckets sum remaining debt of Active cases while the
// order status buckets sum order totals. A missing total counts as zero.
func Summarize(q domain.SummaryQuery, in Input, now time.Time, loc *time.Location) (*domain.Summary, error) {
	if err := Validate(q); err != nil {
		return nil, err
	}

	start, end := Period(q.Year, q.Month, loc)
	s := &domain.Summary{
		CompanyID:      q.CompanyID,
		Month:          q.Month,
		Year:           q.Year,
		Status:         q.Status,
		PeriodStart:    start,
		PeriodEnd:      end,
		TotalDebt:      decimal.Zero,
		TotalCollected: decimal.Zero,
		WrittenOff:     decimal.Zero,
	}

	for _, o := range in.Orders {
		if o.CompanyID != q.CompanyID || o.IsSubOrder() {
			continue
		}

		dated := bucketDate(o)
		if o.OrderStatus == domain.OrderClaiming && dated.Before(start) {
			s.Buckets.ClaimingOutstanding.Add(o.Amount())
		}
		if inPeriod(dated, start, end) {
			switch o.OrderStatus {
			case domain.OrderDelivered:
				if o.PaymentStatus != domain.PaymentPaid {
					s.Buckets.PendingApproval.Add(o.Amount())
				}
			case domain.OrderClaiming:
				s.Buckets.Claiming.Add(o.Amount())
			case domain.OrderBadDebt:
				s.Buckets.BadDebt.Add(o.Amount())
			case domain.OrderShipping, domain.OrderPreparing, domain.OrderPicking:
				s.Buckets.Shipping.Add(o.Amount())
			case domain.OrderReturned:
				s.Buckets.Returned.Add(o.Amount())
			case domain.OrderCancelled:
				s.Buckets.Cancelled.Add(o.Amount())
			}
		}

		if !debtcase.Eligible(o, now) {
			continue
		}
		c := debtcase.Derive(o, in.Attempts[o.ID], now)
		delivered := *o.DeliveryDate

		if c.Status == domain.CaseActive {
			switch {
			case delivered.Before(start):
				s.Buckets.Outstanding.Add(c.RemainingDebt)
			case !delivered.After(end):
				s.Buckets.Current.Add(c.RemainingDebt)
			}
		}

		if delivered.After(end) || !inScope(q.Status, c.Status) {
			continue
		}
		s.OrderCount++
		s.TotalDebt = s.TotalDebt.Add(c.RemainingDebt)
		s.TotalCollected = s.TotalCollected.Add(c.TotalCollected)
		if c.Status == domain.CaseClosed {
			s.WrittenOff = s.WrittenOff.Add(decimal.Max(decimal.Zero, c.TotalAmount.Sub(c.TotalCollected)))
		}
	}

	for _, r := range in.Verified {
		if r.CompanyID == q.CompanyID && inPeriod(r.CreatedAt, start, end) {
			s.VerifiedReturns.Add(r.VerifiedAmount)
		}
	}

	return s, nil
}

func inScope(scope domain.SummaryScope, status domain.CaseStatus) bool {
	if scope == domain.ScopeCompleted {
		return status == domain.CaseClosed
	}
	return status == domain.CaseActive
}

func bucketDate(o domain.Order) time.Time {
	if o.DeliveryDate != nil {
		return *o.DeliveryDate
	}
	return o.OrderDate
}

func inPeriod(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
