package debtcase

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"recon-ledger/internal/domain"
)

// PoolStatuses are the order statuses an unpaid order must be in to carry
// collectable debt.
var PoolStatuses = []domain.OrderStatus{domain.OrderShipping, domain.OrderDelivered, domain.OrderBadDebt}

// PoolPaymentMethods are the methods that leave money with the courier or
// the customer. Orders written off as bad debt stay in the pool whatever
// the method.
var PoolPaymentMethods = []string{"COD", "PayAfter"}

func inPool(order domain.Order) bool {
	found := false
	for _, s := range PoolStatuses {
		if order.OrderStatus == s {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	if order.OrderStatus == domain.OrderBadDebt {
		return true
	}
	for _, m := range PoolPaymentMethods {
		if strings.EqualFold(strings.TrimSpace(order.PaymentMethod), m) {
			return true
		}
	}
	return false
}

// NewAttempt is an operator's request to log a collection attempt.
// ExpectedLatestID is the latest attempt id the operator saw; nil skips the check.
type NewAttempt struct {
	OrderID          string
	UserID           int64
	AmountCollected  decimal.Decimal
	ResultStatus     domain.ResultStatus
	Note             string
	IsComplete       bool
	ExpectedLatestID *int64
}

// Filter narrows a debt case listing. Zero values match everything.
type Filter struct {
	Status         domain.CaseStatus
	MinDaysOverdue int
	Tracking       string
	OrderID        string
}

const (
	TrackingNever   = "never"
	TrackingTracked = "tracked"
)

// DaysOverdue counts whole days since delivery. Future deliveries are 0.
func DaysOverdue(delivery, now time.Time) int {
	d := now.Sub(delivery)
	if d <= 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// Eligible reports whether an order belongs to the debt pool: a delivered,
// unpaid COD or pay-after parent order (or any bad debt) that is at least
// one day overdue.
func Eligible(order domain.Order, now time.Time) bool {
	if order.IsSubOrder() || order.DeliveryDate == nil {
		return false
	}
	if order.PaymentStatus != domain.PaymentUnpaid || !inPool(order) {
		return false
	}
	return DaysOverdue(*order.DeliveryDate, now) > 0
}

// SortAttempts orders the log oldest first, breaking timestamp ties by id.
func SortAttempts(attempts []domain.CollectionAttempt) []domain.CollectionAttempt {
	sorted := make([]domain.CollectionAttempt, len(attempts))
	copy(sorted, attempts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// Derive computes the case state from the order and its attempt log. A case
// is Closed iff its latest attempt is complete, and a Closed case owes nothing
// whatever was collected.
func Derive(order domain.Order, attempts []domain.CollectionAttempt, now time.Time) domain.DebtCase {
	sorted := SortAttempts(attempts)

	c := domain.DebtCase{
		OrderID:        order.ID,
		CompanyID:      order.CompanyID,
		CustomerID:     order.CustomerID,
		OrderStatus:    order.OrderStatus,
		PaymentStatus:  order.PaymentStatus,
		DeliveryDate:   order.DeliveryDate,
		Status:         domain.CaseActive,
		TotalAmount:    order.Amount(),
		TotalCollected: decimal.Zero,
		AttemptCount:   len(sorted),
		Attempts:       sorted,
	}
	if order.DeliveryDate != nil {
		c.DaysOverdue = DaysOverdue(*order.DeliveryDate, now)
	}

	for _, a := range sorted {
		c.TotalCollected = c.TotalCollected.Add(a.AmountCollected)
	}

	if n := len(sorted); n > 0 {
		latest := sorted[n-1]
		id := latest.ID
		c.LatestAttemptID = &id
		if latest.IsComplete {
			c.Status = domain.CaseClosed
		}
	}

	if c.Status == domain.CaseClosed {
		c.RemainingDebt = decimal.Zero
	} else {
		c.RemainingDebt = decimal.Max(decimal.Zero, c.TotalAmount.Sub(c.TotalCollected))
	}

	return c
}

// ValidateAttempt enforces the amount rules of each result status.
// CollectedAll with a zero amount is only valid as a quick close.
func ValidateAttempt(in NewAttempt) error {
	var errs domain.ValidationErrors

	if strings.TrimSpace(in.OrderID) == "" {
		errs = append(errs, domain.ValidationError{Field: "order_id", Code: domain.CodeRequired, Message: "order id is required"})
	}
	if in.UserID <= 0 {
		errs = append(errs, domain.ValidationError{Field: "user_id", Code: domain.CodeRequired, Message: "user id is required"})
	}

	amount := in.AmountCollected
	if amount.IsNegative() {
		errs = append(errs, domain.ValidationError{
			Field: "amount_collected", Code: domain.CodeInvalidAmount, Message: "amount must not be negative", Value: amount.String(),
		})
	}

	switch in.ResultStatus {
	case domain.ResultUnreachable, domain.ResultPromiseToPay, domain.ResultBadDebt:
		if !amount.IsZero() {
			errs = append(errs, domain.ValidationError{
				Field: "amount_collected", Code: domain.CodeInvalidAmount,
				Message: fmt.Sprintf("%s attempts cannot collect money", in.ResultStatus), Value: amount.String(),
			})
		}
	case domain.ResultPartialPayment:
		if !amount.IsPositive() {
			errs = append(errs, domain.ValidationError{
				Field: "amount_collected", Code: domain.CodeInvalidAmount, Message: "partial payment must be greater than zero", Value: amount.String(),
			})
		}
	case domain.ResultCollectedAll:
		if !amount.IsPositive() && !in.IsComplete {
			errs = append(errs, domain.ValidationError{
				Field: "amount_collected", Code: domain.CodeInvalidAmount, Message: "collected amount must be greater than zero", Value: amount.String(),
			})
		}
	default:
		errs = append(errs, domain.ValidationError{
			Field: "result_status", Code: domain.CodeInvalidValue, Message: "unknown result status", Value: string(in.ResultStatus),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// QuickClose is the attempt that resolves a case without crediting money.
func QuickClose(orderID string, userID int64, note string, expectedLatestID *int64) NewAttempt {
	return NewAttempt{
		OrderID:          orderID,
		UserID:           userID,
		AmountCollected:  decimal.Zero,
		ResultStatus:     domain.ResultCollectedAll,
		Note:             note,
		IsComplete:       true,
		ExpectedLatestID: expectedLatestID,
	}
}

// CheckTransition decides whether in may be appended to a case in state c.
func CheckTransition(c domain.DebtCase, in NewAttempt) error {
	if c.Status == domain.CaseClosed {
		return domain.NewStateConflict(c.OrderID, "case is closed, reopen it first")
	}
	return checkExpected(c, in.ExpectedLatestID)
}

// ReopenTarget returns the most recent closing attempt.
func ReopenTarget(orderID string, attempts []domain.CollectionAttempt) (*domain.CollectionAttempt, error) {
	sorted := SortAttempts(attempts)
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].IsComplete {
			target := sorted[i]
			return &target, nil
		}
	}
	return nil, domain.NewStateConflict(orderID, "no closing attempt to reopen")
}

func checkExpected(c domain.DebtCase, expected *int64) error {
	if expected == nil {
		return nil
	}
	if c.LatestAttemptID == nil || *c.LatestAttemptID != *expected {
		return domain.NewStateConflict(c.OrderID, "case changed since it was loaded")
	}
	return nil
}

// Matches reports whether a derived case passes the filter.
func (f Filter) Matches(c domain.DebtCase) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if c.DaysOverdue < f.MinDaysOverdue {
		return false
	}
	switch f.Tracking {
	case TrackingNever:
		if c.AttemptCount > 0 {
			return false
		}
	case TrackingTracked:
		if c.AttemptCount == 0 {
			return false
		}
	}
	if f.OrderID != "" && !strings.Contains(strings.ToLower(c.OrderID), strings.ToLower(f.OrderID)) {
		return false
	}
	return true
}

// Build derives every eligible case, keeping those that pass the filter,
// sorted by delivery date then order id.
func Build(orders []domain.Order, attempts map[string][]domain.CollectionAttempt, now time.Time, f Filter) []domain.DebtCase {
	cases := make([]domain.DebtCase, 0)
	for _, o := range orders {
		if !Eligible(o, now) {
			continue
		}
		c := Derive(o, attempts[o.ID], now)
		if f.Matches(c) {
			cases = append(cases, c)
		}
	}

	sort.SliceStable(cases, func(i, j int) bool {
		di, dj := *cases[i].DeliveryDate, *cases[j].DeliveryDate
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return cases[i].OrderID < cases[j].OrderID
	})
	return cases
}
