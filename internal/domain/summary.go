package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SummaryScope selects the debt tab a summary reports on.
type SummaryScope string

const (
	ScopeActive    SummaryScope = "active"
	ScopeCompleted SummaryScope = "completed"
)

func (s SummaryScope) Valid() bool {
	return s == ScopeActive || s == ScopeCompleted
}

type Bucket struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

func (b *Bucket) Add(amount decimal.Decimal) {
	b.Count++
	b.Amount = b.Amount.Add(amount)
}

// SummaryBuckets group orders by status. Status buckets are dated by the
// delivery date, falling back to the order date.
type SummaryBuckets struct {
	Outstanding         Bucket `json:"outstanding"`
	Current             Bucket `json:"current"`
	PendingApproval     Bucket `json:"pending_approval"`
	Claiming            Bucket `json:"claiming"`
	ClaimingOutstanding Bucket `json:"claiming_outstanding"`
	BadDebt             Bucket `json:"bad_debt"`
	Shipping            Bucket `json:"shipping"`
	Returned            Bucket `json:"returned"`
	Cancelled           Bucket `json:"cancelled"`
}

// SummaryQuery is the reporting request for one company and month.
type SummaryQuery struct {
	CompanyID int64        `json:"company_id"`
	Month     int          `json:"month"`
	Year      int          `json:"year"`
	Status    SummaryScope `json:"status"`
}

type Summary struct {
	CompanyID       int64           `json:"company_id"`
	Month           int             `json:"month"`
	Year            int             `json:"year"`
	Status          SummaryScope    `json:"status"`
	PeriodStart     time.Time       `json:"period_start"`
	PeriodEnd       time.Time       `json:"period_end"`
	OrderCount      int             `json:"order_count"`
	TotalDebt       decimal.Decimal `json:"total_debt"`
	TotalCollected  decimal.Decimal `json:"total_collected"`
	WrittenOff      decimal.Decimal `json:"written_off"`
	Buckets         SummaryBuckets  `json:"buckets"`
	VerifiedReturns Bucket          `json:"verified_returns"`
}
