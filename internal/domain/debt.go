package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResultStatus is the outcome an operator logs for a collection attempt.
type ResultStatus string

const (
	ResultPartialPayment ResultStatus = "PartialPayment"
	ResultCollectedAll   ResultStatus = "CollectedAll"
	ResultPromiseToPay   ResultStatus = "PromiseToPay"
	ResultUnreachable    ResultStatus = "Unreachable"
	ResultBadDebt        ResultStatus = "BadDebt"
)

func (s ResultStatus) Valid() bool {
	switch s {
	case ResultPartialPayment, ResultCollectedAll, ResultPromiseToPay, ResultUnreachable, ResultBadDebt:
		return true
	}
	return false
}

// CollectionAttempt is one append-only entry of the collection log.
type CollectionAttempt struct {
	ID              int64           `json:"id" db:"id"`
	OrderID         string          `json:"order_id" db:"order_id"`
	UserID          int64           `json:"user_id" db:"user_id"`
	AmountCollected decimal.Decimal `json:"amount_collected" db:"amount_collected"`
	ResultStatus    ResultStatus    `json:"result_status" db:"result_status"`
	Note            string          `json:"note" db:"note"`
	IsComplete      bool            `json:"is_complete" db:"is_complete"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	ReopenedAt      *time.Time      `json:"reopened_at,omitempty" db:"reopened_at"`
	ReopenedBy      *int64          `json:"reopened_by,omitempty" db:"reopened_by"`
}

// CaseStatus is the derived state of a debt case.
type CaseStatus string

const (
	CaseActive CaseStatus = "Active"
	CaseClosed CaseStatus = "Closed"
)

// DebtCase is never stored; it is recomputed from the attempt log.
type DebtCase struct {
	OrderID         string              `json:"order_id"`
	CompanyID       int64               `json:"company_id"`
	CustomerID      string              `json:"customer_id"`
	OrderStatus     OrderStatus         `json:"order_status"`
	PaymentStatus   PaymentStatus       `json:"payment_status"`
	DeliveryDate    *time.Time          `json:"delivery_date,omitempty"`
	Status          CaseStatus          `json:"status"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	TotalCollected  decimal.Decimal     `json:"total_collected"`
	RemainingDebt   decimal.Decimal     `json:"remaining_debt"`
	DaysOverdue     int                 `json:"days_overdue"`
	AttemptCount    int                 `json:"attempt_count"`
	LatestAttemptID *int64              `json:"latest_attempt_id,omitempty"`
	Attempts        []CollectionAttempt `json:"attempts,omitempty"`
}
