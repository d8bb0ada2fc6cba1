package domain

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus mirrors the upstream order workflow.
type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderPreparing OrderStatus = "Preparing"
	OrderPicking   OrderStatus = "Picking"
	OrderShipping  OrderStatus = "Shipping"
	OrderDelivered OrderStatus = "Delivered"
	OrderReturned  OrderStatus = "Returned"
	OrderCancelled OrderStatus = "Cancelled"
	OrderClaiming  OrderStatus = "Claiming"
	OrderBadDebt   OrderStatus = "BadDebt"
)

type PaymentStatus string

const (
	PaymentUnpaid      PaymentStatus = "Unpaid"
	PaymentPartialPaid PaymentStatus = "PartialPaid"
	PaymentPaid        PaymentStatus = "Paid"
)

var subOrderPattern = regexp.MustCompile(`^.+-[0-9]+$`)

// Order is the read-only snapshot of an upstream order.
type Order struct {
	ID              string              `json:"id" db:"id"`
	CompanyID       int64               `json:"company_id" db:"company_id"`
	CustomerID      string              `json:"customer_id" db:"customer_id"`
	TrackingNumbers []string            `json:"tracking_numbers" db:"tracking_numbers"`
	TotalAmount     decimal.NullDecimal `json:"total_amount" db:"total_amount"`
	OrderDate       time.Time           `json:"order_date" db:"order_date"`
	DeliveryDate    *time.Time          `json:"delivery_date,omitempty" db:"delivery_date"`
	OrderStatus     OrderStatus         `json:"order_status" db:"order_status"`
	PaymentStatus   PaymentStatus       `json:"payment_status" db:"payment_status"`
	PaymentMethod   string              `json:"payment_method" db:"payment_method"`
}

// Amount returns the order total, or zero when the upstream total is missing.
func (o Order) Amount() decimal.Decimal {
	if !o.TotalAmount.Valid {
		return decimal.Zero
	}
	return o.TotalAmount.Decimal
}

// IsSubOrder reports whether the id has the "<parent>-<n>" shape used for split boxes.
func (o Order) IsSubOrder() bool {
	return subOrderPattern.MatchString(o.ID)
}

// User is an operator from the user directory.
type User struct {
	ID        int64  `json:"id" db:"id"`
	CompanyID int64  `json:"company_id" db:"company_id"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	Active    bool   `json:"active" db:"active"`
}

// BankAccount is a settlement account from the bank account registry.
type BankAccount struct {
	ID         int64  `json:"id" db:"id"`
	CompanyID  int64  `json:"company_id" db:"company_id"`
	Bank       string `json:"bank" db:"bank"`
	BankNumber string `json:"bank_number" db:"bank_number"`
}
