package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"recon-ledger/internal/domain"
	"recon-ledger/pkg/logger"
)

// OrderRepository reads the upstream order snapshot. It never writes.
type OrderRepository interface {
	ListByCompany(ctx context.Context, companyID int64, statuses []domain.OrderStatus) ([]domain.Order, error)
	GetByID(ctx context.Context, companyID int64, orderID string) (*domain.Order, error)
	ExistingIDs(ctx context.Context, companyID int64, orderIDs []string) (map[string]bool, error)
}

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderSelect = `
	SELECT o.id, o.company_id, o.customer_id, o.total_amount, o.order_date, o.delivery_date,
		   o.order_status, o.payment_status, o.payment_method,
		   COALESCE(array_agg(t.tracking_number ORDER BY t.tracking_number)
			   FILTER (WHERE t.tracking_number IS NOT NULL), '{}') AS tracking_numbers
	FROM orders o
	LEFT JOIN order_tracking_numbers t ON t.order_id = o.id
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		o        domain.Order
		delivery sql.NullTime
	)
	err := row.Scan(
		&o.ID,
		&o.CompanyID,
		&o.CustomerID,
		&o.TotalAmount,
		&o.OrderDate,
		&delivery,
		&o.OrderStatus,
		&o.PaymentStatus,
		&o.PaymentMethod,
		pq.Array(&o.TrackingNumbers),
	)
	if err != nil {
		return o, err
	}
	if delivery.Valid {
		t := delivery.Time
		o.DeliveryDate = &t
	}
	return o, nil
}

// ListByCompany returns the company's orders ordered by order date then id.
// An empty statuses slice means every status.
func (r *orderRepository) ListByCompany(ctx context.Context, companyID int64, statuses []domain.OrderStatus) ([]domain.Order, error) {
	query := orderSelect + `
	WHERE o.company_id = $1 AND (cardinality($2::text[]) = 0 OR o.order_status = ANY($2::text[]))
	GROUP BY o.id
	ORDER BY o.order_date, o.id
	`

	filter := make([]string, len(statuses))
	for i, s := range statuses {
		filter[i] = string(s)
	}

	rows, err := r.db.QueryContext(ctx, query, companyID, pq.Array(filter))
	if err != nil {
		logger.GetLogger().WithError(err).WithField("company_id", companyID).Error("Failed to query orders")
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan order")
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

func (r *orderRepository) GetByID(ctx context.Context, companyID int64, orderID string) (*domain.Order, error) {
	query := orderSelect + `
	WHERE o.company_id = $1 AND o.id = $2
	GROUP BY o.id
	`

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, companyID, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	if err != nil {
		logger.GetLogger().WithError(err).WithFields(logrus.Fields{"company_id": companyID, "order_id": orderID}).Error("Failed to get order")
		return nil, err
	}

	return &o, nil
}

// ExistingIDs reports which of orderIDs belong to the company.
func (r *orderRepository) ExistingIDs(ctx context.Context, companyID int64, orderIDs []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(orderIDs))
	if len(orderIDs) == 0 {
		return existing, nil
	}

	query := `SELECT id FROM orders WHERE company_id = $1 AND id = ANY($2)`

	rows, err := r.db.QueryContext(ctx, query, companyID, pq.Array(orderIDs))
	if err != nil {
		logger.GetLogger().WithError(err).WithField("company_id", companyID).Error("Failed to check order ids")
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		existing[id] = true
	}

	return existing, rows.Err()
}
