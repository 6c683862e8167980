package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/marketloop/checkout/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders
		(id, number, user_id, status, payment_type, address, phone, note, coupon_id, sub_total, discount, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	createOrderItemSQL = `INSERT INTO order_items (order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)`

	orderColumns = `o.id, o.number, o.user_id, o.status, o.payment_type,
		o.address, o.phone, o.note, coalesce(o.coupon_id::text, ''),
		o.sub_total, o.discount, o.total, o.created_at`

	findOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders o
		WHERE o.id = $1 AND o.user_id = $2`
	findOrderByNumberSQL = `SELECT ` + orderColumns + ` FROM orders o
		WHERE o.number = $1 AND o.user_id = $2`

	eligibleFilter = ` AND o.payment_type = 'card' AND o.status IN ('pending', 'processing')`

	getOrderLinesSQL = `SELECT i.product_id, p.name, i.quantity, i.unit_price
		FROM order_items i JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1 ORDER BY i.product_id`
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore implements order.Store backed by PostgreSQL.
type OrderStore struct {
	db Querier
}

// NewOrderStore returns an OrderStore that uses the given querier.
func NewOrderStore(db Querier) *OrderStore {
	return &OrderStore{db: db}
}

// Create persists the order row and one row per line.
func (s *OrderStore) Create(ctx context.Context, o *order.Order) error {
	var couponID any
	if o.CouponID != "" {
		couponID = o.CouponID
	}
	_, err := s.db.Exec(ctx, createOrderSQL,
		o.ID, o.Number, o.UserID, o.Status, o.PaymentType,
		o.Address, o.Phone, o.Note, couponID,
		o.SubTotal, o.Discount, o.Total,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.Number, err)
	}

	batch := &pgx.Batch{}
	for _, line := range o.Lines {
		batch.Queue(createOrderItemSQL, o.ID, line.ProductID, line.Quantity, line.UnitPrice)
	}
	if err := s.db.(batchSender).SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("creating order items for %q: %w", o.Number, err)
	}
	return nil
}

// batchSender is implemented by both *pgxpool.Pool and pgx.Tx.
type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// FindEligible looks up an order by reference restricted to the owner, card
// payment, and pending/processing status, with line product names populated.
func (s *OrderStore) FindEligible(ctx context.Context, ref order.Reference, userID string) (*order.Order, error) {
	sql := findOrderByNumberSQL
	if ref.Kind == order.ByID {
		sql = findOrderByIDSQL
	}
	o, err := s.findOne(ctx, sql+eligibleFilter, ref, userID)
	if err != nil {
		return nil, err
	}
	if err := s.loadLines(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Find looks up an order by reference restricted only to the owner. Lines are
// not loaded; this query exists to diagnose why FindEligible missed.
func (s *OrderStore) Find(ctx context.Context, ref order.Reference, userID string) (*order.Order, error) {
	sql := findOrderByNumberSQL
	if ref.Kind == order.ByID {
		sql = findOrderByIDSQL
	}
	return s.findOne(ctx, sql, ref, userID)
}

func (s *OrderStore) findOne(ctx context.Context, sql string, ref order.Reference, userID string) (*order.Order, error) {
	rows, err := s.db.Query(ctx, sql, ref.Value, userID)
	if err != nil {
		return nil, fmt.Errorf("finding order %q: %w", ref.Value, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNoOrder
		}
		return nil, fmt.Errorf("finding order %q: %w", ref.Value, err)
	}
	return &o, nil
}

func (s *OrderStore) loadLines(ctx context.Context, o *order.Order) error {
	rows, err := s.db.Query(ctx, getOrderLinesSQL, o.ID)
	if err != nil {
		return fmt.Errorf("getting lines for order %q: %w", o.Number, err)
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Line, error) {
		var l order.Line
		err := row.Scan(&l.ProductID, &l.Name, &l.Quantity, &l.UnitPrice)
		return l, err
	})
	if err != nil {
		return fmt.Errorf("scanning lines for order %q: %w", o.Number, err)
	}
	o.Lines = lines
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.Number, &o.UserID, &o.Status, &o.PaymentType,
		&o.Address, &o.Phone, &o.Note, &o.CouponID,
		&o.SubTotal, &o.Discount, &o.Total, &o.CreatedAt,
	)
	return o, err
}
