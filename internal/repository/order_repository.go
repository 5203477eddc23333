package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"modamarket/internal/database"
	"modamarket/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, order_number, user_id, vendor_id, items, subtotal, shipping_cost, total,
	commission_rate, commission_amount, vendor_earnings, status, shipping_method, shipping_zone_id,
	shipping_address, pickup_address, payment_proof_url, payment_proof_uploaded_at, payment_confirmed,
	payment_confirmed_at, confirmed_by, shipped_at, delivered_at, cancelled_at, cancellation_reason,
	cancelled_by, created_at, updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.VendorID, &o.Items, &o.Subtotal, &o.ShippingCost,
		&o.Total, &o.CommissionRate, &o.CommissionAmount, &o.VendorEarnings, &o.Status, &o.ShippingMethod,
		&o.ShippingZoneID, &o.ShippingAddress, &o.PickupAddress, &o.PaymentProofURL, &o.PaymentProofUploadedAt,
		&o.PaymentConfirmed, &o.PaymentConfirmedAt, &o.ConfirmedBy, &o.ShippedAt, &o.DeliveredAt, &o.CancelledAt,
		&o.CancellationReason, &o.CancelledBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// scanOrderCAS maps a lost compare-and-set (no row returned) to nil.
func scanOrderCAS(row pgx.Row) (*model.Order, error) {
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

func (r *orderRepository) Create(ctx context.Context, in NewOrder) error {
	o := in.Order
	err := database.WithRetry(ctx, r.pool, database.DefaultTxOptions(), func(tx pgx.Tx) error {
		number, err := nextOrderNumber(ctx, tx, in.Day)
		if err != nil {
			return err
		}
		o.OrderNumber = number

		_, err = tx.Exec(ctx, `
			INSERT INTO orders (id, order_number, user_id, vendor_id, items, subtotal, shipping_cost, total,
			                    commission_rate, commission_amount, vendor_earnings, status, shipping_method,
			                    shipping_zone_id, shipping_address, pickup_address, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		`, o.ID, o.OrderNumber, o.UserID, o.VendorID, o.Items, o.Subtotal, o.ShippingCost, o.Total,
			o.CommissionRate, o.CommissionAmount, o.VendorEarnings, o.Status, o.ShippingMethod,
			o.ShippingZoneID, o.ShippingAddress, o.PickupAddress, o.CreatedAt, o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		if len(in.CartItemIDs) > 0 {
			_, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND id = ANY($2)`, in.CartID, in.CartItemIDs)
			if err != nil {
				return fmt.Errorf("failed to remove consumed cart items: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", o.ID.String()).
			Msg("failed to create order")
		return err
	}

	r.logger.Debug().
		Str("order_id", o.ID.String()).
		Str("order_number", o.OrderNumber).
		Msg("order created successfully")
	return nil
}

// nextOrderNumber serialises number assignment per day with a transaction-scoped advisory lock.
func nextOrderNumber(ctx context.Context, tx pgx.Tx, day time.Time) (string, error) {
	prefix := day.Format("20060102")
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('order_number:' || $1::text))`, prefix); err != nil {
		return "", fmt.Errorf("failed to lock order sequence: %w", err)
	}

	var last string
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(order_number), '') FROM orders WHERE order_number LIKE $1::text || '%'
	`, prefix).Scan(&last)
	if err != nil {
		return "", fmt.Errorf("failed to read last order number: %w", err)
	}
	return model.NextOrderNumber(day, last)
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}
	return o, nil
}

func (r *orderRepository) List(ctx context.Context, f model.OrderFilter) ([]model.Order, int, error) {
	page, limit := model.NormalizePage(f.Page, f.Limit)
	where := `WHERE ($1::uuid IS NULL OR user_id = $1)
		AND ($2::uuid IS NULL OR vendor_id = $2)
		AND ($3::text = '' OR status = $3)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders `+where, f.UserID, f.VendorID, string(f.Status)).Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count orders")
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders `+where+`
		ORDER BY created_at DESC, id
		LIMIT $4 OFFSET $5
	`, f.UserID, f.VendorID, string(f.Status), limit, (page-1)*limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Order, error) {
		o, err := scanOrder(row)
		if err != nil {
			return model.Order{}, err
		}
		return *o, nil
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to scan order rows")
		return nil, 0, fmt.Errorf("failed to scan orders: %w", err)
	}
	return orders, total, nil
}

func (r *orderRepository) SubmitProof(ctx context.Context, orderID, userID uuid.UUID, url string, at time.Time) (*model.Order, error) {
	o, err := scanOrderCAS(r.pool.QueryRow(ctx, `
		UPDATE orders
		SET payment_proof_url = $3, payment_proof_uploaded_at = $4, status = $5, updated_at = $4
		WHERE id = $1 AND user_id = $2 AND NOT payment_confirmed AND status = ANY($6)
		RETURNING `+orderColumns,
		orderID, userID, url, at, model.StatusPaymentSubmitted, statusStrings(model.Confirmable)))
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to submit payment proof")
		return nil, fmt.Errorf("failed to submit payment proof: %w", err)
	}
	return o, nil
}

func (r *orderRepository) ConfirmPayment(ctx context.Context, s Settlement) (*model.Order, error) {
	var confirmed *model.Order
	err := database.WithRetry(ctx, r.pool, database.DefaultTxOptions(), func(tx pgx.Tx) error {
		o, err := scanOrderCAS(tx.QueryRow(ctx, `
			UPDATE orders
			SET payment_confirmed = TRUE, payment_confirmed_at = $4, confirmed_by = $5, status = $6, updated_at = $4
			WHERE id = $1
			  AND NOT payment_confirmed
			  AND status = ANY($2)
			  AND ($3::uuid IS NULL OR vendor_id = $3)
			  AND (NOT $7 OR payment_proof_url IS NOT NULL)
			RETURNING `+orderColumns,
			s.OrderID, statusStrings(model.Confirmable), s.VendorID, s.At, s.ConfirmedBy,
			model.StatusPaymentConfirmed, s.RequireProof))
		if err != nil {
			return fmt.Errorf("failed to confirm payment: %w", err)
		}
		confirmed = o
		if o == nil {
			return nil
		}
		return decrementStock(ctx, tx, o)
	})
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", s.OrderID.String()).Msg("failed to settle payment")
		return nil, err
	}
	return confirmed, nil
}

// decrementStock settles each line against its product, clamping at zero.
func decrementStock(ctx context.Context, tx pgx.Tx, o *model.Order) error {
	batch := &pgx.Batch{}
	for _, it := range o.Items {
		batch.Queue(`
			UPDATE products SET stock = GREATEST(stock - $1, 0), updated_at = NOW()
			WHERE id = $2 AND seller_id = $3
		`, it.Quantity, it.ProductID, o.VendorID)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for _, it := range o.Items {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to decrement stock for product %s: %w", it.ProductID, err)
		}
	}
	return nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to model.OrderStatus, at time.Time) (*model.Order, error) {
	o, err := scanOrderCAS(r.pool.QueryRow(ctx, `
		UPDATE orders
		SET status = $3::text,
		    shipped_at = CASE WHEN $3::text = 'shipped' THEN $4 ELSE shipped_at END,
		    delivered_at = CASE WHEN $3::text = 'delivered' THEN $4 ELSE delivered_at END,
		    updated_at = $4
		WHERE id = $1 AND status = $2::text
		RETURNING `+orderColumns,
		orderID, string(from), string(to), at))
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to update order status")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return o, nil
}

func (r *orderRepository) Cancel(ctx context.Context, orderID uuid.UUID, from model.OrderStatus, reason string, by uuid.UUID, at time.Time) (*model.Order, error) {
	o, err := scanOrderCAS(r.pool.QueryRow(ctx, `
		UPDATE orders
		SET status = $3, cancelled_at = $4, cancellation_reason = $5, cancelled_by = $6, updated_at = $4
		WHERE id = $1 AND status = $2
		RETURNING `+orderColumns,
		orderID, string(from), string(model.StatusCancelled), at, reason, by))
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to cancel order")
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	return o, nil
}

func (r *orderRepository) Summary(ctx context.Context, vendorID uuid.UUID) (*model.SalesSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status,
		       COUNT(*),
		       COALESCE(SUM(total) FILTER (WHERE payment_confirmed), 0),
		       COALESCE(SUM(commission_amount) FILTER (WHERE payment_confirmed), 0),
		       COALESCE(SUM(vendor_earnings) FILTER (WHERE payment_confirmed), 0)
		FROM orders
		WHERE vendor_id = $1
		GROUP BY status
	`, vendorID)
	if err != nil {
		r.logger.Error().Err(err).Str("vendor_id", vendorID.String()).Msg("failed to query sales summary")
		return nil, fmt.Errorf("failed to query sales summary: %w", err)
	}
	defer rows.Close()

	summary := &model.SalesSummary{
		Counts:           make(map[model.OrderStatus]int, len(model.OrderStatuses)),
		ConfirmedRevenue: decimal.Zero,
		CommissionAmount: decimal.Zero,
		VendorEarnings:   decimal.Zero,
	}
	for _, s := range model.OrderStatuses {
		summary.Counts[s] = 0
	}

	for rows.Next() {
		var (
			status                       model.OrderStatus
			count                        int
			revenue, commission, earning decimal.Decimal
		)
		if err := rows.Scan(&status, &count, &revenue, &commission, &earning); err != nil {
			return nil, fmt.Errorf("failed to scan sales summary: %w", err)
		}
		summary.Counts[status] = count
		summary.TotalOrders += count
		if status == model.StatusCancelled {
			continue
		}
		summary.ConfirmedRevenue = summary.ConfirmedRevenue.Add(revenue)
		summary.CommissionAmount = summary.CommissionAmount.Add(commission)
		summary.VendorEarnings = summary.VendorEarnings.Add(earning)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales summary: %w", err)
	}
	return summary, nil
}

func statusStrings(statuses []model.OrderStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
