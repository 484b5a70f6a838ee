package postgres

import (
	"context"
	"database/sql"
	"errors"

	"shopcore/internal/domain/order"
)

type orderRepo struct {
	q querier
}

func (r *orderRepo) Insert(ctx context.Context, o *order.Order) error {
	if _, err := r.q.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, total_price, status, payment_status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.UserID, o.TotalPrice, o.Status, o.PaymentStatus, o.CreatedAt, o.UpdatedAt,
	); err != nil {
		return err
	}
	for i, line := range o.Lines {
		if _, err := r.q.ExecContext(ctx,
			`INSERT INTO order_lines (order_id, position, product_id, variant_sku, quantity, unit_price)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			o.ID, i, line.ProductID, line.VariantSKU, line.Quantity, line.UnitPrice,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *orderRepo) Get(ctx context.Context, id string) (*order.Order, error) {
	var o order.Order
	err := r.q.QueryRowContext(ctx,
		`SELECT id, user_id, total_price, status, payment_status, created_at, updated_at
		 FROM orders WHERE id = $1`,
		id,
	).Scan(&o.ID, &o.UserID, &o.TotalPrice, &o.Status, &o.PaymentStatus, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx,
		`SELECT product_id, variant_sku, quantity, unit_price
		 FROM order_lines WHERE order_id = $1 ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line order.Line
		if err := rows.Scan(&line.ProductID, &line.VariantSKU, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

// Update persists the mutable status fields; lines and totals are an
// immutable snapshot and never rewritten.
func (r *orderRepo) Update(ctx context.Context, o *order.Order) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE orders SET status = $2, payment_status = $3, updated_at = $4 WHERE id = $1`,
		o.ID, o.Status, o.PaymentStatus, o.UpdatedAt,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return order.ErrNotFound
	}
	return nil
}
