package postgres

import (
	"context"

	"shopcore/internal/domain/payment"
)

type paymentRepo struct {
	q querier
}

func (r *paymentRepo) Append(ctx context.Context, p *payment.Payment) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO payments (id, order_id, method, transaction_id, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.OrderID, p.Method, p.TransactionID, p.Status, p.CreatedAt,
	)
	return err
}

func (r *paymentRepo) ListByOrder(ctx context.Context, orderID string) ([]*payment.Payment, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, order_id, method, transaction_id, status, created_at
		 FROM payments WHERE order_id = $1 ORDER BY created_at`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*payment.Payment
	for rows.Next() {
		var p payment.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Method, &p.TransactionID, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
