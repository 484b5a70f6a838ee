package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"shopcore/internal/domain/catalog"
	"shopcore/internal/domain/storage"
)

type catalogRepo struct {
	q querier
}

func (r *catalogRepo) FindVariant(ctx context.Context, productID, sku string) (*catalog.Variant, error) {
	var v catalog.Variant
	err := r.q.QueryRowContext(ctx,
		`SELECT sku, price, stock FROM variants WHERE product_id = $1 AND sku = $2`,
		productID, sku,
	).Scan(&v.SKU, &v.Price, &v.Stock)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *catalogRepo) DecrementStock(ctx context.Context, productID, sku string, quantity int) error {
	if quantity <= 0 {
		return catalog.ErrInvalidQuantity
	}

	// The stock >= quantity predicate re-checks the precondition at the
	// moment of write.
	res, err := r.q.ExecContext(ctx,
		`UPDATE variants SET stock = stock - $3 WHERE product_id = $1 AND sku = $2 AND stock >= $3`,
		productID, sku, quantity,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	err = r.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM variants WHERE product_id = $1 AND sku = $2)`,
		productID, sku,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return catalog.ErrNotFound
	}
	return catalog.ErrInsufficientStock
}

// SaveProduct upserts a product and replaces its variants. Catalog CRUD
// proper lives outside this core; settlement tests and seeding use this.
func (s *Store) SaveProduct(ctx context.Context, p *catalog.Product) error {
	return s.InTx(ctx, func(tx storage.Store) error {
		st := tx.(*Store)
		if _, err := st.q.ExecContext(ctx,
			`INSERT INTO products (id, title, updated_at) VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, updated_at = EXCLUDED.updated_at`,
			p.ID, p.Title, time.Now().UTC(),
		); err != nil {
			return err
		}
		if _, err := st.q.ExecContext(ctx, `DELETE FROM variants WHERE product_id = $1`, p.ID); err != nil {
			return err
		}
		for _, v := range p.Variants {
			if _, err := st.q.ExecContext(ctx,
				`INSERT INTO variants (product_id, sku, price, stock) VALUES ($1, $2, $3, $4)`,
				p.ID, v.SKU, v.Price, v.Stock,
			); err != nil {
				return err
			}
		}
		return nil
	})
}
