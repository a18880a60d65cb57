package catalog

import (
	"context"
	"database/sql"
	"time"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const selectSQL = `
	SELECT id, store_id, name, description, price, stock, is_archived, created_at, updated_at
	FROM products`

func (r *postgresRepo) Create(ctx context.Context, p *Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, store_id, name, description, price, stock, is_archived)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.StoreID, p.Name, p.Description, p.Price, p.Stock, p.IsArchived)
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	p := &Product{}
	err := r.db.QueryRowContext(ctx, selectSQL+` WHERE id = $1`, id).Scan(
		&p.ID, &p.StoreID, &p.Name, &p.Description, &p.Price, &p.Stock,
		&p.IsArchived, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) ListByStore(ctx context.Context, storeID string, activeOnly bool) ([]*Product, error) {
	query := selectSQL + ` WHERE store_id = $1`
	if activeOnly {
		query += ` AND is_archived = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p := &Product{}
		if err := rows.Scan(
			&p.ID, &p.StoreID, &p.Name, &p.Description, &p.Price, &p.Stock,
			&p.IsArchived, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if products == nil {
		products = []*Product{}
	}
	return products, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, p *Product) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $1, description = $2, price = $3, stock = $4, is_archived = $5, updated_at = $6
		WHERE id = $7`,
		p.Name, p.Description, p.Price, p.Stock, p.IsArchived, time.Now(), p.ID)
	return err
}
