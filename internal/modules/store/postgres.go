package store

import (
	"context"
	"database/sql"
	"time"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, s *Store) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stores (id, owner_id, name)
		VALUES ($1, $2, $3)`,
		s.ID, s.OwnerID, s.Name)
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Store, error) {
	s := &Store{}
	var ipnID, ipnURL sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, pesapal_ipn_id, pesapal_ipn_url, created_at, updated_at
		FROM stores WHERE id = $1`, id).Scan(
		&s.ID, &s.OwnerID, &s.Name, &ipnID, &ipnURL, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if ipnID.Valid {
		s.PesapalIPNID = &ipnID.String
	}
	if ipnURL.Valid {
		s.PesapalIPNURL = &ipnURL.String
	}
	return s, nil
}

func (r *postgresRepo) Owner(ctx context.Context, storeID string) (string, error) {
	var owner string
	err := r.db.QueryRowContext(ctx,
		`SELECT owner_id FROM stores WHERE id = $1`, storeID).Scan(&owner)
	return owner, err
}

func (r *postgresRepo) IPNRegistration(ctx context.Context, storeID string) (string, string, error) {
	var ipnID, ipnURL sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT pesapal_ipn_id, pesapal_ipn_url FROM stores WHERE id = $1`,
		storeID).Scan(&ipnID, &ipnURL)
	if err != nil {
		return "", "", err
	}
	return ipnID.String, ipnURL.String, nil
}

func (r *postgresRepo) SaveIPNRegistration(ctx context.Context, storeID, ipnID, ipnURL string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE stores SET pesapal_ipn_id = $1, pesapal_ipn_url = $2, updated_at = $3
		WHERE id = $4`,
		ipnID, ipnURL, time.Now(), storeID)
	return err
}
