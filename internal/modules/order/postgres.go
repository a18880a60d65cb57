package order

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// CreateWithItems locks each product row with FOR UPDATE so two concurrent
// checkouts cannot both pass the stock check before either decrements.
func (r *postgresRepo) CreateWithItems(ctx context.Context, o *Order, items []CheckoutItem, multiplier decimal.Decimal) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	o.Items = o.Items[:0]
	for _, ci := range items {
		if ci.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be > 0 for product %s", ci.ProductID)
		}
		pid, err := uuid.Parse(ci.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, ci.ProductID)
		}

		var price decimal.Decimal
		var stock int
		err = tx.QueryRowContext(ctx, `
			SELECT price, stock FROM products
			WHERE id = $1 AND store_id = $2 AND is_archived = FALSE
			FOR UPDATE`, pid, o.StoreID).Scan(&price, &stock)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, ci.ProductID)
		}
		if err != nil {
			return nil, err
		}
		if stock < ci.Quantity {
			return nil, fmt.Errorf("%w: product %s has %d left, %d requested",
				ErrInsufficientStock, ci.ProductID, stock, ci.Quantity)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - $1, updated_at = $2 WHERE id = $3`,
			ci.Quantity, time.Now(), pid); err != nil {
			return nil, err
		}

		o.Items = append(o.Items, &Item{
			ID:        uuid.New(),
			OrderID:   o.ID,
			ProductID: pid,
			Quantity:  ci.Quantity,
			UnitPrice: price,
		})
	}

	o.Total = ComputeTotal(o.Items, multiplier)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders
		  (id, store_id, is_paid, status, phone, address, provider, total, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		o.ID, o.StoreID, o.IsPaid, o.Status, o.Phone, o.Address, o.Provider, o.Total, o.Currency)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)`,
			item.ID, o.ID, item.ProductID, item.Quantity, item.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("insert order_item: %w", err)
		}
	}

	if o.Shipping != nil {
		sd := o.Shipping
		sd.ID = uuid.New()
		sd.OrderID = o.ID
		_, err = tx.ExecContext(ctx, `
			INSERT INTO shipping_details
			  (id, order_id, address_line_1, address_line_2, city, state, zip_code, country, phone_number)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			sd.ID, sd.OrderID, sd.AddressLine1, sd.AddressLine2, sd.City, sd.State,
			sd.ZipCode, sd.Country, sd.PhoneNumber)
		if err != nil {
			return nil, fmt.Errorf("insert shipping_details: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return o, nil
}

// FailAndRestock is the compensating transaction for a failed provider
// submission: the order row survives for audit, the stock goes back.
func (r *postgresRepo) FailAndRestock(ctx context.Context, orderID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT product_id, quantity FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return err
	}
	defer rows.Close()

	type line struct {
		productID uuid.UUID
		qty       int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.productID, &l.qty); err != nil {
			return err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, l := range lines {
		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock + $1, updated_at = $2 WHERE id = $3`,
			l.qty, time.Now(), l.productID); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		StatusFailed, time.Now(), orderID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *postgresRepo) SetTracking(ctx context.Context, orderID, trackingID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders SET tracking_id = $1, status = $2, updated_at = $3 WHERE id = $4`,
		trackingID, StatusProcessing, time.Now(), orderID)
	return err
}

// ApplyReconciliation is a plain idempotent UPDATE; reapplying the same
// provider result rewrites identical values.
func (r *postgresRepo) ApplyReconciliation(ctx context.Context, orderID string, status Status, isPaid bool, meta PaymentMetadata) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
		    is_paid = $2,
		    payment_method = COALESCE(NULLIF($3, ''), payment_method),
		    payment_confirmation_code = COALESCE(NULLIF($4, ''), payment_confirmation_code),
		    payment_description = COALESCE(NULLIF($5, ''), payment_description),
		    payment_account = COALESCE(NULLIF($6, ''), payment_account),
		    payment_date = COALESCE(NULLIF($7, ''), payment_date),
		    updated_at = $8
		WHERE id = $9`,
		status, isPaid, meta.Method, meta.ConfirmationCode, meta.Description,
		meta.Account, meta.Date, time.Now(), orderID)
	return err
}

const selectOrderSQL = `
	SELECT id, store_id, is_paid, status, phone, address, provider, tracking_id,
	       payment_method, payment_confirmation_code, payment_description,
	       payment_account, payment_date, total, currency, created_at, updated_at
	FROM orders`

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	o, err := r.scanOrder(r.db.QueryRowContext(ctx, selectOrderSQL+` WHERE id = $1`, uid))
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.loadChildren(ctx, o)
}

func (r *postgresRepo) GetByTrackingID(ctx context.Context, trackingID string) (*Order, error) {
	o, err := r.scanOrder(r.db.QueryRowContext(ctx, selectOrderSQL+` WHERE tracking_id = $1`, trackingID))
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.loadChildren(ctx, o)
}

func (r *postgresRepo) ListByStore(ctx context.Context, storeID string) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, selectOrderSQL+` WHERE store_id = $1 ORDER BY created_at DESC`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range orders {
		if o.Items, err = r.listItems(ctx, o.ID); err != nil {
			return nil, err
		}
	}
	if orders == nil {
		orders = []*Order{}
	}
	return orders, nil
}

func (r *postgresRepo) UpdateAdmin(ctx context.Context, orderID string, isPaid *bool, status *Status) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET is_paid = COALESCE($1, is_paid),
		    status = COALESCE($2, status),
		    updated_at = $3
		WHERE id = $4`,
		isPaid, (*string)(status), time.Now(), orderID)
	return err
}

func (r *postgresRepo) Delete(ctx context.Context, orderID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM shipping_details WHERE order_id = $1`, orderID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID); err != nil {
		return err
	}
	return tx.Commit()
}

// ── helpers ──────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scanOrder(row rowScanner) (*Order, error) {
	o := &Order{}
	var tracking, method, confCode, payDesc, account, payDate sql.NullString
	err := row.Scan(
		&o.ID, &o.StoreID, &o.IsPaid, &o.Status, &o.Phone, &o.Address, &o.Provider,
		&tracking, &method, &confCode, &payDesc, &account, &payDate,
		&o.Total, &o.Currency, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.TrackingID = nullable(tracking)
	o.PaymentMethod = nullable(method)
	o.PaymentConfirmationCode = nullable(confCode)
	o.PaymentDescription = nullable(payDesc)
	o.PaymentAccount = nullable(account)
	o.PaymentDate = nullable(payDate)
	return o, nil
}

func (r *postgresRepo) loadChildren(ctx context.Context, o *Order) (*Order, error) {
	var err error
	if o.Items, err = r.listItems(ctx, o.ID); err != nil {
		return nil, err
	}

	sd := &ShippingDetails{}
	err = r.db.QueryRowContext(ctx, `
		SELECT id, order_id, address_line_1, address_line_2, city, state, zip_code, country, phone_number
		FROM shipping_details WHERE order_id = $1`, o.ID).Scan(
		&sd.ID, &sd.OrderID, &sd.AddressLine1, &sd.AddressLine2, &sd.City,
		&sd.State, &sd.ZipCode, &sd.Country, &sd.PhoneNumber)
	if err == nil {
		o.Shipping = sd
	} else if err != sql.ErrNoRows {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) listItems(ctx context.Context, orderID uuid.UUID) ([]*Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item := &Item{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
