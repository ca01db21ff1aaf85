package order

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/emrekoc/butika-backend/internal/apperr"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const selectOrderSQL = `
	SELECT id, order_number, tracking_token, payment_token,
	       guest_name, guest_surname, guest_email, guest_phone,
	       address, city, district, zip_code, country,
	       is_corporate, company_name, tax_office, tax_number,
	       total_amount, status, payment_status, cancel_reason,
	       created_at, updated_at
	FROM orders`

// CreateOrder inserts the order and all its items inside a single transaction;
// partial creation is never observable.
func (r *postgresRepo) CreateOrder(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders
		  (id, order_number, tracking_token, payment_token,
		   guest_name, guest_surname, guest_email, guest_phone,
		   address, city, district, zip_code, country,
		   is_corporate, company_name, tax_office, tax_number,
		   total_amount, status, payment_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		o.ID, o.OrderNumber, o.TrackingToken, nilIfEmpty(o.PaymentToken),
		o.GuestName, o.GuestSurname, o.GuestEmail, o.GuestPhone,
		o.Address, o.City, o.District, o.ZipCode, o.Country,
		o.IsCorporate, nilIfEmpty(o.CompanyName), nilIfEmpty(o.TaxOffice), nilIfEmpty(o.TaxNumber),
		o.TotalAmount, o.Status, o.PaymentStatus)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
			VALUES ($1,$2,$3,$4,$5)`,
			item.ID, o.ID, item.ProductID, item.Quantity, item.UnitPrice)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", id, apperr.ErrNotFound)
	}
	return r.getOne(ctx, selectOrderSQL+` WHERE id=$1`, uid)
}

func (r *postgresRepo) GetByPaymentToken(ctx context.Context, token string) (*Order, error) {
	return r.getOne(ctx, selectOrderSQL+` WHERE payment_token=$1`, token)
}

func (r *postgresRepo) GetByTrackingToken(ctx context.Context, token string) (*Order, error) {
	tok, err := uuid.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("tracking token: %w", apperr.ErrNotFound)
	}
	return r.getOne(ctx, selectOrderSQL+` WHERE tracking_token=$1`, tok)
}

func (r *postgresRepo) UpdatePaymentToken(ctx context.Context, id string, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE orders SET payment_token=$1, updated_at=$2 WHERE id=$3`,
		token, time.Now(), id)
	return err
}

// FinalizeOrder is the only mutation that may race with itself: the gateway
// retries callbacks and buyers refresh callback URLs. The order row is locked
// for the duration so exactly one caller observes PENDING and decrements stock.
func (r *postgresRepo) FinalizeOrder(ctx context.Context, id string) (*Order, bool, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, false, fmt.Errorf("order %s: %w", id, apperr.ErrNotFound)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	var status OrderStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id=$1 FOR UPDATE`, uid).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, false, fmt.Errorf("order %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, false, err
	}

	if status != StatusPending {
		// Duplicate callback: the order was already finalized. No-op success.
		if err := tx.Commit(); err != nil {
			return nil, false, err
		}
		o, err := r.GetByID(ctx, id)
		return o, false, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET status=$1, payment_status=$2, updated_at=$3 WHERE id=$4`,
		StatusPreparing, PaymentSuccess, time.Now(), uid)
	if err != nil {
		return nil, false, fmt.Errorf("finalize order: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT product_id, quantity FROM order_items WHERE order_id=$1`, uid)
	if err != nil {
		return nil, false, err
	}
	type line struct {
		productID uuid.UUID
		quantity  int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.productID, &l.quantity); err != nil {
			rows.Close()
			return nil, false, err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	for _, l := range lines {
		// Clamp at zero: insufficient stock does not abort finalization,
		// oversell is reconciled manually.
		var remaining int
		err = tx.QueryRowContext(ctx, `
			UPDATE products SET stock=GREATEST(stock-$1, 0), updated_at=NOW()
			WHERE id=$2 RETURNING stock`,
			l.quantity, l.productID).Scan(&remaining)
		if err == sql.ErrNoRows {
			log.Printf("order %s: product %s no longer exists, stock not decremented", id, l.productID)
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("decrement stock for product %s: %w", l.productID, err)
		}
		if remaining == 0 {
			log.Printf("order %s: product %s stock floor reached after -%d, possible oversell", id, l.productID, l.quantity)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}

	o, err := r.GetByID(ctx, id)
	return o, true, err
}

func (r *postgresRepo) CancelOrder(ctx context.Context, id string, reason string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status=$1, cancel_reason=NULLIF($2,''), updated_at=$3
		WHERE id=$4 AND status IN ($5,$6)`,
		StatusCancelled, reason, time.Now(), id, StatusPending, StatusPreparing)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		o, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return fmt.Errorf("order %s cannot be cancelled in status %s: %w", o.OrderNumber, o.Status, apperr.ErrConflict)
	}
	return nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, status OrderStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status=$1, updated_at=$2 WHERE id=$3`,
		status, time.Now(), id)
	return err
}

func (r *postgresRepo) List(ctx context.Context, status string) ([]*Order, error) {
	query := selectOrderSQL
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status=$1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (r *postgresRepo) getOne(ctx context.Context, query string, arg interface{}) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, arg).Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	o.Items, err = r.listItems(ctx, o.ID)
	return o, err
}

func scanOrder(scan func(...interface{}) error) (*Order, error) {
	o := &Order{}
	var paymentToken, companyName, taxOffice, taxNumber, cancelReason sql.NullString
	err := scan(
		&o.ID, &o.OrderNumber, &o.TrackingToken, &paymentToken,
		&o.GuestName, &o.GuestSurname, &o.GuestEmail, &o.GuestPhone,
		&o.Address, &o.City, &o.District, &o.ZipCode, &o.Country,
		&o.IsCorporate, &companyName, &taxOffice, &taxNumber,
		&o.TotalAmount, &o.Status, &o.PaymentStatus, &cancelReason,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.PaymentToken = paymentToken.String
	o.CompanyName = companyName.String
	o.TaxOffice = taxOffice.String
	o.TaxNumber = taxNumber.String
	o.CancelReason = cancelReason.String
	return o, nil
}

func (r *postgresRepo) listItems(ctx context.Context, orderID uuid.UUID) ([]*OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, COALESCE(p.name,''),
		       oi.quantity, oi.unit_price, oi.created_at
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id=$1 ORDER BY oi.created_at ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*OrderItem
	for rows.Next() {
		item := &OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
