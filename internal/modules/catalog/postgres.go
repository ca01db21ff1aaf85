package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/emrekoc/butika-backend/internal/apperr"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) CreateProduct(ctx context.Context, p *Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, price, stock, image_key, category_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, nilIfEmpty(p.ImageKey), p.CategoryID)
	return err
}

func scanProduct(scan func(...interface{}) error) (*Product, error) {
	p := &Product{}
	var imageKey, categoryID sql.NullString
	err := scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock,
		&imageKey, &categoryID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if imageKey.Valid {
		p.ImageKey = imageKey.String
	}
	if categoryID.Valid {
		id, _ := uuid.Parse(categoryID.String)
		p.CategoryID = &id
	}
	return p, nil
}

func (r *postgresRepo) GetProductByID(ctx context.Context, id string) (*Product, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", id, apperr.ErrNotFound)
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT id,name,description,price,stock,image_key,category_id,created_at,updated_at
		FROM products WHERE id=$1`, uid)
	p, err := scanProduct(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %s: %w", id, apperr.ErrNotFound)
	}
	return p, err
}

func (r *postgresRepo) ListProducts(ctx context.Context, categoryID string) ([]*Product, error) {
	query := `SELECT id,name,description,price,stock,image_key,category_id,created_at,updated_at
	          FROM products`
	args := []interface{}{}
	if categoryID != "" {
		query += ` WHERE category_id=$1`
		args = append(args, categoryID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *postgresRepo) UpdateProduct(ctx context.Context, p *Product) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name=$1, description=$2, price=$3, stock=$4, category_id=$5, updated_at=NOW()
		WHERE id=$6`,
		p.Name, p.Description, p.Price, p.Stock, p.CategoryID, p.ID)
	return err
}

func (r *postgresRepo) DeleteProduct(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("product %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (r *postgresRepo) SetProductImage(ctx context.Context, id string, imageKey string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET image_key=$1, updated_at=NOW() WHERE id=$2`, imageKey, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("product %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (r *postgresRepo) CreateCategory(ctx context.Context, c *Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name) VALUES ($1,$2)`, c.ID, c.Name)
	return err
}

func (r *postgresRepo) ListCategories(ctx context.Context) ([]*Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id,name,created_at FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		c := &Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *postgresRepo) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("category %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
