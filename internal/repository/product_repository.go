package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"storefront-service/internal/entity"
)

const productColumns = `id, name, description, price, image, category, is_featured, created_at, updated_at`

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db}
}

func scanProduct(row scanner) (*entity.Product, error) {
	product := &entity.Product{}
	err := row.Scan(&product.ID, &product.Name, &product.Description, &product.Price, &product.Image, &product.Category, &product.IsFeatured, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (r *ProductRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*entity.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []*entity.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (r *ProductRepository) GetProductByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return product, err
}

// GetProductsByIDs returns the products found for ids keyed by id. Missing ids
// are simply absent from the map.
func (r *ProductRepository) GetProductsByIDs(ctx context.Context, ids []string) (map[string]*entity.Product, error) {
	found := make(map[string]*entity.Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `SELECT ` + productColumns + ` FROM products WHERE id IN (` + placeholders(len(ids)) + `)`
	products, err := r.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		found[p.ID] = p
	}
	return found, nil
}

func (r *ProductRepository) GetProducts(ctx context.Context) ([]*entity.Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
}

func (r *ProductRepository) GetProductsByCategory(ctx context.Context, category string) ([]*entity.Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products WHERE category = ? ORDER BY created_at DESC`, category)
}

func (r *ProductRepository) GetFeaturedProducts(ctx context.Context) ([]*entity.Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products WHERE is_featured = TRUE ORDER BY created_at DESC`)
}

func (r *ProductRepository) GetRandomProducts(ctx context.Context, limit int) ([]*entity.Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY RAND() LIMIT ?`, limit)
}

func (r *ProductRepository) CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	query := `INSERT INTO products (` + productColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, product.ID, product.Name, product.Description, product.Price, product.Image, product.Category, product.IsFeatured, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (r *ProductRepository) DeleteProduct(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleFeatured flips is_featured and returns the updated product.
func (r *ProductRepository) ToggleFeatured(ctx context.Context, id string, now time.Time) (*entity.Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	product, err := scanProduct(tx.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	product.IsFeatured = !product.IsFeatured
	product.UpdatedAt = now
	_, err = tx.ExecContext(ctx, `UPDATE products SET is_featured = ?, updated_at = ? WHERE id = ?`, product.IsFeatured, product.UpdatedAt, product.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return product, nil
}
