package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vendora/marketplace-api/internal/models"
)

// ProductRepository handles persistence of marketplace listings.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository constructs the repository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create persists a new product.
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	const query = `INSERT INTO products (id, seller_id, title, kind, unit_price, active, created_at, updated_at)
        VALUES (:id, :seller_id, :title, :kind, :unit_price, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, product); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// FindByID returns a product by its ID.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	const query = `SELECT id, seller_id, title, kind, unit_price, active, created_at, updated_at FROM products WHERE id = $1`
	var product models.Product
	if err := r.db.GetContext(ctx, &product, query, id); err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns active products, optionally restricted to one seller.
func (r *ProductRepository) List(ctx context.Context, sellerID string, page, pageSize int) ([]models.Product, int, error) {
	base := "FROM products WHERE active = TRUE"
	var args []interface{}
	if sellerID != "" {
		base += fmt.Sprintf(" AND seller_id = $%d", len(args)+1)
		args = append(args, sellerID)
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT id, seller_id, title, kind, unit_price, active, created_at, updated_at
        %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, base, pageSize, offset)

	var products []models.Product
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	return products, total, nil
}
