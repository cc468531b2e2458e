package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vendora/marketplace-api/internal/models"
)

// OrderRepository handles persistence of orders.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository constructs the repository.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create persists a new order with its computed breakdown.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	const query = `INSERT INTO orders (id, buyer_id, seller_id, product_id, quantity, payment_type, percentage_rate, gift_card_id,
        unit_price, total_price, amount_to_pay, remaining_amount, gift_card_amount, final_amount_to_pay,
        platform_commission, seller_amount, transaction_id, status, created_at, updated_at)
        VALUES (:id, :buyer_id, :seller_id, :product_id, :quantity, :payment_type, :percentage_rate, :gift_card_id,
        :unit_price, :total_price, :amount_to_pay, :remaining_amount, :gift_card_amount, :final_amount_to_pay,
        :platform_commission, :seller_amount, :transaction_id, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, order); err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

const orderColumns = `id, buyer_id, seller_id, product_id, quantity, payment_type, percentage_rate, gift_card_id,
        unit_price, total_price, amount_to_pay, remaining_amount, gift_card_amount, final_amount_to_pay,
        platform_commission, seller_amount, transaction_id, status, created_at, updated_at`

// FindByID returns an order by its ID.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM orders WHERE id = $1", orderColumns)
	var order models.Order
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByTransactionID returns the order tied to a gateway transaction.
func (r *OrderRepository) FindByTransactionID(ctx context.Context, transactionID string) (*models.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM orders WHERE transaction_id = $1", orderColumns)
	var order models.Order
	if err := r.db.GetContext(ctx, &order, query, transactionID); err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns orders filtered by buyer, seller and status.
func (r *OrderRepository) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error) {
	base := "FROM orders WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.BuyerID != "" {
		conditions = append(conditions, fmt.Sprintf("buyer_id = $%d", len(args)+1))
		args = append(args, filter.BuyerID)
	}
	if filter.SellerID != "" {
		conditions = append(conditions, fmt.Sprintf("seller_id = $%d", len(args)+1))
		args = append(args, filter.SellerID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", orderColumns, base, size, offset)
	var orders []models.Order
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}
	return orders, total, nil
}

// SetTransaction records the gateway transaction and moves the order to
// awaiting payment.
func (r *OrderRepository) SetTransaction(ctx context.Context, id, transactionID string) error {
	const query = `UPDATE orders SET transaction_id = $2, status = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, transactionID, models.OrderStatusAwaitingPayment, time.Now().UTC()); err != nil {
		return fmt.Errorf("set order transaction: %w", err)
	}
	return nil
}

// UpdateStatus transitions the order's lifecycle state.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	const query = `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

// ListPaidBySeller returns a seller's paid orders within the window for
// statement generation. Open bounds are allowed on either side.
func (r *OrderRepository) ListPaidBySeller(ctx context.Context, sellerID string, from, to *time.Time) ([]models.Order, error) {
	base := "FROM orders WHERE seller_id = $1 AND status = $2"
	args := []interface{}{sellerID, models.OrderStatusPaid}

	if from != nil {
		base += fmt.Sprintf(" AND updated_at >= $%d", len(args)+1)
		args = append(args, *from)
	}
	if to != nil {
		base += fmt.Sprintf(" AND updated_at < $%d", len(args)+1)
		args = append(args, *to)
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY updated_at ASC", orderColumns, base)
	var orders []models.Order
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("list paid orders: %w", err)
	}
	return orders, nil
}
