package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/vendora/marketplace-api/internal/models"
)

// GiftCardRepository handles persistence of gift cards.
type GiftCardRepository struct {
	db *sqlx.DB
}

// NewGiftCardRepository constructs the repository.
func NewGiftCardRepository(db *sqlx.DB) *GiftCardRepository {
	return &GiftCardRepository{db: db}
}

// Create persists a new gift card.
func (r *GiftCardRepository) Create(ctx context.Context, card *models.GiftCard) error {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}
	card.UpdatedAt = now
	const query = `INSERT INTO gift_cards (id, code, balance, active, created_at, updated_at)
        VALUES (:id, :code, :balance, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, card); err != nil {
		return fmt.Errorf("create gift card: %w", err)
	}
	return nil
}

// FindByCode returns a gift card by its redemption code.
func (r *GiftCardRepository) FindByCode(ctx context.Context, code string) (*models.GiftCard, error) {
	const query = `SELECT id, code, balance, active, created_at, updated_at FROM gift_cards WHERE code = $1`
	var card models.GiftCard
	if err := r.db.GetContext(ctx, &card, query, code); err != nil {
		return nil, err
	}
	return &card, nil
}

// Debit subtracts an amount from a card's balance. The guard in the
// WHERE clause keeps the balance from going negative under concurrent
// redemptions; zero rows affected means the balance moved underneath us.
func (r *GiftCardRepository) Debit(ctx context.Context, id string, amount decimal.Decimal) error {
	const query = `UPDATE gift_cards SET balance = balance - $2, updated_at = $3
        WHERE id = $1 AND active = TRUE AND balance >= $2`
	res, err := r.db.ExecContext(ctx, query, id, amount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("debit gift card: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit gift card result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("gift card %s has insufficient balance", id)
	}
	return nil
}
