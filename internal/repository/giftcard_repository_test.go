package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/marketplace-api/internal/models"
)

func TestGiftCardCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGiftCardRepository(db)

	mock.ExpectExec("INSERT INTO gift_cards").WillReturnResult(sqlmock.NewResult(1, 1))

	card := &models.GiftCard{Code: "GIFT50", Balance: decimal.NewFromInt(50), Active: true}
	err := repo.Create(context.Background(), card)
	require.NoError(t, err)
	assert.NotEmpty(t, card.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGiftCardFindByCode(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGiftCardRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "code", "balance", "active", "created_at", "updated_at"}).
		AddRow("gc-1", "GIFT50", "50", true, now, now)
	mock.ExpectQuery("SELECT (.+) FROM gift_cards WHERE code").
		WithArgs("GIFT50").
		WillReturnRows(rows)

	card, err := repo.FindByCode(context.Background(), "GIFT50")
	require.NoError(t, err)
	assert.True(t, card.Balance.Equal(decimal.NewFromInt(50)))
	assert.True(t, card.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGiftCardDebit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGiftCardRepository(db)

	mock.ExpectExec("UPDATE gift_cards SET balance = balance -").
		WithArgs("gc-1", decimal.NewFromInt(30), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Debit(context.Background(), "gc-1", decimal.NewFromInt(30))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGiftCardDebitInsufficientBalance(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGiftCardRepository(db)

	mock.ExpectExec("UPDATE gift_cards SET balance = balance -").
		WithArgs("gc-1", decimal.NewFromInt(999), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Debit(context.Background(), "gc-1", decimal.NewFromInt(999))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient balance")
	assert.NoError(t, mock.ExpectationsWereMet())
}
