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

var orderTestColumns = []string{
	"id", "buyer_id", "seller_id", "product_id", "quantity", "payment_type", "percentage_rate", "gift_card_id",
	"unit_price", "total_price", "amount_to_pay", "remaining_amount", "gift_card_amount", "final_amount_to_pay",
	"platform_commission", "seller_amount", "transaction_id", "status", "created_at", "updated_at",
}

func orderTestRow(rows *sqlmock.Rows, id, txID string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, "buyer-1", "seller-1", "prod-1", 2, "FULL", 0, nil,
		"500", "1000", "1000", "0", "0", "1000",
		"100", "900", txID, "PAID", now, now)
}

func TestOrderCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOrderRepository(db)

	mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(1, 1))

	order := &models.Order{
		BuyerID:     "buyer-1",
		SellerID:    "seller-1",
		ProductID:   "prod-1",
		Quantity:    1,
		PaymentType: models.PaymentFull,
		UnitPrice:   decimal.NewFromInt(500),
		TotalPrice:  decimal.NewFromInt(500),
		Status:      models.OrderStatusPending,
	}
	err := repo.Create(context.Background(), order)
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.False(t, order.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderFindByTransactionID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOrderRepository(db)

	rows := orderTestRow(sqlmock.NewRows(orderTestColumns), "o1", "tx-1")
	mock.ExpectQuery("SELECT (.+) FROM orders WHERE transaction_id").
		WithArgs("tx-1").
		WillReturnRows(rows)

	order, err := repo.FindByTransactionID(context.Background(), "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "o1", order.ID)
	require.NotNil(t, order.TransactionID)
	assert.Equal(t, "tx-1", *order.TransactionID)
	assert.True(t, order.PlatformCommission.Equal(decimal.NewFromInt(100)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderSetTransactionMovesToAwaitingPayment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOrderRepository(db)

	mock.ExpectExec("UPDATE orders SET transaction_id").
		WithArgs("o1", "tx-1", models.OrderStatusAwaitingPayment, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetTransaction(context.Background(), "o1", "tx-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOrderRepository(db)

	mock.ExpectExec("UPDATE orders SET status").
		WithArgs("o1", models.OrderStatusPaid, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "o1", models.OrderStatusPaid)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderListPaidBySellerBindsWindow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOrderRepository(db)

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	rows := orderTestRow(sqlmock.NewRows(orderTestColumns), "o1", "tx-1")
	mock.ExpectQuery("SELECT (.+) FROM orders WHERE seller_id").
		WithArgs("seller-1", models.OrderStatusPaid, from, to).
		WillReturnRows(rows)

	orders, err := repo.ListPaidBySeller(context.Background(), "seller-1", &from, &to)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, models.OrderStatusPaid, orders[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderListPaidBySellerOpenWindow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOrderRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE seller_id").
		WithArgs("seller-1", models.OrderStatusPaid).
		WillReturnRows(sqlmock.NewRows(orderTestColumns))

	orders, err := repo.ListPaidBySeller(context.Background(), "seller-1", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}
