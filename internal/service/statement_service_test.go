package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/marketplace-api/internal/dto"
	"github.com/vendora/marketplace-api/internal/models"
	appErrors "github.com/vendora/marketplace-api/pkg/errors"
)

type mockPaidOrders struct {
	orders []models.Order
	from   *time.Time
	to     *time.Time
}

func (m *mockPaidOrders) ListPaidBySeller(ctx context.Context, sellerID string, from, to *time.Time) ([]models.Order, error) {
	m.from = from
	m.to = to
	return m.orders, nil
}

func paidOrder(id string, total, commission int64, paidAt time.Time) models.Order {
	return models.Order{
		ID:                 id,
		SellerID:           "seller-1",
		Status:             models.OrderStatusPaid,
		TotalPrice:         decimal.NewFromInt(total),
		PlatformCommission: decimal.NewFromInt(commission),
		SellerAmount:       decimal.NewFromInt(total - commission),
		UpdatedAt:          paidAt,
	}
}

func TestStatementBuildAggregates(t *testing.T) {
	repo := &mockPaidOrders{orders: []models.Order{
		paidOrder("o1", 1000, 100, time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)),
		paidOrder("o2", 500, 50, time.Date(2025, 3, 15, 11, 0, 0, 0, time.UTC)),
	}}
	svc := NewStatementService(repo, nil)

	statement, err := svc.Build(context.Background(), "seller-1", dto.StatementQuery{From: "2025-03-01", To: "2025-03-31"})
	require.NoError(t, err)

	assert.Equal(t, 2, statement.OrderCount)
	assert.True(t, statement.GrossRevenue.Equal(decimal.NewFromInt(1500)))
	assert.True(t, statement.TotalCommission.Equal(decimal.NewFromInt(150)))
	assert.True(t, statement.NetRevenue.Equal(decimal.NewFromInt(1350)))
	require.Len(t, statement.Lines, 2)
	assert.Equal(t, "o1", statement.Lines[0].OrderID)

	// The upper bound covers the whole of the named day.
	require.NotNil(t, repo.to)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), *repo.to)
}

func TestStatementBuildOpenWindow(t *testing.T) {
	repo := &mockPaidOrders{}
	svc := NewStatementService(repo, nil)

	statement, err := svc.Build(context.Background(), "seller-1", dto.StatementQuery{})
	require.NoError(t, err)
	assert.Zero(t, statement.OrderCount)
	assert.Nil(t, repo.from)
	assert.Nil(t, repo.to)
	assert.True(t, statement.GrossRevenue.IsZero())
}

func TestStatementBuildRejectsInvertedWindow(t *testing.T) {
	svc := NewStatementService(&mockPaidOrders{}, nil)

	_, err := svc.Build(context.Background(), "seller-1", dto.StatementQuery{From: "2025-03-31", To: "2025-03-01"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStatementBuildRejectsBadDates(t *testing.T) {
	svc := NewStatementService(&mockPaidOrders{}, nil)

	_, err := svc.Build(context.Background(), "seller-1", dto.StatementQuery{From: "03/01/2025"})
	assert.Error(t, err)
	_, err = svc.Build(context.Background(), "seller-1", dto.StatementQuery{To: "yesterday"})
	assert.Error(t, err)
}

func TestStatementRenderCSV(t *testing.T) {
	repo := &mockPaidOrders{orders: []models.Order{
		paidOrder("o1", 1000, 100, time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)),
	}}
	svc := NewStatementService(repo, nil)

	statement, err := svc.Build(context.Background(), "seller-1", dto.StatementQuery{})
	require.NoError(t, err)

	data, err := svc.RenderCSV(statement)
	require.NoError(t, err)
	body := string(data)
	assert.Contains(t, body, "Order")
	assert.Contains(t, body, "o1")
	assert.Contains(t, body, "TOTAL (1 orders)")
	assert.Equal(t, 3, len(strings.Split(strings.TrimSpace(body), "\n")), "header, one line, total row")
}

func TestStatementRenderPDF(t *testing.T) {
	repo := &mockPaidOrders{orders: []models.Order{
		paidOrder("o1", 1000, 100, time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)),
	}}
	svc := NewStatementService(repo, nil)

	statement, err := svc.Build(context.Background(), "seller-1", dto.StatementQuery{})
	require.NoError(t, err)

	data, err := svc.RenderPDF(statement)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}
