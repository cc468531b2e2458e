package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora/marketplace-api/internal/models"
)

func assertAmountIdentities(t *testing.T, a OrderAmounts) {
	t.Helper()
	assert.True(t, a.AmountToPay.Add(a.RemainingAmount).Equal(a.TotalPrice), "amount to pay + remaining must equal total")
	assert.True(t, a.GiftCardAmount.Add(a.FinalAmountToPay).Equal(a.AmountToPay), "gift card + final must equal amount to pay")
	assert.True(t, a.PlatformCommission.Add(a.SellerAmount).Equal(a.TotalPrice), "commission + seller must equal total")
}

func TestComputeAmountsFull(t *testing.T) {
	a, err := ComputeAmounts(OrderPricing{
		UnitPrice:      decimal.NewFromInt(250),
		Quantity:       2,
		PaymentType:    models.PaymentFull,
		CommissionRate: decimal.NewFromFloat(0.1),
		CommissionBase: CommissionBaseTotal,
	})
	require.NoError(t, err)

	assert.True(t, a.TotalPrice.Equal(decimal.NewFromInt(500)))
	assert.True(t, a.AmountToPay.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, 100, a.PercentagePaid)
	assert.True(t, a.RemainingAmount.IsZero())
	assert.True(t, a.PlatformCommission.Equal(decimal.NewFromInt(50)))
	assert.True(t, a.SellerAmount.Equal(decimal.NewFromInt(450)))
	assertAmountIdentities(t, a)
}

func TestComputeAmountsEscrowCollectsUpFront(t *testing.T) {
	a, err := ComputeAmounts(OrderPricing{
		UnitPrice:      decimal.NewFromInt(100),
		Quantity:       1,
		PaymentType:    models.PaymentEscrowSecured,
		CommissionRate: decimal.NewFromFloat(0.2),
	})
	require.NoError(t, err)
	assert.True(t, a.AmountToPay.Equal(decimal.NewFromInt(100)))
	assert.True(t, a.RemainingAmount.IsZero())
	assertAmountIdentities(t, a)
}

func TestComputeAmountsPercentage(t *testing.T) {
	a, err := ComputeAmounts(OrderPricing{
		UnitPrice:      decimal.NewFromInt(1000),
		Quantity:       1,
		PaymentType:    models.PaymentPercentage,
		PercentageRate: 30,
		CommissionRate: decimal.NewFromFloat(0.1),
	})
	require.NoError(t, err)

	assert.True(t, a.AmountToPay.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, 30, a.PercentagePaid)
	assert.True(t, a.RemainingAmount.Equal(decimal.NewFromInt(700)))
	assertAmountIdentities(t, a)
}

func TestComputeAmountsPercentageRounding(t *testing.T) {
	a, err := ComputeAmounts(OrderPricing{
		UnitPrice:      decimal.NewFromInt(333),
		Quantity:       1,
		PaymentType:    models.PaymentPercentage,
		PercentageRate: 33,
		CommissionRate: decimal.NewFromFloat(0.07),
	})
	require.NoError(t, err)

	// 333 * 33% = 109.89, rounded half up to whole units.
	assert.True(t, a.AmountToPay.Equal(decimal.NewFromInt(110)))
	assertAmountIdentities(t, a)
}

func TestComputeAmountsPercentageRateBounds(t *testing.T) {
	for _, rate := range []int{0, 101, -5} {
		_, err := ComputeAmounts(OrderPricing{
			UnitPrice:      decimal.NewFromInt(100),
			Quantity:       1,
			PaymentType:    models.PaymentPercentage,
			PercentageRate: rate,
			CommissionRate: decimal.NewFromFloat(0.1),
		})
		assert.Error(t, err, "rate %d", rate)
	}
}

func TestComputeAmountsGiftCardPartial(t *testing.T) {
	a, err := ComputeAmounts(OrderPricing{
		UnitPrice:       decimal.NewFromInt(400),
		Quantity:        1,
		PaymentType:     models.PaymentFull,
		GiftCardBalance: decimal.NewFromInt(150),
		CommissionRate:  decimal.NewFromFloat(0.1),
	})
	require.NoError(t, err)
	assert.True(t, a.GiftCardAmount.Equal(decimal.NewFromInt(150)))
	assert.True(t, a.FinalAmountToPay.Equal(decimal.NewFromInt(250)))
	assertAmountIdentities(t, a)
}

func TestComputeAmountsGiftCardClampedToAmountDue(t *testing.T) {
	a, err := ComputeAmounts(OrderPricing{
		UnitPrice:       decimal.NewFromInt(1000),
		Quantity:        1,
		PaymentType:     models.PaymentPercentage,
		PercentageRate:  20,
		GiftCardBalance: decimal.NewFromInt(5000),
		CommissionRate:  decimal.NewFromFloat(0.1),
	})
	require.NoError(t, err)

	// The card covers at most what is due now, never the deferred rest.
	assert.True(t, a.GiftCardAmount.Equal(decimal.NewFromInt(200)))
	assert.True(t, a.FinalAmountToPay.IsZero())
	assert.True(t, a.RemainingAmount.Equal(decimal.NewFromInt(800)))
	assertAmountIdentities(t, a)
}

func TestComputeAmountsCommissionBaseCollected(t *testing.T) {
	a, err := ComputeAmounts(OrderPricing{
		UnitPrice:      decimal.NewFromInt(1000),
		Quantity:       1,
		PaymentType:    models.PaymentPercentage,
		PercentageRate: 50,
		CommissionRate: decimal.NewFromFloat(0.1),
		CommissionBase: CommissionBaseCollected,
	})
	require.NoError(t, err)

	assert.True(t, a.PlatformCommission.Equal(decimal.NewFromInt(50)))
	assert.True(t, a.SellerAmount.Equal(decimal.NewFromInt(950)))
	assertAmountIdentities(t, a)
}

func TestComputeAmountsRejectsBadInput(t *testing.T) {
	_, err := ComputeAmounts(OrderPricing{UnitPrice: decimal.NewFromInt(10), Quantity: 0, PaymentType: models.PaymentFull})
	assert.Error(t, err)

	_, err = ComputeAmounts(OrderPricing{UnitPrice: decimal.NewFromInt(-10), Quantity: 1, PaymentType: models.PaymentFull})
	assert.Error(t, err)

	_, err = ComputeAmounts(OrderPricing{UnitPrice: decimal.NewFromInt(10), Quantity: 1, PaymentType: models.PaymentFull, CommissionRate: decimal.NewFromInt(2)})
	assert.Error(t, err)

	_, err = ComputeAmounts(OrderPricing{UnitPrice: decimal.NewFromInt(10), Quantity: 1, PaymentType: "CRYPTO"})
	assert.Error(t, err)
}

func TestComputeAmountsZeroPriceOrder(t *testing.T) {
	a, err := ComputeAmounts(OrderPricing{
		UnitPrice:   decimal.Zero,
		Quantity:    3,
		PaymentType: models.PaymentFull,
	})
	require.NoError(t, err)
	assert.True(t, a.TotalPrice.IsZero())
	assert.True(t, a.FinalAmountToPay.IsZero())
	assertAmountIdentities(t, a)
}
