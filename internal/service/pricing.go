package service

import (
	"github.com/shopspring/decimal"

	"github.com/vendora/marketplace-api/internal/models"
	appErrors "github.com/vendora/marketplace-api/pkg/errors"
)

// CommissionBaseTotal charges commission on the full order value,
// CommissionBaseCollected only on what the buyer pays up front.
const (
	CommissionBaseTotal     = "total"
	CommissionBaseCollected = "collected"
)

// OrderPricing carries everything ComputeAmounts needs. The gift card
// balance is the card's current balance, not the amount to apply; the
// calculator decides how much of it the order can absorb.
type OrderPricing struct {
	UnitPrice       decimal.Decimal
	Quantity        int
	PaymentType     models.PaymentType
	PercentageRate  int
	GiftCardBalance decimal.Decimal
	CommissionRate  decimal.Decimal
	CommissionBase  string
}

// OrderAmounts is the full monetary breakdown of an order. All values
// are whole currency units, rounded half up.
type OrderAmounts struct {
	TotalPrice         decimal.Decimal
	AmountToPay        decimal.Decimal
	PercentagePaid     int
	RemainingAmount    decimal.Decimal
	GiftCardAmount     decimal.Decimal
	FinalAmountToPay   decimal.Decimal
	PlatformCommission decimal.Decimal
	SellerAmount       decimal.Decimal
}

// ComputeAmounts prices an order. It is deterministic and side-effect
// free so checkout can be retried without drift between the persisted
// order and the amount sent to the payment gateway.
//
// Whatever the payment type, the identities below always hold:
//
//	AmountToPay + RemainingAmount   == TotalPrice
//	GiftCardAmount + FinalAmountToPay == AmountToPay
//	PlatformCommission + SellerAmount == TotalPrice
func ComputeAmounts(p OrderPricing) (OrderAmounts, error) {
	if p.Quantity < 1 {
		return OrderAmounts{}, appErrors.Clone(appErrors.ErrValidation, "quantity must be at least 1")
	}
	if p.UnitPrice.IsNegative() {
		return OrderAmounts{}, appErrors.Clone(appErrors.ErrValidation, "unit price cannot be negative")
	}
	if p.CommissionRate.IsNegative() || p.CommissionRate.GreaterThan(decimal.NewFromInt(1)) {
		return OrderAmounts{}, appErrors.Clone(appErrors.ErrValidation, "commission rate must be between 0 and 1")
	}

	total := p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Quantity))).Round(0)

	var amountToPay decimal.Decimal
	percentagePaid := 100
	switch p.PaymentType {
	case models.PaymentFull, models.PaymentEscrowSecured:
		// Escrow collects the full amount up front; it differs from FULL
		// only in when the seller is paid out, not in what the buyer owes.
		amountToPay = total
	case models.PaymentPercentage:
		if p.PercentageRate < 1 || p.PercentageRate > 100 {
			return OrderAmounts{}, appErrors.Clone(appErrors.ErrValidation, "percentageRate must be between 1 and 100")
		}
		percentagePaid = p.PercentageRate
		amountToPay = total.Mul(decimal.NewFromInt(int64(p.PercentageRate))).Div(decimal.NewFromInt(100)).Round(0)
	default:
		return OrderAmounts{}, appErrors.Clone(appErrors.ErrValidation, "unknown payment type")
	}

	remaining := total.Sub(amountToPay)

	giftCardAmount := decimal.Zero
	if p.GiftCardBalance.IsPositive() {
		giftCardAmount = decimal.Min(p.GiftCardBalance.Round(0), amountToPay)
	}
	finalAmountToPay := amountToPay.Sub(giftCardAmount)

	commissionBase := total
	if p.CommissionBase == CommissionBaseCollected {
		commissionBase = amountToPay
	}
	commission := commissionBase.Mul(p.CommissionRate).Round(0)
	sellerAmount := total.Sub(commission)

	return OrderAmounts{
		TotalPrice:         total,
		AmountToPay:        amountToPay,
		PercentagePaid:     percentagePaid,
		RemainingAmount:    remaining,
		GiftCardAmount:     giftCardAmount,
		FinalAmountToPay:   finalAmountToPay,
		PlatformCommission: commission,
		SellerAmount:       sellerAmount,
	}, nil
}
