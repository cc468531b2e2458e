package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementQuery bounds a seller statement by paid-at date.
type StatementQuery struct {
	From   string `form:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To     string `form:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
	Format string `form:"format" json:"format" validate:"omitempty,oneof=json csv pdf"`
}

// SellerStatement aggregates a seller's paid orders.
type SellerStatement struct {
	SellerID        string          `json:"sellerId"`
	From            *time.Time      `json:"from,omitempty"`
	To              *time.Time      `json:"to,omitempty"`
	OrderCount      int             `json:"orderCount"`
	GrossRevenue    decimal.Decimal `json:"grossRevenue"`
	TotalCommission decimal.Decimal `json:"totalCommission"`
	NetRevenue      decimal.Decimal `json:"netRevenue"`
	Lines           []StatementLine `json:"lines"`
}

// StatementLine is one paid order inside a statement.
type StatementLine struct {
	OrderID    string          `json:"orderId"`
	PaidAt     time.Time       `json:"paidAt"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Commission decimal.Decimal `json:"commission"`
	NetAmount  decimal.Decimal `json:"netAmount"`
}
