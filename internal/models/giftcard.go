package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GiftCard is a prepaid balance redeemable at checkout. The ledger is
// authoritative for the balance; checkout only clamps the redeemed
// amount so the final charge never goes negative.
type GiftCard struct {
	ID        string          `db:"id" json:"id"`
	Code      string          `db:"code" json:"code"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	Active    bool            `db:"active" json:"active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
