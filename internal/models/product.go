package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductKind classifies what a seller is offering.
type ProductKind string

const (
	ProductKindDigital  ProductKind = "DIGITAL"
	ProductKindPhysical ProductKind = "PHYSICAL"
	ProductKindService  ProductKind = "SERVICE"
	ProductKindCourse   ProductKind = "COURSE"
)

// Product is a sellable marketplace listing. Prices are whole currency
// units; the marketplace has no sub-unit currency.
type Product struct {
	ID        string          `db:"id" json:"id"`
	SellerID  string          `db:"seller_id" json:"seller_id"`
	Title     string          `db:"title" json:"title"`
	Kind      ProductKind     `db:"kind" json:"kind"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
	Active    bool            `db:"active" json:"active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
