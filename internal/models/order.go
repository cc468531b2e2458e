package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType selects how an order is paid.
type PaymentType string

const (
	// PaymentFull collects the whole amount upfront.
	PaymentFull PaymentType = "FULL"
	// PaymentPercentage collects a configured deposit now, remainder later.
	PaymentPercentage PaymentType = "PERCENTAGE"
	// PaymentEscrowSecured collects the full amount but holds it from the
	// seller until an external release condition is met.
	PaymentEscrowSecured PaymentType = "ESCROW_SECURED"
)

// OrderStatus tracks the order lifecycle.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusAwaitingPayment OrderStatus = "AWAITING_PAYMENT"
	OrderStatusPaid            OrderStatus = "PAID"
	OrderStatusFailed          OrderStatus = "FAILED"
)

// Order is a buyer's purchase with its computed monetary breakdown
// persisted alongside it.
type Order struct {
	ID             string      `db:"id" json:"id"`
	BuyerID        string      `db:"buyer_id" json:"buyer_id"`
	SellerID       string      `db:"seller_id" json:"seller_id"`
	ProductID      string      `db:"product_id" json:"product_id"`
	Quantity       int         `db:"quantity" json:"quantity"`
	PaymentType    PaymentType `db:"payment_type" json:"payment_type"`
	PercentageRate int         `db:"percentage_rate" json:"percentage_rate,omitempty"`
	GiftCardID     *string     `db:"gift_card_id" json:"gift_card_id,omitempty"`

	UnitPrice          decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalPrice         decimal.Decimal `db:"total_price" json:"total_price"`
	AmountToPay        decimal.Decimal `db:"amount_to_pay" json:"amount_to_pay"`
	RemainingAmount    decimal.Decimal `db:"remaining_amount" json:"remaining_amount"`
	GiftCardAmount     decimal.Decimal `db:"gift_card_amount" json:"gift_card_amount"`
	FinalAmountToPay   decimal.Decimal `db:"final_amount_to_pay" json:"final_amount_to_pay"`
	PlatformCommission decimal.Decimal `db:"platform_commission" json:"platform_commission"`
	SellerAmount       decimal.Decimal `db:"seller_amount" json:"seller_amount"`

	TransactionID *string     `db:"transaction_id" json:"transaction_id,omitempty"`
	Status        OrderStatus `db:"status" json:"status"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// OrderFilter provides filters for listing orders.
type OrderFilter struct {
	BuyerID  string
	SellerID string
	Status   OrderStatus
	Page     int
	PageSize int
}
