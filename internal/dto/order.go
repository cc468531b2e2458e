package dto

import "github.com/shopspring/decimal"

// CheckoutRequest creates an order for a product.
type CheckoutRequest struct {
	ProductID      string `json:"productId" validate:"required"`
	Quantity       int    `json:"quantity" validate:"required,min=1"`
	PaymentType    string `json:"paymentType" validate:"required,oneof=FULL PERCENTAGE ESCROW_SECURED"`
	PercentageRate int    `json:"percentageRate" validate:"omitempty,min=1,max=100"`
	GiftCardCode   string `json:"giftCardCode"`
}

// CheckoutResponse returns the persisted order and the gateway redirect.
type CheckoutResponse struct {
	OrderID       string          `json:"orderId"`
	RedirectURL   string          `json:"redirectUrl,omitempty"`
	TransactionID string          `json:"transactionId,omitempty"`
	Amounts       AmountBreakdown `json:"amounts"`
}

// AmountBreakdown mirrors the order's computed monetary fields.
type AmountBreakdown struct {
	TotalPrice         decimal.Decimal `json:"totalPrice"`
	AmountToPay        decimal.Decimal `json:"amountToPay"`
	PercentagePaid     int             `json:"percentagePaid"`
	RemainingAmount    decimal.Decimal `json:"remainingAmount"`
	GiftCardAmount     decimal.Decimal `json:"giftCardAmount"`
	FinalAmountToPay   decimal.Decimal `json:"finalAmountToPay"`
	PlatformCommission decimal.Decimal `json:"platformCommission"`
	SellerAmount       decimal.Decimal `json:"sellerAmount"`
}

// PaymentWebhookRequest is the gateway's asynchronous confirmation.
type PaymentWebhookRequest struct {
	TransactionID string `json:"transactionId" validate:"required"`
	Status        string `json:"status" validate:"required,oneof=success failed"`
	Reference     string `json:"reference"`
}

// CreateProductRequest registers a marketplace listing.
type CreateProductRequest struct {
	Title     string          `json:"title" validate:"required"`
	Kind      string          `json:"kind" validate:"required,oneof=DIGITAL PHYSICAL SERVICE COURSE"`
	UnitPrice decimal.Decimal `json:"unitPrice" validate:"required"`
}

// CreateGiftCardRequest issues a new gift card (admin only).
type CreateGiftCardRequest struct {
	Code    string          `json:"code" validate:"required"`
	Balance decimal.Decimal `json:"balance" validate:"required"`
}
