package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vendora/marketplace-api/internal/dto"
	"github.com/vendora/marketplace-api/internal/models"
	appErrors "github.com/vendora/marketplace-api/pkg/errors"
	"github.com/vendora/marketplace-api/pkg/jobs"
	"github.com/vendora/marketplace-api/pkg/payment"
)

type orderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Order, error)
	List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error)
	SetTransaction(ctx context.Context, id, transactionID string) error
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
}

type productReader interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
}

type giftCardRepository interface {
	Create(ctx context.Context, card *models.GiftCard) error
	FindByCode(ctx context.Context, code string) (*models.GiftCard, error)
}

type paymentGateway interface {
	InitPayment(ctx context.Context, req payment.InitRequest) (*payment.InitResponse, error)
}

type debitEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// GiftCardDebit is the payload for the asynchronous gift-card debit job.
type GiftCardDebit struct {
	GiftCardID string          `json:"gift_card_id"`
	OrderID    string          `json:"order_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// GiftCardDebitJobType identifies gift-card debit jobs on the queue.
const GiftCardDebitJobType = "giftcard.debit"

// OrderService orchestrates checkout, payment confirmation and gift
// card redemption.
type OrderService struct {
	orders         orderRepository
	products       productReader
	giftCards      giftCardRepository
	gateway        paymentGateway
	debits         debitEnqueuer
	metrics        *MetricsService
	commissionRate decimal.Decimal
	commissionBase string
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewOrderService constructs OrderService.
func NewOrderService(orders orderRepository, products productReader, giftCards giftCardRepository, gateway paymentGateway, debits debitEnqueuer, metrics *MetricsService, commissionRate float64, commissionBase string, validate *validator.Validate, logger *zap.Logger) *OrderService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if commissionBase != CommissionBaseCollected {
		commissionBase = CommissionBaseTotal
	}
	return &OrderService{
		orders:         orders,
		products:       products,
		giftCards:      giftCards,
		gateway:        gateway,
		debits:         debits,
		metrics:        metrics,
		commissionRate: decimal.NewFromFloat(commissionRate),
		commissionBase: commissionBase,
		validator:      validate,
		logger:         logger,
	}
}

// Checkout prices and persists an order, then opens a payment session
// for whatever remains after gift-card redemption. A fully covered
// order is confirmed immediately without touching the gateway.
func (s *OrderService) Checkout(ctx context.Context, buyerID string, req dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid checkout payload")
	}

	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "product not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load product")
	}
	if !product.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "product is not for sale")
	}
	if product.SellerID == buyerID {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot buy your own product")
	}

	var giftCard *models.GiftCard
	if req.GiftCardCode != "" {
		giftCard, err = s.giftCards.FindByCode(ctx, req.GiftCardCode)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "gift card not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gift card")
		}
		if !giftCard.Active || !giftCard.Balance.IsPositive() {
			return nil, appErrors.Clone(appErrors.ErrGiftCardInactive, "")
		}
	}

	pricing := OrderPricing{
		UnitPrice:      product.UnitPrice,
		Quantity:       req.Quantity,
		PaymentType:    models.PaymentType(req.PaymentType),
		PercentageRate: req.PercentageRate,
		CommissionRate: s.commissionRate,
		CommissionBase: s.commissionBase,
	}
	if giftCard != nil {
		pricing.GiftCardBalance = giftCard.Balance
	}
	amounts, err := ComputeAmounts(pricing)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		BuyerID:            buyerID,
		SellerID:           product.SellerID,
		ProductID:          product.ID,
		Quantity:           req.Quantity,
		PaymentType:        pricing.PaymentType,
		PercentageRate:     amounts.PercentagePaid,
		UnitPrice:          product.UnitPrice,
		TotalPrice:         amounts.TotalPrice,
		AmountToPay:        amounts.AmountToPay,
		RemainingAmount:    amounts.RemainingAmount,
		GiftCardAmount:     amounts.GiftCardAmount,
		FinalAmountToPay:   amounts.FinalAmountToPay,
		PlatformCommission: amounts.PlatformCommission,
		SellerAmount:       amounts.SellerAmount,
		Status:             models.OrderStatusPending,
	}
	if giftCard != nil {
		order.GiftCardID = &giftCard.ID
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create order")
	}
	s.metrics.RecordOrderCreated(string(order.PaymentType))

	resp := &dto.CheckoutResponse{
		OrderID: order.ID,
		Amounts: dto.AmountBreakdown{
			TotalPrice:         amounts.TotalPrice,
			AmountToPay:        amounts.AmountToPay,
			PercentagePaid:     amounts.PercentagePaid,
			RemainingAmount:    amounts.RemainingAmount,
			GiftCardAmount:     amounts.GiftCardAmount,
			FinalAmountToPay:   amounts.FinalAmountToPay,
			PlatformCommission: amounts.PlatformCommission,
			SellerAmount:       amounts.SellerAmount,
		},
	}

	if amounts.FinalAmountToPay.IsZero() {
		if err := s.confirmPaid(ctx, order); err != nil {
			return nil, err
		}
		return resp, nil
	}

	session, err := s.gateway.InitPayment(ctx, payment.InitRequest{
		OrderID: order.ID,
		Amount:  amounts.FinalAmountToPay,
		BuyerID: buyerID,
	})
	if err != nil {
		s.logger.Error("payment gateway init failed", zap.String("order_id", order.ID), zap.Error(err))
		if updateErr := s.orders.UpdateStatus(ctx, order.ID, models.OrderStatusFailed); updateErr != nil {
			s.logger.Error("failed to mark order failed", zap.String("order_id", order.ID), zap.Error(updateErr))
		}
		return nil, appErrors.Clone(appErrors.ErrPaymentUnavailable, "")
	}
	if err := s.orders.SetTransaction(ctx, order.ID, session.TransactionID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment session")
	}
	resp.TransactionID = session.TransactionID
	resp.RedirectURL = session.RedirectURL
	return resp, nil
}

// ConfirmWebhook applies a gateway callback. Confirmations are
// idempotent: a repeat delivery for an already settled order is a no-op.
func (s *OrderService) ConfirmWebhook(ctx context.Context, req dto.PaymentWebhookRequest) (*models.Order, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid webhook payload")
	}
	order, err := s.orders.FindByTransactionID(ctx, req.TransactionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown transaction")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load order")
	}
	if order.Status == models.OrderStatusPaid || order.Status == models.OrderStatusFailed {
		return order, nil
	}

	if req.Status != "success" {
		if err := s.orders.UpdateStatus(ctx, order.ID, models.OrderStatusFailed); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update order")
		}
		order.Status = models.OrderStatusFailed
		return order, nil
	}

	if err := s.confirmPaid(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// confirmPaid marks the order paid and schedules the gift-card debit.
// The debit is best effort: a full queue logs and moves on, the ledger
// is reconciled separately.
func (s *OrderService) confirmPaid(ctx context.Context, order *models.Order) error {
	if err := s.orders.UpdateStatus(ctx, order.ID, models.OrderStatusPaid); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark order paid")
	}
	order.Status = models.OrderStatusPaid

	if order.GiftCardID != nil && order.GiftCardAmount.IsPositive() && s.debits != nil {
		job := jobs.Job{
			ID:   order.ID,
			Type: GiftCardDebitJobType,
			Payload: GiftCardDebit{
				GiftCardID: *order.GiftCardID,
				OrderID:    order.ID,
				Amount:     order.GiftCardAmount,
			},
		}
		if err := s.debits.Enqueue(job); err != nil {
			s.logger.Warn("gift card debit enqueue failed",
				zap.String("order_id", order.ID),
				zap.String("gift_card_id", *order.GiftCardID),
				zap.Error(err))
		}
	}
	return nil
}

// GetOrder returns an order visible to the requesting user. Admins see
// everything, buyers and sellers only their own orders.
func (s *OrderService) GetOrder(ctx context.Context, id, userID string, role models.UserRole) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "order not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load order")
	}
	if role != models.RoleAdmin && order.BuyerID != userID && order.SellerID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	return order, nil
}

// ListOrders returns orders scoped by the caller's role.
func (s *OrderService) ListOrders(ctx context.Context, filter models.OrderFilter, userID string, role models.UserRole) ([]models.Order, *models.Pagination, error) {
	switch role {
	case models.RoleAdmin:
	case models.RoleSeller:
		filter.SellerID = userID
	default:
		filter.BuyerID = userID
	}
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list orders")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return orders, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// CreateProduct registers a new listing for a seller.
func (s *OrderService) CreateProduct(ctx context.Context, sellerID string, req dto.CreateProductRequest) (*models.Product, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid product payload")
	}
	if req.UnitPrice.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unitPrice cannot be negative")
	}
	product := &models.Product{
		SellerID:  sellerID,
		Title:     req.Title,
		Kind:      models.ProductKind(req.Kind),
		UnitPrice: req.UnitPrice.Round(0),
		Active:    true,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create product")
	}
	return product, nil
}

// CreateGiftCard issues a new gift card.
func (s *OrderService) CreateGiftCard(ctx context.Context, req dto.CreateGiftCardRequest) (*models.GiftCard, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid gift card payload")
	}
	if !req.Balance.IsPositive() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "balance must be positive")
	}
	card := &models.GiftCard{
		Code:    req.Code,
		Balance: req.Balance.Round(0),
		Active:  true,
	}
	if err := s.giftCards.Create(ctx, card); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "gift card code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create gift card")
	}
	return card, nil
}

// GetGiftCard returns a gift card by its redemption code.
func (s *OrderService) GetGiftCard(ctx context.Context, code string) (*models.GiftCard, error) {
	card, err := s.giftCards.FindByCode(ctx, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "gift card not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gift card")
	}
	return card, nil
}

// NewGiftCardDebitHandler adapts the repository debit into a queue
// handler.
func NewGiftCardDebitHandler(cards interface {
	Debit(ctx context.Context, id string, amount decimal.Decimal) error
}, logger *zap.Logger) jobs.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, job jobs.Job) error {
		debit, ok := job.Payload.(GiftCardDebit)
		if !ok {
			logger.Error("unexpected gift card debit payload", zap.String("job_id", job.ID))
			return nil
		}
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := cards.Debit(ctx, debit.GiftCardID, debit.Amount); err != nil {
			return err
		}
		logger.Info("gift card debited",
			zap.String("gift_card_id", debit.GiftCardID),
			zap.String("order_id", debit.OrderID),
			zap.String("amount", debit.Amount.String()))
		return nil
	}
}
