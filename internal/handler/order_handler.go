package handler

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vendora/marketplace-api/internal/dto"
	"github.com/vendora/marketplace-api/internal/models"
	"github.com/vendora/marketplace-api/internal/service"
	appErrors "github.com/vendora/marketplace-api/pkg/errors"
	"github.com/vendora/marketplace-api/pkg/payment"
	"github.com/vendora/marketplace-api/pkg/response"
)

// WebhookSignatureHeader carries the gateway's HMAC over the raw body.
const WebhookSignatureHeader = "X-Webhook-Signature"

// OrderHandler exposes checkout, order, product and gift card endpoints.
type OrderHandler struct {
	orders   *service.OrderService
	verifier *payment.WebhookVerifier
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(orders *service.OrderService, verifier *payment.WebhookVerifier) *OrderHandler {
	return &OrderHandler{orders: orders, verifier: verifier}
}

// Checkout godoc
// @Summary Create an order and open a payment session
// @Tags Orders
// @Accept json
// @Produce json
// @Param payload body dto.CheckoutRequest true "Checkout payload"
// @Success 201 {object} response.Envelope
// @Router /orders [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.orders.Checkout(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Get godoc
// @Summary Get order detail
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} response.Envelope
// @Router /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, order, nil)
}

// List godoc
// @Summary List orders visible to the caller
// @Tags Orders
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var filter models.OrderFilter
	filter.Status = models.OrderStatus(strings.ToUpper(c.Query("status")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	orders, pagination, err := h.orders.ListOrders(c.Request.Context(), filter, claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, orders, pagination)
}

// Webhook godoc
// @Summary Apply a payment gateway confirmation
// @Tags Orders
// @Accept json
// @Produce json
// @Param X-Webhook-Signature header string true "HMAC signature of the raw body"
// @Param payload body dto.PaymentWebhookRequest true "Webhook payload"
// @Success 200 {object} response.Envelope
// @Router /payments/webhook [post]
func (h *OrderHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable body"))
		return
	}
	if err := h.verifier.Verify(body, c.GetHeader(WebhookSignatureHeader)); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid webhook signature"))
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	var req dto.PaymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	order, err := h.orders.ConfirmWebhook(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, order, nil)
}

// CreateProduct godoc
// @Summary Create a product listing
// @Tags Products
// @Accept json
// @Produce json
// @Param payload body dto.CreateProductRequest true "Product payload"
// @Success 201 {object} response.Envelope
// @Router /products [post]
func (h *OrderHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	product, err := h.orders.CreateProduct(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, product)
}

// CreateGiftCard godoc
// @Summary Issue a gift card
// @Tags GiftCards
// @Accept json
// @Produce json
// @Param payload body dto.CreateGiftCardRequest true "Gift card payload"
// @Success 201 {object} response.Envelope
// @Router /gift-cards [post]
func (h *OrderHandler) CreateGiftCard(c *gin.Context) {
	var req dto.CreateGiftCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	card, err := h.orders.CreateGiftCard(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, card)
}

// GetGiftCard godoc
// @Summary Look up a gift card by code
// @Tags GiftCards
// @Produce json
// @Param code path string true "Gift card code"
// @Success 200 {object} response.Envelope
// @Router /gift-cards/{code} [get]
func (h *OrderHandler) GetGiftCard(c *gin.Context) {
	card, err := h.orders.GetGiftCard(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card, nil)
}
