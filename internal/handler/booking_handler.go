package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vendora/marketplace-api/internal/dto"
	"github.com/vendora/marketplace-api/internal/models"
	"github.com/vendora/marketplace-api/internal/service"
	appErrors "github.com/vendora/marketplace-api/pkg/errors"
	"github.com/vendora/marketplace-api/pkg/response"
)

// BookingHandler exposes booking pattern and occurrence endpoints.
type BookingHandler struct {
	bookings *service.BookingService
}

// NewBookingHandler constructs BookingHandler.
func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// List godoc
// @Summary List the caller's booking patterns
// @Tags Bookings
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /booking-patterns [get]
func (h *BookingHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	patterns, pagination, err := h.bookings.ListPatterns(c.Request.Context(), h.actorID(c), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, patterns, pagination)
}

// Create godoc
// @Summary Create booking pattern
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body dto.CreatePatternRequest true "Pattern payload"
// @Success 201 {object} response.Envelope
// @Router /booking-patterns [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req dto.CreatePatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	pattern, err := h.bookings.CreatePattern(c.Request.Context(), h.actorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pattern)
}

// Get godoc
// @Summary Get booking pattern detail
// @Tags Bookings
// @Produce json
// @Param id path string true "Pattern ID"
// @Success 200 {object} response.Envelope
// @Router /booking-patterns/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	pattern, err := h.bookings.GetPattern(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pattern, nil)
}

// Generate godoc
// @Summary Generate the next batch of occurrences
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Pattern ID"
// @Param payload body dto.GenerateOccurrencesRequest true "Generation payload"
// @Success 201 {object} response.Envelope
// @Router /booking-patterns/{id}/occurrences [post]
func (h *BookingHandler) Generate(c *gin.Context) {
	var req dto.GenerateOccurrencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.bookings.GenerateNext(c.Request.Context(), c.Param("id"), h.sellerScope(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Occurrences godoc
// @Summary List generated occurrences for a pattern
// @Tags Bookings
// @Produce json
// @Param id path string true "Pattern ID"
// @Success 200 {object} response.Envelope
// @Router /booking-patterns/{id}/occurrences [get]
func (h *BookingHandler) Occurrences(c *gin.Context) {
	occurrences, err := h.bookings.ListOccurrences(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, occurrences, nil)
}

// CancelFuture godoc
// @Summary Cancel future occurrences from a date
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Pattern ID"
// @Param payload body dto.CancelFutureRequest true "Cancellation payload"
// @Success 200 {object} response.Envelope
// @Router /booking-patterns/{id}/cancel-future [post]
func (h *BookingHandler) CancelFuture(c *gin.Context) {
	var req dto.CancelFutureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.bookings.CancelFuture(c.Request.Context(), c.Param("id"), h.sellerScope(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Reschedule godoc
// @Summary Shift future occurrences to a new start
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Pattern ID"
// @Param payload body dto.RescheduleRequest true "Reschedule payload"
// @Success 200 {object} response.Envelope
// @Router /booking-patterns/{id}/reschedule [post]
func (h *BookingHandler) Reschedule(c *gin.Context) {
	var req dto.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.bookings.RescheduleFuture(c.Request.Context(), c.Param("id"), h.sellerScope(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func (h *BookingHandler) actorID(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.UserID
	}
	return ""
}

func (h *BookingHandler) sellerScope(c *gin.Context) string {
	claims := claimsFromContext(c)
	if claims == nil || claims.Role == models.RoleAdmin {
		return ""
	}
	return claims.UserID
}
