package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vendora/marketplace-api/internal/dto"
	"github.com/vendora/marketplace-api/internal/middleware"
	"github.com/vendora/marketplace-api/internal/models"
	"github.com/vendora/marketplace-api/internal/service"
	appErrors "github.com/vendora/marketplace-api/pkg/errors"
	"github.com/vendora/marketplace-api/pkg/response"
)

// CourseHandler exposes course, section and drip-schedule endpoints.
type CourseHandler struct {
	courses *service.CourseService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses *service.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Param sellerId query string false "Filter by seller"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	courses, pagination, err := h.courses.List(c.Request.Context(), c.Query("sellerId"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Get godoc
// @Summary Get course detail
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create godoc
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body dto.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.Create(c.Request.Context(), h.actorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// UpdateDrip godoc
// @Summary Update course drip configuration
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.UpdateDripConfigRequest true "Drip payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/drip [put]
func (h *CourseHandler) UpdateDrip(c *gin.Context) {
	var req dto.UpdateDripConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	course, err := h.courses.UpdateDrip(c.Request.Context(), c.Param("id"), h.sellerScope(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// AddSection godoc
// @Summary Add course section
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.CreateSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/sections [post]
func (h *CourseHandler) AddSection(c *gin.Context) {
	var req dto.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	section, err := h.courses.AddSection(c.Request.Context(), c.Param("id"), h.sellerScope(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// Enroll godoc
// @Summary Enroll a learner on a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/enrollments [post]
func (h *CourseHandler) Enroll(c *gin.Context) {
	var req dto.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	// Buyers enroll themselves; admins may enroll on behalf of a user.
	if claims := claimsFromContext(c); claims != nil && claims.Role != models.RoleAdmin {
		req.UserID = claims.UserID
	}
	enrollment, err := h.courses.Enroll(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Schedule godoc
// @Summary Get the unlock schedule for a course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Param enrollmentId query string false "Anchor at this enrollment's join date"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/schedule [get]
func (h *CourseHandler) Schedule(c *gin.Context) {
	schedule, cached, err := h.courses.Schedule(c.Request.Context(), c.Param("id"), c.Query("enrollmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.JSON(c, http.StatusOK, schedule, nil, middleware.ExtractMeta(c))
}

// RefreshLocks godoc
// @Summary Recompute and persist section locks
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/schedule/refresh [post]
func (h *CourseHandler) RefreshLocks(c *gin.Context) {
	result, err := h.courses.RefreshLocks(c.Request.Context(), c.Param("id"), h.sellerScope(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func (h *CourseHandler) actorID(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.UserID
	}
	return ""
}

// sellerScope returns the seller ID ownership checks should bind to.
// Admins get an empty scope, which skips the ownership check.
func (h *CourseHandler) sellerScope(c *gin.Context) string {
	claims := claimsFromContext(c)
	if claims == nil || claims.Role == models.RoleAdmin {
		return ""
	}
	return claims.UserID
}
