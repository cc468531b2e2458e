package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vendora/marketplace-api/internal/dto"
	"github.com/vendora/marketplace-api/internal/models"
	"github.com/vendora/marketplace-api/internal/service"
	appErrors "github.com/vendora/marketplace-api/pkg/errors"
	"github.com/vendora/marketplace-api/pkg/response"
)

// StatementHandler exposes seller statement endpoints.
type StatementHandler struct {
	statements *service.StatementService
}

// NewStatementHandler constructs StatementHandler.
func NewStatementHandler(statements *service.StatementService) *StatementHandler {
	return &StatementHandler{statements: statements}
}

// Get godoc
// @Summary Get a seller statement
// @Tags Statements
// @Produce json
// @Param id path string true "Seller ID"
// @Param from query string false "Window start (YYYY-MM-DD)"
// @Param to query string false "Window end (YYYY-MM-DD)"
// @Param format query string false "json, csv or pdf" Enums(json, csv, pdf)
// @Success 200 {object} response.Envelope
// @Router /sellers/{id}/statement [get]
func (h *StatementHandler) Get(c *gin.Context) {
	sellerID := c.Param("id")
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if claims.Role != models.RoleAdmin && claims.UserID != sellerID {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "statement belongs to another seller"))
		return
	}

	query := dto.StatementQuery{
		From:   c.Query("from"),
		To:     c.Query("to"),
		Format: strings.ToLower(c.DefaultQuery("format", "json")),
	}
	statement, err := h.statements.Build(c.Request.Context(), sellerID, query)
	if err != nil {
		response.Error(c, err)
		return
	}

	switch query.Format {
	case "csv":
		data, err := h.statements.RenderCSV(statement)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=statement-%s.csv", sellerID))
		c.Data(http.StatusOK, "text/csv", data)
	case "pdf":
		data, err := h.statements.RenderPDF(statement)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=statement-%s.pdf", sellerID))
		c.Data(http.StatusOK, "application/pdf", data)
	case "json", "":
		response.JSON(c, http.StatusOK, statement, nil)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be json, csv or pdf"))
	}
}
