package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vendora/marketplace-api/internal/dto"
	"github.com/vendora/marketplace-api/internal/models"
	appErrors "github.com/vendora/marketplace-api/pkg/errors"
	"github.com/vendora/marketplace-api/pkg/export"
)

type paidOrderReader interface {
	ListPaidBySeller(ctx context.Context, sellerID string, from, to *time.Time) ([]models.Order, error)
}

// StatementService aggregates a seller's paid orders into statements
// and renders them as JSON, CSV or PDF.
type StatementService struct {
	orders paidOrderReader
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewStatementService constructs StatementService.
func NewStatementService(orders paidOrderReader, logger *zap.Logger) *StatementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatementService{
		orders: orders,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// Build aggregates the seller's paid orders inside the window. The To
// bound is exclusive of the day after, so "to=2025-03-31" includes the
// whole of March 31st.
func (s *StatementService) Build(ctx context.Context, sellerID string, query dto.StatementQuery) (*dto.SellerStatement, error) {
	var from, to *time.Time
	if query.From != "" {
		parsed, err := time.Parse("2006-01-02", query.From)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD")
		}
		from = &parsed
	}
	if query.To != "" {
		parsed, err := time.Parse("2006-01-02", query.To)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD")
		}
		end := parsed.AddDate(0, 0, 1)
		to = &end
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to precedes from")
	}

	orders, err := s.orders.ListPaidBySeller(ctx, sellerID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load paid orders")
	}

	statement := &dto.SellerStatement{
		SellerID:        sellerID,
		From:            from,
		To:              to,
		OrderCount:      len(orders),
		GrossRevenue:    decimal.Zero,
		TotalCommission: decimal.Zero,
		NetRevenue:      decimal.Zero,
		Lines:           make([]dto.StatementLine, 0, len(orders)),
	}
	for _, order := range orders {
		statement.GrossRevenue = statement.GrossRevenue.Add(order.TotalPrice)
		statement.TotalCommission = statement.TotalCommission.Add(order.PlatformCommission)
		statement.NetRevenue = statement.NetRevenue.Add(order.SellerAmount)
		statement.Lines = append(statement.Lines, dto.StatementLine{
			OrderID:    order.ID,
			PaidAt:     order.UpdatedAt,
			TotalPrice: order.TotalPrice,
			Commission: order.PlatformCommission,
			NetAmount:  order.SellerAmount,
		})
	}
	return statement, nil
}

// RenderCSV renders the statement as CSV bytes.
func (s *StatementService) RenderCSV(statement *dto.SellerStatement) ([]byte, error) {
	data, err := s.csv.Render(statementDataset(statement))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv statement")
	}
	return data, nil
}

// RenderPDF renders the statement as PDF bytes.
func (s *StatementService) RenderPDF(statement *dto.SellerStatement) ([]byte, error) {
	title := fmt.Sprintf("Seller statement %s", statement.SellerID)
	data, err := s.pdf.Render(statementDataset(statement), title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf statement")
	}
	return data, nil
}

func statementDataset(statement *dto.SellerStatement) export.Dataset {
	headers := []string{"Order", "Paid At", "Total", "Commission", "Net"}
	rows := make([]map[string]string, 0, len(statement.Lines)+1)
	for _, line := range statement.Lines {
		rows = append(rows, map[string]string{
			"Order":      line.OrderID,
			"Paid At":    line.PaidAt.Format("2006-01-02 15:04"),
			"Total":      line.TotalPrice.String(),
			"Commission": line.Commission.String(),
			"Net":        line.NetAmount.String(),
		})
	}
	rows = append(rows, map[string]string{
		"Order":      fmt.Sprintf("TOTAL (%d orders)", statement.OrderCount),
		"Paid At":    "",
		"Total":      statement.GrossRevenue.String(),
		"Commission": statement.TotalCommission.String(),
		"Net":        statement.NetRevenue.String(),
	})
	return export.Dataset{Headers: headers, Rows: rows}
}
