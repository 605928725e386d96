package quotations

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/meridian-esw/meridian-esw/internal/approval"
)

const registerSheet = "Quotation Register"

// ExportRegister renders all quotations into an xlsx workbook, oldest
// first, one row per quotation.
func (s *Service) ExportRegister(ctx context.Context) (*bytes.Buffer, error) {
	quotations, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("quotations: export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(registerSheet)
	if err != nil {
		return nil, fmt.Errorf("quotations: export sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Offer Reference", "Project Title", "Submitted To", "Lead ID",
		"Currency", "Sub Total", "VAT Amount", "Grand Total",
		"Approval Status", "Offer Date", "Created At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(registerSheet, cell, h)
	}

	for rowIdx, q := range quotations {
		status := string(q.Approval.Status)
		if q.Approval.Status == approval.StatusUnset {
			status = "draft"
		}
		offerDate := ""
		if q.OfferDate != nil {
			offerDate = q.OfferDate.Format("2006-01-02")
		}
		values := []any{
			q.OfferReference,
			q.ProjectTitle,
			q.SubmittedTo,
			q.LeadID.String(),
			q.PriceSchedule.Currency,
			q.PriceSchedule.SubTotal,
			q.PriceSchedule.TaxDetails.VATAmount,
			q.PriceSchedule.GrandTotal,
			status,
			offerDate,
			q.CreatedAt.Format("2006-01-02 15:04"),
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(registerSheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("quotations: export write: %w", err)
	}
	return buf, nil
}
