package performance

import (
	"context"
	"fmt"
	"io"

	"github.com/aarondl/null/v8"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"perfhub/internal/domain/auth"
)

const exportSheet = "Performance"

var exportHeaders = []any{
	"Review ID", "User ID", "Username", "Department", "Position", "Cycle",
	"Exam Score", "KPI Score", "Daily Log Score", "Final Score", "Status", "Manager Comment",
}

// ExportXLSX writes every review of the cycle visible to scope as a workbook.
func (s *Service) ExportXLSX(ctx context.Context, scope auth.Scope, cycle string, w io.Writer) error {
	if _, _, err := ParseCycle(cycle); err != nil {
		return err
	}
	reviews, _, err := s.Store.List(ctx, scope, ReviewFilter{Cycle: null.StringFrom(cycle)}, 0, 0)
	if err != nil {
		return err
	}
	f, err := buildWorkbook(reviews)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func buildWorkbook(reviews []Review) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return nil, err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err := f.SetCellStyle(exportSheet, "A1", lastHeader, style); err != nil {
		return nil, err
	}
	for i, r := range reviews {
		row := []any{
			r.ID, r.UserID, r.Username.String, r.DepartmentName.String, r.PositionName.String, r.Cycle,
			r.ExamScore, r.KPIScore, r.DailyLogScore, r.FinalScore, r.Status, r.ManagerComment.String,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// ReportPDF renders a one-page review sheet.
func (s *Service) ReportPDF(ctx context.Context, scope auth.Scope, id int64, w io.Writer) error {
	review, err := s.Get(ctx, scope, id)
	if err != nil {
		return err
	}
	return renderReviewPDF(review, w)
}

func renderReviewPDF(r Review, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Performance Review")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Employee: %s (#%d)", r.Username.String, r.UserID),
		fmt.Sprintf("Department: %s", orDash(r.DepartmentName)),
		fmt.Sprintf("Position: %s", orDash(r.PositionName)),
		fmt.Sprintf("Cycle: %s", r.Cycle),
		"",
		fmt.Sprintf("Exam score: %.2f (weight %.0f%%)", r.ExamScore, ExamWeight*100),
		fmt.Sprintf("KPI score: %.2f (weight %.0f%%)", r.KPIScore, KPIWeight*100),
		fmt.Sprintf("Daily log score: %.2f (weight %.0f%%)", r.DailyLogScore, DailyLogWeight*100),
		fmt.Sprintf("Final score: %.2f", r.FinalScore),
		"",
		fmt.Sprintf("Status: %s", r.Status),
	}
	for _, line := range lines {
		pdf.Cell(0, 8, line)
		pdf.Ln(7)
	}
	if r.ManagerComment.Valid && r.ManagerComment.String != "" {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Manager comment")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, r.ManagerComment.String, "", "L", false)
	}
	return pdf.Output(w)
}

func orDash(v null.String) string {
	if !v.Valid || v.String == "" {
		return "-"
	}
	return v.String
}
