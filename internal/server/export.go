package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/alexnetwork99/quotation-automation/internal/models"
)

// handleExportQuote generates a quote for the inquiry and streams it as an
// xlsx workbook instead of JSON.
func (s *Server) handleExportQuote(w http.ResponseWriter, r *http.Request) {
	var req models.InquiryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	q, err := s.quotes.Quote(r.Context(), req)
	if err != nil {
		s.respondQuoteError(w, err)
		return
	}

	f, err := quoteWorkbook(q)
	if err != nil {
		s.logger.Error("export workbook failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("quote-%s.xlsx", q.GeneratedAt.Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := f.Write(w); err != nil {
		s.logger.Error("export write failed", zap.Error(err))
	}
}

// quoteWorkbook renders a quote as a single-sheet workbook: header row, one
// row per line, then subtotal and total.
func quoteWorkbook(q *models.Quote) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Sheet1"

	header := []interface{}{"Name", "Spec", "Supplier", "Unit", "Unit Price", "Quantity", "Total"}
	if err := setRow(f, sheet, 1, header); err != nil {
		return nil, err
	}
	row := 2
	for _, line := range q.Lines {
		values := []interface{}{line.Name, line.Spec, line.Supplier, line.Unit, line.UnitPrice, line.Quantity, line.Total}
		if err := setRow(f, sheet, row, values); err != nil {
			return nil, err
		}
		row++
	}
	row++
	if err := setRow(f, sheet, row, []interface{}{"Total", "", "", "", "", "", q.Total}); err != nil {
		return nil, err
	}
	if q.Note != "" {
		if err := setRow(f, sheet, row+1, []interface{}{"Note", q.Note}); err != nil {
			return nil, err
		}
	}
	if err := setRow(f, sheet, row+2, []interface{}{"Generated", q.GeneratedAt.Format(time.RFC3339)}); err != nil {
		return nil, err
	}
	return f, nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
