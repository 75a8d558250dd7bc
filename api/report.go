package api

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/warp/leave-manager/leave"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Report returns the monthly aggregate. ?month=YYYY-MM picks the month
// (malformed or missing means the current month); ?format=xlsx downloads a
// workbook instead of JSON.
// GET /leaves/report
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	format := strings.ToLower(strings.TrimSpace(q.Get("format")))
	if format != "" && format != "json" && format != "xlsx" {
		writeError(w, http.StatusBadRequest, msgInvalidFormat)
		return
	}

	month := leave.ParseMonth(q.Get("month"), h.Service.Today())
	rep, err := h.Service.MonthlyReport(r.Context(), month)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if format != "xlsx" {
		writeJSON(w, http.StatusOK, toReportDTO(rep))
		return
	}

	book, err := reportWorkbook(rep)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer book.Close()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="leave-report-%s.xlsx"`, rep.Month))
	w.WriteHeader(http.StatusOK)
	if err := book.Write(w); err != nil {
		h.logger.Printf("write report workbook: %v", err)
	}
}

// =============================================================================
// XLSX EXPORT
// =============================================================================

// Sheet names of the exported workbook.
const (
	SheetSummary = "Summary"
	SheetByType  = "By Type"
	SheetByUser  = "By User"
)

var bucketHeader = []interface{}{"Name", "Requests", "Requested Days", "Approved Days", "Approval Rate"}

// reportWorkbook renders rep as a three-sheet workbook. Rows within the
// bucket sheets are sorted by name.
func reportWorkbook(rep *leave.Report) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, err
	}

	summary := [][]interface{}{
		{"Month", rep.Month.String()},
		{"Total Requests", rep.TotalRequests},
	}
	for _, st := range leave.Statuses {
		summary = append(summary, []interface{}{string(st), rep.ByStatus[st]})
	}
	summary = append(summary,
		[]interface{}{"Total Days Requested", rep.TotalDaysRequested},
		[]interface{}{"Total Days Approved", rep.TotalDaysApproved},
		[]interface{}{"Approval Rate", rep.ApprovalRate.InexactFloat64()},
	)
	if err := writeRows(f, SheetSummary, summary); err != nil {
		f.Close()
		return nil, err
	}

	for _, sheet := range []struct {
		name    string
		buckets map[string]*leave.ReportBucket
	}{
		{SheetByType, rep.ByType},
		{SheetByUser, rep.ByUser},
	} {
		if _, err := f.NewSheet(sheet.name); err != nil {
			f.Close()
			return nil, err
		}
		if err := writeRows(f, sheet.name, bucketRows(sheet.buckets)); err != nil {
			f.Close()
			return nil, err
		}
	}

	for _, name := range []string{SheetSummary, SheetByType, SheetByUser} {
		if err := f.SetColWidth(name, "A", "A", 32); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func bucketRows(buckets map[string]*leave.ReportBucket) [][]interface{} {
	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := [][]interface{}{bucketHeader}
	for _, name := range names {
		b := buckets[name]
		rows = append(rows, []interface{}{
			name, b.Count, b.RequestedDays, b.ApprovedDays, b.ApprovalRate.InexactFloat64(),
		})
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
