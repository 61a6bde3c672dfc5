package reading

import (
	"bytes"
	"embed"
	"encoding/csv"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// Format is a printable report encoding.
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatHTML, nil
	case FormatHTML, FormatPDF, FormatXLSX, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "text/html; charset=utf-8"
	}
}

func (f Format) Filename() string {
	return "blood-pressure-records." + string(f)
}

var reportHeaders = []string{
	"Date", "Time", "Day of Week",
	"Upper Pressure (mmHg)", "Lower Pressure (mmHg)", "Blood Pressure Status",
	"Pulse Rate (bpm)", "Pulse Status",
}

//go:embed templates/print.html
var templateFS embed.FS

var printTemplate = template.Must(template.ParseFS(templateFS, "templates/print.html"))

// Render encodes a table in the requested format.
func Render(t *Table, f Format) ([]byte, error) {
	switch f {
	case FormatPDF:
		return RenderPDF(t)
	case FormatXLSX:
		return RenderXLSX(t)
	case FormatCSV:
		return RenderCSV(t)
	default:
		return RenderHTML(t)
	}
}

// RenderHTML produces the A4 landscape print page.
func RenderHTML(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := printTemplate.Execute(&buf, t); err != nil {
		return nil, fmt.Errorf("render print page: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPDF produces the printed report as an A4 landscape PDF.
func RenderPDF(t *Table) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Blood Pressure & Pulse Records", "", 1, "C", false, 0, "")
	if t.RangeCaption != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, "Date Range: "+t.RangeCaption, "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{28, 22, 32, 34, 34, 42, 28, 27}
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(102, 126, 234)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range reportHeaders {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(51, 51, 51)
	for _, row := range t.Rows {
		cells := []string{
			row.Date, row.Time, row.Weekday,
			strconv.Itoa(row.Systolic), strconv.Itoa(row.Diastolic), row.BPCategory.Label,
			strconv.Itoa(row.Pulse), row.PulseCategory.Label,
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 7, c, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(0, 5, "Printed on: "+t.PrintedAt, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Total Records: %d", t.Total), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderXLSX produces a workbook with a readings sheet and a summary sheet.
func RenderXLSX(t *Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	readingsSheet := "readings"
	summarySheet := "summary"
	f.SetSheetName("Sheet1", readingsSheet)
	f.NewSheet(summarySheet)

	for i, h := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(readingsSheet, cell, h)
	}
	for i, row := range t.Rows {
		r := i + 2
		values := []interface{}{
			row.Date, row.Time, row.Weekday,
			row.Systolic, row.Diastolic, row.BPCategory.Label,
			row.Pulse, row.PulseCategory.Label,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, r)
			_ = f.SetCellValue(readingsSheet, cell, v)
		}
	}

	_ = f.SetCellValue(summarySheet, "A1", "Blood Pressure & Pulse Records")
	_ = f.SetCellValue(summarySheet, "A3", "Date Range")
	_ = f.SetCellValue(summarySheet, "B3", t.RangeCaption)
	_ = f.SetCellValue(summarySheet, "A4", "Printed on")
	_ = f.SetCellValue(summarySheet, "B4", t.PrintedAt)
	_ = f.SetCellValue(summarySheet, "A5", "Total Records")
	_ = f.SetCellValue(summarySheet, "B5", t.Total)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderCSV produces one line per row after a header line.
func RenderCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(reportHeaders); err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		if err := w.Write([]string{
			row.Date, row.Time, row.Weekday,
			strconv.Itoa(row.Systolic), strconv.Itoa(row.Diastolic), row.BPCategory.Label,
			strconv.Itoa(row.Pulse), row.PulseCategory.Label,
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	return buf.Bytes(), nil
}
