// Package export renders triage results as an XLSX workbook.
package export

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/screenwiper/constants"
	"github.com/joseph-ayodele/screenwiper/internal/entity"
)

const SheetName = "Screenshots"

var Headers = []string{
	"Photo",
	"Category",
	"Title",
	"Address",
	"Operating Hours",
	"Events",
	"Summary",
	"Error",
}

type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ResultsXLSX returns the workbook bytes, one row per result in input order.
func (s *Service) ResultsXLSX(results []entity.ImageResult) ([]byte, error) {
	f, err := s.build(results)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteResults streams the workbook to w.
func (s *Service) WriteResults(w io.Writer, results []entity.ImageResult) error {
	f, err := s.build(results)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func (s *Service) build(results []entity.ImageResult) (*excelize.File, error) {
	start := time.Now()

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, err
	}
	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	failed := 0
	for i, r := range results {
		row := Row(r)
		if r.Err != nil {
			failed++
		}
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			_ = f.SetCellValue(SheetName, cell, v)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 28) // photo
	_ = f.SetColWidth(SheetName, "B", "B", 14) // category
	_ = f.SetColWidth(SheetName, "C", "D", 32) // title, address
	_ = f.SetColWidth(SheetName, "E", "F", 40) // hours, events
	_ = f.SetColWidth(SheetName, "G", "H", 48) // summary, error
	_ = f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	s.logger.Info("export.xlsx.ok",
		"rows", len(results),
		"failed", failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return f, nil
}

// FilterByCategory keeps records in one of cats, plus every failure so errors stay
// visible. No categories keeps everything.
func FilterByCategory(results []entity.ImageResult, cats ...constants.CategoryID) []entity.ImageResult {
	if len(cats) == 0 {
		return results
	}
	out := make([]entity.ImageResult, 0, len(results))
	for _, r := range results {
		if r.Err != nil || r.Record == nil || slices.Contains(cats, r.Record.Category()) {
			out = append(out, r)
		}
	}
	return out
}

// Row flattens one result into the column order of Headers.
func Row(r entity.ImageResult) []string {
	row := make([]string, len(Headers))
	row[0] = r.Ref.PhotoRef().Name
	if r.Ref.URL != "" && row[0] == "" {
		row[0] = r.Ref.URL
	}
	if r.Err != nil {
		row[7] = r.Err.Error()
		return row
	}
	switch rec := r.Record.(type) {
	case *entity.PlaceRecord:
		row[2] = rec.Title
		row[3] = rec.Address
		row[4] = strings.Join(rec.OperatingHours, "\n")
		row[6] = rec.Summary
	case *entity.EventRecord:
		row[2] = rec.Title
		lines := make([]string, 0, len(rec.List))
		for _, ev := range rec.List {
			lines = append(lines, strings.TrimSpace(ev.Date+" "+ev.Name))
		}
		row[5] = strings.Join(lines, "\n")
	case *entity.MiscRecord:
		row[2] = rec.Title
		row[6] = rec.Summary
	}
	if r.Record != nil {
		row[1] = r.Record.Category().String()
	}
	return row
}
