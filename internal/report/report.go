// Package report lays verified certificates out as a printable XLSX workbook,
// one block per certificate, starting a new printed page whenever the next
// block would not fit.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/BerylCAtieno/certificate-verifier/internal/verifier"
)

// DefaultRowsPerPage is the printable height of one page, in rows.
const DefaultRowsPerPage = 40

// NotFound is printed for fields the extraction template did not capture.
const NotFound = "Not found"

type Config struct {
	SheetName   string
	Title       string
	RowsPerPage int
}

func DefaultConfig() Config {
	return Config{
		SheetName:   "Certificates",
		Title:       "Verified Certificates",
		RowsPerPage: DefaultRowsPerPage,
	}
}

// Line is one labelled row of a certificate block.
type Line struct {
	Label string
	Value string
}

// Block returns the rows printed for one certificate.
func Block(c verifier.VerifiedCertificate) []Line {
	return []Line{
		{"Course Title", c.CourseTitle},
		{"Course Code", c.CourseCode},
		{"Category", orNotFound(c.Category)},
		{"Name", orNotFound(c.Name)},
		{"Completion Date", orNotFound(c.CompletionDate)},
		{"Filename", c.Filename},
	}
}

func orNotFound(s string) string {
	if s == "" {
		return NotFound
	}
	return s
}

// blockHeight is the rows a block occupies including the blank row after it.
func blockHeight() int {
	return len(Block(verifier.VerifiedCertificate{})) + 1
}

// Paginate splits certificates into pages. Every page starts with one title
// row; a block that does not fit in the rows left moves to a new page. A page
// always holds at least one block, even when rowsPerPage is smaller than a
// block.
func Paginate(certs []verifier.VerifiedCertificate, rowsPerPage int) [][]verifier.VerifiedCertificate {
	if len(certs) == 0 {
		return nil
	}
	if rowsPerPage <= 0 {
		rowsPerPage = DefaultRowsPerPage
	}

	var pages [][]verifier.VerifiedCertificate
	var current []verifier.VerifiedCertificate
	used := 1

	for _, c := range certs {
		if len(current) > 0 && used+blockHeight() > rowsPerPage {
			pages = append(pages, current)
			current = nil
			used = 1
		}
		current = append(current, c)
		used += blockHeight()
	}

	return append(pages, current)
}

type Renderer struct {
	cfg Config
}

func NewRenderer(cfg Config) *Renderer {
	def := DefaultConfig()
	if cfg.SheetName == "" {
		cfg.SheetName = def.SheetName
	}
	if cfg.Title == "" {
		cfg.Title = def.Title
	}
	if cfg.RowsPerPage <= 0 {
		cfg.RowsPerPage = def.RowsPerPage
	}
	return &Renderer{cfg: cfg}
}

// Render returns the workbook bytes for certs.
func (r *Renderer) Render(certs []verifier.VerifiedCertificate) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := r.cfg.SheetName
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", "A", 20); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "B", "B", 60); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	pages := Paginate(certs, r.cfg.RowsPerPage)
	if len(pages) == 0 {
		if err := f.SetCellValue(sheet, "A1", r.cfg.Title); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, "A2", "No verified certificates"); err != nil {
			return nil, err
		}
	}

	row := 1
	for i, page := range pages {
		if i > 0 {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.InsertPageBreak(sheet, cell); err != nil {
				return nil, fmt.Errorf("failed to insert page break: %w", err)
			}
		}

		title, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellValue(sheet, title, fmt.Sprintf("%s (page %d of %d)", r.cfg.Title, i+1, len(pages))); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, title, title, bold); err != nil {
			return nil, err
		}
		row++

		for _, c := range page {
			for _, line := range Block(c) {
				label, _ := excelize.CoordinatesToCellName(1, row)
				value, _ := excelize.CoordinatesToCellName(2, row)
				if err := f.SetCellValue(sheet, label, line.Label); err != nil {
					return nil, err
				}
				if err := f.SetCellStyle(sheet, label, label, bold); err != nil {
					return nil, err
				}
				if err := f.SetCellValue(sheet, value, line.Value); err != nil {
					return nil, err
				}
				row++
			}
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
