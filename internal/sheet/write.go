package sheet

import (
	"io"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
)

// maxSheetName is the xlsx limit on sheet name length in characters.
const maxSheetName = 31

// Book builds an xlsx workbook one sheet at a time. Every sheet starts with a
// bold header row.
type Book struct {
	f      *excelize.File
	header int
	sheets int
}

// NewBook creates an empty workbook.
func NewBook() (*Book, error) {
	f := excelize.NewFile()
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E7EEF7"}},
	})
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "header style")
	}
	return &Book{f: f, header: style}, nil
}

// AddSheet appends a sheet with headers in row 1 and rows below.
func (b *Book) AddSheet(name string, headers []string, rows [][]any) error {
	name = sheetName(name)
	if b.sheets == 0 {
		if err := b.f.SetSheetName(b.f.GetSheetName(0), name); err != nil {
			return errors.Wrapf(err, "rename sheet %q", name)
		}
	} else if _, err := b.f.NewSheet(name); err != nil {
		return errors.Wrapf(err, "add sheet %q", name)
	}
	b.sheets++

	head := make([]any, len(headers))
	for i, h := range headers {
		head[i] = h
	}
	if err := b.f.SetSheetRow(name, "A1", &head); err != nil {
		return errors.Wrap(err, "write header")
	}
	if len(headers) > 0 {
		last, err := excelize.CoordinatesToCellName(len(headers), 1)
		if err != nil {
			return err
		}
		if err := b.f.SetCellStyle(name, "A1", last, b.header); err != nil {
			return errors.Wrap(err, "style header")
		}
		lastCol, _, _ := excelize.SplitCellName(last)
		if err := b.f.SetColWidth(name, "A", lastCol, 18); err != nil {
			return errors.Wrap(err, "column width")
		}
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := b.f.SetSheetRow(name, cell, &rows[i]); err != nil {
			return errors.Wrapf(err, "write row %d", i+2)
		}
	}
	return nil
}

// Write encodes the workbook to w.
func (b *Book) Write(w io.Writer) error {
	if b.sheets > 0 {
		b.f.SetActiveSheet(0)
	}
	return b.f.Write(w)
}

// Close releases workbook resources.
func (b *Book) Close() error {
	return b.f.Close()
}

func sheetName(name string) string {
	if utf8.RuneCountInString(name) <= maxSheetName {
		return name
	}
	return string([]rune(name)[:maxSheetName])
}
