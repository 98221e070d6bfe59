package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/bookfund/internal/sheet"
)

// DefaultMaxRowErrors is how many row errors are collected before an import
// stops scanning.
const DefaultMaxRowErrors = 30

// RowError is a failure confined to one spreadsheet row.
type RowError struct {
	Row int // 1-based physical row number
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("Row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// StructuralError aborts an import before any row is processed.
type StructuralError struct {
	Kind Kind
	Err  error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s import aborted: %v", e.Kind, e.Err)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

func structural(kind Kind, err error) error {
	return &StructuralError{Kind: kind, Err: err}
}

// PartialError reports an import whose rows partly failed. Rows counted in
// Processed are already persisted.
type PartialError struct {
	Kind      Kind
	Processed int
	Errors    []RowError
	Truncated bool
}

func (e *PartialError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s import finished with errors. Rows processed: %d. Examples:", e.Kind, e.Processed)
	for _, re := range e.Errors {
		b.WriteString("\n")
		b.WriteString(re.Error())
	}
	return b.String()
}

// Result is the outcome of one import call.
type Result struct {
	Kind      Kind         `json:"kind"`
	Format    sheet.Format `json:"-"`
	HeaderRow int          `json:"header_row"`
	Processed int          `json:"processed"`
	Skipped   int          `json:"skipped"`
	Errors    []RowError   `json:"-"`
	Truncated bool         `json:"truncated"`
}

func newResult(kind Kind, format sheet.Format, headerRow int) *Result {
	return &Result{Kind: kind, Format: format, HeaderRow: headerRow}
}

// Failed reports whether any row failed.
func (r *Result) Failed() bool {
	return len(r.Errors) > 0
}

// Err returns a *PartialError when rows failed, nil otherwise.
func (r *Result) Err() error {
	if !r.Failed() {
		return nil
	}
	return &PartialError{
		Kind:      r.Kind,
		Processed: r.Processed,
		Errors:    r.Errors,
		Truncated: r.Truncated,
	}
}

// Messages returns the row errors as display strings, in row order.
func (r *Result) Messages() []string {
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Error()
	}
	return out
}

type rowOutcome int

const (
	rowProcessed rowOutcome = iota
	rowSkipped
)

// rowFunc handles one data row. Returning an error records a row error and
// moves on to the next row.
type rowFunc func(ctx context.Context, row sheet.Row) (rowOutcome, error)

// run feeds rows to fn in physical order and collects failures until the
// error ceiling is reached.
func (im *Importer) run(ctx context.Context, res *Result, rows []sheet.Row, fn rowFunc) error {
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		outcome, err := fn(ctx, row)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: row.Number(), Err: err})
			if len(res.Errors) >= im.opts.MaxRowErrors {
				res.Truncated = i < len(rows)-1
				return nil
			}
			continue
		}

		switch outcome {
		case rowProcessed:
			res.Processed++
		case rowSkipped:
			res.Skipped++
		}
	}
	return nil
}
