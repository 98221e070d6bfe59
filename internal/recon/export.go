package recon

import (
	"io"

	"github.com/JonMunkholm/bookfund/internal/schema"
	"github.com/JonMunkholm/bookfund/internal/sheet"
)

// WriteReconciliation writes the detail sheet for buildingCode followed by
// subject and grade summaries.
func WriteReconciliation(w io.Writer, buildingCode string, rows []Row) error {
	book, err := sheet.NewBook()
	if err != nil {
		return err
	}
	defer book.Close()

	detail := make([][]any, len(rows))
	for i, r := range rows {
		detail[i] = []any{r.BuildingCode, r.Grade, r.Subject, r.Title, r.Needed, r.Available, r.Deficit}
	}
	if err := book.AddSheet(schema.ReconciliationSheetPrefix+buildingCode, schema.ReconciliationHeaders, detail); err != nil {
		return err
	}
	if err := book.AddSheet(schema.SubjectSummarySheet, schema.SubjectSummaryHeaders, summaryRows(Summarize(rows, BySubject))); err != nil {
		return err
	}
	if err := book.AddSheet(schema.GradeSummarySheet, schema.GradeSummaryHeaders, summaryRows(Summarize(rows, ByGrade))); err != nil {
		return err
	}
	return book.Write(w)
}

// WritePlan writes the purchase plan sheet.
func WritePlan(w io.Writer, rows []Row) error {
	book, err := sheet.NewBook()
	if err != nil {
		return err
	}
	defer book.Close()

	data := make([][]any, len(rows))
	for i, r := range rows {
		data[i] = []any{r.Grade, r.Subject, r.Title, r.ISBNOrKey, r.PerStudent, r.Students, r.Needed, r.Available, r.Deficit}
	}
	if err := book.AddSheet(schema.PlanSheet, schema.PlanHeaders, data); err != nil {
		return err
	}
	return book.Write(w)
}

func summaryRows(sums []Summary) [][]any {
	out := make([][]any, len(sums))
	for i, s := range sums {
		out[i] = []any{s.Key, s.Needed, s.Available, s.Deficit}
	}
	return out
}
