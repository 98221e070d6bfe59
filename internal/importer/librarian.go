package importer

import (
	"context"
	"io"

	"github.com/go-faster/errors"

	"github.com/JonMunkholm/bookfund/internal/catalog"
	"github.com/JonMunkholm/bookfund/internal/domain"
	"github.com/JonMunkholm/bookfund/internal/schema"
	"github.com/JonMunkholm/bookfund/internal/sheet"
)

// ImportLibrarianStock loads a librarian's stock sheet for one building.
// Columns are found by their Russian or English header labels.
func (im *Importer) ImportLibrarianStock(ctx context.Context, src io.Reader, buildingCode string) (*Result, error) {
	return im.observe(ctx, KindLibrarianStock, func(ctx context.Context) (*Result, error) {
		s, h, err := im.open(KindLibrarianStock, src, sheet.FormatLibrarianStock)
		if err != nil {
			return nil, err
		}
		target, err := im.building(ctx, buildingCode)
		if err != nil {
			return nil, structural(KindLibrarianStock, err)
		}

		res := newResult(KindLibrarianStock, h.Format, h.Row)
		cols := schema.LibrarianStock.Locate(h.Index)
		err = im.run(ctx, res, s.Rows(h.FirstDataRow()), im.librarianRow(cols, target))
		return res, err
	})
}

func (im *Importer) librarianRow(cols schema.Columns, target domain.Building) rowFunc {
	return func(ctx context.Context, row sheet.Row) (rowOutcome, error) {
		if row.Blank(cols.Get(schema.KeyTitle), cols.Get(schema.KeySubject)) {
			return rowSkipped, nil
		}

		subj, err := im.resolver.Subject(ctx, row.Cell(cols.Get(schema.KeySubject)))
		if err != nil {
			return 0, err
		}
		year, err := sheet.ParseNullableInt(row.Cell(cols.Get(schema.KeyYear)))
		if err != nil {
			return 0, errors.Wrap(err, "year")
		}
		total, err := cellInt(row, cols.Get(schema.KeyTotal), "total")
		if err != nil {
			return 0, err
		}
		available, err := cellInt(row, cols.Get(schema.KeyAvailable), "available")
		if err != nil {
			return 0, err
		}
		inUse, err := cellInt(row, cols.Get(schema.KeyInUse), "in use")
		if err != nil {
			return 0, err
		}

		t, err := im.resolver.Resolve(ctx, catalog.ByISBN, catalog.TitleRef{
			Grade:     sheet.ParseGrade(row.Cell(cols.Get(schema.KeyGrade))),
			SubjectID: subj.ID,
			ISBN:      row.Cell(cols.Get(schema.KeyISBN)),
			Title:     row.Cell(cols.Get(schema.KeyTitle)),
			Authors:   row.Cell(cols.Get(schema.KeyAuthors)),
			Publisher: row.Cell(cols.Get(schema.KeyPublisher)),
			Year:      year,
		})
		if err != nil {
			return 0, err
		}

		st, err := im.stockFor(ctx, target.ID, t.ID)
		if err != nil {
			return 0, err
		}
		st.Total = sheet.NonNegative(total)
		st.Available = sheet.NonNegative(available)
		st.InUse = sheet.NonNegative(inUse)
		return rowProcessed, im.store.SaveStock(ctx, st)
	}
}
