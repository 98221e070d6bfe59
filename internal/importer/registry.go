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

// ImportRegistry loads a stock registry. The layout is detected from the
// header: the self-template carries a building code per row, the citywide
// export is loaded into buildingCode (the default building when empty).
func (im *Importer) ImportRegistry(ctx context.Context, src io.Reader, buildingCode string) (*Result, error) {
	return im.observe(ctx, KindRegistry, func(ctx context.Context) (*Result, error) {
		s, h, err := im.open(KindRegistry, src, sheet.FormatSelfTemplate, sheet.FormatCitywide)
		if err != nil {
			return nil, err
		}

		if buildingCode == "" {
			buildingCode = im.opts.DefaultBuilding
		}
		target, err := im.building(ctx, buildingCode)
		if err != nil {
			return nil, structural(KindRegistry, err)
		}

		res := newResult(KindRegistry, h.Format, h.Row)
		rows := s.Rows(h.FirstDataRow())
		if h.Format == sheet.FormatCitywide {
			err = im.run(ctx, res, rows, im.citywideRow(schema.Citywide.Locate(h.Index), target))
		} else {
			err = im.run(ctx, res, rows, im.selfTemplateRow(schema.SelfTemplate.LocateOrPosition(h.Index)))
		}
		return res, err
	})
}

func (im *Importer) selfTemplateRow(cols schema.Columns) rowFunc {
	return func(ctx context.Context, row sheet.Row) (rowOutcome, error) {
		if row.Blank() {
			return rowSkipped, nil
		}

		b, err := im.building(ctx, row.Cell(cols.Get(schema.KeyBuilding)))
		if err != nil {
			return 0, err
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
		inUse, err := cellInt(row, cols.Get(schema.KeyInUse), "inUse")
		if err != nil {
			return 0, err
		}

		t, err := im.resolver.Resolve(ctx, catalog.ByISBN, catalog.TitleRef{
			Grade:     sheet.ParseGrade(row.Cell(cols.Get(schema.KeyGrade))),
			SubjectID: subj.ID,
			ISBN:      row.Cell(cols.Get(schema.KeyISBN)),
			Title:     row.Cell(cols.Get(schema.KeyTitle)),
			Authors:   row.Cell(cols.Get(schema.KeyAuthors)),
			Year:      year,
		})
		if err != nil {
			return 0, err
		}

		st, err := im.stockFor(ctx, b.ID, t.ID)
		if err != nil {
			return 0, err
		}
		st.Total = total
		st.Available = available
		st.InUse = inUse
		return rowProcessed, im.store.SaveStock(ctx, st)
	}
}

func (im *Importer) citywideRow(cols schema.Columns, target domain.Building) rowFunc {
	return func(ctx context.Context, row sheet.Row) (rowOutcome, error) {
		title := row.Cell(cols.Get(schema.KeyTitle))
		if title == "" {
			return rowSkipped, nil
		}

		subj, err := im.resolver.Subject(ctx, row.Cell(cols.Get(schema.KeySubject)))
		if err != nil {
			return 0, err
		}
		total, err := cellInt(row, cols.Get(schema.KeyTotal), "total")
		if err != nil {
			return 0, err
		}
		available, err := cellInt(row, cols.Get(schema.KeyAvailable), "available")
		if err != nil {
			return 0, err
		}
		parts, err := catalog.SplitByYears(row.Cell(cols.Get(schema.KeyYear)), total, available)
		if err != nil {
			return 0, errors.Wrap(err, "year")
		}

		fpu := row.Cell(cols.Get(schema.KeyFPU))
		split := len(parts) > 1
		for _, p := range parts {
			t, err := im.resolver.Resolve(ctx, catalog.ByExternalKey, catalog.TitleRef{
				Grade:       sheet.ParseGrade(row.Cell(cols.Get(schema.KeyGrade))),
				SubjectID:   subj.ID,
				ExternalKey: catalog.EffectiveKey(fpu, p.Year, split),
				Title:       title,
				Authors:     row.Cell(cols.Get(schema.KeyAuthors)),
				Publisher:   row.Cell(cols.Get(schema.KeyPublisher)),
				Year:        p.Year,
			})
			if err != nil {
				return 0, err
			}

			st, err := im.stockFor(ctx, target.ID, t.ID)
			if err != nil {
				return 0, err
			}
			st.Total = p.Total
			st.Available = p.Available
			st.InUse = p.InUse
			st.MeshTotal = p.Total
			if err := im.store.SaveStock(ctx, st); err != nil {
				return 0, err
			}
		}
		return rowProcessed, nil
	}
}
