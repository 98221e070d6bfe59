package importer

import (
	"context"
	"io"

	"github.com/JonMunkholm/bookfund/internal/catalog"
	"github.com/JonMunkholm/bookfund/internal/domain"
	"github.com/JonMunkholm/bookfund/internal/sheet"
)

// Legacy export column positions.
const (
	legacyGrade     = 0
	legacyTitle     = 1
	legacySubject   = 2
	legacyPublisher = 3
	legacyQuantity  = 7
)

// ImportLegacy loads the procurement system export into buildingCode.
// The export has no free-count concept, so every copy is counted as available.
func (im *Importer) ImportLegacy(ctx context.Context, src io.Reader, buildingCode string) (*Result, error) {
	return im.observe(ctx, KindLegacy, func(ctx context.Context) (*Result, error) {
		s, h, err := im.open(KindLegacy, src, sheet.FormatLegacy)
		if err != nil {
			return nil, err
		}
		target, err := im.building(ctx, buildingCode)
		if err != nil {
			return nil, structural(KindLegacy, err)
		}

		res := newResult(KindLegacy, h.Format, h.Row)
		err = im.run(ctx, res, s.Rows(h.FirstDataRow()), im.legacyRow(target))
		return res, err
	})
}

func (im *Importer) legacyRow(target domain.Building) rowFunc {
	return func(ctx context.Context, row sheet.Row) (rowOutcome, error) {
		if row.Blank(legacyGrade, legacyTitle) {
			return rowSkipped, nil
		}

		subj, err := im.resolver.Subject(ctx, row.Cell(legacySubject))
		if err != nil {
			return 0, err
		}
		qty, err := cellInt(row, legacyQuantity, "quantity")
		if err != nil {
			return 0, err
		}

		t, err := im.resolver.Resolve(ctx, catalog.ByTitle, catalog.TitleRef{
			Grade:     sheet.ParseGrade(row.Cell(legacyGrade)),
			SubjectID: subj.ID,
			Title:     row.Cell(legacyTitle),
			Publisher: row.Cell(legacyPublisher),
		})
		if err != nil {
			return 0, err
		}

		st, err := im.stockFor(ctx, target.ID, t.ID)
		if err != nil {
			return 0, err
		}
		st.Total = qty
		st.Available = qty
		st.InUse = 0
		st.SuufTotal = qty
		return rowProcessed, im.store.SaveStock(ctx, st)
	}
}
