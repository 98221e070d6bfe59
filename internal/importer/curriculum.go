package importer

import (
	"context"
	"io"

	"github.com/go-faster/errors"

	"github.com/JonMunkholm/bookfund/internal/domain"
	"github.com/JonMunkholm/bookfund/internal/schema"
	"github.com/JonMunkholm/bookfund/internal/sheet"
)

// ErrBookNotFound is returned when a curriculum row names an ISBN that is not
// in the catalog for its grade and subject.
var ErrBookNotFound = errors.New("book not found for curriculum")

// ImportCurriculum loads the curriculum plan. The first row is a header;
// columns are positional: grade, subject, isbn, perStudent.
func (im *Importer) ImportCurriculum(ctx context.Context, src io.Reader) (*Result, error) {
	return im.observe(ctx, KindCurriculum, func(ctx context.Context) (*Result, error) {
		s, err := sheet.Open(src)
		if err != nil {
			return nil, structural(KindCurriculum, err)
		}
		res := newResult(KindCurriculum, sheet.FormatUnknown, 0)
		err = im.run(ctx, res, s.Rows(1), im.curriculumRow(schema.Curriculum.Positional()))
		return res, err
	})
}

func (im *Importer) curriculumRow(cols schema.Columns) rowFunc {
	return func(ctx context.Context, row sheet.Row) (rowOutcome, error) {
		if row.Blank() {
			return rowSkipped, nil
		}

		grade := sheet.ParseGrade(row.Cell(cols.Get(schema.KeyGrade)))
		subj, err := im.resolver.Subject(ctx, row.Cell(cols.Get(schema.KeySubject)))
		if err != nil {
			return 0, err
		}

		isbn := row.Cell(cols.Get(schema.KeyISBN))
		t, found, err := im.store.FindTitle(ctx, domain.TitleKey{
			Kind:      domain.KeyISBN,
			Value:     isbn,
			Grade:     grade,
			SubjectID: subj.ID,
		})
		if err != nil {
			return 0, err
		}
		if !found || isbn == "" {
			return 0, errors.Errorf("isbn=%q grade=%d subject=%q: %w", isbn, grade, subj.Name, ErrBookNotFound)
		}

		perStudent := 1
		if raw := row.Cell(cols.Get(schema.KeyPerStudent)); raw != "" {
			perStudent, err = sheet.ParseInt(raw)
			if err != nil {
				return 0, errors.Wrap(err, "perStudent")
			}
			if perStudent < 0 {
				return 0, errors.Errorf("perStudent must not be negative, got %d", perStudent)
			}
		}

		return rowProcessed, im.store.UpsertCurriculumItem(ctx, domain.CurriculumItem{
			Grade:      grade,
			SubjectID:  subj.ID,
			TitleID:    t.ID,
			PerStudent: perStudent,
		})
	}
}
