package importer

import (
	"context"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-faster/errors"

	"github.com/JonMunkholm/bookfund/internal/domain"
	"github.com/JonMunkholm/bookfund/internal/schema"
	"github.com/JonMunkholm/bookfund/internal/sheet"
)

// classNameRegex matches "10-А", "10 А", "10А" and "10–а".
var classNameRegex = regexp.MustCompile(`^\s*\d{1,2}\s*[-–]?\s*[А-ЯЁA-Zа-яёa-z]\s*$`)

// cohort is one parsed enrollment row.
type cohort struct {
	building domain.Building
	grade    int
	letter   string
	students int
}

// ImportClasses loads current headcounts.
//
// Two physical layouts are accepted and told apart per row by content:
// "10-А | students | building" when the first cell looks like a class name
// and the third is filled, otherwise "building | grade | letter | students".
func (im *Importer) ImportClasses(ctx context.Context, src io.Reader) (*Result, error) {
	return im.importEnrollment(ctx, KindClasses, src, func(ctx context.Context, c cohort) error {
		prev, err := im.store.UpsertClassGroup(ctx, domain.ClassGroup{
			BuildingID: c.building.ID,
			Grade:      c.grade,
			Letter:     c.letter,
			Students:   c.students,
		})
		if err != nil {
			return err
		}
		return im.logEnrollment(ctx, KindClasses, domain.ScopeCurrent, 0, c, prev)
	})
}

// ImportFutureClasses loads projected headcounts for academicYear using the
// same layouts as ImportClasses.
func (im *Importer) ImportFutureClasses(ctx context.Context, src io.Reader, academicYear int) (*Result, error) {
	if academicYear <= 0 {
		return nil, structural(KindFutureClasses, ErrAcademicYearRequired)
	}
	return im.importEnrollment(ctx, KindFutureClasses, src, func(ctx context.Context, c cohort) error {
		prev, err := im.store.UpsertFutureClassGroup(ctx, domain.FutureClassGroup{
			BuildingID:   c.building.ID,
			AcademicYear: academicYear,
			Grade:        c.grade,
			Letter:       c.letter,
			Students:     c.students,
		})
		if err != nil {
			return err
		}
		return im.logEnrollment(ctx, KindFutureClasses, domain.ScopeFuture, academicYear, c, prev)
	})
}

func (im *Importer) importEnrollment(ctx context.Context, kind Kind, src io.Reader, save func(context.Context, cohort) error) (*Result, error) {
	return im.observe(ctx, kind, func(ctx context.Context) (*Result, error) {
		s, err := sheet.Open(src)
		if err != nil {
			return nil, structural(kind, err)
		}
		cols := schema.Classes.Positional()
		res := newResult(kind, sheet.FormatUnknown, 0)
		err = im.run(ctx, res, s.Rows(1), func(ctx context.Context, row sheet.Row) (rowOutcome, error) {
			if row.Blank(0, 1, 2) {
				return rowSkipped, nil
			}
			c, err := im.parseCohort(ctx, row, cols)
			if err != nil {
				return 0, err
			}
			return rowProcessed, save(ctx, c)
		})
		return res, err
	})
}

func (im *Importer) parseCohort(ctx context.Context, row sheet.Row, cols schema.Columns) (cohort, error) {
	var (
		c           cohort
		err         error
		buildingRaw string
	)

	if classNameRegex.MatchString(row.Cell(0)) && row.Cell(2) != "" {
		c.grade, c.letter, err = ParseClassName(row.Cell(0))
		if err != nil {
			return cohort{}, err
		}
		if c.students, err = cellInt(row, 1, "students"); err != nil {
			return cohort{}, err
		}
		buildingRaw = row.Cell(2)
	} else {
		buildingRaw = row.Cell(cols.Get(schema.KeyBuilding))
		if c.grade, err = cellInt(row, cols.Get(schema.KeyGrade), "grade"); err != nil {
			return cohort{}, err
		}
		c.letter = domain.NormalizeLetter(row.Cell(cols.Get(schema.KeyLetter)))
		if c.students, err = cellInt(row, cols.Get(schema.KeyStudents), "students"); err != nil {
			return cohort{}, err
		}
	}

	if c.grade < 1 || c.grade > 11 {
		return cohort{}, errors.Errorf("grade must be between 1 and 11, got %d", c.grade)
	}
	if c.letter == "" {
		return cohort{}, errors.New("class letter is required")
	}
	if c.students < 0 {
		return cohort{}, errors.Errorf("students must not be negative, got %d", c.students)
	}

	c.building, err = im.building(ctx, buildingRaw)
	if err != nil {
		return cohort{}, err
	}
	return c, nil
}

// ParseClassName splits "10-А", "10 - а" or "10А" into grade and uppercased
// letter.
func ParseClassName(raw string) (int, string, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), "–", "-")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	var left, right string
	if parts := strings.Split(s, "-"); len(parts) == 2 {
		left, right = parts[0], parts[1]
	} else {
		runes := []rune(s)
		if len(runes) < 2 {
			return 0, "", errors.Errorf("bad class name %q", raw)
		}
		left, right = string(runes[:len(runes)-1]), string(runes[len(runes)-1:])
	}

	grade, err := strconv.Atoi(left)
	if err != nil {
		return 0, "", errors.Errorf("bad class name %q", raw)
	}
	return grade, domain.NormalizeLetter(right), nil
}

func (im *Importer) logEnrollment(ctx context.Context, kind Kind, scope domain.EnrollmentScope, year int, c cohort, prev *int) error {
	if prev != nil && *prev == c.students {
		return nil
	}
	return im.store.LogEnrollmentChange(ctx, domain.EnrollmentChange{
		Scope:        scope,
		Action:       domain.ActionUpsert,
		BuildingID:   c.building.ID,
		AcademicYear: year,
		Grade:        c.grade,
		Letter:       c.letter,
		OldStudents:  prev,
		NewStudents:  c.students,
		Source:       string(kind),
	})
}
