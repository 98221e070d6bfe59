// Package recon computes textbook demand against stock.
//
// Reconcile compares the curriculum needs of current enrollment with the
// available copies of one building. Plan does the same for the projected
// enrollment of a future academic year. Both are pure reads: running them
// twice over unchanged data yields identical rows.
package recon

import (
	"context"
	"sort"
	"strconv"

	"github.com/go-faster/errors"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/JonMunkholm/bookfund/internal/domain"
)

// Store is the read side the engine needs.
type Store interface {
	CurriculumLines(ctx context.Context) ([]domain.CurriculumLine, error)
	ClassGroups(ctx context.Context, buildingID int64) ([]domain.ClassGroup, error)
	FutureClassGroups(ctx context.Context, buildingID int64, academicYear int) ([]domain.FutureClassGroup, error)
	StockByBuilding(ctx context.Context, buildingID int64) ([]domain.StockLine, error)
}

// Row is one curriculum item evaluated for a building.
type Row struct {
	BuildingCode string `json:"building_code"`
	Grade        int    `json:"grade"`
	Subject      string `json:"subject"`
	Title        string `json:"title"`
	ISBNOrKey    string `json:"isbn_or_key,omitempty"`
	PerStudent   int    `json:"per_student"`
	Students     int    `json:"students"`
	Needed       int    `json:"needed"`
	Available    int    `json:"available"`
	Deficit      int    `json:"deficit"`
}

// Engine runs reconciliation and planning over a Store.
type Engine struct {
	store Store
}

// New creates an Engine.
func New(store Store) *Engine {
	return &Engine{store: store}
}

// Reconcile evaluates every curriculum item against current enrollment.
// Grades without students still produce rows with zero demand.
func (e *Engine) Reconcile(ctx context.Context, b domain.Building) ([]Row, error) {
	groups, err := e.store.ClassGroups(ctx, b.ID)
	if err != nil {
		return nil, errors.Wrap(err, "load class groups")
	}
	students := make(map[int]int)
	for _, g := range groups {
		students[g.Grade] += g.Students
	}
	return e.compute(ctx, b, students, true)
}

// Plan evaluates curriculum items against the projected enrollment of
// academicYear. Grades with no projected students are left out.
func (e *Engine) Plan(ctx context.Context, b domain.Building, academicYear int) ([]Row, error) {
	groups, err := e.store.FutureClassGroups(ctx, b.ID, academicYear)
	if err != nil {
		return nil, errors.Wrap(err, "load future class groups")
	}
	students := make(map[int]int)
	for _, g := range groups {
		students[g.Grade] += g.Students
	}
	return e.compute(ctx, b, students, false)
}

func (e *Engine) compute(ctx context.Context, b domain.Building, students map[int]int, keepEmpty bool) ([]Row, error) {
	lines, err := e.store.CurriculumLines(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load curriculum")
	}
	stock, err := e.store.StockByBuilding(ctx, b.ID)
	if err != nil {
		return nil, errors.Wrap(err, "load stock")
	}
	available := make(map[int64]int, len(stock))
	for _, st := range stock {
		available[st.TitleID] = st.Available
	}

	rows := make([]Row, 0, len(lines))
	for _, line := range lines {
		n := students[line.Grade]
		if n == 0 && !keepEmpty {
			continue
		}
		key := line.ISBN
		if key == "" {
			key = line.ExternalKey
		}
		r := Row{
			BuildingCode: b.Code,
			Grade:        line.Grade,
			Subject:      line.Subject,
			Title:        line.Title,
			ISBNOrKey:    key,
			PerStudent:   line.PerStudent,
			Students:     n,
			Needed:       n * line.PerStudent,
			Available:    available[line.TitleID],
		}
		r.Deficit = max(0, r.Needed-r.Available)
		rows = append(rows, r)
	}
	Sort(rows)
	return rows, nil
}

// Sort orders rows by grade, then subject and title ignoring case. Rows
// without a title go last within their subject.
func Sort(rows []Row) {
	c := collate.New(language.Russian, collate.IgnoreCase)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Grade != b.Grade {
			return a.Grade < b.Grade
		}
		if cmp := c.CompareString(a.Subject, b.Subject); cmp != 0 {
			return cmp < 0
		}
		if (a.Title == "") != (b.Title == "") {
			return b.Title == ""
		}
		return c.CompareString(a.Title, b.Title) < 0
	})
}

// Summary totals a group of rows.
type Summary struct {
	Key       string `json:"key"`
	Needed    int    `json:"needed"`
	Available int    `json:"available"`
	Deficit   int    `json:"deficit"`
}

// Summarize groups rows by key and sums their quantities. Groups are ordered
// by key, comparing digit runs numerically so grade "2" precedes "10".
func Summarize(rows []Row, key func(Row) string) []Summary {
	idx := make(map[string]int)
	var out []Summary
	for _, r := range rows {
		k := key(r)
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, Summary{Key: k})
		}
		out[i].Needed += r.Needed
		out[i].Available += r.Available
		out[i].Deficit += r.Deficit
	}

	c := collate.New(language.Russian, collate.IgnoreCase, collate.Numeric)
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(out[i].Key, out[j].Key) < 0
	})
	return out
}

// BySubject groups rows by subject name.
func BySubject(r Row) string { return r.Subject }

// ByGrade groups rows by grade.
func ByGrade(r Row) string { return strconv.Itoa(r.Grade) }
