// Package memstore is an in-memory domain.Store used by tests and dry runs.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/bookfund/internal/domain"
)

type stockKey struct{ building, title int64 }

type curriculumKey struct {
	grade   int
	subject int64
	title   int64
}

type classKey struct {
	building int64
	year     int
	grade    int
	letter   string
}

// Store keeps every entity in maps guarded by one mutex, so each method is
// atomic with respect to the others.
type Store struct {
	mu     sync.RWMutex
	nextID int64

	buildings  map[int64]domain.Building
	subjects   map[int64]domain.Subject
	titles     map[int64]domain.BookTitle
	stocks     map[stockKey]domain.Stock
	curriculum map[curriculumKey]domain.CurriculumItem
	classes    map[classKey]domain.ClassGroup
	future     map[classKey]domain.FutureClassGroup
	changes    []domain.EnrollmentChange
	writeOffs  []domain.WriteOff
	movements  []domain.Movement
	runs       []domain.ImportRun

	now func() time.Time
}

var _ domain.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		buildings:  make(map[int64]domain.Building),
		subjects:   make(map[int64]domain.Subject),
		titles:     make(map[int64]domain.BookTitle),
		stocks:     make(map[stockKey]domain.Stock),
		curriculum: make(map[curriculumKey]domain.CurriculumItem),
		classes:    make(map[classKey]domain.ClassGroup),
		future:     make(map[classKey]domain.FutureClassGroup),
		now:        time.Now,
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// =============================================================================
// Buildings
// =============================================================================

func (s *Store) BuildingByCode(_ context.Context, code string) (domain.Building, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.buildings {
		if b.Code == code {
			return b, true, nil
		}
	}
	return domain.Building{}, false, nil
}

func (s *Store) ListBuildings(_ context.Context) ([]domain.Building, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Building, 0, len(s.buildings))
	for _, b := range s.buildings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpsertBuilding(_ context.Context, b domain.Building) (domain.Building, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.buildings {
		if existing.Code == b.Code {
			b.ID = id
			s.buildings[id] = b
			return b, nil
		}
	}
	b.ID = s.id()
	s.buildings[b.ID] = b
	return b, nil
}

// =============================================================================
// Subjects
// =============================================================================

func (s *Store) FindOrCreateSubject(_ context.Context, name string) (domain.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := domain.FoldKey(name)
	for _, subj := range s.subjects {
		if domain.FoldKey(subj.Name) == key {
			return subj, nil
		}
	}
	subj := domain.Subject{ID: s.id(), Name: strings.TrimSpace(name)}
	s.subjects[subj.ID] = subj
	return subj, nil
}

func (s *Store) ListSubjects(_ context.Context) ([]domain.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Subject, 0, len(s.subjects))
	for _, subj := range s.subjects {
		out = append(out, subj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// Titles
// =============================================================================

func (s *Store) FindTitle(_ context.Context, key domain.TitleKey) (domain.BookTitle, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.findTitle(key)
	return t, ok, nil
}

func (s *Store) findTitle(key domain.TitleKey) (domain.BookTitle, bool) {
	var (
		best  domain.BookTitle
		found bool
	)
	for _, t := range s.titles {
		if t.Grade != key.Grade || t.SubjectID != key.SubjectID {
			continue
		}
		if !matches(t, key) {
			continue
		}
		// lowest id wins so lookups are deterministic
		if !found || t.ID < best.ID {
			best, found = t, true
		}
	}
	return best, found
}

func matches(t domain.BookTitle, key domain.TitleKey) bool {
	switch key.Kind {
	case domain.KeyISBN:
		return t.ISBN != "" && t.ISBN == key.Value
	case domain.KeyExternal:
		return t.ExternalKey != "" && t.ExternalKey == key.Value
	case domain.KeyTitle:
		return domain.FoldKey(t.Title) == domain.FoldKey(key.Value)
	}
	return false
}

func (s *Store) UpsertTitle(_ context.Context, key domain.TitleKey, t domain.BookTitle) (domain.BookTitle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.findTitle(key); ok {
		existing.Title = t.Title
		existing.Authors = t.Authors
		existing.Publisher = t.Publisher
		existing.Year = t.Year
		if t.ISBN != "" {
			existing.ISBN = t.ISBN
		}
		if t.ExternalKey != "" {
			existing.ExternalKey = t.ExternalKey
		}
		s.titles[existing.ID] = existing
		return existing, nil
	}

	t.ID = s.id()
	t.Grade = key.Grade
	t.SubjectID = key.SubjectID
	switch key.Kind {
	case domain.KeyISBN:
		t.ISBN = key.Value
	case domain.KeyExternal:
		t.ExternalKey = key.Value
	}
	s.titles[t.ID] = t
	return t, nil
}

func (s *Store) TitleByID(_ context.Context, id int64) (domain.BookTitle, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.titles[id]
	return t, ok, nil
}

func (s *Store) SetTitleApproval(_ context.Context, id int64, approved bool) (domain.BookTitle, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.titles[id]
	if !ok {
		return domain.BookTitle{}, false, nil
	}
	t.ApprovedByOrder = approved
	s.titles[id] = t
	return t, true, nil
}

func (s *Store) CountTitles(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.titles), nil
}

// =============================================================================
// Stock
// =============================================================================

func (s *Store) StockFor(_ context.Context, buildingID, titleID int64) (domain.Stock, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stocks[stockKey{buildingID, titleID}]
	return st, ok, nil
}

func (s *Store) SaveStock(_ context.Context, st domain.Stock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.UpdatedAt = s.now()
	s.stocks[stockKey{st.BuildingID, st.TitleID}] = st
	return nil
}

func (s *Store) StockByBuilding(_ context.Context, buildingID int64) ([]domain.StockLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.StockLine
	for k, st := range s.stocks {
		if k.building != buildingID {
			continue
		}
		t := s.titles[k.title]
		out = append(out, domain.StockLine{Stock: st, Title: t, Subject: s.subjects[t.SubjectID].Name})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Title.Grade != b.Title.Grade {
			return a.Title.Grade < b.Title.Grade
		}
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		return a.Title.Title < b.Title.Title
	})
	return out, nil
}

func (s *Store) ApplyWriteOff(_ context.Context, w domain.WriteOff) (domain.Stock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := stockKey{w.BuildingID, w.TitleID}
	st, ok := s.stocks[k]
	if !ok {
		return domain.Stock{}, domain.ErrNoStock
	}
	if st.Available < w.Count {
		return domain.Stock{}, domain.ErrInsufficientStock
	}
	st.Available -= w.Count
	st.Total = max(0, st.Total-w.Count)
	st.UpdatedAt = s.now()
	s.stocks[k] = st

	w.ID = s.id()
	w.CreatedAt = s.now()
	s.writeOffs = append(s.writeOffs, w)
	s.movements = append(s.movements, domain.Movement{
		ID:             s.id(),
		Type:           domain.MovementAdjustment,
		FromBuildingID: w.BuildingID,
		TitleID:        w.TitleID,
		Count:          w.Count,
		Note:           domain.WriteOffNote(w.Reason),
		CreatedAt:      w.CreatedAt,
	})
	return st, nil
}

// WriteOffs returns recorded write-offs in insertion order.
func (s *Store) WriteOffs() []domain.WriteOff {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.WriteOff(nil), s.writeOffs...)
}

// Movements returns recorded movements in insertion order.
func (s *Store) Movements() []domain.Movement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Movement(nil), s.movements...)
}

// =============================================================================
// Curriculum
// =============================================================================

func (s *Store) UpsertCurriculumItem(_ context.Context, item domain.CurriculumItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.curriculum[curriculumKey{item.Grade, item.SubjectID, item.TitleID}] = item
	return nil
}

func (s *Store) CurriculumLines(_ context.Context) ([]domain.CurriculumLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CurriculumLine, 0, len(s.curriculum))
	for _, item := range s.curriculum {
		t := s.titles[item.TitleID]
		out = append(out, domain.CurriculumLine{
			CurriculumItem: item,
			Subject:        s.subjects[item.SubjectID].Name,
			Title:          t.Title,
			ISBN:           t.ISBN,
			ExternalKey:    t.ExternalKey,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Grade != out[j].Grade {
			return out[i].Grade < out[j].Grade
		}
		if out[i].SubjectID != out[j].SubjectID {
			return out[i].SubjectID < out[j].SubjectID
		}
		return out[i].TitleID < out[j].TitleID
	})
	return out, nil
}

// =============================================================================
// Classes
// =============================================================================

func (s *Store) UpsertClassGroup(_ context.Context, g domain.ClassGroup) (*int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.Letter = domain.NormalizeLetter(g.Letter)
	k := classKey{building: g.BuildingID, grade: g.Grade, letter: g.Letter}
	var prev *int
	if old, ok := s.classes[k]; ok {
		n := old.Students
		prev = &n
	}
	s.classes[k] = g
	return prev, nil
}

func (s *Store) ClassGroups(_ context.Context, buildingID int64) ([]domain.ClassGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ClassGroup
	for _, g := range s.classes {
		if g.BuildingID == buildingID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Grade != out[j].Grade {
			return out[i].Grade < out[j].Grade
		}
		return out[i].Letter < out[j].Letter
	})
	return out, nil
}

func (s *Store) UpsertFutureClassGroup(_ context.Context, g domain.FutureClassGroup) (*int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.Letter = domain.NormalizeLetter(g.Letter)
	k := classKey{building: g.BuildingID, year: g.AcademicYear, grade: g.Grade, letter: g.Letter}
	var prev *int
	if old, ok := s.future[k]; ok {
		n := old.Students
		prev = &n
	}
	s.future[k] = g
	return prev, nil
}

func (s *Store) FutureClassGroups(_ context.Context, buildingID int64, academicYear int) ([]domain.FutureClassGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.FutureClassGroup
	for _, g := range s.future {
		if g.BuildingID == buildingID && g.AcademicYear == academicYear {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Grade != out[j].Grade {
			return out[i].Grade < out[j].Grade
		}
		return out[i].Letter < out[j].Letter
	})
	return out, nil
}

func (s *Store) LogEnrollmentChange(_ context.Context, c domain.EnrollmentChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ChangedAt.IsZero() {
		c.ChangedAt = s.now()
	}
	s.changes = append(s.changes, c)
	return nil
}

// EnrollmentChanges returns the change log in insertion order.
func (s *Store) EnrollmentChanges() []domain.EnrollmentChange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.EnrollmentChange(nil), s.changes...)
}

// =============================================================================
// Import runs
// =============================================================================

func (s *Store) SaveImportRun(_ context.Context, run domain.ImportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

func (s *Store) ListImportRuns(_ context.Context, limit int) ([]domain.ImportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ImportRun, 0, len(s.runs))
	for i := len(s.runs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s.runs[i])
	}
	return out, nil
}

func (s *Store) PurgeImportRuns(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.runs[:0]
	var purged int64
	for _, r := range s.runs {
		if r.StartedAt.Before(before) {
			purged++
			continue
		}
		kept = append(kept, r)
	}
	s.runs = kept
	return purged, nil
}
