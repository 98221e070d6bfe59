package domain

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var (
	// ErrNoStock is returned when a stock record is required but missing.
	ErrNoStock = errors.New("no stock for title in building")

	// ErrInsufficientStock is returned when a write-off exceeds available copies.
	ErrInsufficientStock = errors.New("write-off exceeds available stock")

	// ErrTitleNotFound is returned for an unknown book title id.
	ErrTitleNotFound = errors.New("book title not found")
)

// KeyKind selects the identity strategy used to match a BookTitle.
type KeyKind int

const (
	// KeyISBN matches on (isbn, grade, subject).
	KeyISBN KeyKind = iota
	// KeyExternal matches on (external key, grade, subject).
	KeyExternal
	// KeyTitle matches on case-insensitive (title, grade, subject).
	KeyTitle
)

func (k KeyKind) String() string {
	switch k {
	case KeyISBN:
		return "isbn"
	case KeyExternal:
		return "external_key"
	case KeyTitle:
		return "title"
	default:
		return "unknown"
	}
}

// TitleKey identifies a BookTitle within one (grade, subject) pair.
type TitleKey struct {
	Kind      KeyKind
	Value     string
	Grade     int
	SubjectID int64
}

// BuildingStore reads pre-seeded buildings.
type BuildingStore interface {
	BuildingByCode(ctx context.Context, code string) (Building, bool, error)
	ListBuildings(ctx context.Context) ([]Building, error)
	UpsertBuilding(ctx context.Context, b Building) (Building, error)
}

// SubjectStore dedups subjects by case-insensitive name.
type SubjectStore interface {
	FindOrCreateSubject(ctx context.Context, name string) (Subject, error)
	ListSubjects(ctx context.Context) ([]Subject, error)
}

// TitleStore is the shared book catalog.
//
// UpsertTitle is an atomic find-or-create keyed by key: on a match the
// descriptive fields (title, authors, publisher, year) are overwritten and a
// non-empty ISBN or external key on t is attached; on a miss t is inserted.
type TitleStore interface {
	FindTitle(ctx context.Context, key TitleKey) (BookTitle, bool, error)
	UpsertTitle(ctx context.Context, key TitleKey, t BookTitle) (BookTitle, error)
	TitleByID(ctx context.Context, id int64) (BookTitle, bool, error)
	CountTitles(ctx context.Context) (int, error)
	// SetTitleApproval sets ApprovedByOrder. found is false for an unknown id.
	SetTitleApproval(ctx context.Context, id int64, approved bool) (t BookTitle, found bool, err error)
}

// StockStore holds per-building quantities. SaveStock replaces the record
// for (BuildingID, TitleID).
type StockStore interface {
	StockFor(ctx context.Context, buildingID, titleID int64) (Stock, bool, error)
	SaveStock(ctx context.Context, s Stock) error
	StockByBuilding(ctx context.Context, buildingID int64) ([]StockLine, error)
	// ApplyWriteOff decrements available and total by w.Count and records
	// the write-off together with an adjustment Movement. Returns ErrNoStock
	// or ErrInsufficientStock.
	ApplyWriteOff(ctx context.Context, w WriteOff) (Stock, error)
}

// CurriculumStore keeps one item per (grade, subject, title).
type CurriculumStore interface {
	UpsertCurriculumItem(ctx context.Context, item CurriculumItem) error
	CurriculumLines(ctx context.Context) ([]CurriculumLine, error)
}

// ClassStore keeps current and projected headcounts. Upserts return the
// previous headcount when the cohort already existed.
type ClassStore interface {
	UpsertClassGroup(ctx context.Context, g ClassGroup) (*int, error)
	ClassGroups(ctx context.Context, buildingID int64) ([]ClassGroup, error)
	UpsertFutureClassGroup(ctx context.Context, g FutureClassGroup) (*int, error)
	FutureClassGroups(ctx context.Context, buildingID int64, academicYear int) ([]FutureClassGroup, error)
	LogEnrollmentChange(ctx context.Context, c EnrollmentChange) error
}

// ImportRun is the persisted outcome of one import call.
type ImportRun struct {
	ID           uuid.UUID     `json:"id"`
	Kind         string        `json:"kind"`
	FileName     string        `json:"file_name"`
	BuildingCode string        `json:"building_code,omitempty"`
	AcademicYear int           `json:"academic_year,omitempty"`
	Format       string        `json:"format,omitempty"`
	Processed    int           `json:"processed"`
	ErrorCount   int           `json:"error_count"`
	Failed       bool          `json:"failed"`
	Errors       []string      `json:"errors,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
}

// ImportRunStore keeps import history.
type ImportRunStore interface {
	SaveImportRun(ctx context.Context, run ImportRun) error
	ListImportRuns(ctx context.Context, limit int) ([]ImportRun, error)
	PurgeImportRuns(ctx context.Context, before time.Time) (int64, error)
}

// Store is the full persistence surface.
type Store interface {
	BuildingStore
	SubjectStore
	TitleStore
	StockStore
	CurriculumStore
	ClassStore
	ImportRunStore
}
