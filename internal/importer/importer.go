// Package importer loads spreadsheet exports into the textbook fund.
//
// Every importer shares one failure policy: conditions that make the whole
// file meaningless (unreadable workbook, missing header, unknown target
// building) abort with a *StructuralError before any row is written. Row
// failures are recorded as "Row <n>: <message>" and processing continues
// until DefaultMaxRowErrors have been collected. Rows that succeeded stay
// persisted even when the import as a whole is reported as failed.
package importer

import (
	"context"
	"io"
	"time"

	"github.com/go-faster/errors"

	"github.com/JonMunkholm/bookfund/internal/catalog"
	"github.com/JonMunkholm/bookfund/internal/domain"
	"github.com/JonMunkholm/bookfund/internal/logging"
	"github.com/JonMunkholm/bookfund/internal/sheet"
)

var (
	// ErrUnknownBuilding is returned when a building code does not resolve
	// to a seeded building.
	ErrUnknownBuilding = errors.New("unknown building code")

	// ErrAcademicYearRequired is returned by projected enrollment imports
	// called without a year.
	ErrAcademicYearRequired = errors.New("academic year is required")
)

// Kind names an import entry point.
type Kind string

const (
	KindRegistry       Kind = "registry"
	KindLegacy         Kind = "legacy"
	KindLibrarianStock Kind = "librarian_stock"
	KindCurriculum     Kind = "curriculum"
	KindClasses        Kind = "classes"
	KindFutureClasses  Kind = "future_classes"
)

// Options tunes importer limits.
type Options struct {
	// ScanRows is how many leading rows are searched for a header.
	ScanRows int
	// MaxRowErrors stops scanning once this many rows failed.
	MaxRowErrors int
	// DefaultBuilding is the registry target when the caller gives none.
	DefaultBuilding string
}

// DefaultOptions returns the standard limits.
func DefaultOptions() Options {
	return Options{
		ScanRows:        sheet.DefaultScanRows,
		MaxRowErrors:    DefaultMaxRowErrors,
		DefaultBuilding: "0",
	}
}

// Importer runs imports against a store.
type Importer struct {
	store    domain.Store
	resolver *catalog.Resolver
	opts     Options
}

// New creates an Importer. Zero option fields take their defaults.
func New(store domain.Store, opts Options) *Importer {
	def := DefaultOptions()
	if opts.ScanRows <= 0 {
		opts.ScanRows = def.ScanRows
	}
	if opts.MaxRowErrors <= 0 {
		opts.MaxRowErrors = def.MaxRowErrors
	}
	if opts.DefaultBuilding == "" {
		opts.DefaultBuilding = def.DefaultBuilding
	}
	return &Importer{
		store:    store,
		resolver: catalog.NewResolver(store, store),
		opts:     opts,
	}
}

// observe wraps one import call with logging and metrics.
func (im *Importer) observe(ctx context.Context, kind Kind, fn func(context.Context) (*Result, error)) (*Result, error) {
	logger := logging.WithFields(ctx, "import_kind", kind)
	logger.Info("import started")
	start := time.Now()

	res, err := fn(ctx)
	recordMetrics(kind, res, err, time.Since(start).Seconds())

	switch {
	case err != nil:
		var se *StructuralError
		if errors.As(err, &se) {
			logger.Warn("import aborted", "error", err)
		} else {
			logger.Error("import failed", "error", err)
		}
	case res.Failed():
		logger.Warn("import finished with row errors",
			"processed", res.Processed,
			"errors", len(res.Errors),
			"truncated", res.Truncated,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	default:
		logger.Info("import completed",
			"format", res.Format.String(),
			"processed", res.Processed,
			"skipped", res.Skipped,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return res, err
}

// open reads the workbook and locates its header.
func (im *Importer) open(kind Kind, src io.Reader, formats ...sheet.Format) (*sheet.Sheet, sheet.Header, error) {
	s, err := sheet.Open(src)
	if err != nil {
		return nil, sheet.Header{}, structural(kind, err)
	}
	h, err := sheet.Detect(s, im.opts.ScanRows, formats...)
	if err != nil {
		return nil, sheet.Header{}, structural(kind, err)
	}
	return s, h, nil
}

// building resolves a free-form building reference.
func (im *Importer) building(ctx context.Context, raw string) (domain.Building, error) {
	code := catalog.NormalizeBuildingCode(raw)
	b, ok, err := im.store.BuildingByCode(ctx, code)
	if err != nil {
		return domain.Building{}, err
	}
	if !ok {
		return domain.Building{}, errors.Errorf("building %q: %w", code, ErrUnknownBuilding)
	}
	return b, nil
}

// stockFor loads the stock record for a pair, or a zero record keyed to it.
func (im *Importer) stockFor(ctx context.Context, buildingID, titleID int64) (domain.Stock, error) {
	st, ok, err := im.store.StockFor(ctx, buildingID, titleID)
	if err != nil {
		return domain.Stock{}, err
	}
	if !ok {
		st = domain.Stock{BuildingID: buildingID, TitleID: titleID}
	}
	return st, nil
}

// cellInt parses a quantity cell, naming the column on failure.
func cellInt(row sheet.Row, col int, name string) (int, error) {
	n, err := sheet.ParseInt(row.Cell(col))
	if err != nil {
		return 0, errors.Wrap(err, name)
	}
	return n, nil
}
