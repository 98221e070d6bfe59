package core

import (
	"context"
	"io"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/JonMunkholm/bookfund/internal/catalog"
	"github.com/JonMunkholm/bookfund/internal/config"
	"github.com/JonMunkholm/bookfund/internal/domain"
	"github.com/JonMunkholm/bookfund/internal/importer"
	"github.com/JonMunkholm/bookfund/internal/inventory"
	"github.com/JonMunkholm/bookfund/internal/logging"
	"github.com/JonMunkholm/bookfund/internal/recon"
	"github.com/JonMunkholm/bookfund/internal/sheet"
)

// ErrUnknownKind is returned for an import kind that is not registered.
var ErrUnknownKind = errors.New("unknown import kind")

// Service is the entry point shared by the HTTP server and the CLI.
type Service struct {
	store     domain.Store
	importer  *importer.Importer
	recon     *recon.Engine
	inventory *inventory.Service
	limiter   *ImportLimiter
	timeout   time.Duration
}

// NewService wires the service over store using cfg's limits.
func NewService(store domain.Store, cfg *config.Config) *Service {
	return &Service{
		store: store,
		importer: importer.New(store, importer.Options{
			ScanRows:        cfg.Import.HeaderScanRows,
			MaxRowErrors:    cfg.Import.MaxRowErrors,
			DefaultBuilding: cfg.Import.DefaultBuilding,
		}),
		recon:     recon.New(store),
		inventory: inventory.New(store),
		limiter:   NewImportLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		timeout:   cfg.Upload.Timeout,
	}
}

// Kinds lists the registered import kinds.
func (s *Service) Kinds() []ImportKind {
	return All()
}

// ImportOutcome is what an import call reports back.
type ImportOutcome struct {
	Run    domain.ImportRun `json:"run"`
	Result *importer.Result `json:"result,omitempty"`
}

// Import runs one import and records it in the history. The outcome is
// returned even when err is non-nil, as long as the import started: err is
// the structural failure or the *importer.PartialError listing row errors.
func (s *Service) Import(ctx context.Context, key importer.Kind, src io.Reader, p ImportParams) (*ImportOutcome, error) {
	kind, ok := Get(key)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKind, "%q", key)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	run := domain.ImportRun{
		ID:           uuid.New(),
		Kind:         string(key),
		FileName:     p.FileName,
		BuildingCode: p.BuildingCode,
		AcademicYear: p.AcademicYear,
		StartedAt:    time.Now().UTC(),
	}
	ctx, logger := logging.ForImport(ctx, run.ID.String(), run.Kind, run.FileName)
	if info := RequestInfoFromContext(ctx); info.IP != "" {
		logger.Debug("import requested", "ip", info.IP, "user_agent", info.UserAgent)
	}

	res, err := kind.Run(ctx, s.importer, src, p)
	run.Duration = time.Since(run.StartedAt)
	if res != nil {
		if res.Format != sheet.FormatUnknown {
			run.Format = res.Format.String()
		}
		run.Processed = res.Processed
		run.ErrorCount = len(res.Errors)
		run.Errors = res.Messages()
		if err == nil {
			err = res.Err()
		}
	}
	if err != nil {
		run.Failed = true
		if len(run.Errors) == 0 {
			run.Errors = []string{err.Error()}
		}
	}

	s.recordRun(ctx, run)
	return &ImportOutcome{Run: run, Result: res}, err
}

// Building resolves a free-form building code.
func (s *Service) Building(ctx context.Context, raw string) (domain.Building, error) {
	b, ok, err := s.store.BuildingByCode(ctx, catalog.NormalizeBuildingCode(raw))
	if err != nil {
		return domain.Building{}, err
	}
	if !ok {
		return domain.Building{}, errors.Wrapf(importer.ErrUnknownBuilding, "%q", raw)
	}
	return b, nil
}

// Buildings lists the seeded buildings.
func (s *Service) Buildings(ctx context.Context) ([]domain.Building, error) {
	return s.store.ListBuildings(ctx)
}

// Reconciliation is a building's curriculum demand against its stock.
type Reconciliation struct {
	Building     domain.Building `json:"building"`
	AcademicYear int             `json:"academic_year,omitempty"`
	Rows         []recon.Row     `json:"rows"`
	BySubject    []recon.Summary `json:"by_subject"`
	ByGrade      []recon.Summary `json:"by_grade"`
}

func newReconciliation(b domain.Building, year int, rows []recon.Row) *Reconciliation {
	if rows == nil {
		rows = []recon.Row{}
	}
	return &Reconciliation{
		Building:     b,
		AcademicYear: year,
		Rows:         rows,
		BySubject:    recon.Summarize(rows, recon.BySubject),
		ByGrade:      recon.Summarize(rows, recon.ByGrade),
	}
}

// Reconcile compares current enrollment demand with a building's stock.
func (s *Service) Reconcile(ctx context.Context, code string) (*Reconciliation, error) {
	b, err := s.Building(ctx, code)
	if err != nil {
		return nil, err
	}
	rows, err := s.recon.Reconcile(ctx, b)
	if err != nil {
		return nil, errors.Wrapf(err, "reconcile building %s", b.Code)
	}
	return newReconciliation(b, 0, rows), nil
}

// Plan computes purchase needs for a projected academic year.
func (s *Service) Plan(ctx context.Context, code string, academicYear int) (*Reconciliation, error) {
	if academicYear <= 0 {
		return nil, importer.ErrAcademicYearRequired
	}
	b, err := s.Building(ctx, code)
	if err != nil {
		return nil, err
	}
	rows, err := s.recon.Plan(ctx, b, academicYear)
	if err != nil {
		return nil, errors.Wrapf(err, "plan building %s for %d", b.Code, academicYear)
	}
	return newReconciliation(b, academicYear, rows), nil
}

// InventoryReport is a building's stock with expected counts.
type InventoryReport struct {
	Building domain.Building `json:"building"`
	Rows     []inventory.Row `json:"rows"`
}

// Inventory reports a building's stock records.
func (s *Service) Inventory(ctx context.Context, code string) (*InventoryReport, error) {
	b, err := s.Building(ctx, code)
	if err != nil {
		return nil, err
	}
	rows, err := s.inventory.Report(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []inventory.Row{}
	}
	return &InventoryReport{Building: b, Rows: rows}, nil
}

// WriteOffParams is a write-off addressed by building code.
type WriteOffParams struct {
	BuildingCode string `json:"building" validate:"required"`
	TitleID      int64  `json:"title_id" validate:"required,gt=0"`
	Count        int    `json:"count"`
	Reason       string `json:"reason" validate:"max=500"`
}

// WriteOff removes copies from a building's available stock.
func (s *Service) WriteOff(ctx context.Context, p WriteOffParams) (domain.Stock, error) {
	if err := Validate(p); err != nil {
		return domain.Stock{}, err
	}
	b, err := s.Building(ctx, p.BuildingCode)
	if err != nil {
		return domain.Stock{}, err
	}

	st, err := s.inventory.WriteOff(ctx, inventory.WriteOffRequest{
		BuildingID: b.ID,
		TitleID:    p.TitleID,
		Count:      p.Count,
		Reason:     p.Reason,
	})
	if err != nil {
		return domain.Stock{}, err
	}
	logging.FromContext(ctx).Info("stock written off",
		"building", b.Code,
		"title_id", p.TitleID,
		"count", p.Count,
		"available", st.Available,
	)
	return st, nil
}

// ApprovalParams marks a title as approved (or not) by ministry order.
type ApprovalParams struct {
	TitleID  int64 `json:"title_id" validate:"required,gt=0"`
	Approved bool  `json:"approved_by_order"`
}

// SetApproval updates a title's approved-by-order flag.
func (s *Service) SetApproval(ctx context.Context, p ApprovalParams) (domain.BookTitle, error) {
	if err := Validate(p); err != nil {
		return domain.BookTitle{}, err
	}
	t, found, err := s.store.SetTitleApproval(ctx, p.TitleID, p.Approved)
	if err != nil {
		return domain.BookTitle{}, err
	}
	if !found {
		return domain.BookTitle{}, errors.Wrapf(domain.ErrTitleNotFound, "id %d", p.TitleID)
	}
	logging.FromContext(ctx).Info("title approval updated",
		"title_id", t.ID,
		"approved_by_order", t.ApprovedByOrder,
	)
	return t, nil
}

// LimiterStatus reports import slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx ends.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
