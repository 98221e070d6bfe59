package core

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/bookfund/internal/config"
	"github.com/JonMunkholm/bookfund/internal/domain"
	"github.com/JonMunkholm/bookfund/internal/importer"
	"github.com/JonMunkholm/bookfund/internal/inventory"
	"github.com/JonMunkholm/bookfund/internal/sheet"
	"github.com/JonMunkholm/bookfund/internal/sheet/sheettest"
	"github.com/JonMunkholm/bookfund/internal/store/memstore"
)

var (
	registryHeader = []any{"buildingCode", "grade", "subject", "title", "authors", "year", "isbn", "total", "available", "inUse"}
	classesHeader  = []any{"buildingCode", "grade", "letter", "students"}
)

func testConfig() *config.Config {
	return &config.Config{
		Upload: config.UploadConfig{MaxConcurrent: 2, MaxWaitTime: 50 * time.Millisecond, Timeout: time.Minute},
		Import: config.ImportConfig{HeaderScanRows: 50, MaxRowErrors: 30, DefaultBuilding: "0"},
	}
}

func newTestService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	for _, code := range []string{"0", "1", "2"} {
		_, err := store.UpsertBuilding(context.Background(), domain.Building{Code: code, Name: "Корпус " + code})
		require.NoError(t, err)
	}
	return NewService(store, testConfig()), store
}

// seedFund imports one math title into building 1 with 30 free copies, puts
// it in the grade 5 curriculum at one copy per student and enrolls 45
// fifth graders.
func seedFund(t *testing.T, s *Service) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Import(ctx, importer.KindRegistry, sheettest.Workbook(t,
		registryHeader,
		[]any{"1", 5, "Математика", "Математика 5", "Виленкин", 2021, "978-1", 40, 30, 10},
	), ImportParams{FileName: "registry.xlsx"})
	require.NoError(t, err)

	_, err = s.Import(ctx, importer.KindCurriculum, sheettest.Workbook(t,
		[]any{"grade", "subject", "isbn", "perStudent"},
		[]any{5, "Математика", "978-1", 1},
	), ImportParams{FileName: "plan.xlsx"})
	require.NoError(t, err)

	_, err = s.Import(ctx, importer.KindClasses, sheettest.Workbook(t,
		classesHeader,
		[]any{"1", 5, "а", 25},
		[]any{"1", 5, "б", 20},
	), ImportParams{FileName: "classes.xlsx"})
	require.NoError(t, err)
}

// =============================================================================
// Import
// =============================================================================

func TestService_ImportRecordsHistory(t *testing.T) {
	s, _ := newTestService(t)
	seedFund(t, s)

	runs, err := s.History(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	assert.Equal(t, string(importer.KindClasses), runs[0].Kind, "newest first")
	assert.Equal(t, string(importer.KindRegistry), runs[2].Kind)
	assert.Equal(t, "self_template", runs[2].Format)
	assert.Equal(t, "registry.xlsx", runs[2].FileName)
	for _, r := range runs {
		assert.NotEqual(t, uuid.Nil, r.ID)
		assert.False(t, r.Failed)
		assert.Empty(t, r.Errors)
	}
	assert.Equal(t, 2, runs[0].Processed)
}

func TestService_ImportPartialFailure(t *testing.T) {
	s, _ := newTestService(t)

	out, err := s.Import(context.Background(), importer.KindRegistry, sheettest.Workbook(t,
		registryHeader,
		[]any{"1", 5, "Математика", "Математика 5", "", "", "978-1", 10, 10, 0},
		[]any{"9", 5, "Математика", "Математика 5", "", "", "978-1", 10, 10, 0},
	), ImportParams{FileName: "mixed.xlsx"})

	var partial *importer.PartialError
	require.ErrorAs(t, err, &partial)
	require.NotNil(t, out)
	assert.True(t, out.Run.Failed)
	assert.Equal(t, 1, out.Run.Processed)
	assert.Equal(t, 1, out.Run.ErrorCount)
	require.Len(t, out.Run.Errors, 1)
	assert.True(t, strings.HasPrefix(out.Run.Errors[0], "Row 3:"), out.Run.Errors[0])
	assert.Equal(t, "IMP004", MapError(err).Code)

	runs, err := s.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Failed)
}

func TestService_ImportStructuralFailure(t *testing.T) {
	s, _ := newTestService(t)

	out, err := s.Import(context.Background(), importer.KindRegistry,
		strings.NewReader("definitely not a workbook"), ImportParams{FileName: "notes.txt"})
	require.Error(t, err)
	assert.ErrorIs(t, err, sheet.ErrUnreadable)
	require.NotNil(t, out)
	assert.True(t, out.Run.Failed)
	require.Len(t, out.Run.Errors, 1)
	assert.Contains(t, out.Run.Errors[0], "workbook is unreadable")
}

func TestService_ImportUnknownKind(t *testing.T) {
	s, store := newTestService(t)

	out, err := s.Import(context.Background(), importer.Kind("inventory"), strings.NewReader(""), ImportParams{})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrUnknownKind)

	runs, err := store.ListImportRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs, "rejected calls are not imports")
}

func TestService_ImportLimited(t *testing.T) {
	s, _ := newTestService(t)
	for s.limiter.TryAcquire() {
	}
	defer func() {
		for s.limiter.ActiveCount() > 0 {
			s.limiter.Release()
		}
	}()

	_, err := s.Import(context.Background(), importer.KindClasses,
		sheettest.Workbook(t, classesHeader), ImportParams{})
	assert.ErrorIs(t, err, ErrTooManyImports)
	assert.Equal(t, LimiterStatus{Active: 2, Available: 0, MaxConcurrent: 2}, s.LimiterStatus())
}

// =============================================================================
// Reconciliation and planning
// =============================================================================

func TestService_Reconcile(t *testing.T) {
	s, _ := newTestService(t)
	seedFund(t, s)

	rep, err := s.Reconcile(context.Background(), "Корпус 1")
	require.NoError(t, err)
	assert.Equal(t, "1", rep.Building.Code)
	require.Len(t, rep.Rows, 1)

	row := rep.Rows[0]
	assert.Equal(t, 45, row.Students)
	assert.Equal(t, 45, row.Needed)
	assert.Equal(t, 30, row.Available)
	assert.Equal(t, 15, row.Deficit)

	require.Len(t, rep.BySubject, 1)
	assert.Equal(t, "Математика", rep.BySubject[0].Key)
	assert.Equal(t, 15, rep.BySubject[0].Deficit)
	require.Len(t, rep.ByGrade, 1)
	assert.Equal(t, "5", rep.ByGrade[0].Key)

	other, err := s.Reconcile(context.Background(), "2")
	require.NoError(t, err)
	require.Len(t, other.Rows, 1, "empty grades still produce rows")
	assert.Equal(t, 0, other.Rows[0].Needed)
}

func TestService_ReconcileUnknownBuilding(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Reconcile(context.Background(), "Корпус 42")
	assert.ErrorIs(t, err, importer.ErrUnknownBuilding)
	assert.Equal(t, "IMP002", MapError(err).Code)
}

func TestService_Plan(t *testing.T) {
	s, _ := newTestService(t)
	seedFund(t, s)
	ctx := context.Background()

	_, err := s.Plan(ctx, "1", 0)
	assert.ErrorIs(t, err, importer.ErrAcademicYearRequired)

	_, err = s.Import(ctx, importer.KindFutureClasses, sheettest.Workbook(t,
		classesHeader,
		[]any{"1", 5, "а", 50},
	), ImportParams{AcademicYear: 2027})
	require.NoError(t, err)

	plan, err := s.Plan(ctx, "сп1", 2027)
	require.NoError(t, err)
	assert.Equal(t, 2027, plan.AcademicYear)
	require.Len(t, plan.Rows, 1)
	assert.Equal(t, 50, plan.Rows[0].Needed)
	assert.Equal(t, 20, plan.Rows[0].Deficit)

	empty, err := s.Plan(ctx, "1", 2028)
	require.NoError(t, err)
	assert.Empty(t, empty.Rows)
	assert.NotNil(t, empty.Rows)
}

// =============================================================================
// Inventory
// =============================================================================

func TestService_InventoryAndWriteOff(t *testing.T) {
	s, store := newTestService(t)
	seedFund(t, s)
	ctx := context.Background()

	rep, err := s.Inventory(ctx, "1")
	require.NoError(t, err)
	require.Len(t, rep.Rows, 1)
	titleID := rep.Rows[0].TitleID

	st, err := s.WriteOff(ctx, WriteOffParams{BuildingCode: "сп1", TitleID: titleID, Count: 5, Reason: "порча"})
	require.NoError(t, err)
	assert.Equal(t, 25, st.Available)
	assert.Equal(t, 35, st.Total)
	require.Len(t, store.WriteOffs(), 1)

	tests := []struct {
		name   string
		params WriteOffParams
		want   error
	}{
		{"missing building", WriteOffParams{TitleID: titleID, Count: 1}, ErrInvalidRequest},
		{"missing title", WriteOffParams{BuildingCode: "1", Count: 1}, ErrInvalidRequest},
		{"zero count", WriteOffParams{BuildingCode: "1", TitleID: titleID}, inventory.ErrInvalidCount},
		{"too many", WriteOffParams{BuildingCode: "1", TitleID: titleID, Count: 26}, domain.ErrInsufficientStock},
		{"no stock", WriteOffParams{BuildingCode: "2", TitleID: titleID, Count: 1}, domain.ErrNoStock},
		{"unknown building", WriteOffParams{BuildingCode: "77", TitleID: titleID, Count: 1}, importer.ErrUnknownBuilding},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.WriteOff(ctx, tt.params)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Len(t, store.WriteOffs(), 1, "failed write-offs change nothing")
	require.Len(t, store.Movements(), 1)
	assert.Equal(t, domain.MovementAdjustment, store.Movements()[0].Type)
	assert.Equal(t, "Списание: порча", store.Movements()[0].Note)
}

// =============================================================================
// Title approval
// =============================================================================

func TestService_SetApproval(t *testing.T) {
	s, store := newTestService(t)
	seedFund(t, s)
	ctx := context.Background()

	rep, err := s.Inventory(ctx, "1")
	require.NoError(t, err)
	require.Len(t, rep.Rows, 1)
	titleID := rep.Rows[0].TitleID

	got, err := s.SetApproval(ctx, ApprovalParams{TitleID: titleID, Approved: true})
	require.NoError(t, err)
	assert.True(t, got.ApprovedByOrder)

	stored, ok, err := store.TitleByID(ctx, titleID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, stored.ApprovedByOrder)

	got, err = s.SetApproval(ctx, ApprovalParams{TitleID: titleID})
	require.NoError(t, err)
	assert.False(t, got.ApprovedByOrder)

	tests := []struct {
		name   string
		params ApprovalParams
		want   error
	}{
		{"missing title", ApprovalParams{Approved: true}, ErrInvalidRequest},
		{"unknown title", ApprovalParams{TitleID: 9999, Approved: true}, domain.ErrTitleNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SetApproval(ctx, tt.params)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// =============================================================================
// History retention
// =============================================================================

func TestService_PurgeHistory(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveImportRun(ctx, domain.ImportRun{ID: uuid.New(), StartedAt: now.AddDate(0, 0, -200)}))
	require.NoError(t, store.SaveImportRun(ctx, domain.ImportRun{ID: uuid.New(), StartedAt: now.AddDate(0, 0, -10)}))

	purged := s.purgeHistory(ctx, HistoryConfig{RetentionDays: 180}.withDefaults(), now)
	assert.Equal(t, int64(1), purged)

	runs, err := s.History(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestService_HistorySchedulerStops(t *testing.T) {
	s, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.StartHistoryScheduler(ctx, HistoryConfig{CheckInterval: time.Hour})
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

// =============================================================================
// Templates and registry
// =============================================================================

func TestWriteTemplate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTemplate(&buf, importer.KindClasses))

	rows := sheettest.Rows(t, buf.Bytes(), "Численность")
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"buildingCode", "grade", "letter", "students"}, rows[0])

	assert.ErrorIs(t, WriteTemplate(&buf, importer.KindLegacy), ErrNoTemplate)
	assert.ErrorIs(t, WriteTemplate(&buf, importer.Kind("nope")), ErrUnknownKind)
	assert.Equal(t, "classes_template.xlsx", TemplateFileName(importer.KindClasses))
}

func TestRegistryBuiltins(t *testing.T) {
	assert.Equal(t, 6, KindCount())
	assert.Equal(t, []string{GroupCurriculum, GroupEnrollment, GroupStock}, Groups())

	var keys []importer.Kind
	for _, k := range ByGroup(GroupStock) {
		keys = append(keys, k.Key)
	}
	assert.Equal(t, []importer.Kind{importer.KindLegacy, importer.KindLibrarianStock, importer.KindRegistry}, keys)

	future, ok := Get(importer.KindFutureClasses)
	require.True(t, ok)
	assert.True(t, future.NeedsYear)
	assert.True(t, future.HasTemplate())

	assert.Panics(t, func() { Register(ImportKind{Key: importer.KindRegistry}) })
}

func TestValidate(t *testing.T) {
	err := Validate(WriteOffParams{Reason: strings.Repeat("x", 501)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := make([]string, len(verrs))
	for i, v := range verrs {
		fields[i] = v.Field
	}
	assert.ElementsMatch(t, []string{"building", "title_id", "reason"}, fields)
	assert.Equal(t, "VAL001", MapError(err).Code)

	assert.NoError(t, Validate(WriteOffParams{BuildingCode: "1", TitleID: 3}))
}
