package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/bookfund/internal/domain"
	"github.com/JonMunkholm/bookfund/internal/sheet"
	"github.com/JonMunkholm/bookfund/internal/sheet/sheettest"
	"github.com/JonMunkholm/bookfund/internal/store/memstore"
)

var selfTemplateHeader = []any{"buildingCode", "grade", "subject", "title", "authors", "year", "isbn", "total", "available", "inUse"}

func newImporter(t *testing.T) (*Importer, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	ctx := context.Background()
	for _, code := range []string{"0", "1", "2"} {
		_, err := store.UpsertBuilding(ctx, domain.Building{Code: code, Name: "Корпус " + code})
		require.NoError(t, err)
	}
	return New(store, DefaultOptions()), store
}

func mustBuilding(t *testing.T, store *memstore.Store, code string) domain.Building {
	t.Helper()
	b, ok, err := store.BuildingByCode(context.Background(), code)
	require.NoError(t, err)
	require.True(t, ok, "building %s", code)
	return b
}

func mustTitle(t *testing.T, store *memstore.Store, key domain.TitleKey) domain.BookTitle {
	t.Helper()
	bt, ok, err := store.FindTitle(context.Background(), key)
	require.NoError(t, err)
	require.True(t, ok, "title %+v", key)
	return bt
}

func mustStock(t *testing.T, store *memstore.Store, buildingID, titleID int64) domain.Stock {
	t.Helper()
	st, ok, err := store.StockFor(context.Background(), buildingID, titleID)
	require.NoError(t, err)
	require.True(t, ok)
	return st
}

func subjectID(t *testing.T, store *memstore.Store, name string) int64 {
	t.Helper()
	s, err := store.FindOrCreateSubject(context.Background(), name)
	require.NoError(t, err)
	return s.ID
}

// =============================================================================
// Registry: self-template
// =============================================================================

func TestImportRegistry_SelfTemplateIsIdempotent(t *testing.T) {
	im, store := newImporter(t)
	ctx := context.Background()

	first := sheettest.Workbook(t,
		selfTemplateHeader,
		[]any{"Корпус 1", 5, "Математика", "Математика 5", "Виленкин", 2019, "978-5-09-1", 30, 20, 10},
		[]any{"сп2", 6, "Русский язык", "Русский язык 6", "Ладыженская", 2020, "978-5-09-2", 25, 25, 0},
	)
	res, err := im.ImportRegistry(ctx, first, "")
	require.NoError(t, err)
	require.NoError(t, res.Err())
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, sheet.FormatSelfTemplate, res.Format)

	second := sheettest.Workbook(t,
		selfTemplateHeader,
		[]any{"1", 5, "математика", "Математика. 5 класс", "Виленкин Н.Я.", 2021, "978-5-09-1", 12, 2, 10},
		[]any{"SP2", 6, "Русский язык", "Русский язык 6", "Ладыженская", 2020, "978-5-09-2", 25, 20, 5},
	)
	res, err = im.ImportRegistry(ctx, second, "")
	require.NoError(t, err)
	require.NoError(t, res.Err())

	n, err := store.CountTitles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "second import must not create titles")

	bt := mustTitle(t, store, domain.TitleKey{Kind: domain.KeyISBN, Value: "978-5-09-1", Grade: 5, SubjectID: subjectID(t, store, "Математика")})
	assert.Equal(t, "Математика. 5 класс", bt.Title)
	assert.Equal(t, 2021, *bt.Year)

	st := mustStock(t, store, mustBuilding(t, store, "1").ID, bt.ID)
	assert.Equal(t, 12, st.Total, "stock is overwritten, not added")
	assert.Equal(t, 2, st.Available)
	assert.Equal(t, 10, st.InUse)
}

func TestImportRegistry_UnknownRowBuildingIsRowError(t *testing.T) {
	im, store := newImporter(t)
	ctx := context.Background()

	buf := sheettest.Workbook(t,
		selfTemplateHeader,
		[]any{"1", 5, "Математика", "Математика 5", "", "", "isbn-1", 10, 10, 0},
		[]any{"Корпус 9", 5, "Математика", "Математика 5", "", "", "isbn-1", 10, 10, 0},
		[]any{"2", 5, "Математика", "Математика 5", "", "", "isbn-1", 7, 7, 0},
	)
	res, err := im.ImportRegistry(ctx, buf, "")
	require.NoError(t, err)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, 3, res.Errors[0].Row)
	assert.ErrorIs(t, res.Errors[0], ErrUnknownBuilding)
	assert.Contains(t, res.Errors[0].Error(), "Row 3: ")
	assert.Equal(t, 2, res.Processed)

	var pe *PartialError
	require.ErrorAs(t, res.Err(), &pe)
	assert.Equal(t, 2, pe.Processed)
	assert.Contains(t, pe.Error(), "Rows processed: 2")

	lines, err := store.StockByBuilding(ctx, mustBuilding(t, store, "2").ID)
	require.NoError(t, err)
	require.Len(t, lines, 1, "rows after the failing one are still imported")
}

func TestImportRegistry_ErrorCeiling(t *testing.T) {
	im, _ := newImporter(t)

	rows := [][]any{selfTemplateHeader}
	for i := 0; i < 3; i++ {
		rows = append(rows, []any{"1", 5, "Математика", "Учебник", "", "", "isbn", 1, 1, 0})
	}
	for i := 0; i < 35; i++ {
		rows = append(rows, []any{"99", 5, "Математика", "Учебник", "", "", "isbn", 1, 1, 0})
	}
	rows = append(rows, []any{"1", 5, "Математика", "Учебник", "", "", "isbn", 1, 1, 0})

	res, err := im.ImportRegistry(context.Background(), sheettest.Workbook(t, rows...), "")
	require.NoError(t, err)

	assert.Len(t, res.Errors, 30)
	assert.Equal(t, 3, res.Processed, "only rows before the 30th error count")
	assert.True(t, res.Truncated)
	assert.Equal(t, 5, res.Errors[0].Row)
	assert.Equal(t, 34, res.Errors[29].Row)
}

func TestImportRegistry_StructuralFailures(t *testing.T) {
	im, store := newImporter(t)
	ctx := context.Background()

	t.Run("no header", func(t *testing.T) {
		buf := sheettest.Workbook(t, []any{"just", "some", "cells"})
		res, err := im.ImportRegistry(ctx, buf, "1")
		assert.Nil(t, res)
		var se *StructuralError
		require.ErrorAs(t, err, &se)
		assert.ErrorIs(t, err, sheet.ErrHeaderNotFound)
	})

	t.Run("unknown target building", func(t *testing.T) {
		buf := sheettest.Workbook(t,
			selfTemplateHeader,
			[]any{"1", 5, "Математика", "Учебник", "", "", "isbn", 1, 1, 0},
		)
		res, err := im.ImportRegistry(ctx, buf, "Корпус 42")
		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrUnknownBuilding)

		n, err := store.CountTitles(ctx)
		require.NoError(t, err)
		assert.Zero(t, n, "nothing is written on structural failure")
	})
}

// =============================================================================
// Registry: citywide export
// =============================================================================

func TestImportRegistry_CitywideSplitsYears(t *testing.T) {
	im, store := newImporter(t)
	ctx := context.Background()

	buf := sheettest.Workbook(t,
		[]any{"Выгрузка фонда"},
		nil,
		[]any{"Название", "Предмет", "Параллель", "Автор(-ы)", "Издательство", "Год издания", "№ ФПУ", "Общее кол-во экземпляров", "Кол-во свободных экземпляров"},
		[]any{"Алгебра", "Математика", "7 класс", "Макарычев", "Просвещение", "2019, 2020, 2021", "1.1.2.4.1", 10, 7},
		[]any{"", "Математика", "7"},
		[]any{"Геометрия", "Математика", "7", "Атанасян", "Просвещение", 2020, "1.1.2.4.2", 5, 5},
	)
	res, err := im.ImportRegistry(ctx, buf, "корпус 2")
	require.NoError(t, err)
	require.NoError(t, res.Err())
	assert.Equal(t, sheet.FormatCitywide, res.Format)
	assert.Equal(t, 2, res.HeaderRow)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 1, res.Skipped)

	n, err := store.CountTitles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	b := mustBuilding(t, store, "2")
	math := subjectID(t, store, "Математика")
	wantTotal := map[string][2]int{
		"1.1.2.4.1#2019": {4, 3},
		"1.1.2.4.1#2020": {3, 2},
		"1.1.2.4.1#2021": {3, 2},
		"1.1.2.4.2":      {5, 5},
	}
	for key, want := range wantTotal {
		bt := mustTitle(t, store, domain.TitleKey{Kind: domain.KeyExternal, Value: key, Grade: 7, SubjectID: math})
		st := mustStock(t, store, b.ID, bt.ID)
		assert.Equal(t, want[0], st.Total, key)
		assert.Equal(t, want[1], st.Available, key)
		assert.Equal(t, want[0]-want[1], st.InUse, key)
		assert.Equal(t, want[0], st.MeshTotal, key)
		assert.Equal(t, "Просвещение", bt.Publisher)
	}
}

// =============================================================================
// Legacy export
// =============================================================================

func TestImportLegacy(t *testing.T) {
	im, store := newImporter(t)
	ctx := context.Background()

	header := []any{"Параллель", "Наименование", "Предмет", "Издательство", "", "", "", "Кол-во"}
	first := sheettest.Workbook(t,
		[]any{"Отчёт СУФФ"},
		header,
		[]any{"5", "Математика. 5 класс", "Математика", "Просвещение", "", "", "", 12},
		[]any{"", "", "Математика"},
	)
	res, err := im.ImportLegacy(ctx, first, "1")
	require.NoError(t, err)
	require.NoError(t, res.Err())
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Skipped)

	second := sheettest.Workbook(t,
		header,
		[]any{"5 класс", "МАТЕМАТИКА. 5 КЛАСС", "математика", "Просвещение", "", "", "", 15},
	)
	_, err = im.ImportLegacy(ctx, second, "1")
	require.NoError(t, err)

	n, err := store.CountTitles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	bt := mustTitle(t, store, domain.TitleKey{Kind: domain.KeyTitle, Value: "математика. 5 класс", Grade: 5, SubjectID: subjectID(t, store, "Математика")})
	st := mustStock(t, store, mustBuilding(t, store, "1").ID, bt.ID)
	assert.Equal(t, 15, st.Total)
	assert.Equal(t, 15, st.Available)
	assert.Equal(t, 0, st.InUse)
	assert.Equal(t, 15, st.SuufTotal)
}

func TestImportLegacy_RequiresBuilding(t *testing.T) {
	im, _ := newImporter(t)
	buf := sheettest.Workbook(t, []any{"Параллель", "Наименование"})
	_, err := im.ImportLegacy(context.Background(), buf, "")
	assert.ErrorIs(t, err, ErrUnknownBuilding)
}

// =============================================================================
// Librarian stock
// =============================================================================

func TestImportLibrarianStock(t *testing.T) {
	im, store := newImporter(t)
	ctx := context.Background()

	buf := sheettest.Workbook(t,
		[]any{"Фонд корпуса"},
		[]any{"Subject", "Параллель", "Название", "Авторы", "Издательство", "Год издания", "ISBN", "Всего", "Свободно", "В использовании"},
		[]any{"Литература", 8, "Литература 8", "Коровина", "Просвещение", 2018, "978-8", 40, 50, -3},
		[]any{"", "", ""},
	)
	res, err := im.ImportLibrarianStock(ctx, buf, "сп1")
	require.NoError(t, err)
	require.NoError(t, res.Err())
	assert.Equal(t, 1, res.Processed)

	bt := mustTitle(t, store, domain.TitleKey{Kind: domain.KeyISBN, Value: "978-8", Grade: 8, SubjectID: subjectID(t, store, "литература")})
	assert.Equal(t, "Коровина", bt.Authors)

	st := mustStock(t, store, mustBuilding(t, store, "1").ID, bt.ID)
	assert.Equal(t, 40, st.Total)
	assert.Equal(t, 50, st.Available, "available above total is kept for the inventory diff")
	assert.Equal(t, 0, st.InUse, "negative quantities are clamped")
}

// =============================================================================
// Curriculum
// =============================================================================

func TestImportCurriculum(t *testing.T) {
	im, store := newImporter(t)
	ctx := context.Background()

	_, err := im.ImportRegistry(ctx, sheettest.Workbook(t,
		selfTemplateHeader,
		[]any{"1", 5, "Математика", "Математика 5", "", "", "978-1", 10, 10, 0},
	), "")
	require.NoError(t, err)

	buf := sheettest.Workbook(t,
		[]any{"grade", "subject", "isbn", "perStudent"},
		[]any{5, "математика", "978-1", 2},
		[]any{5, "Математика", "978-404", 1},
		[]any{6, "Математика", "978-1", ""},
	)
	res, err := im.ImportCurriculum(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	require.Len(t, res.Errors, 2)
	assert.ErrorIs(t, res.Errors[0], ErrBookNotFound)
	assert.Equal(t, 3, res.Errors[0].Row)
	assert.Contains(t, res.Errors[0].Error(), `isbn="978-404"`)
	assert.Equal(t, 4, res.Errors[1].Row, "isbn is scoped to grade")

	lines, err := store.CurriculumLines(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].PerStudent)
	assert.Equal(t, "Математика 5", lines[0].Title)
}

// =============================================================================
// Enrollment
// =============================================================================

func TestImportClasses_BothLayouts(t *testing.T) {
	im, store := newImporter(t)
	ctx := context.Background()

	buf := sheettest.Workbook(t,
		[]any{"Класс", "Учеников", "Корпус"},
		[]any{"10-А", 29, "сп1"},
		[]any{"5 б", 27, "Корпус 1"},
		[]any{"2", 5, "в", 25},
		[]any{"", "", ""},
		[]any{"1", 15, "а", 20},
	)
	res, err := im.ImportClasses(ctx, buf)
	require.NoError(t, err)
	require.Len(t, res.Errors, 1, "grade 15 is rejected")
	assert.Equal(t, 6, res.Errors[0].Row)
	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, 1, res.Skipped)

	groups, err := store.ClassGroups(ctx, mustBuilding(t, store, "1").ID)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, domain.ClassGroup{BuildingID: groups[0].BuildingID, Grade: 5, Letter: "Б", Students: 27}, groups[0])
	assert.Equal(t, 10, groups[1].Grade)
	assert.Equal(t, "А", groups[1].Letter)

	groups, err = store.ClassGroups(ctx, mustBuilding(t, store, "2").ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "В", groups[0].Letter)
}

func TestImportClasses_LogsChanges(t *testing.T) {
	im, store := newImporter(t)
	ctx := context.Background()

	header := []any{"buildingCode", "grade", "letter", "students"}
	_, err := im.ImportClasses(ctx, sheettest.Workbook(t, header, []any{"1", 3, "а", 20}))
	require.NoError(t, err)
	_, err = im.ImportClasses(ctx, sheettest.Workbook(t, header, []any{"1", 3, "А", 20}))
	require.NoError(t, err)
	_, err = im.ImportClasses(ctx, sheettest.Workbook(t, header, []any{"1", 3, "А", 22}))
	require.NoError(t, err)

	changes := store.EnrollmentChanges()
	require.Len(t, changes, 2, "unchanged headcount is not logged")
	assert.Nil(t, changes[0].OldStudents)
	require.NotNil(t, changes[1].OldStudents)
	assert.Equal(t, 20, *changes[1].OldStudents)
	assert.Equal(t, 22, changes[1].NewStudents)
	assert.Equal(t, domain.ScopeCurrent, changes[1].Scope)
}

func TestImportFutureClasses(t *testing.T) {
	im, store := newImporter(t)
	ctx := context.Background()

	buf := sheettest.Workbook(t,
		[]any{"buildingCode", "grade", "letter", "students"},
		[]any{"1", 1, "а", 30},
	)
	_, err := im.ImportFutureClasses(ctx, buf, 0)
	assert.ErrorIs(t, err, ErrAcademicYearRequired)

	res, err := im.ImportFutureClasses(ctx, buf, 2027)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)

	b := mustBuilding(t, store, "1")
	groups, err := store.FutureClassGroups(ctx, b.ID, 2027)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 30, groups[0].Students)

	other, err := store.FutureClassGroups(ctx, b.ID, 2028)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestParseClassName(t *testing.T) {
	tests := []struct {
		in         string
		wantGrade  int
		wantLetter string
		wantErr    bool
	}{
		{"10-А", 10, "А", false},
		{"10 – б", 10, "Б", false},
		{"7в", 7, "В", false},
		{" 11 a ", 11, "A", false},
		{"А", 0, "", true},
		{"x-y", 0, "", true},
	}
	for _, tt := range tests {
		grade, letter, err := ParseClassName(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.wantGrade, grade, tt.in)
		assert.Equal(t, tt.wantLetter, letter, tt.in)
	}
}
