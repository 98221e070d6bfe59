package sheet_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/bookfund/internal/sheet"
	"github.com/JonMunkholm/bookfund/internal/sheet/sheettest"
)

// =============================================================================
// Cell normalization
// =============================================================================

func TestOpen_NormalizesCellTypes(t *testing.T) {
	buf := sheettest.Workbook(t,
		[]any{"  Алгебра ", 45, 12.5, true, false, "007"},
	)

	s, err := sheet.Open(buf)
	require.NoError(t, err)

	row := s.Row(0)
	assert.Equal(t, "Алгебра", row.Cell(0))
	assert.Equal(t, "45", row.Cell(1))
	assert.Equal(t, "12.5", row.Cell(2))
	assert.Equal(t, "true", row.Cell(3))
	assert.Equal(t, "false", row.Cell(4))
	assert.Equal(t, "007", row.Cell(5), "numeric-looking text keeps its digits")
	assert.Equal(t, "", row.Cell(42))
}

func TestOpen_Unreadable(t *testing.T) {
	_, err := sheet.Open(bytes.NewBufferString("definitely not a zip archive"))
	require.Error(t, err)
	assert.ErrorIs(t, err, sheet.ErrUnreadable)
}

func TestRow_Blank(t *testing.T) {
	row := sheet.NewRow(4, "", "x", "")
	assert.False(t, row.Blank())
	assert.True(t, row.Blank(0, 2))
	assert.False(t, row.Blank(0, 1))
	assert.True(t, sheet.NewRow(0).Blank())
	assert.Equal(t, 5, row.Number())
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain ", "plain"},
		{"=\"978-5\"", "978-5"},
		{" nbsp ", "nbsp"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sheet.CleanCell(tt.in), "CleanCell(%q)", tt.in)
	}
}

// =============================================================================
// Number parsing
// =============================================================================

func TestParseInt(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{"blank is zero", "  ", 0, false},
		{"integer", "42", 42, false},
		{"decimal comma truncates", "12,9", 12, false},
		{"decimal point truncates", "7.99", 7, false},
		{"negative truncates toward zero", "-3.7", -3, false},
		{"thousands space", "1 200", 1200, false},
		{"garbage", "много", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sheet.ParseInt(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := sheet.ParseInt("много")
	assert.EqualError(t, err, `invalid number "много"`)
}

func TestParseNullableInt(t *testing.T) {
	got, err := sheet.ParseNullableInt("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = sheet.ParseNullableInt("2020")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2020, *got)
}

func TestParseGrade(t *testing.T) {
	assert.Equal(t, 5, sheet.ParseGrade("5 класс"))
	assert.Equal(t, 10, sheet.ParseGrade("10-11"))
	assert.Equal(t, 7, sheet.ParseGrade("7"))
	assert.Equal(t, 0, sheet.ParseGrade("нет"))
}

// =============================================================================
// Header detection
// =============================================================================

func TestDetect_CitywideAnyColumnOrder(t *testing.T) {
	header := make([]string, 10)
	header[5] = "Название"
	header[1] = "Предмет"
	header[9] = "Параллель"
	s := sheet.FromRows("Sheet1", [][]string{
		{"Выгрузка"},
		{},
		{"Школа 1"},
		header,
		{"", "Математика", "", "", "", "Алгебра", "", "", "", "7"},
	})

	h, err := sheet.Detect(s, 0, sheet.FormatSelfTemplate, sheet.FormatCitywide)
	require.NoError(t, err)
	assert.Equal(t, 3, h.Row)
	assert.Equal(t, sheet.FormatCitywide, h.Format)
	assert.Equal(t, 5, h.Index.Column("название"))
	assert.Equal(t, 4, h.FirstDataRow())
}

func TestDetect_Formats(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]string
		formats []sheet.Format
		want    sheet.Format
		wantRow int
	}{
		{
			name:    "self template english",
			rows:    [][]string{{"buildingCode", "grade", "subject"}},
			formats: []sheet.Format{sheet.FormatSelfTemplate, sheet.FormatCitywide},
			want:    sheet.FormatSelfTemplate,
		},
		{
			name:    "self template russian",
			rows:    [][]string{{"Реестр"}, {"Код корпуса (0-8)", "Параллель"}},
			formats: []sheet.Format{sheet.FormatSelfTemplate, sheet.FormatCitywide},
			want:    sheet.FormatSelfTemplate,
			wantRow: 1,
		},
		{
			name:    "librarian stock mixed languages",
			rows:    [][]string{{"Subject", "Параллель", "Название"}},
			formats: []sheet.Format{sheet.FormatLibrarianStock},
			want:    sheet.FormatLibrarianStock,
		},
		{
			name:    "legacy",
			rows:    [][]string{{"СУФФ"}, {"Параллель", "Наименование", "Предмет"}},
			formats: []sheet.Format{sheet.FormatLegacy},
			want:    sheet.FormatLegacy,
			wantRow: 1,
		},
		{
			name:    "first matching format wins within a row",
			rows:    [][]string{{"Предмет", "Название", "Параллель"}},
			formats: []sheet.Format{sheet.FormatLibrarianStock, sheet.FormatCitywide},
			want:    sheet.FormatLibrarianStock,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := sheet.Detect(sheet.FromRows("s", tt.rows), 0, tt.formats...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.Format)
			assert.Equal(t, tt.wantRow, h.Row)
		})
	}
}

func TestDetect_NotFound(t *testing.T) {
	s := sheet.FromRows("s", [][]string{{"a", "b"}, {"c", "d"}})
	_, err := sheet.Detect(s, 0, sheet.FormatCitywide)
	require.Error(t, err)
	assert.ErrorIs(t, err, sheet.ErrHeaderNotFound)
}

func TestDetect_ScanWindow(t *testing.T) {
	rows := make([][]string, 52)
	rows[51] = []string{"Название", "Предмет", "Параллель"}
	_, err := sheet.Detect(sheet.FromRows("s", rows), 50, sheet.FormatCitywide)
	assert.ErrorIs(t, err, sheet.ErrHeaderNotFound)

	rows[51], rows[50] = nil, []string{"Название", "Предмет", "Параллель"}
	h, err := sheet.Detect(sheet.FromRows("s", rows), 50, sheet.FormatCitywide)
	require.NoError(t, err)
	assert.Equal(t, 50, h.Row)
}
