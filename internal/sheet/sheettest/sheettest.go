// Package sheettest builds in-memory workbooks for tests.
package sheettest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// Workbook writes rows into the first sheet starting at A1 and returns the
// encoded xlsx. Use "" for empty cells.
func Workbook(tb testing.TB, rows ...[]any) *bytes.Buffer {
	tb.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(tb, err)
		values := row
		require.NoError(tb, f.SetSheetRow("Sheet1", cell, &values))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(tb, err)
	return buf
}

// Rows reads every row of the named sheet from an xlsx payload.
func Rows(tb testing.TB, data []byte, sheet string) [][]string {
	tb.Helper()

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(tb, err)
	defer f.Close()

	rows, err := f.GetRows(sheet)
	require.NoError(tb, err)
	return rows
}

// SheetNames lists the sheets of an xlsx payload in order.
func SheetNames(tb testing.TB, data []byte) []string {
	tb.Helper()

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(tb, err)
	defer f.Close()
	return f.GetSheetList()
}

// Blank returns n empty rows, used to push content further down a sheet.
func Blank(n int) [][]any {
	return make([][]any, n)
}
