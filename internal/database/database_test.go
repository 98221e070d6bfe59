package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/bookfund/internal/domain"
)

func TestName(t *testing.T) {
	assert.Equal(t, "bookfund", Name("postgres://user:pw@localhost:5432/bookfund?sslmode=disable"))
	assert.Equal(t, "", Name("postgres://localhost"))
	assert.Equal(t, "", Name("://bad"))
}

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		data, err := fs.ReadFile(migrations, f)
		require.NoError(t, err)
		sql := string(data)
		assert.True(t, strings.HasPrefix(sql, "-- +goose Up"), f)
		assert.Contains(t, sql, "-- +goose Down", f)
	}
}

func TestKeyPredicate(t *testing.T) {
	tests := []struct {
		kind domain.KeyKind
		want string
	}{
		{domain.KeyISBN, "isbn = $3"},
		{domain.KeyExternal, "external_key = $3"},
		{domain.KeyTitle, "lower(title) = lower($3)"},
	}
	for _, tt := range tests {
		got, err := keyPredicate(tt.kind)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := keyPredicate(domain.KeyKind(42))
	assert.Error(t, err)
}

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	require.NotNil(t, nullIfEmpty("x"))
	assert.Equal(t, "x", *nullIfEmpty("x"))
}

// =============================================================================
// Statement shape
// =============================================================================

func TestApplyWriteOff_RecordsMovement(t *testing.T) {
	assert.Contains(t, applyWriteOff, "INSERT INTO write_offs")
	assert.Contains(t, applyWriteOff, "INSERT INTO stock_movements")
	assert.Contains(t, applyWriteOff, "available >= $3")
}

func TestSetTitleApproval_Statement(t *testing.T) {
	assert.Contains(t, setTitleApproval, "SET approved_by_order = $2")
	assert.Contains(t, setTitleApproval, "WHERE id = $1")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(setTitleApproval), titleColumns))
}

func TestMovementMigration(t *testing.T) {
	data, err := fs.ReadFile(migrations, "migrations/00002_stock_movements.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data), "CREATE TABLE stock_movements")
	assert.Contains(t, string(data), "DROP TABLE stock_movements")
}
