package admin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/bookfund/internal/store/memstore"
)

func TestSeed_Idempotent(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	for range 2 {
		report, err := Seed(ctx, store)
		require.NoError(t, err)
		assert.Equal(t, SeedReport{Buildings: 9, Subjects: 5}, report)
	}

	buildings, err := store.ListBuildings(ctx)
	require.NoError(t, err)
	require.Len(t, buildings, 9)

	central, ok, err := store.BuildingByCode(ctx, "0")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Центральный фонд", central.Name)

	eighth, ok, err := store.BuildingByCode(ctx, "8")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Корпус 8", eighth.Name)

	subjects, err := store.ListSubjects(ctx)
	require.NoError(t, err)
	assert.Len(t, subjects, len(BaseSubjects))
}
