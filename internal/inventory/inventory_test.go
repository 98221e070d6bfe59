package inventory

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/bookfund/internal/domain"
	"github.com/JonMunkholm/bookfund/internal/schema"
	"github.com/JonMunkholm/bookfund/internal/sheet/sheettest"
	"github.com/JonMunkholm/bookfund/internal/store/memstore"
)

func seed(t *testing.T, st domain.Stock) (*memstore.Store, domain.Building, domain.BookTitle) {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	b, err := store.UpsertBuilding(ctx, domain.Building{Code: "3", Name: "Корпус 3"})
	require.NoError(t, err)
	subj, err := store.FindOrCreateSubject(ctx, "Литература")
	require.NoError(t, err)
	bt, err := store.UpsertTitle(ctx,
		domain.TitleKey{Kind: domain.KeyISBN, Value: "978-7", Grade: 7, SubjectID: subj.ID},
		domain.BookTitle{Title: "Литература 7"})
	require.NoError(t, err)

	st.BuildingID, st.TitleID = b.ID, bt.ID
	require.NoError(t, store.SaveStock(ctx, st))
	return store, b, bt
}

// =============================================================================
// Report
// =============================================================================

func TestReport(t *testing.T) {
	tests := []struct {
		name     string
		stock    domain.Stock
		wantExp  int
		wantDiff int
		wantOver bool
	}{
		{"balanced", domain.Stock{Total: 30, Available: 10, IssuedToStudents: 15, InCabinets: 5}, 30, 0, false},
		{"missing copies", domain.Stock{Total: 30, Available: 10, IssuedToStudents: 12}, 22, 8, false},
		{"surplus", domain.Stock{Total: 10, Available: 8, InCabinets: 4}, 12, -2, false},
		{"over available", domain.Stock{Total: 5, Available: 9}, 9, -4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, b, _ := seed(t, tt.stock)
			rows, err := New(store).Report(context.Background(), b.ID)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, tt.wantExp, rows[0].Expected)
			assert.Equal(t, tt.wantDiff, rows[0].Diff)
			assert.Equal(t, tt.wantOver, rows[0].OverAvailable)
			assert.Equal(t, "Литература", rows[0].Subject)
			assert.Equal(t, 7, rows[0].Grade)
		})
	}
}

// =============================================================================
// WriteOff
// =============================================================================

func TestWriteOff(t *testing.T) {
	store, b, bt := seed(t, domain.Stock{Total: 10, Available: 4, InUse: 6})
	svc := New(store)
	ctx := context.Background()

	st, err := svc.WriteOff(ctx, WriteOffRequest{BuildingID: b.ID, TitleID: bt.ID, Count: 3, Reason: "износ"})
	require.NoError(t, err)
	assert.Equal(t, 1, st.Available)
	assert.Equal(t, 7, st.Total)

	offs := store.WriteOffs()
	require.Len(t, offs, 1)
	assert.Equal(t, "износ", offs[0].Reason)

	_, err = svc.WriteOff(ctx, WriteOffRequest{BuildingID: b.ID, TitleID: bt.ID, Count: 2})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = svc.WriteOff(ctx, WriteOffRequest{BuildingID: b.ID, TitleID: bt.ID + 100, Count: 1})
	assert.ErrorIs(t, err, domain.ErrNoStock)

	_, err = svc.WriteOff(ctx, WriteOffRequest{BuildingID: b.ID, TitleID: bt.ID, Count: 0})
	assert.ErrorIs(t, err, ErrInvalidCount)

	assert.Len(t, store.WriteOffs(), 1, "failed write-offs are not recorded")

	moves := store.Movements()
	require.Len(t, moves, 1, "one adjustment per applied write-off")
	assert.Equal(t, domain.MovementAdjustment, moves[0].Type)
	assert.Equal(t, b.ID, moves[0].FromBuildingID)
	assert.Nil(t, moves[0].ToBuildingID)
	assert.Equal(t, bt.ID, moves[0].TitleID)
	assert.Equal(t, 3, moves[0].Count)
	assert.Equal(t, "Списание: износ", moves[0].Note)
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, []Row{
		{Grade: 7, Subject: "Литература", Title: "Литература 7", Total: 30, Available: 10, Expected: 22, Diff: 8},
	}))

	rows := sheettest.Rows(t, buf.Bytes(), schema.InventorySheet)
	require.Len(t, rows, 2)
	assert.Equal(t, schema.InventoryHeaders, rows[0])
	assert.Equal(t, "8", rows[1][8])
}
