package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/bookfund/internal/domain"
)

// =============================================================================
// Title approval
// =============================================================================

func TestSetTitleApproval(t *testing.T) {
	s := New()
	ctx := context.Background()
	key := domain.TitleKey{Kind: domain.KeyISBN, Value: "978-5-09-000000-1", Grade: 5}

	bt, err := s.UpsertTitle(ctx, key, domain.BookTitle{ISBN: key.Value, Title: "Математика 5", Grade: 5})
	require.NoError(t, err)
	assert.False(t, bt.ApprovedByOrder)

	got, found, err := s.SetTitleApproval(ctx, bt.ID, true)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got.ApprovedByOrder)

	_, err = s.UpsertTitle(ctx, key, domain.BookTitle{ISBN: key.Value, Title: "Математика. 5 класс", Grade: 5})
	require.NoError(t, err)
	stored, ok, err := s.TitleByID(ctx, bt.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, stored.ApprovedByOrder, "re-import keeps approval")
	assert.Equal(t, "Математика. 5 класс", stored.Title)

	got, found, err = s.SetTitleApproval(ctx, bt.ID, false)
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, got.ApprovedByOrder)

	_, found, err = s.SetTitleApproval(ctx, bt.ID+100, true)
	require.NoError(t, err)
	assert.False(t, found)
}
