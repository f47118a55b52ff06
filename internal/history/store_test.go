package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := Record{
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		TxDate:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Store:     "Tesco",
		Amount:    decimal.RequireFromString("-12.50"),
		Account:   "Checking",
		Payee:     "Receipts Bot",
		LedgerID:  "tx-1",
	}
	second := Record{
		CreatedAt: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		TxDate:    time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Store:     "Café Nero",
		Amount:    decimal.RequireFromString("-3.20"),
		Account:   "Checking",
		Payee:     "Receipts Bot",
	}
	require.NoError(t, s.Record(ctx, first))
	require.NoError(t, s.Record(ctx, second))

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Tesco", got[0].Store)
	assert.Equal(t, "tx-1", got[0].LedgerID)
	assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("-12.5")))
	assert.Equal(t, first.CreatedAt, got[0].CreatedAt)
	assert.Equal(t, "2026-03-01", got[0].TxDate.Format("2006-01-02"))

	assert.Equal(t, "Café Nero", got[1].Store)
	assert.NotEmpty(t, got[1].ID, "blank id should be filled in")
	assert.Empty(t, got[1].LedgerID)
}

func TestRecordDefaults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	require.NoError(t, s.Record(ctx, Record{
		TxDate:  time.Now(),
		Store:   "Boots",
		Amount:  decimal.RequireFromString("-1.99"),
		Account: "Checking",
		Payee:   "Receipts Bot",
	}))

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].CreatedAt.Before(before), "created_at should default to now")
}

func TestListEmpty(t *testing.T) {
	s := openTestStore(t)
	got, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecordDuplicateID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := Record{
		ID:      "fixed",
		TxDate:  time.Now(),
		Store:   "Aldi",
		Amount:  decimal.RequireFromString("-5.00"),
		Account: "Checking",
		Payee:   "Receipts Bot",
	}
	require.NoError(t, s.Record(ctx, rec))
	assert.Error(t, s.Record(ctx, rec), "primary key collision should surface")
}
