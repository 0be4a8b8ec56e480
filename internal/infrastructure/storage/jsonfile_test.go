package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bookkeep/backend/internal/domain/ledger"
	"github.com/bookkeep/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSnapshot(t *testing.T) ledger.Snapshot {
	t.Helper()

	inv, err := ledger.NewInvoice(ledger.InvoiceDraft{
		ClientName: "Acme Corp",
		IssueDate:  valueobject.NewDate(2024, time.March, 1),
		DueDate:    valueobject.NewDate(2024, time.March, 31),
		Items: []ledger.LineItemDraft{
			{Description: "Consulting", Category: "Services", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("10.00")},
			{Description: "Support", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("5.00")},
		},
	})
	require.NoError(t, err)
	require.NoError(t, inv.TransitionTo(ledger.InvoiceStatusSent))

	exp, err := ledger.NewExpense(ledger.ExpenseDraft{
		Date:        valueobject.NewDate(2024, time.March, 14),
		Category:    "Office",
		Amount:      decimal.RequireFromString("75.50"),
		Description: "Printer paper",
	})
	require.NoError(t, err)

	return ledger.Snapshot{
		Invoices: []ledger.Invoice{*inv},
		Expenses: []ledger.Expense{*exp},
	}
}

// assertSnapshotEqual compares snapshots field by field so decimal
// values compare by numeric value, not internal representation.
func assertSnapshotEqual(t *testing.T, want, got ledger.Snapshot) {
	t.Helper()

	require.Len(t, got.Invoices, len(want.Invoices))
	for i := range want.Invoices {
		w, g := want.Invoices[i], got.Invoices[i]
		assert.Equal(t, w.ID, g.ID)
		assert.Equal(t, w.ClientName, g.ClientName)
		assert.True(t, w.IssueDate.Equal(g.IssueDate))
		assert.True(t, w.DueDate.Equal(g.DueDate))
		assert.Equal(t, w.Status, g.Status)
		assert.True(t, w.Total.Equal(g.Total), "total %s vs %s", w.Total, g.Total)
		require.Len(t, g.Items, len(w.Items))
		for j := range w.Items {
			wi, gi := w.Items[j], g.Items[j]
			assert.Equal(t, wi.ID, gi.ID)
			assert.Equal(t, wi.Description, gi.Description)
			assert.Equal(t, wi.Category, gi.Category)
			assert.True(t, wi.Quantity.Equal(gi.Quantity))
			assert.True(t, wi.UnitPrice.Equal(gi.UnitPrice))
			assert.True(t, wi.Subtotal.Equal(gi.Subtotal))
		}
	}

	require.Len(t, got.Expenses, len(want.Expenses))
	for i := range want.Expenses {
		w, g := want.Expenses[i], got.Expenses[i]
		assert.Equal(t, w.ID, g.ID)
		assert.True(t, w.Date.Equal(g.Date))
		assert.Equal(t, w.Category, g.Category)
		assert.True(t, w.Amount.Equal(g.Amount))
		assert.Equal(t, w.Description, g.Description)
	}
}

func TestJSONFileStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file loads empty", func(t *testing.T) {
		store := NewJSONFileStorage(filepath.Join(t.TempDir(), "ledger.json"), zap.NewNop())

		snap, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, snap.Invoices)
		assert.Empty(t, snap.Expenses)
	})

	t.Run("save then load round trips", func(t *testing.T) {
		store := NewJSONFileStorage(filepath.Join(t.TempDir(), "ledger.json"), zap.NewNop())
		want := testSnapshot(t)

		require.NoError(t, store.Save(ctx, want))
		got, err := store.Load(ctx)
		require.NoError(t, err)
		assertSnapshotEqual(t, want, got)
	})

	t.Run("save overwrites previous contents", func(t *testing.T) {
		store := NewJSONFileStorage(filepath.Join(t.TempDir(), "ledger.json"), zap.NewNop())

		require.NoError(t, store.Save(ctx, testSnapshot(t)))
		require.NoError(t, store.Save(ctx, ledger.Snapshot{}))

		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, got.Invoices)
		assert.Empty(t, got.Expenses)
	})
}
