package ledger

import (
	"testing"

	"savn/backend/internal/domain"
)

func TestSellSingleUnitUsesUnitPrice(t *testing.T) {
	s := newTestStore()
	p := createProduct(t, s, "Cola", 150, 80)
	s.RestockProductBulk(p.ID, 10, 800)

	s.SellProduct(p.ID)

	got := mustProduct(t, s, p.ID)
	if got.Qty != 9 {
		t.Fatalf("qty = %d, want 9", got.Qty)
	}
	if got.RevenueCents != 150 {
		t.Fatalf("revenue = %d, want 150", got.RevenueCents)
	}

	txs := s.TransactionsNewestFirst()
	if txs[0].Type != domain.TxTypeSale || txs[0].Quantity != 1 || txs[0].AmountCents != 150 {
		t.Fatalf("unexpected sale transaction: %+v", txs[0])
	}
}

func TestSellWithEmptyStockIsNoOp(t *testing.T) {
	s := newTestStore()
	p := createProduct(t, s, "Cola", 150, 80)

	s.SellProduct(p.ID)

	got := mustProduct(t, s, p.ID)
	if got.Qty != 0 || got.RevenueCents != 0 {
		t.Fatalf("empty-stock sale mutated state: %+v", got)
	}
	if len(s.TransactionsNewestFirst()) != 0 {
		t.Fatalf("empty-stock sale recorded a transaction")
	}
}

func TestBulkSellAccumulatesRevenue(t *testing.T) {
	s := newTestStore()
	p := createProduct(t, s, "Cola", 150, 80)
	s.RestockProductBulk(p.ID, 20, 1600)

	s.SellProductBulk(p.ID, 3, 450)
	s.SellProductBulk(p.ID, 2, 400)

	got := mustProduct(t, s, p.ID)
	if got.Qty != 15 {
		t.Fatalf("qty = %d, want 15", got.Qty)
	}
	if got.RevenueCents != 850 {
		t.Fatalf("revenue = %d, want 850", got.RevenueCents)
	}
}

func TestBulkSellOverStockIsNoOp(t *testing.T) {
	s := newTestStore()
	p := createProduct(t, s, "Cola", 150, 80)
	s.RestockProductBulk(p.ID, 2, 160)

	s.SellProductBulk(p.ID, 5, 750)

	got := mustProduct(t, s, p.ID)
	if got.Qty != 2 || got.RevenueCents != 0 {
		t.Fatalf("oversell mutated state: %+v", got)
	}
}

func TestBulkSellRejectsNonPositiveInput(t *testing.T) {
	s := newTestStore()
	p := createProduct(t, s, "Cola", 150, 80)
	s.RestockProductBulk(p.ID, 5, 400)

	s.SellProductBulk(p.ID, 0, 100)
	s.SellProductBulk(p.ID, -2, 100)
	s.SellProductBulk(p.ID, 1, -50)

	got := mustProduct(t, s, p.ID)
	if got.Qty != 5 || got.RevenueCents != 0 {
		t.Fatalf("invalid bulk sell mutated state: %+v", got)
	}
}

func TestRestockTracksExpenses(t *testing.T) {
	s := newTestStore()
	p := createProduct(t, s, "Cola", 150, 80)

	s.RestockProduct(p.ID)
	s.RestockProductBulk(p.ID, 9, 700)

	got := mustProduct(t, s, p.ID)
	if got.Qty != 10 {
		t.Fatalf("qty = %d, want 10", got.Qty)
	}
	if got.ExpensesCents != 780 {
		t.Fatalf("expenses = %d, want 780", got.ExpensesCents)
	}
}

func TestRestockThenUndoReturnsToPriorState(t *testing.T) {
	s := newTestStore()
	p := createProduct(t, s, "Cola", 150, 80)
	s.RestockProductBulk(p.ID, 5, 400)

	s.RestockProductBulk(p.ID, 10, 800)
	s.Undo()

	got := mustProduct(t, s, p.ID)
	if got.Qty != 5 || got.ExpensesCents != 400 {
		t.Fatalf("undo after restock: %+v", got)
	}
	if len(s.TransactionsNewestFirst()) != 1 {
		t.Fatalf("undo did not drop the restock transaction")
	}
}

func TestSetInventoryRecordsAdjustmentOnlyOnChange(t *testing.T) {
	s := newTestStore()
	p := createProduct(t, s, "Cola", 150, 80)
	s.RestockProductBulk(p.ID, 8, 640)

	s.SetProductInventory(p.ID, 8)
	if got := len(s.TransactionsNewestFirst()); got != 1 {
		t.Fatalf("same-quantity inventory set recorded a transaction (%d total)", got)
	}

	s.SetProductInventory(p.ID, 3)
	got := mustProduct(t, s, p.ID)
	if got.Qty != 3 {
		t.Fatalf("qty = %d, want 3", got.Qty)
	}
	txs := s.TransactionsNewestFirst()
	if txs[0].Type != domain.TxTypeAdjustment || txs[0].Quantity != 5 || txs[0].AmountCents != 0 {
		t.Fatalf("unexpected adjustment transaction: %+v", txs[0])
	}
	// Counts never touch the money totals.
	if got.RevenueCents != 0 || got.ExpensesCents != 640 {
		t.Fatalf("inventory set moved totals: %+v", got)
	}
}

func TestSetInventoryClampsNegativeToZero(t *testing.T) {
	s := newTestStore()
	p := createProduct(t, s, "Cola", 150, 80)
	s.RestockProductBulk(p.ID, 4, 320)

	s.SetProductInventory(p.ID, -7)

	if got := mustProduct(t, s, p.ID); got.Qty != 0 {
		t.Fatalf("qty = %d, want 0", got.Qty)
	}
}

func TestWasteClampsToAvailableStock(t *testing.T) {
	s := newTestStore()
	p := createProduct(t, s, "Cola", 150, 80)
	s.RestockProductBulk(p.ID, 3, 240)

	s.WasteProductBulk(p.ID, 10)

	got := mustProduct(t, s, p.ID)
	if got.Qty != 0 {
		t.Fatalf("qty = %d, want 0", got.Qty)
	}
	txs := s.TransactionsNewestFirst()
	if txs[0].Type != domain.TxTypeAdjustment || txs[0].Quantity != 3 {
		t.Fatalf("waste should log the removed amount: %+v", txs[0])
	}
	if got.RevenueCents != 0 || got.ExpensesCents != 240 {
		t.Fatalf("waste moved money totals: %+v", got)
	}
}

func TestWasteWithZeroStockRecordsNothing(t *testing.T) {
	s := newTestStore()
	p := createProduct(t, s, "Cola", 150, 80)

	s.WasteProduct(p.ID)

	if got := len(s.TransactionsNewestFirst()); got != 0 {
		t.Fatalf("zero-stock waste recorded %d transactions", got)
	}
}

func TestUpdateProductLeavesTotalsAndHistoryAlone(t *testing.T) {
	s := newTestStore()
	p := createProduct(t, s, "Cola", 150, 80)
	s.RestockProductBulk(p.ID, 5, 400)
	s.SellProduct(p.ID)

	name := "Cola Zero"
	price := int64(175)
	s.UpdateProduct(p.ID, domain.ProductUpdateRequest{Name: &name, PriceCents: &price})

	got := mustProduct(t, s, p.ID)
	if got.Name != "Cola Zero" || got.PriceCents != 175 {
		t.Fatalf("update not applied: %+v", got)
	}
	if got.Qty != 4 || got.RevenueCents != 150 || got.ExpensesCents != 400 {
		t.Fatalf("update touched totals: %+v", got)
	}
	// Recorded transactions keep the name they were written with.
	txs := s.TransactionsNewestFirst()
	if txs[0].ProductName != "Cola" {
		t.Fatalf("history rewritten on rename: %+v", txs[0])
	}
}

func TestArchiveIsIdempotentAndKeepsHistory(t *testing.T) {
	s := newTestStore()
	p := createProduct(t, s, "Cola", 150, 80)
	s.RestockProductBulk(p.ID, 5, 400)
	s.SellProduct(p.ID)
	txCount := len(s.TransactionsNewestFirst())

	s.RemoveProduct(p.ID)
	s.RemoveProduct(p.ID)

	got := mustProduct(t, s, p.ID)
	if !got.Archived || got.Active {
		t.Fatalf("archive flags wrong: %+v", got)
	}
	if len(s.TransactionsNewestFirst()) != txCount {
		t.Fatalf("archive changed the transaction log")
	}
}
