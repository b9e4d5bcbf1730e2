package ledger

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"savn/backend/internal/domain"
)

// fixedNow is a Wednesday, so the Monday-based week starts two days earlier.
var fixedNow = time.Date(2026, 6, 17, 12, 0, 0, 0, time.UTC)

func newAnalyticsFixture() *Store {
	products := []domain.Product{
		{ID: "p1", Name: "Cola", Qty: 3, PriceCents: 150, CostCents: 80, RevenueCents: 750, ExpensesCents: 800, Active: true},
		{ID: "p2", Name: "Water", Qty: 10, PriceCents: 100, CostCents: 40, RevenueCents: 250, Active: true},
		{ID: "p3", Name: "Retired", Qty: 50, PriceCents: 500, CostCents: 300, Archived: true},
	}
	transactions := []domain.Transaction{
		{ID: "t1", ProductID: "p1", ProductName: "Cola", Type: domain.TxTypeSale, Quantity: 1, AmountCents: 100, Timestamp: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)},
		{ID: "t2", ProductID: "p1", ProductName: "Cola", Type: domain.TxTypeSale, Quantity: 3, AmountCents: 450, Timestamp: time.Date(2026, 6, 5, 9, 0, 0, 0, time.UTC)},
		{ID: "t3", ProductID: "p2", ProductName: "Water", Type: domain.TxTypeSale, Quantity: 1, AmountCents: 150, Timestamp: time.Date(2026, 6, 16, 9, 0, 0, 0, time.UTC)},
		{ID: "t4", ProductID: "p1", ProductName: "Cola", Type: domain.TxTypeSale, Quantity: 2, AmountCents: 300, Timestamp: time.Date(2026, 6, 17, 10, 0, 0, 0, time.UTC)},
		{ID: "t5", ProductID: "p1", ProductName: "Cola", Type: domain.TxTypeRestock, Quantity: 10, AmountCents: 800, Timestamp: time.Date(2026, 6, 17, 9, 0, 0, 0, time.UTC)},
	}
	return NewFromState(zerolog.Nop(), products, transactions)
}

func periodByLabel(t *testing.T, report domain.AnalyticsReport, label string) domain.PeriodSummary {
	t.Helper()
	for _, p := range report.Periods {
		if p.Label == label {
			return p
		}
	}
	t.Fatalf("period %q missing from report", label)
	return domain.PeriodSummary{}
}

func TestAnalyticsPeriodSummaries(t *testing.T) {
	s := newAnalyticsFixture()
	report := s.Analytics(fixedNow, 5)

	today := periodByLabel(t, report, "today")
	if today.RevenueCents != 300 || today.SalesCount != 1 || today.RestockSpendCents != 800 {
		t.Fatalf("today summary wrong: %+v", today)
	}
	if today.NetCents != -500 {
		t.Fatalf("today net = %d, want -500", today.NetCents)
	}

	week := periodByLabel(t, report, "this_week")
	if week.RevenueCents != 450 || week.SalesCount != 2 {
		t.Fatalf("week summary wrong: %+v", week)
	}

	month := periodByLabel(t, report, "this_month")
	if month.RevenueCents != 900 || month.SalesCount != 3 {
		t.Fatalf("month summary wrong: %+v", month)
	}

	year := periodByLabel(t, report, "this_year")
	if year.RevenueCents != 1000 || year.SalesCount != 4 {
		t.Fatalf("year summary wrong: %+v", year)
	}
}

func TestAnalyticsTotalsAndMargin(t *testing.T) {
	s := newAnalyticsFixture()
	report := s.Analytics(fixedNow, 5)

	if report.TotalRevenueCents != 1000 {
		t.Fatalf("total revenue = %d, want 1000", report.TotalRevenueCents)
	}
	if report.TotalExpensesCents != 800 {
		t.Fatalf("total expenses = %d, want 800", report.TotalExpensesCents)
	}
	if report.GrossProfitCents != 200 {
		t.Fatalf("gross profit = %d, want 200", report.GrossProfitCents)
	}
	if report.GrossMarginPercent != 20 {
		t.Fatalf("gross margin = %.2f, want 20", report.GrossMarginPercent)
	}
}

func TestAnalyticsTopProducts(t *testing.T) {
	s := newAnalyticsFixture()
	report := s.Analytics(fixedNow, 5)

	if report.TopRevenueProduct == nil || report.TopRevenueProduct.ProductID != "p1" {
		t.Fatalf("top revenue product wrong: %+v", report.TopRevenueProduct)
	}
	if report.TopRevenueProduct.RevenueCents != 850 || report.TopRevenueProduct.Units != 6 {
		t.Fatalf("top revenue standing wrong: %+v", report.TopRevenueProduct)
	}
	if report.TopVolumeProduct == nil || report.TopVolumeProduct.ProductID != "p1" {
		t.Fatalf("top volume product wrong: %+v", report.TopVolumeProduct)
	}
}

func TestAnalyticsStockOutlookSkipsArchived(t *testing.T) {
	s := newAnalyticsFixture()
	report := s.Analytics(fixedNow, 5)

	if len(report.LowStock) != 1 || report.LowStock[0].ProductID != "p1" {
		t.Fatalf("low stock wrong: %+v", report.LowStock)
	}
	if report.InventoryValueCents != 3*80+10*40 {
		t.Fatalf("inventory value = %d", report.InventoryValueCents)
	}
	if report.PotentialRevenueCents != 3*150+10*100 {
		t.Fatalf("potential revenue = %d", report.PotentialRevenueCents)
	}
}

func TestAnalyticsEmptyEngine(t *testing.T) {
	s := newTestStore()
	report := s.Analytics(fixedNow, 5)

	if report.TotalRevenueCents != 0 || report.GrossMarginPercent != 0 {
		t.Fatalf("empty report has totals: %+v", report)
	}
	if report.TopRevenueProduct != nil || report.TopVolumeProduct != nil {
		t.Fatalf("empty report has top products")
	}
	if len(report.Periods) != 4 {
		t.Fatalf("expected 4 period summaries, got %d", len(report.Periods))
	}
}
