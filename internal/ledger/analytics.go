package ledger

import (
	"time"

	"savn/backend/internal/domain"
)

// Analytics derives the revenue/expense/profit report from the current
// collections: fixed period summaries, all-time totals, top products, and a
// stock outlook over the active catalog.
func (s *Store) Analytics(now time.Time, lowStockThreshold int) domain.AnalyticsReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now = now.UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	startOfWeek := startOfDay.AddDate(0, 0, -weekdayOffset(startOfDay.Weekday()))
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	startOfYear := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)

	report := domain.AnalyticsReport{
		GeneratedAt: now.Format(time.RFC3339),
		Periods: []domain.PeriodSummary{
			s.summarizePeriodLocked("today", startOfDay, now),
			s.summarizePeriodLocked("this_week", startOfWeek, now),
			s.summarizePeriodLocked("this_month", startOfMonth, now),
			s.summarizePeriodLocked("this_year", startOfYear, now),
		},
	}

	standings := make(map[string]*domain.ProductStanding)
	for _, tx := range s.transactions {
		switch tx.Type {
		case domain.TxTypeSale:
			report.TotalRevenueCents += tx.AmountCents
			st, ok := standings[tx.ProductID]
			if !ok {
				st = &domain.ProductStanding{ProductID: tx.ProductID, Name: tx.ProductName}
				standings[tx.ProductID] = st
			}
			st.RevenueCents += tx.AmountCents
			st.Units += tx.Quantity
		case domain.TxTypeRestock:
			report.TotalExpensesCents += tx.AmountCents
		}
	}
	report.GrossProfitCents = report.TotalRevenueCents - report.TotalExpensesCents
	if report.TotalRevenueCents > 0 {
		report.GrossMarginPercent = float64(report.GrossProfitCents) / float64(report.TotalRevenueCents) * 100
	}

	for _, st := range standings {
		if report.TopRevenueProduct == nil || st.RevenueCents > report.TopRevenueProduct.RevenueCents {
			copied := *st
			report.TopRevenueProduct = &copied
		}
		if report.TopVolumeProduct == nil || st.Units > report.TopVolumeProduct.Units {
			copied := *st
			report.TopVolumeProduct = &copied
		}
	}

	report.LowStock = make([]domain.LowStockItem, 0, 4)
	for _, p := range s.products {
		if !p.Active || p.Archived {
			continue
		}
		if p.Qty <= lowStockThreshold {
			report.LowStock = append(report.LowStock, domain.LowStockItem{ProductID: p.ID, Name: p.Name, Qty: p.Qty})
		}
		report.InventoryValueCents += int64(p.Qty) * p.CostCents
		report.PotentialRevenueCents += int64(p.Qty) * p.PriceCents
	}

	return report
}

func (s *Store) summarizePeriodLocked(label string, from, to time.Time) domain.PeriodSummary {
	summary := domain.PeriodSummary{Label: label}
	for _, tx := range s.transactions {
		if tx.Timestamp.Before(from) || tx.Timestamp.After(to) {
			continue
		}
		switch tx.Type {
		case domain.TxTypeSale:
			summary.RevenueCents += tx.AmountCents
			summary.SalesCount++
		case domain.TxTypeRestock:
			summary.RestockSpendCents += tx.AmountCents
		}
	}
	summary.NetCents = summary.RevenueCents - summary.RestockSpendCents
	return summary
}

// weekdayOffset maps a weekday to days since Monday.
func weekdayOffset(d time.Weekday) int {
	if d == time.Sunday {
		return 6
	}
	return int(d) - 1
}
