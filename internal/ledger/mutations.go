package ledger

import (
	"strings"
	"time"

	"savn/backend/internal/domain"
	"savn/backend/internal/xid"
)

// Mutation entry points. Each one snapshots first, applies the catalog and log
// effects, then notifies the persistence hook when state actually changed.
// Referential misses and non-positive bulk quantities are silent no-ops so
// duplicate invocations replay harmlessly; they are reported through the
// debug log only.

// AddCatalogProduct creates a product with zero stock and zero totals.
// Name, price and cost are assumed pre-validated by the caller.
func (s *Store) AddCatalogProduct(req domain.ProductCreateRequest) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshotLocked()
	product := domain.Product{
		ID:         xid.New("prod"),
		Name:       strings.TrimSpace(req.Name),
		PriceCents: req.PriceCents,
		CostCents:  req.CostCents,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}
	s.products = append(s.products, product)
	s.notifyLocked()
	return product
}

// SellProduct records a single-unit sale at the current unit price.
// Unknown products and empty stock are no-ops.
func (s *Store) SellProduct(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshotLocked()
	p := s.findLocked(id)
	if p == nil {
		s.log.Debug().Str("product_id", id).Msg("sell skipped: unknown product")
		return
	}
	if p.Qty < 1 {
		s.log.Debug().Str("product_id", id).Msg("sell skipped: no stock")
		return
	}
	p.Qty--
	p.RevenueCents += p.PriceCents
	s.appendTxLocked(p.ID, p.Name, domain.TxTypeSale, 1, p.PriceCents)
	s.notifyLocked()
}

// SellProductBulk records qty units sold for totalCents. The caller validates
// the figures; the engine still refuses to take stock below zero by treating
// an oversell as a no-op.
func (s *Store) SellProductBulk(id string, qty int, totalCents int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshotLocked()
	if qty < 1 || totalCents < 0 {
		s.log.Debug().Str("product_id", id).Int("qty", qty).Msg("bulk sell skipped: non-positive input")
		return
	}
	p := s.findLocked(id)
	if p == nil {
		s.log.Debug().Str("product_id", id).Msg("bulk sell skipped: unknown product")
		return
	}
	if p.Qty < qty {
		s.log.Debug().Str("product_id", id).Int("qty", qty).Int("stock", p.Qty).Msg("bulk sell skipped: insufficient stock")
		return
	}
	p.Qty -= qty
	p.RevenueCents += totalCents
	s.appendTxLocked(p.ID, p.Name, domain.TxTypeSale, qty, totalCents)
	s.notifyLocked()
}

// RestockProduct adds a single unit at the current unit cost.
func (s *Store) RestockProduct(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshotLocked()
	p := s.findLocked(id)
	if p == nil {
		s.log.Debug().Str("product_id", id).Msg("restock skipped: unknown product")
		return
	}
	p.Qty++
	p.ExpensesCents += p.CostCents
	s.appendTxLocked(p.ID, p.Name, domain.TxTypeRestock, 1, p.CostCents)
	s.notifyLocked()
}

// RestockProductBulk adds qty units for totalCents.
func (s *Store) RestockProductBulk(id string, qty int, totalCents int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshotLocked()
	if qty < 1 || totalCents < 0 {
		s.log.Debug().Str("product_id", id).Int("qty", qty).Msg("bulk restock skipped: non-positive input")
		return
	}
	p := s.findLocked(id)
	if p == nil {
		s.log.Debug().Str("product_id", id).Msg("bulk restock skipped: unknown product")
		return
	}
	p.Qty += qty
	p.ExpensesCents += totalCents
	s.appendTxLocked(p.ID, p.Name, domain.TxTypeRestock, qty, totalCents)
	s.notifyLocked()
}

// SetProductInventory sets the on-hand count directly. Revenue and expenses
// are untouched; the delta is logged as an adjustment for audit visibility,
// but only when it is non-zero.
func (s *Store) SetProductInventory(id string, newQty int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshotLocked()
	if newQty < 0 {
		newQty = 0
	}
	p := s.findLocked(id)
	if p == nil {
		s.log.Debug().Str("product_id", id).Msg("inventory set skipped: unknown product")
		return
	}
	delta := newQty - p.Qty
	if delta == 0 {
		return
	}
	p.Qty = newQty
	if delta < 0 {
		delta = -delta
	}
	s.appendTxLocked(p.ID, p.Name, domain.TxTypeAdjustment, delta, 0)
	s.notifyLocked()
}

// WasteProduct removes a single unit without touching revenue or expenses.
func (s *Store) WasteProduct(id string) {
	s.WasteProductBulk(id, 1)
}

// WasteProductBulk removes up to qty units, clamped so stock never goes
// negative. The removal is logged as a zero-amount adjustment.
func (s *Store) WasteProductBulk(id string, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshotLocked()
	if qty < 1 {
		s.log.Debug().Str("product_id", id).Int("qty", qty).Msg("waste skipped: non-positive quantity")
		return
	}
	p := s.findLocked(id)
	if p == nil {
		s.log.Debug().Str("product_id", id).Msg("waste skipped: unknown product")
		return
	}
	removed := qty
	if removed > p.Qty {
		removed = p.Qty
	}
	if removed == 0 {
		return
	}
	p.Qty -= removed
	s.appendTxLocked(p.ID, p.Name, domain.TxTypeAdjustment, removed, 0)
	s.notifyLocked()
}

// UpdateProduct edits name, unit price and unit cost. Quantity and the
// running totals are never touched here.
func (s *Store) UpdateProduct(id string, req domain.ProductUpdateRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshotLocked()
	p := s.findLocked(id)
	if p == nil {
		s.log.Debug().Str("product_id", id).Msg("update skipped: unknown product")
		return
	}
	changed := false
	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != "" && name != p.Name {
			p.Name = name
			changed = true
		}
	}
	if req.PriceCents != nil && *req.PriceCents >= 0 && *req.PriceCents != p.PriceCents {
		p.PriceCents = *req.PriceCents
		changed = true
	}
	if req.CostCents != nil && *req.CostCents >= 0 && *req.CostCents != p.CostCents {
		p.CostCents = *req.CostCents
		changed = true
	}
	if changed {
		s.notifyLocked()
	}
}

// SetProductActive toggles visibility in the fast sell/restock view.
// Archived products stay hidden and cannot be reactivated.
func (s *Store) SetProductActive(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshotLocked()
	p := s.findLocked(id)
	if p == nil {
		s.log.Debug().Str("product_id", id).Msg("activate skipped: unknown product")
		return
	}
	if p.Archived {
		s.log.Debug().Str("product_id", id).Msg("activate skipped: product archived")
		return
	}
	if p.Active == active {
		return
	}
	p.Active = active
	s.notifyLocked()
}

// RemoveProduct archives a product: hidden everywhere, retained for history.
// Idempotent, and never emits a transaction.
func (s *Store) RemoveProduct(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshotLocked()
	p := s.findLocked(id)
	if p == nil {
		s.log.Debug().Str("product_id", id).Msg("archive skipped: unknown product")
		return
	}
	if p.Archived && !p.Active {
		return
	}
	p.Archived = true
	p.Active = false
	s.notifyLocked()
}
