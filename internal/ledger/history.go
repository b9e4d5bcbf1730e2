package ledger

import (
	"time"

	"savn/backend/internal/domain"
)

// ClearHistory prunes the transaction log. A nil duration wipes the log
// entirely and resets every product's revenue and expenses to zero, since the
// totals lose meaning once all of their history is gone. A finite duration
// deletes the *recent* window — transactions newer than now-duration — and
// reverses each removed sale/restock against its product so the totals stay
// consistent with the surviving log. Like any mutation it is undoable once.
func (s *Store) ClearHistory(duration *time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshotLocked()

	if duration == nil {
		s.transactions = nil
		for i := range s.products {
			s.products[i].RevenueCents = 0
			s.products[i].ExpensesCents = 0
		}
		s.notifyLocked()
		return
	}

	cutoff := time.Now().UTC().Add(-*duration)
	kept := make([]domain.Transaction, 0, len(s.transactions))
	removedAny := false
	for _, tx := range s.transactions {
		if tx.Timestamp.Before(cutoff) {
			kept = append(kept, tx)
			continue
		}
		s.reverseLocked(tx)
		removedAny = true
	}
	if !removedAny {
		return
	}
	s.transactions = kept
	s.notifyLocked()
}

// ReverseTransaction removes a single transaction from the log and reverses
// its effect on the owning product. Unknown ids are silent no-ops.
func (s *Store) ReverseTransaction(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshotLocked()
	idx := -1
	for i, tx := range s.transactions {
		if tx.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.log.Debug().Str("transaction_id", id).Msg("reverse skipped: unknown transaction")
		return
	}
	tx := s.transactions[idx]
	s.reverseLocked(tx)
	s.transactions = append(s.transactions[:idx], s.transactions[idx+1:]...)
	s.notifyLocked()
}

// reverseLocked inverts a transaction's catalog effect, clamped so quantity
// and totals never go negative. Adjustments carry no direction, so removing
// one is log-only.
func (s *Store) reverseLocked(tx domain.Transaction) {
	p := s.findLocked(tx.ProductID)
	if p == nil {
		// dangling product reference, nothing to reconcile
		return
	}
	switch tx.Type {
	case domain.TxTypeSale:
		p.Qty += tx.Quantity
		p.RevenueCents -= tx.AmountCents
		if p.RevenueCents < 0 {
			p.RevenueCents = 0
		}
	case domain.TxTypeRestock:
		p.Qty -= tx.Quantity
		if p.Qty < 0 {
			p.Qty = 0
		}
		p.ExpensesCents -= tx.AmountCents
		if p.ExpensesCents < 0 {
			p.ExpensesCents = 0
		}
	}
}
