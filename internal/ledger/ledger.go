package ledger

import (
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"savn/backend/internal/domain"
	"savn/backend/internal/xid"
)

// PersistFunc receives deep copies of both collections after every state
// change. Callers decide how (and whether) to store them; the engine never
// blocks on persistence.
type PersistFunc func(products []domain.Product, transactions []domain.Transaction)

// Store owns the product catalog and the transaction log and applies every
// mutation to both atomically. All entry points are serialized behind one
// mutex because snapshot-then-mutate is a read-modify-write sequence.
type Store struct {
	mu           sync.RWMutex
	products     []domain.Product
	transactions []domain.Transaction
	undo         *domain.Snapshot
	persist      PersistFunc
	log          zerolog.Logger
}

func New(logger zerolog.Logger) *Store {
	return &Store{log: logger}
}

// NewFromState restores an engine from previously persisted collections.
func NewFromState(logger zerolog.Logger, products []domain.Product, transactions []domain.Transaction) *Store {
	return &Store{
		products:     slices.Clone(products),
		transactions: slices.Clone(transactions),
		log:          logger,
	}
}

// NewSeeded returns an engine with the starter catalog used when no persisted
// state exists yet.
func NewSeeded(logger zerolog.Logger) *Store {
	now := time.Now().UTC()
	return NewFromState(logger, []domain.Product{
		{ID: xid.New("prod"), Name: "Coca Cola", Qty: 10, PriceCents: 150, CostCents: 80, Active: true, CreatedAt: now},
		{ID: xid.New("prod"), Name: "Water Bottle", Qty: 25, PriceCents: 100, CostCents: 40, Active: true, CreatedAt: now},
	}, nil)
}

// OnMutate installs the persistence hook invoked after every state change.
// The hook receives copies, so it may run asynchronously without racing the
// engine.
func (s *Store) OnMutate(fn PersistFunc) {
	s.mu.Lock()
	s.persist = fn
	s.mu.Unlock()
}

func (s *Store) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.products)
}

// ActiveProducts returns the fast sell/restock subset: active and not archived.
func (s *Store) ActiveProducts() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.Active && !p.Archived {
			active = append(active, p)
		}
	}
	return active
}

// Product returns a copy of the product with the given id, if present.
func (s *Store) Product(id string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (s *Store) TransactionsNewestFirst() []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, len(s.transactions))
	for i, tx := range s.transactions {
		out[len(out)-1-i] = tx
	}
	return out
}

func (s *Store) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.undo != nil
}

// Undo restores both collections from the held snapshot and clears the slot.
// With no snapshot held it is a no-op. Undo itself is not undoable.
func (s *Store) Undo() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.undo == nil {
		s.log.Debug().Msg("undo requested with no snapshot held")
		return
	}
	s.products = s.undo.Products
	s.transactions = s.undo.Transactions
	s.undo = nil
	s.notifyLocked()
}

// snapshotLocked captures the undo buffer, overwriting any previous snapshot.
// Called as the first step of every mutation so even no-op calls move the
// engine to the snapshot-held state.
func (s *Store) snapshotLocked() {
	s.undo = &domain.Snapshot{
		Products:     slices.Clone(s.products),
		Transactions: slices.Clone(s.transactions),
	}
}

func (s *Store) findLocked(id string) *domain.Product {
	for i := range s.products {
		if s.products[i].ID == id {
			return &s.products[i]
		}
	}
	return nil
}

func (s *Store) appendTxLocked(productID, productName, txType string, quantity int, amountCents int64) {
	s.transactions = append(s.transactions, domain.Transaction{
		ID:          xid.New("tx"),
		ProductID:   productID,
		ProductName: productName,
		Type:        txType,
		Quantity:    quantity,
		AmountCents: amountCents,
		Timestamp:   time.Now().UTC(),
	})
}

// notifyLocked hands copies of both collections to the persistence hook.
func (s *Store) notifyLocked() {
	if s.persist == nil {
		return
	}
	s.persist(slices.Clone(s.products), slices.Clone(s.transactions))
}
