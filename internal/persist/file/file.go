package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"savn/backend/internal/domain"
	"savn/backend/internal/persist"
)

// document is the on-disk shape: both collections under their own key in a
// single JSON file.
type document struct {
	Products     []domain.Product     `json:"products"`
	Transactions []domain.Transaction `json:"transactions"`
}

// Store persists ledger state to a JSON file, replacing it atomically on
// every save.
type Store struct {
	mu   sync.Mutex
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Load(_ context.Context) ([]domain.Product, []domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, persist.ErrNotFound
		}
		return nil, nil, err
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("corrupt ledger file %s: %w", s.path, err)
	}
	return doc.Products, doc.Transactions, nil
}

func (s *Store) Save(_ context.Context, products []domain.Product, transactions []domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(document{Products: products, Transactions: transactions})
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".ledger-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
