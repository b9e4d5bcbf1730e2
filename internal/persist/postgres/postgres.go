package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"savn/backend/internal/domain"
	"savn/backend/internal/persist"
)

const (
	keyProducts     = "products"
	keyTransactions = "transactions"
)

// Store keeps each collection as one jsonb document in ledger_state, keyed by
// collection name. The whole document is replaced on every save, matching the
// engine's replace-both-collections persistence contract.
type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_state (
			key        text PRIMARY KEY,
			payload    jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)
	`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context) ([]domain.Product, []domain.Transaction, error) {
	var products []domain.Product
	if err := s.loadKey(ctx, keyProducts, &products); err != nil {
		return nil, nil, err
	}
	var transactions []domain.Transaction
	if err := s.loadKey(ctx, keyTransactions, &transactions); err != nil {
		return nil, nil, err
	}
	return products, transactions, nil
}

func (s *Store) loadKey(ctx context.Context, key string, dest any) error {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM ledger_state WHERE key = $1
	`, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persist.ErrNotFound
		}
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (s *Store) Save(ctx context.Context, products []domain.Product, transactions []domain.Transaction) error {
	productsPayload, err := json.Marshal(products)
	if err != nil {
		return err
	}
	txPayload, err := json.Marshal(transactions)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, row := range []struct {
		key     string
		payload []byte
	}{
		{keyProducts, productsPayload},
		{keyTransactions, txPayload},
	} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ledger_state (key, payload, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
		`, row.key, row.payload); err != nil {
			return err
		}
	}

	return tx.Commit()
}
