package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"savn/backend/internal/cache"
	"savn/backend/internal/domain"
	"savn/backend/internal/ledger"
	"savn/backend/internal/persist"
)

var (
	// ErrInvalidInput marks malformed caller input rejected at this boundary,
	// before the engine is invoked.
	ErrInvalidInput = errors.New("invalid input")
	// ErrForbidden marks an operation reserved for the owner role.
	ErrForbidden = errors.New("owner role required")
)

const analyticsCacheKey = "savn:analytics:v1"

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// Service fronts the ledger engine: it validates raw input, enforces roles,
// and wires the engine's mutation hook to durable persistence and cache
// invalidation. Persistence is fire and forget; a failed save is logged and
// never surfaced to the caller.
type Service struct {
	ledger            *ledger.Store
	store             persist.Store
	analytics         cache.AnalyticsCache
	analyticsTTL      time.Duration
	lowStockThreshold int
	log               zerolog.Logger
}

func New(led *ledger.Store, store persist.Store, analyticsCache cache.AnalyticsCache, analyticsTTL time.Duration, lowStockThreshold int, logger zerolog.Logger) *Service {
	if store == nil {
		store = persist.Noop{}
	}
	if analyticsCache == nil {
		analyticsCache = cache.NoopAnalyticsCache{}
	}
	if analyticsTTL <= 0 {
		analyticsTTL = 30 * time.Second
	}
	if lowStockThreshold < 0 {
		lowStockThreshold = 0
	}

	s := &Service{
		ledger:            led,
		store:             store,
		analytics:         analyticsCache,
		analyticsTTL:      analyticsTTL,
		lowStockThreshold: lowStockThreshold,
		log:               logger,
	}
	led.OnMutate(s.afterMutation)
	return s
}

// afterMutation runs on every engine state change. The save happens on its
// own goroutine with copies of both collections; the analytics cache entry is
// dropped so the next read recomputes.
func (s *Service) afterMutation(products []domain.Product, transactions []domain.Transaction) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.analytics.Delete(ctx, analyticsCacheKey); err != nil {
			s.log.Warn().Err(err).Msg("analytics cache invalidation failed")
		}
		if err := s.store.Save(ctx, products, transactions); err != nil {
			s.log.Error().Err(err).Int("products", len(products)).Int("transactions", len(transactions)).Msg("ledger save failed")
		}
	}()
}

func (s *Service) requireOwner(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleOwner {
		return ErrForbidden
	}
	return nil
}

func (s *Service) ListProducts(_ context.Context) []domain.Product {
	return s.ledger.Products()
}

func (s *Service) ListActiveProducts(_ context.Context) []domain.Product {
	return s.ledger.ActiveProducts()
}

func (s *Service) GetProduct(_ context.Context, id string) (domain.Product, bool) {
	return s.ledger.Product(id)
}

func (s *Service) ListTransactions(_ context.Context) []domain.Transaction {
	return s.ledger.TransactionsNewestFirst()
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if err := s.requireOwner(ctx); err != nil {
		return domain.Product{}, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.PriceCents < 0 || req.CostCents < 0 {
		return domain.Product{}, ErrInvalidInput
	}
	return s.ledger.AddCatalogProduct(req), nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) error {
	if err := s.requireOwner(ctx); err != nil {
		return err
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return ErrInvalidInput
	}
	if req.PriceCents != nil && *req.PriceCents < 0 {
		return ErrInvalidInput
	}
	if req.CostCents != nil && *req.CostCents < 0 {
		return ErrInvalidInput
	}
	s.ledger.UpdateProduct(id, req)
	return nil
}

func (s *Service) SetProductActive(ctx context.Context, id string, active bool) error {
	if err := s.requireOwner(ctx); err != nil {
		return err
	}
	s.ledger.SetProductActive(id, active)
	return nil
}

func (s *Service) ArchiveProduct(ctx context.Context, id string) error {
	if err := s.requireOwner(ctx); err != nil {
		return err
	}
	s.ledger.RemoveProduct(id)
	return nil
}

func (s *Service) Sell(_ context.Context, id string) error {
	s.ledger.SellProduct(id)
	return nil
}

func (s *Service) SellBulk(_ context.Context, id string, qty int, totalCents int64) error {
	if qty < 1 || totalCents < 0 {
		return ErrInvalidInput
	}
	s.ledger.SellProductBulk(id, qty, totalCents)
	return nil
}

func (s *Service) Restock(_ context.Context, id string) error {
	s.ledger.RestockProduct(id)
	return nil
}

func (s *Service) RestockBulk(_ context.Context, id string, qty int, totalCents int64) error {
	if qty < 1 || totalCents < 0 {
		return ErrInvalidInput
	}
	s.ledger.RestockProductBulk(id, qty, totalCents)
	return nil
}

func (s *Service) Waste(_ context.Context, id string, qty int) error {
	if qty < 1 {
		return ErrInvalidInput
	}
	s.ledger.WasteProductBulk(id, qty)
	return nil
}

func (s *Service) SetInventory(_ context.Context, id string, qty int) error {
	if qty < 0 {
		return ErrInvalidInput
	}
	s.ledger.SetProductInventory(id, qty)
	return nil
}

// ClearHistory prunes the transaction log. A nil durationMs clears all
// history and zeroes every product's totals; a positive value deletes the
// recent window of that length.
func (s *Service) ClearHistory(ctx context.Context, durationMs *int64) error {
	if err := s.requireOwner(ctx); err != nil {
		return err
	}
	if durationMs == nil {
		s.ledger.ClearHistory(nil)
		return nil
	}
	if *durationMs < 1 {
		return ErrInvalidInput
	}
	d := time.Duration(*durationMs) * time.Millisecond
	s.ledger.ClearHistory(&d)
	return nil
}

func (s *Service) ReverseTransaction(ctx context.Context, id string) error {
	if err := s.requireOwner(ctx); err != nil {
		return err
	}
	s.ledger.ReverseTransaction(id)
	return nil
}

func (s *Service) CanUndo(_ context.Context) bool {
	return s.ledger.CanUndo()
}

func (s *Service) Undo(_ context.Context) error {
	s.ledger.Undo()
	return nil
}

func (s *Service) Analytics(ctx context.Context) (domain.AnalyticsReport, error) {
	if cached, ok, err := s.analytics.Get(ctx, analyticsCacheKey); err == nil && ok {
		return *cached, nil
	} else if err != nil {
		s.log.Warn().Err(err).Msg("analytics cache read failed")
	}

	report := s.ledger.Analytics(time.Now().UTC(), s.lowStockThreshold)
	if err := s.analytics.Set(ctx, analyticsCacheKey, &report, s.analyticsTTL); err != nil {
		s.log.Warn().Err(err).Msg("analytics cache write failed")
	}
	return report, nil
}
