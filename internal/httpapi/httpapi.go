package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"savn/backend/internal/domain"
	"savn/backend/internal/service"
)

type API struct {
	service       *service.Service
	auth          *AuthManager
	allowedOrigin string
	loginLimiter  *attemptLimiter
	log           zerolog.Logger
}

func New(svc *service.Service, auth *AuthManager, allowedOrigin string, logger zerolog.Logger) *API {
	return &API{
		service:       svc,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
		log:           logger,
	}
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/api/v1/auth/login", a.handleLogin)

	mux.HandleFunc("/api/v1/products", a.requireAuth(a.handleProducts, domain.RoleStaff, domain.RoleOwner))
	mux.HandleFunc("/api/v1/products/", a.requireAuth(a.handleProductActions, domain.RoleStaff, domain.RoleOwner))
	mux.HandleFunc("/api/v1/transactions", a.requireAuth(a.handleTransactions, domain.RoleStaff, domain.RoleOwner))
	mux.HandleFunc("/api/v1/transactions/", a.requireAuth(a.handleTransactionActions, domain.RoleOwner))
	mux.HandleFunc("/api/v1/history/clear", a.requireAuth(a.handleClearHistory, domain.RoleOwner))
	mux.HandleFunc("/api/v1/undo", a.requireAuth(a.handleUndo, domain.RoleStaff, domain.RoleOwner))
	mux.HandleFunc("/api/v1/analytics", a.requireAuth(a.handleAnalytics, domain.RoleStaff, domain.RoleOwner))

	return a.withMiddleware(mux)
}

func (a *API) requireAuth(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		actor, err := a.auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
			writeError(w, http.StatusForbidden, errors.New("forbidden role"))
			return
		}

		next(w, r.WithContext(service.WithActor(r.Context(), actor)))
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var products []domain.Product
		if strings.EqualFold(r.URL.Query().Get("active"), "true") {
			products = a.service.ListActiveProducts(r.Context())
		} else {
			products = a.service.ListProducts(r.Context())
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products})
	case http.MethodPost:
		var req domain.ProductCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		product, err := a.service.CreateProduct(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"product": product})
	default:
		writeMethodNotAllowed(w)
	}
}

// handleProductActions routes /api/v1/products/{id} and
// /api/v1/products/{id}/{sell|restock|waste|inventory|active}.
func (a *API) handleProductActions(w http.ResponseWriter, r *http.Request) {
	prefix := "/api/v1/products/"
	tail := strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/"))
	if tail == "" {
		writeError(w, http.StatusBadRequest, errors.New("product id required"))
		return
	}

	productID := tail
	action := ""
	if idx := strings.Index(tail, "/"); idx >= 0 {
		productID = strings.TrimSpace(tail[:idx])
		action = strings.TrimSpace(strings.Trim(tail[idx+1:], "/"))
	}
	if productID == "" || strings.Contains(action, "/") {
		writeError(w, http.StatusBadRequest, errors.New("invalid product action path"))
		return
	}

	if action == "" {
		switch r.Method {
		case http.MethodPatch:
			a.handleProductUpdate(w, r, productID)
		case http.MethodDelete:
			a.handleProductArchive(w, r, productID)
		default:
			writeMethodNotAllowed(w)
		}
		return
	}

	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	switch action {
	case "active":
		a.handleProductSetActive(w, r, productID)
	case "sell":
		a.handleProductSell(w, r, productID)
	case "restock":
		a.handleProductRestock(w, r, productID)
	case "waste":
		a.handleProductWaste(w, r, productID)
	case "inventory":
		a.handleProductInventory(w, r, productID)
	default:
		writeError(w, http.StatusBadRequest, errors.New("unknown product action"))
	}
}

func (a *API) handleProductUpdate(w http.ResponseWriter, r *http.Request, productID string) {
	var req domain.ProductUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.service.UpdateProduct(r.Context(), productID, req); err != nil {
		writeServiceError(w, err)
		return
	}
	a.writeProductResult(w, r, productID)
}

func (a *API) handleProductArchive(w http.ResponseWriter, r *http.Request, productID string) {
	if err := a.service.ArchiveProduct(r.Context(), productID); err != nil {
		writeServiceError(w, err)
		return
	}
	a.writeProductResult(w, r, productID)
}

func (a *API) handleProductSetActive(w http.ResponseWriter, r *http.Request, productID string) {
	var req domain.SetActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.service.SetProductActive(r.Context(), productID, req.Active); err != nil {
		writeServiceError(w, err)
		return
	}
	a.writeProductResult(w, r, productID)
}

// Sell and restock take an optional body. No body (or an empty JSON object)
// means a single unit at the product's recorded price or cost; a body with
// qty and total_cents records a bulk movement.
func (a *API) handleProductSell(w http.ResponseWriter, r *http.Request, productID string) {
	req, ok := decodeOptionalBulk(w, r)
	if !ok {
		return
	}
	var err error
	if req == nil {
		err = a.service.Sell(r.Context(), productID)
	} else {
		err = a.service.SellBulk(r.Context(), productID, req.Qty, req.TotalCents)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a.writeProductResult(w, r, productID)
}

func (a *API) handleProductRestock(w http.ResponseWriter, r *http.Request, productID string) {
	req, ok := decodeOptionalBulk(w, r)
	if !ok {
		return
	}
	var err error
	if req == nil {
		err = a.service.Restock(r.Context(), productID)
	} else {
		err = a.service.RestockBulk(r.Context(), productID, req.Qty, req.TotalCents)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a.writeProductResult(w, r, productID)
}

func (a *API) handleProductWaste(w http.ResponseWriter, r *http.Request, productID string) {
	var req domain.WasteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.service.Waste(r.Context(), productID, req.Qty); err != nil {
		writeServiceError(w, err)
		return
	}
	a.writeProductResult(w, r, productID)
}

func (a *API) handleProductInventory(w http.ResponseWriter, r *http.Request, productID string) {
	var req domain.SetInventoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.service.SetInventory(r.Context(), productID, req.Qty); err != nil {
		writeServiceError(w, err)
		return
	}
	a.writeProductResult(w, r, productID)
}

// writeProductResult reports success with the product's post-mutation state.
// Missing products still succeed: the engine treats a dangling id as a no-op,
// so the response carries ok without a product payload.
func (a *API) writeProductResult(w http.ResponseWriter, r *http.Request, productID string) {
	payload := map[string]any{"ok": true}
	if product, found := a.service.GetProduct(r.Context(), productID); found {
		payload["product"] = product
	}
	writeJSON(w, http.StatusOK, payload)
}

func (a *API) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": a.service.ListTransactions(r.Context())})
}

func (a *API) handleTransactionActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	prefix := "/api/v1/transactions/"
	if !strings.HasSuffix(r.URL.Path, "/reverse") {
		writeError(w, http.StatusBadRequest, errors.New("invalid transaction action path"))
		return
	}
	transactionID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, prefix), "/reverse")
	transactionID = strings.TrimSpace(strings.Trim(transactionID, "/"))
	if transactionID == "" {
		writeError(w, http.StatusBadRequest, errors.New("transaction id required"))
		return
	}

	if err := a.service.ReverseTransaction(r.Context(), transactionID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.ClearHistoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := a.service.ClearHistory(r.Context(), req.DurationMs); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) handleUndo(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"can_undo": a.service.CanUndo(r.Context())})
	case http.MethodPost:
		if err := a.service.Undo(r.Context()); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	report, err := a.service.Analytics(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPatch {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		requestID := uuid.New().String()[:8]
		startedAt := time.Now()
		next.ServeHTTP(w, r)
		a.log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(startedAt)).
			Msg("request completed")
	})
}

// writeServiceError maps service-layer sentinels onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err)
	default:
		writeError(w, http.StatusUnprocessableEntity, err)
	}
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

// decodeOptionalBulk reads a sell/restock body. An absent or empty body is
// valid and means a single-unit movement; reports false after writing an
// error response when the body is present but malformed.
func decodeOptionalBulk(w http.ResponseWriter, r *http.Request) (*domain.BulkMovementRequest, bool) {
	if r.Body == nil || r.ContentLength == 0 {
		return nil, true
	}
	var req domain.BulkMovementRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false
	}
	if req.Qty == 0 && req.TotalCents == 0 {
		return nil, true
	}
	return &req, true
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := err.Error()
	if status >= 500 {
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
