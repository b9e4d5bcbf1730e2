package domain

import "time"

// Product is a catalog entry with its derived running totals. RevenueCents and
// ExpensesCents only move through sale/restock/undo/history-prune paths; editing
// the unit price or cost affects future transactions only.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Qty           int       `json:"qty"`
	PriceCents    int64     `json:"price_cents"`
	CostCents     int64     `json:"cost_cents"`
	RevenueCents  int64     `json:"revenue_cents"`
	ExpensesCents int64     `json:"expenses_cents"`
	Active        bool      `json:"active"`
	Archived      bool      `json:"archived"`
	CreatedAt     time.Time `json:"created_at"`
}

// Transaction is immutable once recorded. ProductName is a deliberate
// denormalized copy so renaming or archiving a product never rewrites history.
type Transaction struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Type        string    `json:"type"`
	Quantity    int       `json:"quantity"`
	AmountCents int64     `json:"amount_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

const (
	TxTypeSale       = "sale"
	TxTypeRestock    = "restock"
	TxTypeAdjustment = "adjustment"
)

// Snapshot is the single-slot undo buffer: deep copies of both collections
// taken immediately before a mutation.
type Snapshot struct {
	Products     []Product
	Transactions []Transaction
}

type ProductCreateRequest struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	CostCents  int64  `json:"cost_cents"`
}

type ProductUpdateRequest struct {
	Name       *string `json:"name,omitempty"`
	PriceCents *int64  `json:"price_cents,omitempty"`
	CostCents  *int64  `json:"cost_cents,omitempty"`
}

// BulkMovementRequest is the shared body for bulk sell and restock calls.
type BulkMovementRequest struct {
	Qty        int   `json:"qty"`
	TotalCents int64 `json:"total_cents"`
}

type WasteRequest struct {
	Qty int `json:"qty"`
}

type SetInventoryRequest struct {
	Qty int `json:"qty"`
}

type SetActiveRequest struct {
	Active bool `json:"active"`
}

type ClearHistoryRequest struct {
	// DurationMs selects the recent window to delete; null clears everything.
	DurationMs *int64 `json:"duration_ms"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

const (
	RoleOwner = "owner"
	RoleStaff = "staff"
)

type PeriodSummary struct {
	Label             string `json:"label"`
	RevenueCents      int64  `json:"revenue_cents"`
	RestockSpendCents int64  `json:"restock_spend_cents"`
	NetCents          int64  `json:"net_cents"`
	SalesCount        int    `json:"sales_count"`
}

type ProductStanding struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	RevenueCents int64  `json:"revenue_cents"`
	Units        int    `json:"units"`
}

type LowStockItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
}

type AnalyticsReport struct {
	GeneratedAt           string           `json:"generated_at"`
	Periods               []PeriodSummary  `json:"periods"`
	TotalRevenueCents     int64            `json:"total_revenue_cents"`
	TotalExpensesCents    int64            `json:"total_expenses_cents"`
	GrossProfitCents      int64            `json:"gross_profit_cents"`
	GrossMarginPercent    float64          `json:"gross_margin_percent"`
	TopRevenueProduct     *ProductStanding `json:"top_revenue_product,omitempty"`
	TopVolumeProduct      *ProductStanding `json:"top_volume_product,omitempty"`
	LowStock              []LowStockItem   `json:"low_stock"`
	InventoryValueCents   int64            `json:"inventory_value_cents"`
	PotentialRevenueCents int64            `json:"potential_revenue_cents"`
}
