package domain

import (
	"context"
	"time"
)

type Service interface {
	// Generate returns the stored recap for the period, computing and
	// storing it on first request.
	Generate(ctx context.Context, merchantID string, year, month int) (*Response, error)
	// Regenerate discards any stored recap and recomputes from the
	// authoritative order data.
	Regenerate(ctx context.Context, merchantID string, year, month int) (*Response, error)
	Get(ctx context.Context, merchantID string, year, month int) (*Response, error)
}

// RateLine is one per-rate bucket of the recap.
type RateLine struct {
	Rate      string `json:"rate"`
	BaseCents int64  `json:"base_cents"`
	VATCents  int64  `json:"vat_cents"`
}

type Response struct {
	ID         string `json:"id"`
	MerchantID string `json:"merchant_id"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`

	TotalHTCents   int64 `json:"total_ht_cents"`
	TotalTVACents  int64 `json:"total_tva_cents"`
	TotalTTCCents  int64 `json:"total_ttc_cents"`
	TotalTipsCents int64 `json:"total_tips_cents"`

	Rates []RateLine `json:"rates"`

	InvoiceCount       int64 `json:"invoice_count"`
	AverageTicketCents int64 `json:"average_ticket_cents"`
	PlatformFeeCents   int64 `json:"platform_fee_cents"`

	GeneratedAt time.Time `json:"generated_at"`
}
