package domain

import (
	"context"
	"time"
)

type Service interface {
	// GetOrCreate returns the merchant's settings, creating an unconfigured
	// placeholder on first call so the setup flow has a row to complete.
	GetOrCreate(ctx context.Context, merchantID string) (*Response, error)
	Get(ctx context.Context, merchantID string) (*Response, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
}

type CreateRequest struct {
	MerchantID string `json:"merchant_id"`

	SIRET     string  `json:"siret"`
	VATNumber *string `json:"vat_number,omitempty"`
	NAFCode   *string `json:"naf_code,omitempty"`

	InvoicePrefix     string `json:"invoice_prefix"`
	YearlyNumberReset *bool  `json:"yearly_number_reset,omitempty"`

	VATRegime           *string `json:"vat_regime,omitempty"`
	DefaultExportFormat *string `json:"default_export_format,omitempty"`
}

// UpdateRequest is a partial update; nil fields keep their current value.
// The merged result is re-validated as a whole.
type UpdateRequest struct {
	MerchantID string `json:"merchant_id"`

	SIRET     *string `json:"siret,omitempty"`
	VATNumber *string `json:"vat_number,omitempty"`
	NAFCode   *string `json:"naf_code,omitempty"`

	InvoicePrefix     *string `json:"invoice_prefix,omitempty"`
	YearlyNumberReset *bool   `json:"yearly_number_reset,omitempty"`

	VATRegime           *string `json:"vat_regime,omitempty"`
	DefaultExportFormat *string `json:"default_export_format,omitempty"`
}

type Response struct {
	ID         string `json:"id"`
	MerchantID string `json:"merchant_id"`

	SIRET     string  `json:"siret"`
	VATNumber *string `json:"vat_number,omitempty"`
	NAFCode   *string `json:"naf_code,omitempty"`

	InvoicePrefix     string `json:"invoice_prefix"`
	YearlyNumberReset bool   `json:"yearly_number_reset"`

	VATRegime           VATRegime `json:"vat_regime"`
	DefaultExportFormat string    `json:"default_export_format"`

	Configured bool      `json:"configured"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
