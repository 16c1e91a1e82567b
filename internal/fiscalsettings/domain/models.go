// Package domain contains the merchant fiscal identity models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// VATRegime is the merchant's VAT regime.
type VATRegime string

const (
	RegimeNormal     VATRegime = "normal"     // réel normal
	RegimeSimplified VATRegime = "simplified" // réel simplifié
	RegimeExempt     VATRegime = "exempt"     // franchise en base
)

func (r VATRegime) Valid() bool {
	switch r {
	case RegimeNormal, RegimeSimplified, RegimeExempt:
		return true
	}
	return false
}

// ExportFormats accepted as a default export format.
var ExportFormats = []string{"csv", "spreadsheet", "pdf", "fec"}

// FiscalSettings is the merchant's fiscal identity. One row per merchant,
// superseded on update, never deleted.
type FiscalSettings struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	MerchantID snowflake.ID `gorm:"column:merchant_id;not null;uniqueIndex"`

	SIRET     string  `gorm:"column:siret;type:text;not null"`
	VATNumber *string `gorm:"column:vat_number;type:text"` // TVA intracommunautaire
	NAFCode   *string `gorm:"column:naf_code;type:text"`

	InvoicePrefix     string `gorm:"column:invoice_prefix;type:text;not null;default:''"`
	YearlyNumberReset bool   `gorm:"column:yearly_number_reset;not null;default:false"`

	VATRegime           VATRegime `gorm:"column:vat_regime;type:text;not null;default:'normal'"`
	DefaultExportFormat string    `gorm:"column:default_export_format;type:text;not null;default:'csv'"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (FiscalSettings) TableName() string { return "fiscal_settings" }

// Configured reports whether the merchant completed fiscal setup. A
// get-or-create placeholder has an empty SIRET and cannot back a recap or
// an export.
func (s *FiscalSettings) Configured() bool {
	return s != nil && s.SIRET != ""
}
