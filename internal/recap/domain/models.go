// Package domain contains the monthly VAT recap models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// RecapitulatifTVA is the monthly VAT summary for one merchant. One row per
// (merchant, year, month); regeneration replaces the row atomically.
//
// All amounts are euro cents. Per-rate columns follow the French restaurant
// rates: réduit 5.5%, intermédiaire 10%, normal 20%, plus the exempt base.
type RecapitulatifTVA struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	MerchantID snowflake.ID `gorm:"column:merchant_id;not null;uniqueIndex:ux_recap_merchant_period,priority:1"`
	Year       int          `gorm:"not null;uniqueIndex:ux_recap_merchant_period,priority:2"`
	Month      int          `gorm:"not null;uniqueIndex:ux_recap_merchant_period,priority:3"`

	TotalHTCents  int64 `gorm:"column:total_ht_cents;not null;default:0"`
	TotalTVACents int64 `gorm:"column:total_tva_cents;not null;default:0"`
	TotalTTCCents int64 `gorm:"column:total_ttc_cents;not null;default:0"`

	// Tips are collected cash outside the VAT base, reported separately.
	TotalTipsCents int64 `gorm:"column:total_tips_cents;not null;default:0"`

	BaseReducedCents      int64 `gorm:"column:base_reduced_cents;not null;default:0"`
	VATReducedCents       int64 `gorm:"column:vat_reduced_cents;not null;default:0"`
	BaseIntermediateCents int64 `gorm:"column:base_intermediate_cents;not null;default:0"`
	VATIntermediateCents  int64 `gorm:"column:vat_intermediate_cents;not null;default:0"`
	BaseStandardCents     int64 `gorm:"column:base_standard_cents;not null;default:0"`
	VATStandardCents      int64 `gorm:"column:vat_standard_cents;not null;default:0"`
	BaseExemptCents       int64 `gorm:"column:base_exempt_cents;not null;default:0"`

	InvoiceCount       int64 `gorm:"column:invoice_count;not null;default:0"`
	AverageTicketCents int64 `gorm:"column:average_ticket_cents;not null;default:0"`
	PlatformFeeCents   int64 `gorm:"column:platform_fee_cents;not null;default:0"`

	GeneratedAt time.Time `gorm:"column:generated_at;not null"`
}

func (RecapitulatifTVA) TableName() string { return "vat_recaps" }
