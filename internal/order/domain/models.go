// Package domain mirrors the order subsystem's paid-order data. The fiscal
// engine reads these tables and never writes them.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// PaymentMethod mirrors the payment subsystem's method codes.
type PaymentMethod string

const (
	PaymentCard     PaymentMethod = "card"
	PaymentCash     PaymentMethod = "cash"
	PaymentMealPass PaymentMethod = "meal_voucher"
)

// Order is a paid restaurant order within an accounting period.
type Order struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	MerchantID snowflake.ID `gorm:"column:merchant_id;not null;index"`

	InvoiceNumber string `gorm:"column:invoice_number;type:text;not null"`
	TableLabel    string `gorm:"column:table_label;type:text"`
	CustomerName  string `gorm:"column:customer_name;type:text"`

	PaymentMethod PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	TransactionID string        `gorm:"column:transaction_id;type:text"`

	// TipCents is part of the cash collected but outside the VAT base.
	TipCents int64 `gorm:"column:tip_cents;not null;default:0"`

	// PlatformFeeCents is the ordering platform's commission on this order,
	// reported on the recap as a deductible charge.
	PlatformFeeCents int64 `gorm:"column:platform_fee_cents;not null;default:0"`

	PaidAt    time.Time         `gorm:"column:paid_at;not null;index"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`

	Lines []OrderLine `gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string { return "orders" }

// OrderLine is one item on a paid order. UnitPriceCents is tax inclusive;
// VATRate is a fraction (0.10) and nil when the catalog item has none.
type OrderLine struct {
	ID      snowflake.ID `gorm:"primaryKey"`
	OrderID snowflake.ID `gorm:"column:order_id;not null;index"`

	Name           string   `gorm:"type:text;not null"`
	Quantity       int64    `gorm:"not null"`
	UnitPriceCents int64    `gorm:"column:unit_price_cents;not null"`
	VATRate        *float64 `gorm:"column:vat_rate;type:numeric(6,4)"`

	Customizations datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
}

func (OrderLine) TableName() string { return "order_lines" }
