// Package serializer turns a period's orders into export artifacts. One
// strategy per format; all of them consume the same pre-computed rows so
// every format reports identical amounts.
package serializer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tabresto/fiscal/internal/config"
	exportdomain "github.com/tabresto/fiscal/internal/exportjob/domain"
	settingsdomain "github.com/tabresto/fiscal/internal/fiscalsettings/domain"
	orderdomain "github.com/tabresto/fiscal/internal/order/domain"
	"github.com/tabresto/fiscal/internal/tax"
)

// OrderRow pairs an order with the VAT decomposition of its lines. Lines is
// parallel to Order.Lines.
type OrderRow struct {
	Order     orderdomain.Order
	Lines     []tax.LineBreakdown
	Breakdown *tax.Breakdown
}

// Input is everything a serializer needs. Orders are already decomposed so
// strategies only format, never compute.
type Input struct {
	Settings *settingsdomain.FiscalSettings
	Policy   config.FiscalPolicy

	PeriodStart time.Time
	PeriodEnd   time.Time

	Orders         []OrderRow
	IncludeDetails bool

	// Encoding applies to the FEC output: "utf-8" (default) or
	// "iso-8859-15", both accepted by the authority's tooling.
	Encoding string
}

// Output is the produced artifact.
type Output struct {
	Filename    string
	ContentType string
	Data        []byte
	RowCount    int64
}

type Serializer interface {
	Serialize(ctx context.Context, in Input) (Output, error)
}

// ForFormat returns the strategy for a format.
func ForFormat(f exportdomain.Format) (Serializer, error) {
	switch f {
	case exportdomain.FormatCSV:
		return NewCSV(), nil
	case exportdomain.FormatSpreadsheet:
		return NewSpreadsheet(), nil
	case exportdomain.FormatPDF:
		return NewPDF(), nil
	case exportdomain.FormatFEC:
		return NewFEC(), nil
	}
	return nil, exportdomain.ErrUnsupportedFormat
}

// BuildRows decomposes every order line, returning the rows plus how many
// lines fell back to the default rate. rates narrows explicit line rates
// to the policy-enabled set.
func BuildRows(orders []orderdomain.Order, defaultRate tax.Rate, rates tax.RateSet) ([]OrderRow, int, error) {
	rows := make([]OrderRow, 0, len(orders))
	fallbacks := 0
	for _, order := range orders {
		row := OrderRow{
			Order:     order,
			Lines:     make([]tax.LineBreakdown, 0, len(order.Lines)),
			Breakdown: tax.NewBreakdown(),
		}
		for _, line := range order.Lines {
			lb, err := tax.ComputeLine(line.UnitPriceCents, line.Quantity, rates.Narrow(line.VATRate), defaultRate)
			if err != nil {
				return nil, fallbacks, fmt.Errorf("order %s line %q: %w", order.ID, line.Name, err)
			}
			if lb.UsedDefaultRate {
				fallbacks++
			}
			row.Lines = append(row.Lines, lb)
			row.Breakdown.Add(lb)
		}
		rows = append(rows, row)
	}
	return rows, fallbacks, nil
}

// euros renders cents as a decimal-point amount, "12.34".
func euros(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// sanitize strips the characters that would break a delimited row.
func sanitize(s string) string {
	return strings.NewReplacer("\t", " ", "\r", " ", "\n", " ", ";", ",").Replace(s)
}
