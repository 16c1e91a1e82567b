package serializer

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tabresto/fiscal/internal/config"
	exportdomain "github.com/tabresto/fiscal/internal/exportjob/domain"
	settingsdomain "github.com/tabresto/fiscal/internal/fiscalsettings/domain"
	orderdomain "github.com/tabresto/fiscal/internal/order/domain"
	"github.com/tabresto/fiscal/internal/tax"
)

func fecInput(t *testing.T, orders []orderdomain.Order) Input {
	t.Helper()
	rows, _, err := BuildRows(orders, tax.RateStandard, tax.RateSet{})
	assert.NoError(t, err)
	return Input{
		Settings:    &settingsdomain.FiscalSettings{SIRET: "12345678901234"},
		Policy:      config.DefaultFiscalPolicy(),
		PeriodStart: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Orders:      rows,
	}
}

func fecLines(t *testing.T, out Output) [][]string {
	t.Helper()
	raw := strings.TrimRight(string(out.Data), "\r\n")
	var lines [][]string
	for _, l := range strings.Split(raw, "\r\n") {
		lines = append(lines, strings.Split(l, "\t"))
	}
	return lines
}

func TestFEC_ColumnContract(t *testing.T) {
	rate := 0.10
	out, err := NewFEC().Serialize(context.Background(), fecInput(t, []orderdomain.Order{{
		InvoiceNumber: "FAC-2025-0001",
		PaidAt:        time.Date(2025, 3, 12, 19, 30, 0, 0, time.UTC),
		Lines: []orderdomain.OrderLine{
			{Name: "plat du jour", Quantity: 2, UnitPriceCents: 1200, VATRate: &rate},
		},
	}}))
	assert.NoError(t, err)
	assert.Equal(t, "12345678901234FEC20250331.txt", out.Filename)

	lines := fecLines(t, out)
	assert.Equal(t, "JournalCode", lines[0][0])
	assert.Equal(t, "Idevise", lines[0][17])
	for _, line := range lines {
		assert.Len(t, line, 18)
	}

	// Caisse debit, Ventes credit, TVA credit.
	assert.Equal(t, int64(3), out.RowCount)
	caisse := lines[1]
	assert.Equal(t, "VT", caisse[0])
	assert.Equal(t, "531000", caisse[4])
	assert.Equal(t, "20250312", caisse[3])
	assert.Equal(t, "24,00", caisse[11])
	assert.Equal(t, "0,00", caisse[12])

	ventes := lines[2]
	assert.Equal(t, "707000", ventes[4])
	assert.Equal(t, "21,82", ventes[12]) // 2 × round(1200/1.1)

	tva := lines[3]
	assert.Equal(t, "445710", tva[4])
	assert.Equal(t, "2,18", tva[12])
}

func TestFEC_EntriesBalance(t *testing.T) {
	r10, r20, r55 := 0.10, 0.20, 0.055
	out, err := NewFEC().Serialize(context.Background(), fecInput(t, []orderdomain.Order{
		{
			InvoiceNumber: "FAC-1",
			TipCents:      150,
			PaidAt:        time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC),
			Lines: []orderdomain.OrderLine{
				{Name: "menu", Quantity: 3, UnitPriceCents: 1790, VATRate: &r10},
				{Name: "vin", Quantity: 1, UnitPriceCents: 2400, VATRate: &r20},
				{Name: "eau", Quantity: 2, UnitPriceCents: 350, VATRate: &r55},
			},
		},
		{
			InvoiceNumber: "FAC-2",
			PaidAt:        time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC),
			Lines: []orderdomain.OrderLine{
				{Name: "café", Quantity: 1, UnitPriceCents: 999, VATRate: &r10},
			},
		},
	}))
	assert.NoError(t, err)

	totals := map[string][2]int64{} // EcritureNum → debit, credit cents
	for _, line := range fecLines(t, out)[1:] {
		debit := parseComma(t, line[11])
		credit := parseComma(t, line[12])
		acc := totals[line[2]]
		totals[line[2]] = [2]int64{acc[0] + debit, acc[1] + credit}
	}

	assert.Len(t, totals, 2)
	for num, dc := range totals {
		assert.Equal(t, dc[0], dc[1], "entry %s out of balance", num)
		assert.NotZero(t, dc[0])
	}
}

func parseComma(t *testing.T, s string) int64 {
	t.Helper()
	parts := strings.SplitN(s, ",", 2)
	whole, err := strconv.ParseInt(parts[0], 10, 64)
	assert.NoError(t, err)
	frac, err := strconv.ParseInt(parts[1], 10, 64)
	assert.NoError(t, err)
	if whole < 0 {
		return whole*100 - frac
	}
	return whole*100 + frac
}

func TestFEC_SanitizesEmbeddedDelimiters(t *testing.T) {
	rate := 0.10
	out, err := NewFEC().Serialize(context.Background(), fecInput(t, []orderdomain.Order{{
		InvoiceNumber: "FAC\t2025\n0001",
		PaidAt:        time.Date(2025, 3, 12, 19, 30, 0, 0, time.UTC),
		Lines: []orderdomain.OrderLine{
			{Name: "plat", Quantity: 1, UnitPriceCents: 1000, VATRate: &rate},
		},
	}}))
	assert.NoError(t, err)

	for _, line := range fecLines(t, out) {
		assert.Len(t, line, 18)
	}
}

func TestFEC_RequiresSIRET(t *testing.T) {
	in := fecInput(t, nil)
	in.Settings = &settingsdomain.FiscalSettings{}

	_, err := NewFEC().Serialize(context.Background(), in)
	cfgErr, ok := exportdomain.AsConfigurationError(err)
	assert.True(t, ok)
	assert.Equal(t, "siret", cfgErr.Field)
}

func TestFEC_ISO8859_15Encoding(t *testing.T) {
	rate := 0.10
	in := fecInput(t, []orderdomain.Order{{
		InvoiceNumber: "FAC-É-1",
		PaidAt:        time.Date(2025, 3, 12, 19, 30, 0, 0, time.UTC),
		Lines: []orderdomain.OrderLine{
			{Name: "café", Quantity: 1, UnitPriceCents: 1000, VATRate: &rate},
		},
	}})
	in.Encoding = "iso-8859-15"

	out, err := NewFEC().Serialize(context.Background(), in)
	assert.NoError(t, err)
	assert.Contains(t, out.ContentType, "iso-8859-15")

	// "É" is a single 0xC9 byte in latin-9, two bytes in UTF-8.
	assert.Contains(t, string(out.Data), "FAC-\xc9-1")
}
