package serializer

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tabresto/fiscal/internal/config"
	settingsdomain "github.com/tabresto/fiscal/internal/fiscalsettings/domain"
	orderdomain "github.com/tabresto/fiscal/internal/order/domain"
	"github.com/tabresto/fiscal/internal/tax"
)

func csvInput(t *testing.T, includeDetails bool) Input {
	t.Helper()
	r10, r20 := 0.10, 0.20
	rows, _, err := BuildRows([]orderdomain.Order{{
		InvoiceNumber: "FAC-2025-0042",
		CustomerName:  "Table 7",
		PaidAt:        time.Date(2025, 3, 12, 19, 30, 0, 0, time.UTC),
		Lines: []orderdomain.OrderLine{
			{Name: "plat", Quantity: 2, UnitPriceCents: 1200, VATRate: &r10},
			{Name: "vin", Quantity: 1, UnitPriceCents: 2400, VATRate: &r20},
		},
	}}, tax.RateStandard, tax.RateSet{})
	assert.NoError(t, err)
	return Input{
		Settings:       &settingsdomain.FiscalSettings{SIRET: "12345678901234"},
		Policy:         config.DefaultFiscalPolicy(),
		PeriodStart:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:      time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Orders:         rows,
		IncludeDetails: includeDetails,
	}
}

func TestCSV_OneRowPerInvoice(t *testing.T) {
	out, err := NewCSV().Serialize(context.Background(), csvInput(t, false))
	assert.NoError(t, err)
	assert.Equal(t, "ventes_20250301_20250401.csv", out.Filename)
	assert.Equal(t, int64(1), out.RowCount)

	records, err := csv.NewReader(bytes.NewReader(out.Data)).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, summaryHeader, records[0])

	row := records[1]
	assert.Equal(t, "2025-03-12", row[0])
	assert.Equal(t, "FAC-2025-0042", row[1])
	assert.Equal(t, "Table 7", row[2])
	// 10%: 2 × (1091 HT + 109 TVA); 20%: 2000 HT + 400 TVA.
	assert.Equal(t, "21.82", row[5])
	assert.Equal(t, "2.18", row[6])
	assert.Equal(t, "20.00", row[7])
	assert.Equal(t, "4.00", row[8])
	assert.Equal(t, "41.82", row[10])
	assert.Equal(t, "6.18", row[11])
	assert.Equal(t, "48.00", row[12])
}

func TestCSV_OneRowPerLineWithDetails(t *testing.T) {
	out, err := NewCSV().Serialize(context.Background(), csvInput(t, true))
	assert.NoError(t, err)
	assert.Equal(t, int64(2), out.RowCount)

	records, err := csv.NewReader(bytes.NewReader(out.Data)).ReadAll()
	assert.NoError(t, err)
	assert.Equal(t, detailHeader, records[0])
	assert.Equal(t, "plat", records[1][3])
	assert.Equal(t, "2", records[1][4])
	assert.Equal(t, "10%", records[1][6])
	assert.Equal(t, "vin", records[2][3])
	assert.Equal(t, "20%", records[2][6])
}

func TestSpreadsheet_BOMAndSemicolon(t *testing.T) {
	out, err := NewSpreadsheet().Serialize(context.Background(), csvInput(t, false))
	assert.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out.Data, []byte{0xEF, 0xBB, 0xBF}))

	reader := csv.NewReader(bytes.NewReader(out.Data[3:]))
	reader.Comma = ';'
	records, err := reader.ReadAll()
	assert.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "48.00", records[1][12])
}

func TestCSV_EmptyPeriodStillHasHeader(t *testing.T) {
	in := csvInput(t, false)
	in.Orders = nil

	out, err := NewCSV().Serialize(context.Background(), in)
	assert.NoError(t, err)
	assert.Zero(t, out.RowCount)

	records, err := csv.NewReader(bytes.NewReader(out.Data)).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, records, 1)
}
