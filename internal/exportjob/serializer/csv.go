package serializer

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/tabresto/fiscal/internal/tax"
)

// csvSerializer covers both the plain CSV export and the "spreadsheet"
// variant: the latter is the same rows with a UTF-8 BOM and a semicolon
// delimiter, which is what French Excel expects when double-clicking a file.
type csvSerializer struct {
	comma       rune
	bom         bool
	extension   string
	contentType string
}

func NewCSV() Serializer {
	return &csvSerializer{
		comma:       ',',
		extension:   "csv",
		contentType: "text/csv; charset=utf-8",
	}
}

func NewSpreadsheet() Serializer {
	return &csvSerializer{
		comma:       ';',
		bom:         true,
		extension:   "csv",
		contentType: "application/vnd.ms-excel",
	}
}

var summaryHeader = []string{
	"date", "invoice_number", "customer",
	"ht_5_5", "tva_5_5", "ht_10", "tva_10", "ht_20", "tva_20", "base_exempt",
	"total_ht", "total_tva", "total_ttc",
}

var detailHeader = []string{
	"date", "invoice_number", "customer",
	"line", "quantity", "unit_ttc", "vat_rate",
	"total_ht", "total_tva", "total_ttc",
}

func (s *csvSerializer) Serialize(_ context.Context, in Input) (Output, error) {
	var buf bytes.Buffer
	if s.bom {
		buf.Write([]byte{0xEF, 0xBB, 0xBF})
	}

	w := csv.NewWriter(&buf)
	w.Comma = s.comma

	var rowCount int64
	if in.IncludeDetails {
		if err := w.Write(detailHeader); err != nil {
			return Output{}, err
		}
		for _, row := range in.Orders {
			for i, lb := range row.Lines {
				record := []string{
					row.Order.PaidAt.Format("2006-01-02"),
					row.Order.InvoiceNumber,
					row.Order.CustomerName,
					row.Order.Lines[i].Name,
					strconv.FormatInt(lb.Quantity, 10),
					euros(lb.UnitTTC),
					lb.Rate.Percent(),
					euros(lb.TotalHT),
					euros(lb.TotalTVA),
					euros(lb.TotalTTC),
				}
				if err := w.Write(record); err != nil {
					return Output{}, err
				}
				rowCount++
			}
		}
	} else {
		if err := w.Write(summaryHeader); err != nil {
			return Output{}, err
		}
		for _, row := range in.Orders {
			reduced := row.Breakdown.ForRate(tax.RateReduced)
			intermediate := row.Breakdown.ForRate(tax.RateIntermediate)
			standard := row.Breakdown.ForRate(tax.RateStandard)
			exempt := row.Breakdown.ForRate(tax.RateExempt)
			record := []string{
				row.Order.PaidAt.Format("2006-01-02"),
				row.Order.InvoiceNumber,
				row.Order.CustomerName,
				euros(reduced.HT), euros(reduced.TVA),
				euros(intermediate.HT), euros(intermediate.TVA),
				euros(standard.HT), euros(standard.TVA),
				euros(exempt.HT),
				euros(row.Breakdown.TotalHT()),
				euros(row.Breakdown.TotalTVA()),
				euros(row.Breakdown.TotalTTC()),
			}
			if err := w.Write(record); err != nil {
				return Output{}, err
			}
			rowCount++
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return Output{}, err
	}

	return Output{
		Filename: fmt.Sprintf("ventes_%s_%s.%s",
			in.PeriodStart.Format("20060102"),
			in.PeriodEnd.Format("20060102"),
			s.extension),
		ContentType: s.contentType,
		Data:        buf.Bytes(),
		RowCount:    rowCount,
	}, nil
}
