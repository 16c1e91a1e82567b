package serializer

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	marotocfg "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/tabresto/fiscal/internal/tax"
)

type pdfSerializer struct{}

func NewPDF() Serializer {
	return &pdfSerializer{}
}

func (s *pdfSerializer) Serialize(_ context.Context, in Input) (Output, error) {
	cfg := marotocfg.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} / {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Journal des ventes", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	// Merchant identity and period.
	identity := "SIRET " + in.Settings.SIRET
	if in.Settings.VATNumber != nil {
		identity += "  ·  TVA " + *in.Settings.VATNumber
	}
	m.AddRow(16,
		col.New(12).Add(
			text.New(identity, props.Text{Size: 10}),
			text.New(fmt.Sprintf("Période du %s au %s",
				in.PeriodStart.Format("02/01/2006"),
				in.PeriodEnd.AddDate(0, 0, -1).Format("02/01/2006")),
				props.Text{Size: 10, Top: 5}),
		),
	)

	// Period totals per rate.
	totals := tax.NewBreakdown()
	var tips int64
	for _, row := range in.Orders {
		for _, lb := range row.Lines {
			totals.Add(lb)
		}
		tips += row.Order.TipCents
	}

	m.AddRow(8,
		text.NewCol(4, "Taux", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Base HT", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(4, "TVA", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, rate := range totals.Rates() {
		bucket := totals.ForRate(rate)
		m.AddRow(6,
			text.NewCol(4, rate.Percent(), props.Text{Size: 9}),
			text.NewCol(4, euros(bucket.HT)+" €", props.Text{Size: 9, Align: align.Right}),
			text.NewCol(4, euros(bucket.TVA)+" €", props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(8,
		text.NewCol(4, "Total TTC", props.Text{Style: fontstyle.Bold, Size: 9}),
		col.New(4),
		text.NewCol(4, euros(totals.TotalTTC())+" €", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	if tips != 0 {
		m.AddRow(6,
			text.NewCol(4, "Pourboires", props.Text{Size: 9}),
			col.New(4),
			text.NewCol(4, euros(tips)+" €", props.Text{Size: 9, Align: align.Right}),
		)
	}

	// Invoice table.
	m.AddRow(10,
		text.NewCol(2, "Date", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Facture", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Client", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "HT", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "TTC", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	var rowCount int64
	for _, row := range in.Orders {
		m.AddRow(6,
			text.NewCol(2, row.Order.PaidAt.Format("02/01/2006"), props.Text{Size: 8}),
			text.NewCol(3, row.Order.InvoiceNumber, props.Text{Size: 8}),
			text.NewCol(3, row.Order.CustomerName, props.Text{Size: 8}),
			text.NewCol(2, euros(row.Breakdown.TotalHT()), props.Text{Size: 8, Align: align.Right}),
			text.NewCol(2, euros(row.Breakdown.TotalTTC()), props.Text{Size: 8, Align: align.Right}),
		)
		rowCount++

		if in.IncludeDetails {
			for i, lb := range row.Lines {
				m.AddRow(5,
					col.New(2),
					text.NewCol(5, fmt.Sprintf("%s × %d (%s)", row.Order.Lines[i].Name, lb.Quantity, lb.Rate.Percent()), props.Text{Size: 7}),
					col.New(1),
					text.NewCol(2, euros(lb.TotalHT), props.Text{Size: 7, Align: align.Right}),
					text.NewCol(2, euros(lb.TotalTTC), props.Text{Size: 7, Align: align.Right}),
				)
				rowCount++
			}
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return Output{}, err
	}

	return Output{
		Filename: fmt.Sprintf("ventes_%s_%s.pdf",
			in.PeriodStart.Format("20060102"),
			in.PeriodEnd.Format("20060102")),
		ContentType: "application/pdf",
		Data:        doc.GetBytes(),
		RowCount:    rowCount,
	}, nil
}
