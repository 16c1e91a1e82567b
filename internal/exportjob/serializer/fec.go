package serializer

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/tabresto/fiscal/internal/config"
	exportdomain "github.com/tabresto/fiscal/internal/exportjob/domain"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// fecHeader is the mandated column set, in the mandated order. The file is
// a hard external wire contract: field count, order, date format and the
// comma decimal separator all come from the tax authority's schema.
var fecHeader = []string{
	"JournalCode", "JournalLib", "EcritureNum", "EcritureDate",
	"CompteNum", "CompteLib", "CompAuxNum", "CompAuxLib",
	"PieceRef", "PieceDate", "EcritureLib",
	"Debit", "Credit",
	"EcritureLet", "DateLet", "ValidDate",
	"Montantdevise", "Idevise",
}

type fecSerializer struct{}

func NewFEC() Serializer {
	return &fecSerializer{}
}

func (s *fecSerializer) Serialize(_ context.Context, in Input) (Output, error) {
	if in.Settings == nil || strings.TrimSpace(in.Settings.SIRET) == "" {
		return Output{}, exportdomain.ErrMissingSIRET
	}

	var buf bytes.Buffer
	writeRow(&buf, fecHeader)

	var rowCount int64
	emit := func(row []string) {
		writeRow(&buf, row)
		rowCount++
	}

	policy := in.Policy
	for i, row := range in.Orders {
		// One balanced entry set per order: the till is debited for the
		// full amount collected, sales and collected VAT are credited per
		// rate, tips go to their own account. Debits equal credits because
		// HT + TVA == TTC holds per line.
		entryNum := fmt.Sprintf("%d", i+1)
		order := row.Order
		date := order.PaidAt.Format("20060102")
		label := sanitize("Vente " + order.InvoiceNumber)

		collected := row.Breakdown.TotalTTC() + order.TipCents
		emit(entry(policy, entryNum, date, order.InvoiceNumber, label,
			policy.CashAccount, "Caisse", collected, 0))

		for _, rate := range row.Breakdown.Rates() {
			bucket := row.Breakdown.ForRate(rate)
			emit(entry(policy, entryNum, date, order.InvoiceNumber, label,
				policy.SalesAccount, "Ventes "+rate.Percent(), 0, bucket.HT))
			if bucket.TVA != 0 {
				emit(entry(policy, entryNum, date, order.InvoiceNumber, label,
					policy.VATAccount, "TVA collectée "+rate.Percent(), 0, bucket.TVA))
			}
		}

		if order.TipCents != 0 {
			emit(entry(policy, entryNum, date, order.InvoiceNumber, label,
				policy.TipsAccount, "Pourboires", 0, order.TipCents))
		}
	}

	data := buf.Bytes()
	if strings.EqualFold(in.Encoding, "iso-8859-15") {
		encoder := encoding.ReplaceUnsupported(charmap.ISO8859_15.NewEncoder())
		encoded, err := encoder.Bytes(data)
		if err != nil {
			return Output{}, fmt.Errorf("encode iso-8859-15: %w", err)
		}
		data = encoded
	}

	// The filename carries the SIRET and the closing date of the period.
	closing := in.PeriodEnd.AddDate(0, 0, -1)
	return Output{
		Filename:    fmt.Sprintf("%sFEC%s.txt", in.Settings.SIRET, closing.Format("20060102")),
		ContentType: "text/plain; charset=" + fileCharset(in.Encoding),
		Data:        data,
		RowCount:    rowCount,
	}, nil
}

// entry builds one 18-column accounting line. Unused lettering and currency
// columns stay empty; ValidDate mirrors the document date.
func entry(policy config.FiscalPolicy, num, date, pieceRef, label, account, accountLabel string, debit, credit int64) []string {
	return []string{
		policy.JournalCode, policy.JournalLabel, num, date,
		account, sanitize(accountLabel), "", "",
		sanitize(pieceRef), date, label,
		eurosComma(debit), eurosComma(credit),
		"", "", date,
		"", "",
	}
}

func writeRow(buf *bytes.Buffer, fields []string) {
	buf.WriteString(strings.Join(fields, "\t"))
	buf.WriteString("\r\n")
}

// eurosComma renders cents with the mandated comma decimal separator.
func eurosComma(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d,%02d", sign, cents/100, cents%100)
}

func fileCharset(enc string) string {
	if strings.EqualFold(enc, "iso-8859-15") {
		return "iso-8859-15"
	}
	return "utf-8"
}
