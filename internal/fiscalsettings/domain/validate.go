package domain

import (
	"regexp"
	"strings"
)

var (
	siretRe = regexp.MustCompile(`^\d{14}$`)
	vatRe   = regexp.MustCompile(`^FR\d{11}$`)
	nafRe   = regexp.MustCompile(`^\d{4}[A-Z]$`)
)

// Validate checks a fully merged settings value field by field. It is pure
// and total: every well-typed input gets a verdict, never a panic. A nil
// return means the value was also normalized in place (trimmed, uppercased
// where the format demands it).
func (s *FiscalSettings) Validate() ValidationErrors {
	var errs ValidationErrors

	s.SIRET = strings.TrimSpace(s.SIRET)
	if s.SIRET == "" {
		errs = append(errs, FieldError{
			Field:   "siret",
			Code:    "required",
			Message: "SIRET is required",
		})
	} else if !siretRe.MatchString(s.SIRET) {
		errs = append(errs, FieldError{
			Field:   "siret",
			Code:    "invalid_siret",
			Message: "SIRET must be exactly 14 digits",
		})
	}

	if s.VATNumber != nil {
		normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(*s.VATNumber), " ", ""))
		if normalized == "" {
			s.VATNumber = nil
		} else if !vatRe.MatchString(normalized) {
			errs = append(errs, FieldError{
				Field:   "vat_number",
				Code:    "invalid_vat_number",
				Message: "intra-EU VAT number must be FR followed by 11 digits",
			})
		} else {
			s.VATNumber = &normalized
		}
	}

	if s.NAFCode != nil {
		normalized := strings.ToUpper(strings.TrimSpace(*s.NAFCode))
		if normalized == "" {
			s.NAFCode = nil
		} else if !nafRe.MatchString(normalized) {
			errs = append(errs, FieldError{
				Field:   "naf_code",
				Code:    "invalid_naf_code",
				Message: "NAF code must be 4 digits followed by an uppercase letter",
			})
		} else {
			s.NAFCode = &normalized
		}
	}

	s.InvoicePrefix = strings.TrimSpace(s.InvoicePrefix)
	if s.InvoicePrefix == "" {
		errs = append(errs, FieldError{
			Field:   "invoice_prefix",
			Code:    "required",
			Message: "invoice prefix is required",
		})
	} else if len(s.InvoicePrefix) > 10 {
		errs = append(errs, FieldError{
			Field:   "invoice_prefix",
			Code:    "too_long",
			Message: "invoice prefix must be at most 10 characters",
		})
	}

	if !s.VATRegime.Valid() {
		errs = append(errs, FieldError{
			Field:   "vat_regime",
			Code:    "invalid_vat_regime",
			Message: "VAT regime must be normal, simplified or exempt",
		})
	}

	if !validExportFormat(s.DefaultExportFormat) {
		errs = append(errs, FieldError{
			Field:   "default_export_format",
			Code:    "invalid_export_format",
			Message: "default export format must be csv, spreadsheet, pdf or fec",
		})
	}

	return errs
}

func validExportFormat(format string) bool {
	for _, f := range ExportFormats {
		if format == f {
			return true
		}
	}
	return false
}
