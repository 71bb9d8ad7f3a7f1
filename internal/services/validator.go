package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jmaccoe/rent-wht-service/internal/models"
)

// amountTolerance is how far base + VAT may drift from the stated total
// before the record is flagged as inconsistent, in TZS.
var amountTolerance = decimal.RequireFromString("0.10")

// Validator checks an invoice record for completeness and internal
// consistency before tax computation is allowed to run.
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate runs every check and collects a message per failure. No check
// short-circuits another; ok is true only when no message was appended.
// A failed record is routed to manual correction, never rejected outright.
func (v *Validator) Validate(record *models.InvoiceRecord) (bool, []string) {
	errors := []string{}

	if record.BaseRent == nil || !record.BaseRent.IsPositive() {
		errors = append(errors, "Base rent amount is missing or invalid")
	}

	// Zero VAT is a valid extraction (exempt lease); only absence or a
	// negative amount fails.
	if record.VATAmount == nil || record.VATAmount.IsNegative() {
		errors = append(errors, "VAT amount is missing or invalid")
	}

	if record.TotalAmount == nil || !record.TotalAmount.IsPositive() {
		errors = append(errors, "Total amount is missing or invalid")
	}

	if record.BaseRent != nil && record.VATAmount != nil && record.TotalAmount != nil {
		expected := record.BaseRent.Add(*record.VATAmount)
		if expected.Sub(*record.TotalAmount).Abs().GreaterThan(amountTolerance) {
			errors = append(errors, fmt.Sprintf(
				"Amount mismatch: Base (%s) + VAT (%s) != Total (%s)",
				formatAmount(*record.BaseRent),
				formatAmount(*record.VATAmount),
				formatAmount(*record.TotalAmount),
			))
		}
	}

	return len(errors) == 0, errors
}

// formatAmount renders a decimal with thousands separators and two decimal
// places, for validation messages only. Caller-facing currency formatting
// stays with the presentation layer.
func formatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String() + "." + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
