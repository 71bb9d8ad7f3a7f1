package services

import (
	"github.com/shopspring/decimal"

	"github.com/jmaccoe/rent-wht-service/internal/models"
)

// Statutory constants for Tanzanian commercial rent paid by a withholding
// agent to a resident landlord.
var (
	// WHTRate is the 10% withholding applied to base rent only, never to VAT.
	WHTRate = decimal.RequireFromString("0.10")

	// VATRateStandard is the 18% standard VAT rate.
	VATRateStandard = decimal.RequireFromString("0.18")

	// vatRateDrift is how far an effective VAT rate may sit from the
	// standard rate before it is flagged as non-standard.
	vatRateDrift = decimal.RequireFromString("0.01")
)

// TaxEngine computes the statutory tax split for a validated invoice.
// Every method is a pure function: no I/O, no mutation, deterministic.
type TaxEngine struct{}

// NewTaxEngine creates a new tax engine
func NewTaxEngine() *TaxEngine {
	return &TaxEngine{}
}

// Compute derives the withholding split from base rent and VAT.
//
// Every intermediate monetary result is quantized to two decimal places with
// half-up rounding before it feeds the next step. decimal.Round is half away
// from zero, which is identical to half-up on the non-negative amounts this
// domain allows; binary-float or banker's rounding would shift amounts that
// must reconcile to the invoice total to the cent.
func (e *TaxEngine) Compute(baseRent, vatAmount decimal.Decimal) models.TaxBreakdown {
	wht := baseRent.Mul(WHTRate).Round(2)
	paymentToLandlord := baseRent.Sub(wht).Add(vatAmount).Round(2)
	totalOutflow := paymentToLandlord.Add(wht).Round(2)

	return models.TaxBreakdown{
		WithholdingTax:    wht,
		PaymentToLandlord: paymentToLandlord,
		TotalOutflow:      totalOutflow,
	}
}

// VerifyVATRate computes the effective VAT rate at four decimal places and
// reports whether it sits within a percentage point of the 18% standard rate.
// A non-standard rate is a caller-side warning, not a failure. A zero base
// has no meaningful rate.
func (e *TaxEngine) VerifyVATRate(vatAmount, baseAmount decimal.Decimal) (decimal.Decimal, bool) {
	if baseAmount.IsZero() {
		return decimal.Zero, false
	}

	effectiveRate := vatAmount.DivRound(baseAmount, 4)
	isStandard := effectiveRate.Sub(VATRateStandard).Abs().LessThan(vatRateDrift)

	return effectiveRate, isStandard
}

// Reconcile compares the computed total outflow against the total stated on
// the invoice, using the same 0.10 TZS tolerance as validation. A mismatch is
// reported alongside the fully-computed breakdown, never instead of it.
func (e *TaxEngine) Reconcile(breakdown models.TaxBreakdown, statedTotal decimal.Decimal) models.Reconciliation {
	delta := breakdown.TotalOutflow.Sub(statedTotal)
	return models.Reconciliation{
		StatedTotal:  statedTotal,
		TotalOutflow: breakdown.TotalOutflow,
		Delta:        delta,
		Matches:      delta.Abs().LessThanOrEqual(amountTolerance),
	}
}

// ComplianceNotes returns the statutory assumptions behind the computation,
// for display next to any result.
func ComplianceNotes() []string {
	return []string{
		"WHT computed at the 10% rate for rent paid to a resident landlord; non-resident landlords attract a different rate.",
		"Withheld tax must be remitted to TRA within 7 days after the end of the month of payment.",
		"Issue a withholding tax certificate to the landlord for the amount withheld.",
		"VAT applies only when the landlord is VAT-registered; a zero VAT line is valid for exempt leases.",
	}
}
