package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmaccoe/rent-wht-service/internal/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func record(base, vat, total string) *models.InvoiceRecord {
	r := &models.InvoiceRecord{}
	if base != "" {
		r.BaseRent = decPtr(base)
	}
	if vat != "" {
		r.VATAmount = decPtr(vat)
	}
	if total != "" {
		r.TotalAmount = decPtr(total)
	}
	return r
}

func TestValidateConsistentRecord(t *testing.T) {
	ok, errs := NewValidator().Validate(record("5000000.00", "900000.00", "5900000.00"))

	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestValidateZeroVATIsValid(t *testing.T) {
	ok, errs := NewValidator().Validate(record("1000000.00", "0.00", "1000000.00"))

	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestValidateEmptyRecordAccumulatesAllMessages(t *testing.T) {
	ok, errs := NewValidator().Validate(&models.InvoiceRecord{})

	assert.False(t, ok)
	// All checks run; none short-circuits the others
	require.Len(t, errs, 3)
	assert.Equal(t, "Base rent amount is missing or invalid", errs[0])
	assert.Equal(t, "VAT amount is missing or invalid", errs[1])
	assert.Equal(t, "Total amount is missing or invalid", errs[2])
}

func TestValidateNegativeAndZeroAmounts(t *testing.T) {
	ok, errs := NewValidator().Validate(record("0.00", "-1.00", "0.00"))

	assert.False(t, ok)
	require.Len(t, errs, 3)
}

func TestValidateMismatchWithinTolerance(t *testing.T) {
	// Drift of exactly 0.10 is still consistent
	ok, errs := NewValidator().Validate(record("5000000.00", "900000.00", "5900000.10"))

	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestValidateMismatchBeyondTolerance(t *testing.T) {
	ok, errs := NewValidator().Validate(record("1000000.00", "0.00", "1200000.00"))

	assert.False(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t,
		"Amount mismatch: Base (1,000,000.00) + VAT (0.00) != Total (1,200,000.00)",
		errs[0])
}

func TestValidateMissingFieldSkipsConsistencyCheck(t *testing.T) {
	// Consistency is only judged when all three amounts are present
	ok, errs := NewValidator().Validate(record("5000000.00", "", "1.00"))

	assert.False(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "VAT amount is missing or invalid", errs[0])
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "5,000,000.00", formatAmount(dec("5000000")))
	assert.Equal(t, "0.00", formatAmount(dec("0")))
	assert.Equal(t, "999.99", formatAmount(dec("999.99")))
	assert.Equal(t, "1,000.00", formatAmount(dec("1000")))
	assert.Equal(t, "-12,345.68", formatAmount(dec("-12345.675")))
}
