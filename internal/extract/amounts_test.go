package extract

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAmountsBothTokenOrders(t *testing.T) {
	text := `
		Base Rent: TZS 5,000,000.00
		VAT Amount: 900,000.00 TSh
		Grand Total: TZS 5,900,000.00
	`

	scan := ExtractAmounts(text)

	require.Len(t, scan.Amounts, 3)
	// Collected in text order regardless of which token order matched
	assert.True(t, scan.Amounts[0].Equal(decimal.RequireFromString("5000000.00")))
	assert.True(t, scan.Amounts[1].Equal(decimal.RequireFromString("900000.00")))
	assert.True(t, scan.Amounts[2].Equal(decimal.RequireFromString("5900000.00")))
}

func TestExtractAmountsKeepsRepeatedFigures(t *testing.T) {
	text := "Deposit TZS 500,000.00 and rent TZS 500,000.00"

	scan := ExtractAmounts(text)

	// Repeated figures are kept; disambiguation is positional, not by value
	require.Len(t, scan.Amounts, 2)
	assert.True(t, scan.Amounts[0].Equal(scan.Amounts[1]))
}

func TestExtractAmountsVATClauseWithRate(t *testing.T) {
	text := "VAT @ 18%: TZS 900,000.00"

	scan := ExtractAmounts(text)

	require.NotNil(t, scan.VATRate)
	require.NotNil(t, scan.VATAmount)
	assert.True(t, scan.VATRate.Equal(decimal.RequireFromString("0.18")))
	assert.True(t, scan.VATAmount.Equal(decimal.RequireFromString("900000.00")))
}

func TestExtractAmountsVATClauseAmountOnly(t *testing.T) {
	text := "Includes 900,000.00 VAT"

	scan := ExtractAmounts(text)

	assert.Nil(t, scan.VATRate)
	require.NotNil(t, scan.VATAmount)
	assert.True(t, scan.VATAmount.Equal(decimal.RequireFromString("900000.00")))
}

func TestExtractAmountsNoVATClause(t *testing.T) {
	scan := ExtractAmounts("Total: TZS 1,000,000.00")

	assert.Nil(t, scan.VATRate)
	assert.Nil(t, scan.VATAmount)
}

func TestExtractAmountsEmptyText(t *testing.T) {
	scan := ExtractAmounts("no currency figures here")

	assert.Empty(t, scan.Amounts)
}

func TestParseAmountMalformedTokenSkipped(t *testing.T) {
	_, ok := parseAmount("")
	assert.False(t, ok)

	_, ok = parseAmount("12.34.56")
	assert.False(t, ok)

	v, ok := parseAmount("5,000,000.00")
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.RequireFromString("5000000.00")))
}
