package ai

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmaccoe/rent-wht-service/internal/models"
)

type stubProvider struct {
	response string
	err      error
}

func (s *stubProvider) ExtractData(ctx context.Context, prompt string) (string, error) {
	return s.response, s.err
}

func TestAssistFillsOnlyUnsetFields(t *testing.T) {
	base := decimal.RequireFromString("5000000.00")
	record := &models.InvoiceRecord{
		InvoiceNumber: "INV-1",
		BaseRent:      &base,
		RawText:       "raw",
	}

	provider := &stubProvider{response: "```json\n" + `{
		"invoiceNumber": "MODEL-SAYS-OTHERWISE",
		"baseRent": "9,999,999.00",
		"vatAmount": 900000,
		"landlordName": "Mwanza Properties Ltd"
	}` + "\n```"}

	err := NewExtractor(provider).Assist(context.Background(), record)
	require.NoError(t, err)

	// Extracted values survive, gaps get filled
	assert.Equal(t, "INV-1", record.InvoiceNumber)
	assert.True(t, record.BaseRent.Equal(decimal.RequireFromString("5000000.00")))
	require.NotNil(t, record.VATAmount)
	assert.True(t, record.VATAmount.Equal(decimal.RequireFromString("900000")))
	assert.Equal(t, "Mwanza Properties Ltd", record.LandlordName)
}

func TestAssistProviderErrorLeavesRecordUntouched(t *testing.T) {
	record := &models.InvoiceRecord{RawText: "raw"}

	err := NewExtractor(&stubProvider{err: assert.AnError}).Assist(context.Background(), record)

	assert.Error(t, err)
	assert.Nil(t, record.BaseRent)
	assert.Empty(t, record.LandlordName)
}

func TestParseDecimalShapes(t *testing.T) {
	assert.Nil(t, parseDecimal(nil))
	assert.Nil(t, parseDecimal("not a number"))
	assert.Nil(t, parseDecimal(""))

	d := parseDecimal("3,965.34")
	require.NotNil(t, d)
	assert.True(t, d.Equal(decimal.RequireFromString("3965.34")))

	d = parseDecimal(float64(120))
	require.NotNil(t, d)
	assert.True(t, d.Equal(decimal.RequireFromString("120")))
}
