package extract

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

func TestAssembleDerivesBaseFromTotalAndVAT(t *testing.T) {
	scan := AmountScan{
		Amounts:   []decimal.Decimal{dec("900000.00"), dec("5900000.00")},
		VATAmount: decPtr("900000.00"),
	}

	record := Assemble(scan, FieldSet{}, "raw")

	require.NotNil(t, record.TotalAmount)
	require.NotNil(t, record.VATAmount)
	require.NotNil(t, record.BaseRent)
	assert.True(t, record.TotalAmount.Equal(dec("5900000.00")))
	assert.True(t, record.BaseRent.Equal(dec("5000000.00")))
	assert.Equal(t, "raw", record.RawText)
}

func TestAssemblePositionalInference(t *testing.T) {
	// No explicit VAT clause: last amount is total, second-to-last is VAT
	scan := AmountScan{
		Amounts: []decimal.Decimal{dec("5000000.00"), dec("900000.00"), dec("5900000.00")},
	}

	record := Assemble(scan, FieldSet{}, "")

	require.NotNil(t, record.TotalAmount)
	require.NotNil(t, record.VATAmount)
	assert.True(t, record.TotalAmount.Equal(dec("5900000.00")))
	assert.True(t, record.VATAmount.Equal(dec("900000.00")))
	assert.True(t, record.BaseRent.Equal(dec("5000000.00")))
}

func TestAssembleExplicitVATNotOverwritten(t *testing.T) {
	// Explicit VAT clause wins over the second-to-last positional guess
	scan := AmountScan{
		Amounts:   []decimal.Decimal{dec("5000000.00"), dec("111111.00"), dec("5900000.00")},
		VATAmount: decPtr("900000.00"),
	}

	record := Assemble(scan, FieldSet{}, "")

	require.NotNil(t, record.VATAmount)
	assert.True(t, record.VATAmount.Equal(dec("900000.00")))
}

func TestAssembleSingleAmountInfersNothing(t *testing.T) {
	scan := AmountScan{Amounts: []decimal.Decimal{dec("5900000.00")}}

	record := Assemble(scan, FieldSet{}, "")

	assert.Nil(t, record.TotalAmount)
	assert.Nil(t, record.VATAmount)
	assert.Nil(t, record.BaseRent)
}

func TestAssembleCarriesFields(t *testing.T) {
	fields := FieldSet{
		InvoiceNumber: "INV-1",
		LandlordName:  "Mwanza Properties Ltd",
		LandlordBank:  "CRDB Bank",
	}

	record := Assemble(AmountScan{}, fields, "text")

	assert.Equal(t, "INV-1", record.InvoiceNumber)
	assert.Equal(t, "Mwanza Properties Ltd", record.LandlordName)
	assert.Equal(t, "CRDB Bank", record.LandlordBank)
}

func TestParseInvoiceEndToEnd(t *testing.T) {
	text := `
		Invoice No: INV-2024/014
		Date: 05/01/2024
		Rent for: January 2024
		Description: Office Rent - Plot 45 Nyerere Road
		Landlord: Mwanza Properties Ltd
		TIN: 123456789

		Base Rent: TZS 5,000,000.00
		VAT @ 18%: TZS 900,000.00
		Total Due: TZS 5,900,000.00

		Bank: CRDB Bank
		Account: 0150-123456
	`

	record := ParseInvoice(text)

	assert.Equal(t, "INV-2024/014", record.InvoiceNumber)
	assert.Equal(t, "Mwanza Properties Ltd", record.LandlordName)
	require.NotNil(t, record.VATRate)
	assert.True(t, record.VATRate.Equal(dec("0.18")))
	require.NotNil(t, record.BaseRent)
	require.NotNil(t, record.VATAmount)
	require.NotNil(t, record.TotalAmount)
	assert.True(t, record.BaseRent.Equal(dec("5000000.00")))
	assert.True(t, record.VATAmount.Equal(dec("900000.00")))
	assert.True(t, record.TotalAmount.Equal(dec("5900000.00")))
	assert.Equal(t, text, record.RawText)
}

// manualRecord builds a record the way the manual-entry form would, with ""
// standing for a field the user left blank.
func manualRecord(base, vat, total string) *models.InvoiceRecord {
	record := &models.InvoiceRecord{}
	if base != "" {
		record.BaseRent = decPtr(base)
	}
	if vat != "" {
		record.VATAmount = decPtr(vat)
	}
	if total != "" {
		record.TotalAmount = decPtr(total)
	}
	return record
}

func TestCompleteManualRecordDerivesTotal(t *testing.T) {
	record := CompleteManualRecord(manualRecord("5000000.00", "900000.00", ""))

	require.NotNil(t, record.TotalAmount)
	assert.True(t, record.TotalAmount.Equal(dec("5900000.00")))
}

func TestCompleteManualRecordDerivesVAT(t *testing.T) {
	record := CompleteManualRecord(manualRecord("5000000.00", "", "5900000.00"))

	require.NotNil(t, record.VATAmount)
	assert.True(t, record.VATAmount.Equal(dec("900000.00")))
}

func TestCompleteManualRecordDerivesBase(t *testing.T) {
	record := CompleteManualRecord(manualRecord("", "900000.00", "5900000.00"))

	require.NotNil(t, record.BaseRent)
	assert.True(t, record.BaseRent.Equal(dec("5000000.00")))
}

func TestCompleteManualRecordIdempotentOnCompleteRecord(t *testing.T) {
	record := manualRecord("5000000.00", "900000.00", "6000000.00")

	CompleteManualRecord(record)

	// Nothing derived, nothing overwritten, even though the figures disagree
	assert.True(t, record.BaseRent.Equal(dec("5000000.00")))
	assert.True(t, record.VATAmount.Equal(dec("900000.00")))
	assert.True(t, record.TotalAmount.Equal(dec("6000000.00")))
}
