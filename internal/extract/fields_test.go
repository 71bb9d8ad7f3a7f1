package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFieldsFullInvoice(t *testing.T) {
	text := `
		MWANZA PROPERTIES LTD
		Invoice No: INV-2024/001
		Date: 15/01/2024
		Rent for: January 2024
		Description: Office Rent - Plot 45 Nyerere Road
		Landlord: Mwanza Properties Ltd
		TIN: 123456789
		Bank: CRDB Bank
		Account: 0150-123456
		USD 2,250.00 equivalent
	`

	fields := ExtractFields(text)

	assert.Equal(t, "INV-2024/001", fields.InvoiceNumber)
	assert.Equal(t, "15/01/2024", fields.InvoiceDate)
	assert.Equal(t, "January 2024", fields.RentPeriod)
	// Description keeps the whole match, label included
	assert.Equal(t, "Description: Office Rent - Plot 45 Nyerere Road", fields.Description)
	assert.Equal(t, "Mwanza Properties Ltd", fields.LandlordName)
	assert.Equal(t, "123456789", fields.LandlordTIN)
	assert.Equal(t, "CRDB Bank", fields.LandlordBank)
	assert.Equal(t, "0150-123456", fields.LandlordAccount)
	assert.Equal(t, "USD 2,250.00", fields.USDEquivalentNote)
}

func TestExtractFieldsSecondaryPatterns(t *testing.T) {
	text := `
		INV: A-77
		3 March 2024
		Office Rent first floor
		Kilimo House Limited
	`

	fields := ExtractFields(text)

	assert.Equal(t, "A-77", fields.InvoiceNumber)
	assert.Equal(t, "3 March 2024", fields.InvoiceDate)
	assert.Equal(t, "Office Rent first floor", fields.Description)
	assert.Equal(t, "Kilimo House Limited", fields.LandlordName)
}

func TestExtractFieldsFirstPatternWinsPerField(t *testing.T) {
	// Both invoice-number patterns could match; the higher-priority one wins.
	text := "Invoice Number: RENT-001 INV: OTHER-999"

	fields := ExtractFields(text)

	assert.Equal(t, "RENT-001", fields.InvoiceNumber)
}

func TestExtractFieldsUnmatchedStayEmpty(t *testing.T) {
	fields := ExtractFields("nothing recognizable in this blob")

	assert.Empty(t, fields.InvoiceNumber)
	assert.Empty(t, fields.InvoiceDate)
	assert.Empty(t, fields.RentPeriod)
	assert.Empty(t, fields.LandlordTIN)
	assert.Empty(t, fields.LandlordBank)
	assert.Empty(t, fields.LandlordAccount)
	assert.Empty(t, fields.USDEquivalentNote)
}

func TestExtractFieldsBankAndAccountIndependent(t *testing.T) {
	// Account slot matches even when no bank name is printed
	fields := ExtractFields("Account: 99-88-77")

	assert.Empty(t, fields.LandlordBank)
	assert.Equal(t, "99-88-77", fields.LandlordAccount)
}
