package extract

import (
	"github.com/shopspring/decimal"

	"github.com/jmaccoe/rent-wht-service/internal/models"
)

// ParseInvoice runs the full extraction pass over producer text: amount scan
// and field scan (independent, order-insensitive) merged into one record.
func ParseInvoice(rawText string) *models.InvoiceRecord {
	return Assemble(ExtractAmounts(rawText), ExtractFields(rawText), rawText)
}

// Assemble merges an amount scan and a field set into one candidate record.
//
// Amount assignment is positional, best-effort inference rather than semantic
// understanding: invoices list the total last, so with two or more amounts the
// last one is taken as the total, and with three or more the second-to-last is
// taken as VAT when no explicit VAT clause named it. Unrelated numeric runs in
// the text (phone numbers, reference codes) can defeat the heuristic; the
// validator and a human pass catch that.
//
// The only automatic derivation is base = total - VAT. Derivation never
// overwrites an explicitly extracted value.
func Assemble(scan AmountScan, fields FieldSet, rawText string) *models.InvoiceRecord {
	record := &models.InvoiceRecord{
		InvoiceNumber:     fields.InvoiceNumber,
		InvoiceDate:       fields.InvoiceDate,
		RentPeriod:        fields.RentPeriod,
		Description:       fields.Description,
		LandlordName:      fields.LandlordName,
		LandlordTIN:       fields.LandlordTIN,
		LandlordBank:      fields.LandlordBank,
		LandlordAccount:   fields.LandlordAccount,
		USDEquivalentNote: fields.USDEquivalentNote,
		RawText:           rawText,
		VATRate:           copyDecimal(scan.VATRate),
		VATAmount:         copyDecimal(scan.VATAmount),
	}

	if len(scan.Amounts) >= 2 {
		total := scan.Amounts[len(scan.Amounts)-1]
		record.TotalAmount = &total

		if record.VATAmount == nil && len(scan.Amounts) >= 3 {
			vat := scan.Amounts[len(scan.Amounts)-2]
			record.VATAmount = &vat
		}

		if record.TotalAmount != nil && record.VATAmount != nil && record.BaseRent == nil {
			base := record.TotalAmount.Sub(*record.VATAmount)
			record.BaseRent = &base
		}
	}

	return record
}

// CompleteManualRecord fills in whichever one of base rent, VAT amount and
// total is missing when the other two were entered by hand. Already-set
// fields are never touched; with two or more missing there is nothing to
// derive and the record is returned as-is for the validator to report.
func CompleteManualRecord(record *models.InvoiceRecord) *models.InvoiceRecord {
	if record == nil {
		return nil
	}

	switch {
	case record.BaseRent != nil && record.VATAmount != nil && record.TotalAmount == nil:
		total := record.BaseRent.Add(*record.VATAmount)
		record.TotalAmount = &total
	case record.BaseRent != nil && record.TotalAmount != nil && record.VATAmount == nil:
		vat := record.TotalAmount.Sub(*record.BaseRent)
		record.VATAmount = &vat
	case record.VATAmount != nil && record.TotalAmount != nil && record.BaseRent == nil:
		base := record.TotalAmount.Sub(*record.VATAmount)
		record.BaseRent = &base
	}

	return record
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
