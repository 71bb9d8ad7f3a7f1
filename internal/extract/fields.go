package extract

import (
	"regexp"
	"strings"
)

// FieldSet is the textual metadata pulled out of invoice text. Empty string
// means the field was not found; absence is reported by validation, not here.
type FieldSet struct {
	InvoiceNumber     string
	InvoiceDate       string
	RentPeriod        string
	Description       string
	LandlordName      string
	LandlordTIN       string
	LandlordBank      string
	LandlordAccount   string
	USDEquivalentNote string
}

// fieldSlot is an ordered list of candidate patterns for one field. Patterns
// are tried in priority order and the first hit wins. When whole is set the
// full match is kept instead of the capture group (labels like "Office Rent"
// are themselves the value).
type fieldSlot struct {
	patterns []*regexp.Regexp
	whole    bool
}

func (s fieldSlot) find(text string) string {
	for _, re := range s.patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if s.whole || len(m) < 2 {
				return strings.TrimSpace(m[0])
			}
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

var (
	invoiceNumberSlot = fieldSlot{patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)Invoice\s*(?:No|Number|#)[:\s]*([A-Z0-9\-/]+)`),
		regexp.MustCompile(`(?i)INV[:\s]*([A-Z0-9\-/]+)`),
	}}

	invoiceDateSlot = fieldSlot{patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)Date[:\s]*([0-9]{1,2}[/\-][0-9]{1,2}[/\-][0-9]{2,4})`),
		regexp.MustCompile(`(?i)([0-9]{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+[0-9]{4})`),
	}}

	rentPeriodSlot = fieldSlot{patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:Period|Month|For)[:\s]*([A-Za-z]+\s+[0-9]{4})`),
		regexp.MustCompile(`(?i)Rent\s+for[:\s]*([A-Za-z]+\s+[0-9]{4})`),
	}}

	descriptionSlot = fieldSlot{whole: true, patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)Description[:\s]*([^\n]+)`),
		regexp.MustCompile(`(?i)(?:Office|Shop|Commercial)\s+(?:Rent|Lease)[^\n]*`),
	}}

	landlordNameSlot = fieldSlot{patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:Payee|Landlord|Company)[:\s]*([^\n]+)`),
		regexp.MustCompile(`(?i)([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+(?:Ltd|Limited|Company|Co\.))`),
	}}

	landlordTINSlot = fieldSlot{patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)TIN[:\s]*([0-9]{9,10})`),
		regexp.MustCompile(`(?i)Tax\s+ID[:\s]*([0-9]{9,10})`),
	}}

	// Bank name and account number are deliberately two independent slots:
	// both are attempted on every invoice, in this order.
	landlordBankSlot = fieldSlot{patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)Bank[:\s]*([^\n]+)`),
	}}
	landlordAccountSlot = fieldSlot{patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)Account[:\s]*([0-9\-]+)`),
	}}

	usdEquivalentSlot = fieldSlot{whole: true, patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)USD\s*([0-9][0-9,]*(?:\.[0-9]{2})?)`),
	}}
)

// ExtractFields runs every field slot over the raw text. Fields whose
// patterns never match stay empty.
func ExtractFields(text string) FieldSet {
	return FieldSet{
		InvoiceNumber:     invoiceNumberSlot.find(text),
		InvoiceDate:       invoiceDateSlot.find(text),
		RentPeriod:        rentPeriodSlot.find(text),
		Description:       descriptionSlot.find(text),
		LandlordName:      landlordNameSlot.find(text),
		LandlordTIN:       landlordTINSlot.find(text),
		LandlordBank:      landlordBankSlot.find(text),
		LandlordAccount:   landlordAccountSlot.find(text),
		USDEquivalentNote: usdEquivalentSlot.find(text),
	}
}
