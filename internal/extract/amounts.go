package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountScan holds the currency-tagged amounts found in producer text, in the
// order they appear, plus an explicit VAT clause when one is printed.
type AmountScan struct {
	Amounts   []decimal.Decimal
	VATRate   *decimal.Decimal // fraction, e.g. 0.18
	VATAmount *decimal.Decimal
}

// Tanzanian invoices tag amounts with the currency on either side:
// "TZS 5,000,000.00" or "5,000,000.00 TZS". Both shapes are scanned and the
// matches merged by text position, duplicates included.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:TZS|TSh)\s*([0-9][0-9,]*(?:\.[0-9]{2})?)`),
	regexp.MustCompile(`(?i)([0-9][0-9,]*(?:\.[0-9]{2})?)\s*(?:TZS|TSh)`),
}

// VAT clause shapes, tried in order, first match wins:
// "VAT @ 18%: TZS 900,000.00" (rate and amount) or "900,000.00 VAT" (amount only).
var vatPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)VAT\s*(?:@\s*)?([0-9]+)%[:\s]*(?:TZS|TSh)?\s*([0-9][0-9,]*(?:\.[0-9]{2})?)`),
	regexp.MustCompile(`(?i)(?:TZS|TSh)?\s*([0-9][0-9,]*(?:\.[0-9]{2})?)\s*VAT`),
}

// ExtractAmounts scans raw text for currency-tagged amounts and an explicit
// VAT clause. Malformed numeric tokens are skipped; the scan never fails.
func ExtractAmounts(text string) AmountScan {
	var scan AmountScan

	type hit struct {
		pos   int
		value decimal.Decimal
	}
	var hits []hit
	for _, re := range amountPatterns {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			// m[2], m[3] delimit the first capture group
			token := text[m[2]:m[3]]
			value, ok := parseAmount(token)
			if !ok {
				continue
			}
			hits = append(hits, hit{pos: m[0], value: value})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	for _, h := range hits {
		scan.Amounts = append(scan.Amounts, h.value)
	}

	for i, re := range vatPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if i == 0 {
			if rate, ok := parseAmount(m[1]); ok {
				rate = rate.Div(decimal.NewFromInt(100))
				scan.VATRate = &rate
			}
			if amount, ok := parseAmount(m[2]); ok {
				scan.VATAmount = &amount
			}
		} else {
			if amount, ok := parseAmount(m[1]); ok {
				scan.VATAmount = &amount
			}
		}
		break
	}

	return scan
}

// parseAmount strips thousands separators and parses a decimal. A false
// return means the token was malformed and should be skipped.
func parseAmount(token string) (decimal.Decimal, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(token), ",", "")
	if cleaned == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
