package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jmaccoe/rent-wht-service/internal/logger"
	"github.com/jmaccoe/rent-wht-service/internal/models"
)

// Extractor is an optional second pass over invoice text. It asks a model
// only for the fields the regex pass left unset and never overwrites an
// extracted value, so the pipeline behaves identically with it disabled.
type Extractor struct {
	provider Provider
	log      zerolog.Logger
}

// NewExtractor creates a new assisted extractor
func NewExtractor(provider Provider) *Extractor {
	return &Extractor{
		provider: provider,
		log:      logger.WithComponent("ai-extractor"),
	}
}

// Assist fills gaps in a parsed record from the model's reading of the raw
// text. Provider errors leave the record untouched.
func (e *Extractor) Assist(ctx context.Context, record *models.InvoiceRecord) error {
	prompt := buildPrompt(record.RawText)

	response, err := e.provider.ExtractData(ctx, prompt)
	if err != nil {
		return fmt.Errorf("assisted extraction failed: %w", err)
	}

	parsed, err := parseResponse(response)
	if err != nil {
		return fmt.Errorf("failed to parse assisted-extraction response: %w", err)
	}

	merged := mergeRecord(record, parsed)
	e.log.Debug().Int("fields_filled", merged).Msg("assisted extraction merged")

	return nil
}

func buildPrompt(rawText string) string {
	return fmt.Sprintf(`You are an expert reader of Tanzanian commercial rent invoices.
Extract the fields below from the OCR text. Amounts are in TZS.

Return ONLY valid JSON (no markdown, no comments):
{
  "invoiceNumber": "invoice number or null",
  "invoiceDate": "date exactly as printed, or null",
  "rentPeriod": "rent period, e.g. January 2024, or null",
  "description": "what is being billed, or null",
  "baseRent": number (rent exclusive of VAT, null if not printed),
  "vatRate": number (fraction, e.g. 0.18, null if not printed),
  "vatAmount": number (VAT amount, null if not printed),
  "totalAmount": number (total due, null if not printed),
  "landlordName": "landlord or payee name, or null",
  "landlordTin": "9-10 digit TIN, digits only, or null",
  "landlordBank": "bank name, or null",
  "landlordAccount": "account number, or null",
  "usdEquivalent": "USD equivalent note as printed, or null"
}

Rules:
1. NEVER invent or compute amounts that are not printed in the text.
2. Amounts must be plain numbers without thousands separators.
3. Use null for anything you cannot read.

Invoice text:
%s`, rawText)
}

// aiRecord mirrors the prompt's JSON shape. Amounts come in as interface{}
// because models return numbers, strings, and strings with commas.
type aiRecord struct {
	InvoiceNumber   string      `json:"invoiceNumber"`
	InvoiceDate     string      `json:"invoiceDate"`
	RentPeriod      string      `json:"rentPeriod"`
	Description     string      `json:"description"`
	BaseRent        interface{} `json:"baseRent"`
	VATRate         interface{} `json:"vatRate"`
	VATAmount       interface{} `json:"vatAmount"`
	TotalAmount     interface{} `json:"totalAmount"`
	LandlordName    string      `json:"landlordName"`
	LandlordTIN     string      `json:"landlordTin"`
	LandlordBank    string      `json:"landlordBank"`
	LandlordAccount string      `json:"landlordAccount"`
	USDEquivalent   string      `json:"usdEquivalent"`
}

func parseResponse(response string) (*aiRecord, error) {
	// Strip markdown code fences if the model added them
	cleaned := strings.TrimSpace(response)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var raw aiRecord
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("JSON parse error: %w", err)
	}
	return &raw, nil
}

// mergeRecord copies parsed values into unset fields only and reports how
// many fields it filled.
func mergeRecord(record *models.InvoiceRecord, parsed *aiRecord) int {
	filled := 0

	fillString := func(dst *string, src string) {
		if *dst == "" && strings.TrimSpace(src) != "" {
			*dst = strings.TrimSpace(src)
			filled++
		}
	}
	fillAmount := func(dst **decimal.Decimal, src interface{}) {
		if *dst != nil {
			return
		}
		if d := parseDecimal(src); d != nil {
			*dst = d
			filled++
		}
	}

	fillString(&record.InvoiceNumber, parsed.InvoiceNumber)
	fillString(&record.InvoiceDate, parsed.InvoiceDate)
	fillString(&record.RentPeriod, parsed.RentPeriod)
	fillString(&record.Description, parsed.Description)
	fillString(&record.LandlordName, parsed.LandlordName)
	fillString(&record.LandlordTIN, parsed.LandlordTIN)
	fillString(&record.LandlordBank, parsed.LandlordBank)
	fillString(&record.LandlordAccount, parsed.LandlordAccount)
	fillString(&record.USDEquivalentNote, parsed.USDEquivalent)

	fillAmount(&record.BaseRent, parsed.BaseRent)
	fillAmount(&record.VATRate, parsed.VATRate)
	fillAmount(&record.VATAmount, parsed.VATAmount)
	fillAmount(&record.TotalAmount, parsed.TotalAmount)

	return filled
}

// parseDecimal handles flexible number parsing: numbers, strings, strings
// with thousands separators. Unparseable values come back nil.
func parseDecimal(v interface{}) *decimal.Decimal {
	if v == nil {
		return nil
	}

	var d decimal.Decimal
	switch val := v.(type) {
	case float64:
		d = decimal.NewFromFloat(val)
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(val), ",", "")
		if cleaned == "" {
			return nil
		}
		parsed, err := decimal.NewFromString(cleaned)
		if err != nil {
			return nil
		}
		d = parsed
	case json.Number:
		parsed, err := decimal.NewFromString(string(val))
		if err != nil {
			return nil
		}
		d = parsed
	default:
		return nil
	}

	return &d
}
