package models

import (
	"github.com/shopspring/decimal"
)

// InvoiceRecord holds the fields extracted from a commercial rent invoice.
// Monetary fields are pointers so an absent amount is distinguishable from an
// explicit zero (a zero VAT line is valid, a missing one is not).
type InvoiceRecord struct {
	InvoiceNumber string `json:"invoiceNumber,omitempty"`
	InvoiceDate   string `json:"invoiceDate,omitempty"` // free-form, as printed on the invoice
	RentPeriod    string `json:"rentPeriod,omitempty"`
	Description   string `json:"description,omitempty"`

	BaseRent    *decimal.Decimal `json:"baseRent,omitempty"` // TZS, exclusive of VAT
	VATRate     *decimal.Decimal `json:"vatRate,omitempty"`  // fraction, e.g. 0.18
	VATAmount   *decimal.Decimal `json:"vatAmount,omitempty"`
	TotalAmount *decimal.Decimal `json:"totalAmount,omitempty"`

	LandlordName    string `json:"landlordName,omitempty"`
	LandlordTIN     string `json:"landlordTin,omitempty"`
	LandlordBank    string `json:"landlordBank,omitempty"`
	LandlordAccount string `json:"landlordAccount,omitempty"`

	USDEquivalentNote string `json:"usdEquivalentNote,omitempty"` // opaque, kept as printed

	RawText string `json:"rawText,omitempty"` // complete producer text, set once
}

// TaxBreakdown is the computed statutory split for a validated record.
// Never mutated after construction.
type TaxBreakdown struct {
	WithholdingTax    decimal.Decimal `json:"withholdingTax"`
	PaymentToLandlord decimal.Decimal `json:"paymentToLandlord"`
	TotalOutflow      decimal.Decimal `json:"totalOutflow"`
}

// Reconciliation compares the computed outflow against the invoice's stated
// total. A mismatch is a warning, never a failure.
type Reconciliation struct {
	StatedTotal  decimal.Decimal `json:"statedTotal"`
	TotalOutflow decimal.Decimal `json:"totalOutflow"`
	Delta        decimal.Decimal `json:"delta"`
	Matches      bool            `json:"matches"`
}

// ProcessResponse is the output of invoice processing.
type ProcessResponse struct {
	Success bool           `json:"success"`
	Invoice *InvoiceRecord `json:"invoice,omitempty"`
	Error   string         `json:"error,omitempty"`

	Valid            bool            `json:"valid"`
	ValidationErrors []string        `json:"validationErrors,omitempty"`
	Breakdown        *TaxBreakdown   `json:"breakdown,omitempty"`
	Reconciliation   *Reconciliation `json:"reconciliation,omitempty"`
	Warnings         []string        `json:"warnings,omitempty"`
	ComplianceNotes  []string        `json:"complianceNotes,omitempty"`

	OCRDuration   float64 `json:"ocrDuration,omitempty"` // seconds
	TotalDuration float64 `json:"totalDuration"`
}

// Config represents the service configuration
type Config struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	OCR OCRConfig `yaml:"ocr"`

	AI AIConfig `yaml:"ai"`

	Log LogConfig `yaml:"log"`
}

// OCRConfig represents text-producer configuration
type OCRConfig struct {
	Language string `yaml:"language"` // tesseract language (default: "eng")
}

// AIConfig represents the optional assisted-extraction providers
type AIConfig struct {
	Enabled         bool         `yaml:"enabled"`
	DefaultProvider string       `yaml:"default_provider"` // "openai" or "gemini"
	OpenAI          OpenAIConfig `yaml:"openai"`
	Gemini          GeminiConfig `yaml:"gemini"`
}

// OpenAIConfig for OpenAI-compatible endpoints
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
}

// GeminiConfig for Google Gemini
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
	Output string `yaml:"output"` // stdout, stderr, or a file path
}
