package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jmaccoe/rent-wht-service/internal/models"
)

// StoredInvoice is a persisted rent invoice row.
type StoredInvoice struct {
	ID            uuid.UUID  `json:"id"`
	InvoiceNumber string     `json:"invoice_number"`
	InvoiceDate   string     `json:"invoice_date"`
	RentPeriod    string     `json:"rent_period"`
	Description   string     `json:"description"`

	BaseRent    *decimal.Decimal `json:"base_rent"`
	VATRate     *decimal.Decimal `json:"vat_rate"`
	VATAmount   *decimal.Decimal `json:"vat_amount"`
	TotalAmount *decimal.Decimal `json:"total_amount"`

	LandlordName    string `json:"landlord_name"`
	LandlordTIN     string `json:"landlord_tin"`
	LandlordBank    string `json:"landlord_bank"`
	LandlordAccount string `json:"landlord_account"`
	USDNote         string `json:"usd_note"`

	WithholdingTax    *decimal.Decimal `json:"withholding_tax"`
	PaymentToLandlord *decimal.Decimal `json:"payment_to_landlord"`
	TotalOutflow      *decimal.Decimal `json:"total_outflow"`

	Valid   bool   `json:"valid"`
	FileURL string `json:"file_url"`
	RawText string `json:"raw_text,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// FromRecord builds a row from a pipeline record plus its computed breakdown
// (nil when validation gated the computation).
func FromRecord(record *models.InvoiceRecord, breakdown *models.TaxBreakdown, valid bool, fileURL string) *StoredInvoice {
	inv := &StoredInvoice{
		InvoiceNumber:   record.InvoiceNumber,
		InvoiceDate:     record.InvoiceDate,
		RentPeriod:      record.RentPeriod,
		Description:     record.Description,
		BaseRent:        record.BaseRent,
		VATRate:         record.VATRate,
		VATAmount:       record.VATAmount,
		TotalAmount:     record.TotalAmount,
		LandlordName:    record.LandlordName,
		LandlordTIN:     record.LandlordTIN,
		LandlordBank:    record.LandlordBank,
		LandlordAccount: record.LandlordAccount,
		USDNote:         record.USDEquivalentNote,
		Valid:           valid,
		FileURL:         fileURL,
		RawText:         record.RawText,
	}
	if breakdown != nil {
		inv.WithholdingTax = &breakdown.WithholdingTax
		inv.PaymentToLandlord = &breakdown.PaymentToLandlord
		inv.TotalOutflow = &breakdown.TotalOutflow
	}
	return inv
}

// amountParam renders an optional decimal as a text parameter for a numeric
// column, keeping exact values out of float64.
func amountParam(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func scanAmount(s *string) *decimal.Decimal {
	if s == nil {
		return nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil
	}
	return &d
}

// SaveInvoice inserts a processed invoice row.
func SaveInvoice(ctx context.Context, inv *StoredInvoice) error {
	query := `
		INSERT INTO rent_invoices (
			invoice_number, invoice_date, rent_period, description,
			base_rent, vat_rate, vat_amount, total_amount,
			landlord_name, landlord_tin, landlord_bank, landlord_account, usd_note,
			withholding_tax, payment_to_landlord, total_outflow,
			valid, file_url, raw_text
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at
	`

	err := Pool.QueryRow(ctx, query,
		inv.InvoiceNumber, inv.InvoiceDate, inv.RentPeriod, inv.Description,
		amountParam(inv.BaseRent), amountParam(inv.VATRate), amountParam(inv.VATAmount), amountParam(inv.TotalAmount),
		inv.LandlordName, inv.LandlordTIN, inv.LandlordBank, inv.LandlordAccount, inv.USDNote,
		amountParam(inv.WithholdingTax), amountParam(inv.PaymentToLandlord), amountParam(inv.TotalOutflow),
		inv.Valid, inv.FileURL, inv.RawText,
	).Scan(&inv.ID, &inv.CreatedAt)

	return err
}

const invoiceColumns = `
	id, COALESCE(invoice_number, ''), COALESCE(invoice_date, ''), COALESCE(rent_period, ''),
	COALESCE(description, ''),
	base_rent::text, vat_rate::text, vat_amount::text, total_amount::text,
	COALESCE(landlord_name, ''), COALESCE(landlord_tin, ''), COALESCE(landlord_bank, ''),
	COALESCE(landlord_account, ''), COALESCE(usd_note, ''),
	withholding_tax::text, payment_to_landlord::text, total_outflow::text,
	valid, COALESCE(file_url, ''), created_at, updated_at
`

func scanInvoice(row interface{ Scan(dest ...any) error }) (*StoredInvoice, error) {
	var inv StoredInvoice
	var baseRent, vatRate, vatAmount, totalAmount, wht, payment, outflow *string

	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.InvoiceDate, &inv.RentPeriod,
		&inv.Description,
		&baseRent, &vatRate, &vatAmount, &totalAmount,
		&inv.LandlordName, &inv.LandlordTIN, &inv.LandlordBank,
		&inv.LandlordAccount, &inv.USDNote,
		&wht, &payment, &outflow,
		&inv.Valid, &inv.FileURL, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.BaseRent = scanAmount(baseRent)
	inv.VATRate = scanAmount(vatRate)
	inv.VATAmount = scanAmount(vatAmount)
	inv.TotalAmount = scanAmount(totalAmount)
	inv.WithholdingTax = scanAmount(wht)
	inv.PaymentToLandlord = scanAmount(payment)
	inv.TotalOutflow = scanAmount(outflow)

	return &inv, nil
}

// GetInvoices returns the most recent invoices, newest first.
func GetInvoices(ctx context.Context, limit int) ([]*StoredInvoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM rent_invoices ORDER BY created_at DESC LIMIT $1`, invoiceColumns)

	rows, err := Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*StoredInvoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}

	return invoices, rows.Err()
}

// GetInvoiceByID retrieves a single invoice
func GetInvoiceByID(ctx context.Context, invoiceID string) (*StoredInvoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM rent_invoices WHERE id = $1`, invoiceColumns)
	return scanInvoice(Pool.QueryRow(ctx, query, invoiceID))
}

// UpdateInvoice applies a filtered field map to an invoice row.
func UpdateInvoice(ctx context.Context, invoiceID string, updates map[string]interface{}) error {
	sets := []string{}
	args := []interface{}{}
	i := 1
	for key, value := range updates {
		sets = append(sets, fmt.Sprintf("%s = $%d", key, i))
		args = append(args, value)
		i++
	}

	sets = append(sets, fmt.Sprintf("updated_at = $%d", i))
	args = append(args, time.Now())
	i++

	args = append(args, invoiceID)

	query := fmt.Sprintf("UPDATE rent_invoices SET %s WHERE id = $%d",
		strings.Join(sets, ", "), i)

	_, err := Pool.Exec(ctx, query, args...)
	return err
}

// DeleteInvoice removes an invoice
func DeleteInvoice(ctx context.Context, invoiceID string) error {
	_, err := Pool.Exec(ctx, "DELETE FROM rent_invoices WHERE id = $1", invoiceID)
	return err
}

// MonthlyStats aggregates the current month's processed invoices.
type MonthlyStats struct {
	Month            string           `json:"month"`
	TotalInvoices    int              `json:"total_invoices"`
	TotalBaseRent    *decimal.Decimal `json:"total_base_rent"`
	TotalVAT         *decimal.Decimal `json:"total_vat"`
	TotalWithholding *decimal.Decimal `json:"total_withholding"`
	TotalOutflow     *decimal.Decimal `json:"total_outflow"`
}

// GetMonthlyStats returns statistics for the current month
func GetMonthlyStats(ctx context.Context) (*MonthlyStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(base_rent), 0)::text,
			COALESCE(SUM(vat_amount), 0)::text,
			COALESCE(SUM(withholding_tax), 0)::text,
			COALESCE(SUM(total_outflow), 0)::text
		FROM rent_invoices
		WHERE DATE_TRUNC('month', created_at) = DATE_TRUNC('month', CURRENT_DATE)
	`

	stats := &MonthlyStats{Month: time.Now().Format("2006-01")}

	var base, vat, wht, outflow *string
	err := Pool.QueryRow(ctx, query).Scan(&stats.TotalInvoices, &base, &vat, &wht, &outflow)
	if err != nil {
		return nil, err
	}

	stats.TotalBaseRent = scanAmount(base)
	stats.TotalVAT = scanAmount(vat)
	stats.TotalWithholding = scanAmount(wht)
	stats.TotalOutflow = scanAmount(outflow)

	return stats, nil
}
