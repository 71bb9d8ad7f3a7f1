package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/jmaccoe/rent-wht-service/internal/ai"
	"github.com/jmaccoe/rent-wht-service/internal/auth"
	"github.com/jmaccoe/rent-wht-service/internal/db"
	"github.com/jmaccoe/rent-wht-service/internal/extract"
	"github.com/jmaccoe/rent-wht-service/internal/logger"
	"github.com/jmaccoe/rent-wht-service/internal/models"
	"github.com/jmaccoe/rent-wht-service/internal/ocr"
	"github.com/jmaccoe/rent-wht-service/internal/services"
	"github.com/jmaccoe/rent-wht-service/internal/storage"
)

const (
	MaxUploadSize = 10 * 1024 * 1024 // 10MB
	Version       = "1.2.0"
)

// Handler handles HTTP requests for rent invoice processing
type Handler struct {
	config    *models.Config
	validator *services.Validator
	engine    *services.TaxEngine
	log       zerolog.Logger
}

// NewHandler creates a new API handler
func NewHandler(config *models.Config) *Handler {
	return &Handler{
		config:    config,
		validator: services.NewValidator(),
		engine:    services.NewTaxEngine(),
		log:       logger.WithComponent("api"),
	}
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	// Processing endpoints
	router.HandleFunc("/api/process-invoice", h.ProcessInvoice).Methods("POST")
	router.HandleFunc("/api/parse-text", h.ParseText).Methods("POST")
	router.HandleFunc("/api/compute", h.ComputeManual).Methods("POST")

	// Invoice CRUD
	router.HandleFunc("/api/invoices", h.GetInvoices).Methods("GET")
	router.HandleFunc("/api/invoice/{id}", h.GetInvoice).Methods("GET")
	router.HandleFunc("/api/invoice/{id}", h.UpdateInvoice).Methods("PUT")
	router.HandleFunc("/api/invoice/{id}", h.DeleteInvoice).Methods("DELETE")

	// Statistics
	router.HandleFunc("/api/stats", h.GetStats).Methods("GET")

	// Health check
	router.HandleFunc("/health", h.Health).Methods("GET")

	return router
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status      string            `json:"status"`
	Version     string            `json:"version"`
	Timestamp   string            `json:"timestamp"`
	Uptime      string            `json:"uptime"`
	Memory      MemoryStats       `json:"memory"`
	Tesseract   ServiceStatus     `json:"tesseract"`
	ImageMagick ServiceStatus     `json:"imageMagick"`
	Database    ServiceStatus     `json:"database"`
	Storage     ServiceStatus     `json:"storage"`
	AI          map[string]string `json:"ai"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

// ServiceStatus represents the status of a service dependency
type ServiceStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

var startTime = time.Now()

// Health endpoint - enhanced for monitoring
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	tesseractStatus := h.checkTesseract()
	imageMagickStatus := h.checkImageMagick()
	databaseStatus := h.checkDatabase()
	storageStatus := h.checkStorage()

	response := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(startTime).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.2f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		Tesseract:   tesseractStatus,
		ImageMagick: imageMagickStatus,
		Database:    databaseStatus,
		Storage:     storageStatus,
		AI: map[string]string{
			"enabled":         fmt.Sprintf("%t", h.config.AI.Enabled),
			"defaultProvider": h.config.AI.DefaultProvider,
		},
	}

	// Text-only endpoints keep working without OCR, so a missing tesseract
	// degrades the service rather than failing the check outright.
	if !tesseractStatus.Available {
		response.Status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

// checkTesseract verifies Tesseract OCR is available
func (h *Handler) checkTesseract() ServiceStatus {
	tesseract := ocr.NewTesseractOCR(h.config.OCR.Language)
	version, ok := tesseract.Available()
	if !ok {
		return ServiceStatus{
			Available: false,
			Error:     "tesseract not found or not executable",
		}
	}
	return ServiceStatus{
		Available: true,
		Version:   version,
	}
}

// checkImageMagick verifies ImageMagick is available
func (h *Handler) checkImageMagick() ServiceStatus {
	cmd := exec.Command("convert", "-version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return ServiceStatus{
			Available: false,
			Error:     "imagemagick not found or not executable",
		}
	}

	version := "unknown"
	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		version = strings.TrimSpace(lines[0])
	}

	return ServiceStatus{
		Available: true,
		Version:   version,
	}
}

// checkDatabase verifies PostgreSQL connection
func (h *Handler) checkDatabase() ServiceStatus {
	if db.Pool == nil {
		return ServiceStatus{
			Available: false,
			Error:     "database pool not initialized",
		}
	}
	return ServiceStatus{
		Available: true,
		Version:   "PostgreSQL",
	}
}

// checkStorage verifies MinIO connection
func (h *Handler) checkStorage() ServiceStatus {
	if storage.Client == nil {
		return ServiceStatus{
			Available: false,
			Error:     "storage client not initialized",
		}
	}
	return ServiceStatus{
		Available: true,
		Version:   "MinIO S3",
	}
}

// ProcessInvoice accepts an uploaded invoice document (PDF or image),
// extracts its text, parses the rent invoice fields and computes the
// withholding-tax breakdown.
func (h *Handler) ProcessInvoice(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	requestStart := time.Now()

	if _, err := auth.GetClaimsFromContext(ctx); err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized: "+err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.sendError(w, http.StatusBadRequest, "File too large or invalid form data")
		return
	}

	// Accept both "file" and "document" field names
	file, header, err := r.FormFile("file")
	if err != nil {
		file, header, err = r.FormFile("document")
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "No file provided (use 'file' or 'document' field)")
			return
		}
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(file); err != nil {
		h.sendError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}
	fileData := buf.Bytes()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	rawText, ocrDuration, err := h.extractText(fileData, contentType, header.Filename)
	if err != nil {
		json.NewEncoder(w).Encode(models.ProcessResponse{
			Success:       false,
			Error:         err.Error(),
			TotalDuration: time.Since(requestStart).Seconds(),
		})
		return
	}

	record := extract.ParseInvoice(rawText)

	if h.config.AI.Enabled {
		h.assistRecord(ctx, record)
	}

	response := h.evaluate(record)
	response.OCRDuration = ocrDuration

	// Upload the source document (optional, storage may not be configured)
	var fileURL string
	if storage.Client != nil {
		filename := fmt.Sprintf("%s_%s%s",
			time.Now().Format("20060102_150405"),
			uuid.New().String()[:8],
			documentExtension(contentType, header.Filename),
		)
		fileURL, err = storage.UploadDocument(ctx, filename, bytes.NewReader(fileData), int64(len(fileData)), contentType)
		if err != nil {
			h.log.Warn().Err(err).Msg("failed to upload document to storage")
			fileURL = ""
		}
	}

	// Persist (optional, the service answers without a database)
	savedID := ""
	if db.Pool != nil {
		row := db.FromRecord(record, response.Breakdown, response.Valid, fileURL)
		if err := db.SaveInvoice(ctx, row); err != nil {
			h.log.Warn().Err(err).Msg("failed to save invoice")
		} else {
			savedID = row.ID.String()
		}
	}

	response.TotalDuration = time.Since(requestStart).Seconds()

	payload := map[string]interface{}{
		"success":         response.Success,
		"invoice":         response.Invoice,
		"valid":           response.Valid,
		"breakdown":       response.Breakdown,
		"reconciliation":  response.Reconciliation,
		"warnings":        response.Warnings,
		"complianceNotes": response.ComplianceNotes,
		"ocrDuration":     response.OCRDuration,
		"totalDuration":   response.TotalDuration,
		"saved_to_db":     savedID != "",
	}
	if len(response.ValidationErrors) > 0 {
		payload["validationErrors"] = response.ValidationErrors
	}
	if savedID != "" {
		payload["id"] = savedID
	}
	if fileURL != "" {
		payload["file_url"] = fileURL
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(payload)
}

// ParseText runs the extraction pipeline over text the caller already has,
// skipping OCR entirely.
func (h *Handler) ParseText(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	requestStart := time.Now()

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		h.sendError(w, http.StatusBadRequest, "text is required")
		return
	}

	record := extract.ParseInvoice(req.Text)
	if h.config.AI.Enabled {
		h.assistRecord(r.Context(), record)
	}

	response := h.evaluate(record)
	response.TotalDuration = time.Since(requestStart).Seconds()

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// ComputeManual computes the tax breakdown for manually entered amounts.
// Any one missing amount of base, VAT and total is derived from the other two.
func (h *Handler) ComputeManual(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	requestStart := time.Now()

	var record models.InvoiceRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	completed := extract.CompleteManualRecord(&record)
	response := h.evaluate(completed)
	response.TotalDuration = time.Since(requestStart).Seconds()

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// GetInvoices returns the stored invoices, newest first
func (h *Handler) GetInvoices(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	if _, err := auth.GetClaimsFromContext(ctx); err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	invoices, err := db.GetInvoices(ctx, 100)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get invoices: %v", err))
		return
	}

	// Generate presigned URLs for stored documents
	for i := range invoices {
		if invoices[i].FileURL != "" && storage.Client != nil {
			if presignedURL, err := storage.GetPresignedURL(ctx, invoices[i].FileURL); err == nil {
				invoices[i].FileURL = presignedURL
			}
		}
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"invoices": invoices,
		"count":    len(invoices),
	})
}

// GetInvoice returns a single invoice
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	if _, err := auth.GetClaimsFromContext(ctx); err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	invoiceID := mux.Vars(r)["id"]

	invoice, err := db.GetInvoiceByID(ctx, invoiceID)
	if err != nil {
		h.sendError(w, http.StatusNotFound, fmt.Sprintf("invoice not found: %v", err))
		return
	}

	if invoice.FileURL != "" && storage.Client != nil {
		if presignedURL, err := storage.GetPresignedURL(ctx, invoice.FileURL); err == nil {
			invoice.FileURL = presignedURL
		}
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"invoice": invoice,
	})
}

// UpdateInvoice updates invoice data
func (h *Handler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	if _, err := auth.GetClaimsFromContext(ctx); err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	invoiceID := mux.Vars(r)["id"]

	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Only allow certain fields to be updated
	allowed := map[string]bool{
		"invoice_number":   true,
		"invoice_date":     true,
		"rent_period":      true,
		"description":      true,
		"base_rent":        true,
		"vat_rate":         true,
		"vat_amount":       true,
		"total_amount":     true,
		"landlord_name":    true,
		"landlord_tin":     true,
		"landlord_bank":    true,
		"landlord_account": true,
	}
	filtered := make(map[string]interface{})
	for k, v := range updates {
		if allowed[k] {
			filtered[k] = v
		}
	}

	if len(filtered) == 0 {
		h.sendError(w, http.StatusBadRequest, "no valid fields to update")
		return
	}

	if err := db.UpdateInvoice(ctx, invoiceID, filtered); err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to update invoice")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "invoice updated",
	})
}

// DeleteInvoice removes an invoice and its stored document
func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	if _, err := auth.GetClaimsFromContext(ctx); err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	invoiceID := mux.Vars(r)["id"]

	if storage.Client != nil {
		invoice, err := db.GetInvoiceByID(ctx, invoiceID)
		if err == nil && invoice.FileURL != "" {
			// Delete document (ignore errors)
			_ = storage.DeleteDocument(ctx, invoice.FileURL)
		}
	}

	if err := db.DeleteInvoice(ctx, invoiceID); err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to delete invoice")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "invoice deleted",
	})
}

// GetStats returns monthly statistics
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	if _, err := auth.GetClaimsFromContext(ctx); err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	stats, err := db.GetMonthlyStats(ctx)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

// extractText turns an uploaded document into text. PDFs with a text layer
// are read directly; everything else goes through preprocessing and OCR.
func (h *Handler) extractText(fileData []byte, contentType, filename string) (string, float64, error) {
	if isPDF(contentType, filename) {
		start := time.Now()
		text, err := ocr.ExtractTextFromPDF(fileData)
		if err != nil {
			return "", 0, fmt.Errorf("PDF text extraction failed: %w", err)
		}
		return text, time.Since(start).Seconds(), nil
	}

	preprocessor := ocr.NewPreprocessor()
	processed, err := preprocessor.PreprocessImageFromBytes(fileData)
	if err != nil {
		return "", 0, fmt.Errorf("image preprocessing failed: %w", err)
	}

	tesseract := ocr.NewTesseractOCR(h.config.OCR.Language)
	text, duration, err := tesseract.ExtractText(processed)
	if err != nil {
		return "", 0, fmt.Errorf("OCR failed: %w", err)
	}
	return text, duration, nil
}

// assistRecord fills gaps in an extracted record with the configured AI
// provider. Assist failures are logged and swallowed, the regex pipeline's
// output stands on its own.
func (h *Handler) assistRecord(ctx context.Context, record *models.InvoiceRecord) {
	provider, err := h.createProvider(h.config.AI.DefaultProvider)
	if err != nil {
		h.log.Warn().Err(err).Msg("assisted extraction unavailable")
		return
	}
	if err := ai.NewExtractor(provider).Assist(ctx, record); err != nil {
		h.log.Warn().Err(err).Msg("assisted extraction failed")
	}
}

// evaluate validates a record and, when it is valid, computes the tax
// breakdown and reconciles it against the stated total.
func (h *Handler) evaluate(record *models.InvoiceRecord) *models.ProcessResponse {
	valid, validationErrors := h.validator.Validate(record)

	response := &models.ProcessResponse{
		Success:          true,
		Invoice:          record,
		Valid:            valid,
		ValidationErrors: validationErrors,
	}
	if !valid {
		return response
	}

	breakdown := h.engine.Compute(*record.BaseRent, *record.VATAmount)
	response.Breakdown = &breakdown

	reconciliation := h.engine.Reconcile(breakdown, *record.TotalAmount)
	response.Reconciliation = &reconciliation
	if !reconciliation.Matches {
		response.Warnings = append(response.Warnings, fmt.Sprintf(
			"Computed total outflow %s differs from stated total %s by %s",
			reconciliation.TotalOutflow.StringFixed(2),
			reconciliation.StatedTotal.StringFixed(2),
			reconciliation.Delta.StringFixed(2),
		))
	}

	if record.VATAmount.IsPositive() {
		if rate, ok := h.engine.VerifyVATRate(*record.VATAmount, *record.BaseRent); !ok {
			response.Warnings = append(response.Warnings, fmt.Sprintf(
				"Effective VAT rate %s differs from the standard 18%%",
				rate.StringFixed(4),
			))
		}
	}

	response.ComplianceNotes = services.ComplianceNotes()
	return response
}

// createProvider creates the configured AI provider
func (h *Handler) createProvider(providerName string) (ai.Provider, error) {
	switch providerName {
	case "openai":
		return ai.NewOpenAIProvider(
			h.config.AI.OpenAI.APIKey,
			h.config.AI.OpenAI.BaseURL,
			h.config.AI.OpenAI.Model,
		), nil

	case "gemini":
		return ai.NewGeminiProvider(
			h.config.AI.Gemini.APIKey,
			h.config.AI.Gemini.Model,
		), nil

	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", providerName)
	}
}

func isPDF(contentType, filename string) bool {
	if strings.Contains(strings.ToLower(contentType), "pdf") {
		return true
	}
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

func documentExtension(contentType, filename string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	return storage.GetFileExtension(contentType)
}

// sendError sends an error response
func (h *Handler) sendError(w http.ResponseWriter, statusCode int, message string) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
