package ocr

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// TesseractOCR extracts text from invoice images by shelling out to the
// tesseract binary. It is a collaborator outside the extraction core: the
// pipeline only ever sees the text blob it produces.
type TesseractOCR struct {
	language string
}

// NewTesseractOCR creates a new Tesseract OCR instance
func NewTesseractOCR(language string) *TesseractOCR {
	if language == "" {
		language = "eng"
	}
	return &TesseractOCR{language: language}
}

// Available reports whether the tesseract binary can be executed.
func (t *TesseractOCR) Available() (string, bool) {
	out, err := exec.Command("tesseract", "--version").CombinedOutput()
	if err != nil {
		return "", false
	}
	if i := bytes.IndexByte(out, '\n'); i > 0 {
		return string(bytes.TrimSpace(out[:i])), true
	}
	return "unknown", true
}

// ExtractText performs OCR on preprocessed image bytes and returns the text
// plus the OCR duration in seconds.
func (t *TesseractOCR) ExtractText(imageBytes []byte) (string, float64, error) {
	start := time.Now()

	tmpDir := os.TempDir()
	inputFile := filepath.Join(tmpDir, fmt.Sprintf("ocr_in_%d.jpg", os.Getpid()))
	if err := os.WriteFile(inputFile, imageBytes, 0644); err != nil {
		return "", 0, fmt.Errorf("failed to stage image for OCR: %w", err)
	}
	defer os.Remove(inputFile)

	// "stdout" makes tesseract write the recognized text to stdout instead
	// of an output file
	cmd := exec.Command("tesseract", inputFile, "stdout", "-l", t.language)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", time.Since(start).Seconds(), fmt.Errorf("tesseract failed: %w - %s", err, stderr.String())
	}

	return stdout.String(), time.Since(start).Seconds(), nil
}
