package ocr

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/jmaccoe/rent-wht-service/internal/logger"
)

// Preprocessor enhances scanned invoice images before OCR
type Preprocessor struct {
	log zerolog.Logger
}

// NewPreprocessor creates a new image preprocessor
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{log: logger.WithComponent("preprocessor")}
}

// PreprocessImageFromBytes applies image enhancement filters using
// ImageMagick: grayscale, contrast, denoise, sharpen. Any failure falls back
// to the original image; preprocessing is an optimization, not a gate.
func (p *Preprocessor) PreprocessImageFromBytes(imageData []byte) ([]byte, error) {
	tmpDir := os.TempDir()
	inputFile := filepath.Join(tmpDir, fmt.Sprintf("input_%d.jpg", os.Getpid()))
	outputFile := filepath.Join(tmpDir, fmt.Sprintf("output_%d.jpg", os.Getpid()))

	if err := os.WriteFile(inputFile, imageData, 0644); err != nil {
		return imageData, nil
	}
	defer os.Remove(inputFile)
	defer os.Remove(outputFile)

	args := []string{
		inputFile,
		"-resize", "2000x2000>",
		"-colorspace", "Gray",
		"-normalize",
		"-contrast-stretch", "2%x1%",
		"-despeckle",
		"-sharpen", "0x1",
		"-unsharp", "0x0.5+0.5+0",
		"-quality", "95",
		outputFile,
	}

	// 'magick' is ImageMagick 7, 'convert' is 6
	var cmd *exec.Cmd
	if _, err := exec.LookPath("magick"); err == nil {
		cmd = exec.Command("magick", args...)
	} else {
		cmd = exec.Command("convert", args...)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		p.log.Warn().Err(err).Str("stderr", stderr.String()).Msg("ImageMagick failed, using original image")
		return imageData, nil
	}

	processed, err := os.ReadFile(outputFile)
	if err != nil {
		return imageData, nil
	}

	p.log.Debug().Int("original_bytes", len(imageData)).Int("processed_bytes", len(processed)).Msg("image enhanced")
	return processed, nil
}
