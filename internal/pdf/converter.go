// Package pdf converts populated report documents to PDF by driving an
// external document renderer. All subprocess and timeout policy lives behind
// the Converter interface so the orchestrator never depends on renderer
// specifics.
package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"reportforge/internal/config"
	apperrors "reportforge/internal/errors"
)

// Converter turns a populated document buffer into PDF bytes
type Converter interface {
	Convert(ctx context.Context, doc []byte) ([]byte, error)
	// Probe checks renderer availability with a trivial conversion,
	// without running a full report.
	Probe(ctx context.Context) error
}

// LibreOffice converts documents with a headless LibreOffice process.
// Each conversion writes the input to a uniquely named temp file, invokes
// the renderer on it, reads back the PDF, and removes both artifacts on
// every exit path.
type LibreOffice struct {
	binary  string
	tempDir string
	timeout time.Duration
	logger  *slog.Logger

	// run is swappable in tests to avoid a real LibreOffice install
	run func(ctx context.Context, binary string, args ...string) error
}

// NewLibreOffice creates a converter from configuration
func NewLibreOffice(cfg config.ConverterConfig, tempDir string, logger *slog.Logger) *LibreOffice {
	if logger == nil {
		logger = slog.Default()
	}
	return &LibreOffice{
		binary:  cfg.Binary,
		tempDir: tempDir,
		timeout: cfg.Timeout,
		logger:  logger.With(slog.String("component", "pdf_converter")),
		run:     runCommand,
	}
}

func runCommand(ctx context.Context, binary string, args ...string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w (output: %s)", binary, err, truncate(string(out), 200))
	}
	return nil
}

// Convert writes doc to a temp file, renders it to PDF and returns the bytes.
// Failures of any kind come back as a ConversionError with the cause
// attached; raw process errors never escape.
func (c *LibreOffice) Convert(ctx context.Context, doc []byte) ([]byte, error) {
	start := time.Now()

	pdf, err := c.convert(ctx, doc)
	if err != nil {
		return nil, apperrors.NewConversionError(err)
	}

	c.logger.Debug("document converted",
		slog.Int("input_bytes", len(doc)),
		slog.Int("pdf_bytes", len(pdf)),
		slog.Duration("elapsed", time.Since(start)))

	return pdf, nil
}

func (c *LibreOffice) convert(ctx context.Context, doc []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	name := "convert_" + uuid.NewString()
	inputPath := filepath.Join(c.tempDir, name+".xlsx")
	outputPath := filepath.Join(c.tempDir, name+".pdf")

	if err := os.WriteFile(inputPath, doc, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write temp document: %w", err)
	}
	defer os.Remove(inputPath)
	defer os.Remove(outputPath)

	err := c.run(ctx, c.binary,
		"--headless",
		"--convert-to", "pdf",
		"--outdir", c.tempDir,
		inputPath,
	)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("conversion timed out after %s: %w", c.timeout, err)
		}
		return nil, err
	}

	pdf, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("renderer produced no output: %w", err)
	}
	return pdf, nil
}

// Probe converts a minimal document to verify the renderer is available
func (c *LibreOffice) Probe(ctx context.Context) error {
	_, err := c.Convert(ctx, probeDocument())
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
