// Package pdf is the boundary to PDF tooling: stripping the source document
// password and extracting raw text. The parsing pipeline itself never sees
// PDF structure, only the extracted text.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// TextExtractor turns an unlocked PDF into raw text.
type TextExtractor interface {
	ExtractText(ctx context.Context, pdfData []byte) (string, error)
}

// CommandExtractor extracts text by shelling out to pdftotext.
type CommandExtractor struct {
	// Binary overrides the pdftotext binary path; empty means $PATH lookup.
	Binary string
}

var _ TextExtractor = (*CommandExtractor)(nil)

// ExtractText runs pdftotext over the document. Layout mode is deliberately
// off: the parser handles the jammed-column output this produces.
func (e *CommandExtractor) ExtractText(ctx context.Context, pdfData []byte) (string, error) {
	bin := e.Binary
	if bin == "" {
		bin = "pdftotext"
	}

	inputPath, cleanup, err := writeTemp(pdfData, "input.pdf")
	if err != nil {
		return "", err
	}
	defer cleanup()

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, inputPath, "-")
	cmd.Stdout = &out
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out.String(), nil
}

// ErrInvalidPassword reports that the document password did not unlock the
// source PDF.
var ErrInvalidPassword = errors.New("invalid PDF password")

// StripPassword removes the document password from a locked PDF using qpdf.
// qpdf exit code 3 means "operation succeeded with warnings" and is treated
// as success.
func StripPassword(ctx context.Context, lockedPDF []byte, password string) ([]byte, error) {
	inputPath, cleanupIn, err := writeTemp(lockedPDF, "input.pdf")
	if err != nil {
		return nil, err
	}
	defer cleanupIn()

	outputPath := filepath.Join(os.TempDir(), uuid.NewString()+"_output.pdf")
	defer os.Remove(outputPath)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "qpdf",
		"--password="+password, "--decrypt", inputPath, outputPath)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		warningsOnly := errors.As(err, &exitErr) && exitErr.ExitCode() == 3 ||
			strings.Contains(stderr.String(), "operation succeeded with warnings")
		if !warningsOnly {
			if strings.Contains(stderr.String(), "invalid password") {
				return nil, ErrInvalidPassword
			}
			return nil, fmt.Errorf("qpdf failed: %w: %s", err, strings.TrimSpace(stderr.String()))
		}
	}

	unlocked, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read qpdf output: %w", err)
	}
	return unlocked, nil
}

func writeTemp(data []byte, suffix string) (path string, cleanup func(), err error) {
	path = filepath.Join(os.TempDir(), uuid.NewString()+"_"+suffix)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	return path, func() { os.Remove(path) }, nil
}
