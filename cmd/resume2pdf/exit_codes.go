package main

import (
	"errors"
	"os"

	resume2pdf "github.com/alnah/go-resume2pdf"
	"github.com/alnah/go-resume2pdf/internal/config"
)

// Exit codes for the resume2pdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or input
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Print engine unavailable or failing
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Backend errors (exit 4)
	if errors.Is(err, resume2pdf.ErrBackendUnavailable) ||
		errors.Is(err, resume2pdf.ErrEngineClosed) {
		return ExitBrowser
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrInvalidConfig) ||
		errors.Is(err, resume2pdf.ErrEmptyMarkdown) ||
		errors.Is(err, resume2pdf.ErrUnknownBackend) ||
		errors.Is(err, resume2pdf.ErrInvalidPageSize) ||
		errors.Is(err, resume2pdf.ErrUnknownEngine) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrReadMarkdown) ||
		errors.Is(err, ErrWriteOutput) {
		return ExitIO
	}

	return ExitGeneral
}
