package validation

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// FileValidator checks uploaded files against the configured size limit
// and extension whitelists before any bytes reach the pipeline.
type FileValidator struct {
	logger   *slog.Logger
	maxBytes int64
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger, maxBytes int64) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger:   logger,
		maxBytes: maxBytes,
	}
}

// ValidateSize checks the upload size against the configured limit.
func (v *FileValidator) ValidateSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("no file uploaded")
	}
	if size > v.maxBytes {
		v.logger.Warn("upload rejected, file too large",
			slog.Int64("size", size),
			slog.Int64("limit", v.maxBytes))
		return fmt.Errorf("file size %.2f MB exceeds limit of %d MB",
			float64(size)/1024/1024, v.maxBytes/1024/1024)
	}
	return nil
}

// ValidateExtension checks the filename against an extension whitelist.
// Comparison is case insensitive.
func (v *FileValidator) ValidateExtension(filename string, allowed []string) error {
	if filename == "" {
		return fmt.Errorf("no filename provided")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}
	v.logger.Warn("upload rejected, invalid file type",
		slog.String("filename", filename),
		slog.String("extension", ext))
	return fmt.Errorf("invalid file type %q, allowed: %s", ext, strings.Join(allowed, ", "))
}
