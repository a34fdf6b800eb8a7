package validation

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
)

// xlsx files are zip archives, so they start with the PK signature
var zipSignature = []byte{0x50, 0x4B, 0x03, 0x04}

var domainPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,50}$`)

// UploadValidator screens template uploads before they reach storage
type UploadValidator struct {
	logger   *slog.Logger
	maxBytes int64
}

// NewUploadValidator creates an upload validator with the given size cap
func NewUploadValidator(logger *slog.Logger, maxBytes int64) *UploadValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadValidator{
		logger:   logger.With(slog.String("component", "upload_validator")),
		maxBytes: maxBytes,
	}
}

// ValidateTemplate checks an uploaded template file and returns the list
// of violations. An empty list means the upload is acceptable.
func (v *UploadValidator) ValidateTemplate(filename string, content []byte, domain string) []string {
	var violations []string

	if domain == "" {
		violations = append(violations, "report type is required")
	} else if !domainPattern.MatchString(domain) {
		violations = append(violations, "invalid report type format")
	}

	if filename == "" {
		violations = append(violations, "template file is required")
		return violations
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".xlsx" {
		v.logger.Warn("Rejected upload with unsupported extension",
			slog.String("filename", filename),
			slog.String("extension", ext))
		violations = append(violations, fmt.Sprintf("unsupported file type %s, only .xlsx templates are accepted", ext))
	}

	base := filepath.Base(filename)
	if strings.HasPrefix(base, "~$") {
		violations = append(violations, "temporary spreadsheet files cannot be uploaded")
	}

	if len(content) == 0 {
		violations = append(violations, "template file is empty")
	} else if ext == ".xlsx" && !bytes.HasPrefix(content, zipSignature) {
		v.logger.Warn("Rejected upload with invalid file signature",
			slog.String("filename", filename))
		violations = append(violations, "file content does not match the .xlsx format")
	}

	if v.maxBytes > 0 && int64(len(content)) > v.maxBytes {
		violations = append(violations, fmt.Sprintf("template exceeds the maximum size of %d bytes", v.maxBytes))
	}

	return violations
}

// SanitizeName strips path separators and whitespace from a user-supplied
// template name so it is safe to store and echo back
func (v *UploadValidator) SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	return name
}
