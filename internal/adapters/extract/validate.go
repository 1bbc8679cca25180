package extract

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Format is a document type.
type Format string

// Supported formats.
const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatHTML Format = "html"
	FormatText Format = "text"
)

var (
	pdfMagic = []byte("%PDF")
	zipMagic = []byte("PK\x03\x04")
)

// DetectFormat guesses the format from the content, falling back to the
// file name extension.
func DetectFormat(name string, data []byte) Format {
	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return FormatPDF
	case bytes.HasPrefix(data, zipMagic):
		return FormatDOCX
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".html", ".htm":
		return FormatHTML
	}
	head := strings.ToLower(strings.TrimSpace(string(data[:min(len(data), 512)])))
	if strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html") {
		return FormatHTML
	}
	return FormatText
}

// Validation is the outcome of Validate. Warnings do not block extraction.
type Validation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Validate checks a document before extraction: it must be non-empty, no
// larger than maxBytes and carry the magic bytes of its format. Documents
// over half the limit get a warning.
func Validate(data []byte, f Format, maxBytes int64) Validation {
	invalid := func(msg string) Validation { return Validation{Errors: []string{msg}} }

	if len(data) == 0 {
		return invalid("File is empty.")
	}
	sizeMB := float64(len(data)) / (1 << 20)
	if int64(len(data)) > maxBytes {
		return invalid(fmt.Sprintf("File too large (%.1fMB). Maximum allowed: %.0fMB.", sizeMB, float64(maxBytes)/(1<<20)))
	}
	switch f {
	case FormatPDF:
		if !bytes.HasPrefix(data, pdfMagic) {
			return invalid("File does not appear to be a valid PDF.")
		}
	case FormatDOCX:
		if !bytes.HasPrefix(data, zipMagic) {
			return invalid("File does not appear to be a valid DOCX document.")
		}
	case FormatText, FormatHTML:
		if !utf8.Valid(data) {
			return invalid("File is not UTF-8 text or a supported document type.")
		}
	}

	v := Validation{Valid: true}
	if int64(len(data)) > maxBytes/2 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("Large file (%.1fMB) may take longer to process.", sizeMB))
	}
	return v
}
