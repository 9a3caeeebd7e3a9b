package domain

import (
	"path/filepath"
	"strings"
)

// DocumentFormat is the closed set of formats the reader can turn into plain text.
type DocumentFormat string

const (
	FormatText    DocumentFormat = "text"
	FormatDOCX    DocumentFormat = "docx"
	FormatEPUB    DocumentFormat = "epub"
	FormatPDF     DocumentFormat = "pdf"
	FormatXLSX    DocumentFormat = "xlsx"
	FormatUnknown DocumentFormat = "unknown"
)

var extensionFormats = map[string]DocumentFormat{
	".txt":      FormatText,
	".text":     FormatText,
	".md":       FormatText,
	".markdown": FormatText,
	".docx":     FormatDOCX,
	".epub":     FormatEPUB,
	".pdf":      FormatPDF,
	".xlsx":     FormatXLSX,
}

var mimeFormats = map[string]DocumentFormat{
	"text/plain":           FormatText,
	"text/markdown":        FormatText,
	"application/epub+zip": FormatEPUB,
	"application/pdf":      FormatPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FormatDOCX,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       FormatXLSX,
}

// DetectFormat picks a format by file extension first and falls back to the MIME type.
func DetectFormat(filename, mimeType string) DocumentFormat {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	if format, ok := extensionFormats[ext]; ok {
		return format
	}

	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	if format, ok := mimeFormats[mimeType]; ok {
		return format
	}
	if strings.HasPrefix(mimeType, "text/") {
		return FormatText
	}
	return FormatUnknown
}

func (f DocumentFormat) Supported() bool {
	switch f {
	case FormatText, FormatDOCX, FormatEPUB, FormatPDF, FormatXLSX:
		return true
	default:
		return false
	}
}
