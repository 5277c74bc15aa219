// Package studyfile validates study documents before they cost a network
// round trip and extracts a local plain-text preview from PDFs.
package studyfile

import (
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"quizforge/internal/gateway"
)

// Type is the declared document type sent with an upload.
type Type string

const (
	TypeWord Type = "word"
	TypePDF  Type = "pdf"
)

var extensionTypes = map[string]Type{
	".doc":  TypeWord,
	".docx": TypeWord,
	".pdf":  TypePDF,
}

var extensionMIMEs = map[string]string{
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pdf":  "application/pdf",
}

var allowedMIMEs = map[string]struct{}{
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/pdf": {},
}

var extraneousWhitespace = regexp.MustCompile(`\s+`)

// Inspect derives the declared upload type from the file name's extension
// and checks the MIME type against the allow-list. Both checks happen
// before any upload; a failure is an UnsupportedFileType transfer error.
func Inspect(name, mimeType string) (Type, error) {
	ext := strings.ToLower(filepath.Ext(name))
	fileType, ok := extensionTypes[ext]
	if !ok {
		return "", gateway.NewError(gateway.CodeUnsupportedFileType,
			fmt.Sprintf("unsupported file %q: only Word (.doc/.docx) and PDF are accepted", filepath.Base(name)))
	}
	if _, ok := allowedMIMEs[mimeType]; !ok {
		return "", gateway.NewError(gateway.CodeUnsupportedFileType,
			fmt.Sprintf("unsupported MIME type %q for %q", mimeType, filepath.Base(name)))
	}
	return fileType, nil
}

// MIMEForName returns the canonical MIME type for a file name, or "" when
// the extension is not an accepted document type. Callers that only hold a
// local path use this as the declared MIME for Inspect.
func MIMEForName(name string) string {
	return extensionMIMEs[strings.ToLower(filepath.Ext(name))]
}

// PreviewText extracts up to limit characters of plain text from a local
// PDF so the UI can show a snippet before the server parse finishes. Word
// documents have no local extractor and return an error.
func PreviewText(path string, limit int) (string, error) {
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return "", fmt.Errorf("no local preview for %q: only PDF files can be previewed", filepath.Base(path))
	}

	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var builder strings.Builder
	if _, err := io.Copy(&builder, plain); err != nil {
		return "", err
	}

	text := strings.TrimSpace(extraneousWhitespace.ReplaceAllString(builder.String(), " "))
	return clip(text, limit), nil
}

func clip(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
