package intake

import (
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dslipak/pdf"
	"github.com/gabriel-vasile/mimetype"
	"github.com/nguyenthenguyen/docx"
	"golang.org/x/text/encoding/charmap"
	"jaytaylor.com/html2text"
)

const (
	EncodingUTF8   = "UTF-8"
	EncodingCP1256 = "CP1256"
)

// Extract returns the plain text of a file and the encoding it was read with,
// choosing the reader from the file extension. Files without an extension are
// sniffed from their content.
func Extract(name string, data []byte) (string, string, error) {
	extension := detectExtension(name, data)
	switch extension {
	case ".txt", ".md":
		text, encoding := decodeText(data)
		return text, encoding, nil
	case ".docx":
		text, err := extractDOCX(data)
		return text, EncodingUTF8, err
	case ".pdf":
		text, err := extractPDF(data)
		return text, EncodingUTF8, err
	case ".html", ".htm":
		text, _ := decodeText(data)
		text, err := html2text.FromString(text, html2text.Options{PrettyTables: true})
		return text, EncodingUTF8, err
	}

	return "", "", fmt.Errorf("%w: %q", ErrUnsupportedType, extension)
}

func detectExtension(name string, data []byte) string {
	if extension := filepath.Ext(name); extension != "" {
		return strings.ToLower(extension)
	}
	return mimetype.Detect(data).Extension()
}

// IsSupported reports whether Extract can read name, judging by its extension
// only.
func IsSupported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".docx", ".pdf", ".html", ".htm":
		return true
	}
	return false
}

// decodeText reads data as UTF-8 and falls back to Windows-1256, the legacy
// Arabic code page, when it is not.
func decodeText(data []byte) (string, string) {
	if utf8.Valid(data) {
		return strings.TrimPrefix(string(data), "\uFEFF"), EncodingUTF8
	}

	decoded, err := charmap.Windows1256.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "\uFFFD"), EncodingUTF8
	}
	return string(decoded), EncodingCP1256
}

var (
	docxParagraph = regexp.MustCompile(`</w:p>`)
	docxBreak     = regexp.MustCompile(`<w:(br|cr)\s*/>`)
	docxTab       = regexp.MustCompile(`<w:tab\s*/>`)
	xmlTag        = regexp.MustCompile(`<[^>]+>`)
)

func extractDOCX(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX file: %w", err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	content = docxParagraph.ReplaceAllString(content, "\n\n")
	content = docxBreak.ReplaceAllString(content, "\n")
	content = docxTab.ReplaceAllString(content, "\t")
	content = xmlTag.ReplaceAllString(content, "")

	return strings.TrimSpace(html.UnescapeString(content)), nil
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF file: %w", err)
	}

	var buf bytes.Buffer
	b, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	if _, err := buf.ReadFrom(b); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}

	return buf.String(), nil
}
