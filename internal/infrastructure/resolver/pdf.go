package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// fetchPDF downloads the document to a temporary file, walks its pages and
// concatenates their extracted text. The temporary file is removed whatever
// the outcome.
func (r *Resolver) fetchPDF(ctx context.Context, fetchURL string) (string, error) {
	resp, err := r.get(ctx, fetchURL)
	if err != nil {
		return "", fmt.Errorf("download pdf: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pdf download returned %s", resp.Status)
	}

	tmp, err := os.CreateTemp("", "safetydigest-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return "", fmt.Errorf("save pdf: %w", err)
	}

	text, err := extractPDFText(tmp.Name())
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	return truncate(text, r.pdfTextLimit), nil
}

// extractPDFText walks every page; pages without extractable text contribute
// nothing rather than failing the document. The pdf library panics on some
// malformed files; that panic is converted to an error.
func extractPDFText(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
	}

	return sb.String(), nil
}
