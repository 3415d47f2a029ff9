package resolver

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// fetchWebPage retrieves a general web document and reduces it to visible
// text: non-content markup is dropped, whitespace collapsed, and the result
// truncated to the web cap.
func (r *Resolver) fetchWebPage(ctx context.Context, fetchURL string) (string, error) {
	resp, err := r.get(ctx, fetchURL)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	doc.Find("script, style, noscript").Remove()
	text := collapseWhitespace(doc.Text())

	return truncate(text, r.webTextLimit), nil
}

// collapseWhitespace squeezes runs of spaces inside lines and drops blank
// lines entirely.
func collapseWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cleaned = append(cleaned, strings.Join(fields, " "))
	}
	return strings.Join(cleaned, "\n")
}
