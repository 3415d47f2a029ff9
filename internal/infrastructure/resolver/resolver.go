// Package resolver turns a single reference into normalized text, choosing a
// retrieval strategy from the shape of the URL. Every failure is captured in
// the returned outcome; Resolve never reports an error of its own.
package resolver

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"SafetyDigest/internal/config"
	"SafetyDigest/internal/domain"
	"SafetyDigest/internal/ports"
)

const userAgent = "Mozilla/5.0 (compatible; SafetyDigest/1.0)"

// Resolver fetches and extracts document text with bounded timeouts and a
// shared outbound rate limit.
type Resolver struct {
	client       *http.Client
	limiter      *rate.Limiter
	pdfTextLimit int
	webTextLimit int
	logger       *slog.Logger
}

var _ ports.DocumentResolver = (*Resolver)(nil)

// New builds a resolver from configuration; a nil client gets a default one
// with the configured fetch timeout.
func New(client *http.Client, cfg config.ResolverConfig, logger *slog.Logger) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: cfg.FetchTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	return &Resolver{
		client:       client,
		limiter:      rate.NewLimiter(rate.Limit(rps), 1),
		pdfTextLimit: cfg.PDFTextLimit,
		webTextLimit: cfg.WebTextLimit,
		logger:       logger,
	}
}

// classification carries the chosen strategy and the URL to actually fetch,
// which may differ from the reference (arXiv abstract pages are rewritten to
// their PDF counterparts).
type classification struct {
	kind     domain.ContentKind
	fetchURL string
}

// classify picks the retrieval strategy, first match wins: known arXiv
// locators are PDFs after rewriting, direct .pdf paths are PDFs, everything
// else is a web page.
func classify(ref domain.Reference) classification {
	raw := string(ref)

	if isArxiv(raw) {
		return classification{kind: domain.KindPDF, fetchURL: arxivPDFURL(raw)}
	}
	if u, err := url.Parse(raw); err == nil && strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
		return classification{kind: domain.KindPDF, fetchURL: raw}
	}
	return classification{kind: domain.KindWebPage, fetchURL: raw}
}

func isArxiv(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return strings.Contains(raw, "arxiv.org")
	}
	host := strings.ToLower(u.Hostname())
	return host == "arxiv.org" || strings.HasSuffix(host, ".arxiv.org")
}

// arxivPDFURL rewrites an abstract-view locator to its document-view
// counterpart: /abs/1234.5678 becomes /pdf/1234.5678.pdf. Locators already
// under /pdf/ just gain the extension when missing.
func arxivPDFURL(raw string) string {
	switch {
	case strings.Contains(raw, "/abs/"):
		return strings.Replace(raw, "/abs/", "/pdf/", 1) + ".pdf"
	case strings.Contains(raw, "/pdf/"):
		if strings.HasSuffix(raw, ".pdf") {
			return raw
		}
		return raw + ".pdf"
	default:
		return raw
	}
}

// Resolve produces exactly one outcome for the reference. Failures of any
// kind (transfer, status, extraction) mark the outcome unsuccessful with
// empty text and never propagate.
func (r *Resolver) Resolve(ctx context.Context, ref domain.Reference) domain.RetrievalOutcome {
	c := classify(ref)
	r.logger.Debug("resolving reference", "url", string(ref), "kind", string(c.kind))

	var (
		text string
		err  error
	)
	switch c.kind {
	case domain.KindPDF:
		text, err = r.fetchPDF(ctx, c.fetchURL)
	default:
		text, err = r.fetchWebPage(ctx, c.fetchURL)
	}

	if err != nil {
		r.logger.Warn("resolution failed", "url", string(ref), "kind", string(c.kind), "error", err)
		return domain.RetrievalOutcome{
			Reference: ref,
			Kind:      c.kind,
			Success:   false,
			Err:       err.Error(),
		}
	}

	return domain.RetrievalOutcome{
		Reference: ref,
		Kind:      c.kind,
		Text:      text,
		Success:   true,
	}
}

func (r *Resolver) get(ctx context.Context, fetchURL string) (*http.Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	return r.client.Do(req)
}

func truncate(text string, limit int) string {
	if limit > 0 && len(text) > limit {
		return text[:limit]
	}
	return text
}
