package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SafetyDigest/internal/config"
	"SafetyDigest/internal/domain"
)

func testConfig() config.ResolverConfig {
	return config.ResolverConfig{
		FetchTimeout:      5 * time.Second,
		PDFTextLimit:      100_000,
		WebTextLimit:      50_000,
		RequestsPerSecond: 1000,
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		ref      domain.Reference
		wantKind domain.ContentKind
		wantURL  string
	}{
		{
			name:     "arxiv abstract view rewritten to document view",
			ref:      "https://arxiv.org/abs/1234.5678",
			wantKind: domain.KindPDF,
			wantURL:  "https://arxiv.org/pdf/1234.5678.pdf",
		},
		{
			name:     "arxiv pdf path gains extension",
			ref:      "https://arxiv.org/pdf/1234.5678",
			wantKind: domain.KindPDF,
			wantURL:  "https://arxiv.org/pdf/1234.5678.pdf",
		},
		{
			name:     "arxiv pdf with extension untouched",
			ref:      "https://arxiv.org/pdf/1234.5678.pdf",
			wantKind: domain.KindPDF,
			wantURL:  "https://arxiv.org/pdf/1234.5678.pdf",
		},
		{
			name:     "arxiv export subdomain",
			ref:      "https://export.arxiv.org/abs/1234.5678",
			wantKind: domain.KindPDF,
			wantURL:  "https://export.arxiv.org/pdf/1234.5678.pdf",
		},
		{
			name:     "direct pdf link",
			ref:      "https://example.org/papers/report.PDF",
			wantKind: domain.KindPDF,
			wantURL:  "https://example.org/papers/report.PDF",
		},
		{
			name:     "general web document",
			ref:      "https://openreview.net/forum?id=abc",
			wantKind: domain.KindWebPage,
			wantURL:  "https://openreview.net/forum?id=abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := classify(tt.ref)
			assert.Equal(t, tt.wantKind, c.kind)
			assert.Equal(t, tt.wantURL, c.fetchURL)
		})
	}
}

func TestResolveWebPageStripsMarkup(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`
			<html><head>
			  <title>Post</title>
			  <style>body { color: red; }</style>
			  <script>alert("nope")</script>
			</head><body>
			  <h1>Alignment    News</h1>

			  <p>First    paragraph.</p>
			</body></html>`))
	}))
	t.Cleanup(server.Close)

	r := New(server.Client(), testConfig(), nil)
	outcome := r.Resolve(context.Background(), domain.Reference(server.URL+"/post"))

	require.True(t, outcome.Success)
	assert.Equal(t, domain.KindWebPage, outcome.Kind)
	assert.NotContains(t, outcome.Text, "alert")
	assert.NotContains(t, outcome.Text, "color: red")
	assert.Contains(t, outcome.Text, "Alignment News")
	assert.Contains(t, outcome.Text, "First paragraph.")
	assert.Empty(t, outcome.Err)
}

func TestResolveWebPageErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	r := New(server.Client(), testConfig(), nil)
	outcome := r.Resolve(context.Background(), domain.Reference(server.URL+"/missing"))

	assert.False(t, outcome.Success)
	assert.Empty(t, outcome.Text)
	assert.NotEmpty(t, outcome.Err)
}

func TestResolveWebPageTruncates(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>0123456789012345678901234567890123456789</body></html>"))
	}))
	t.Cleanup(server.Close)

	cfg := testConfig()
	cfg.WebTextLimit = 10
	r := New(server.Client(), cfg, nil)

	outcome := r.Resolve(context.Background(), domain.Reference(server.URL))
	require.True(t, outcome.Success)
	assert.Equal(t, "0123456789", outcome.Text)
}

func TestResolveIsIdempotent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><p>stable   content</p></body></html>"))
	}))
	t.Cleanup(server.Close)

	r := New(server.Client(), testConfig(), nil)
	ref := domain.Reference(server.URL)

	first := r.Resolve(context.Background(), ref)
	second := r.Resolve(context.Background(), ref)

	require.True(t, first.Success)
	assert.Equal(t, first, second)
}

func TestResolvePDFDownloadFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	r := New(server.Client(), testConfig(), nil)
	outcome := r.Resolve(context.Background(), domain.Reference(server.URL+"/paper.pdf"))

	assert.Equal(t, domain.KindPDF, outcome.Kind)
	assert.False(t, outcome.Success)
	assert.Empty(t, outcome.Text)
	assert.NotEmpty(t, outcome.Err)
}

func TestResolvePDFUnparseableBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not a pdf"))
	}))
	t.Cleanup(server.Close)

	r := New(server.Client(), testConfig(), nil)
	outcome := r.Resolve(context.Background(), domain.Reference(server.URL+"/broken.pdf"))

	assert.False(t, outcome.Success)
	assert.Empty(t, outcome.Text)
	assert.NotEmpty(t, outcome.Err)
}

func TestCollapseWhitespace(t *testing.T) {
	t.Parallel()

	in := "  a   b  \n\n\n c\t d \n"
	assert.Equal(t, "a b\nc d", collapseWhitespace(in))
}
