package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"SafetyDigest/internal/domain"
)

func encode(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestExtractBodySinglePartPlain(t *testing.T) {
	t.Parallel()

	payload := &gmailapi.MessagePart{
		MimeType: "text/plain",
		Body:     &gmailapi.MessagePartBody{Data: encode("hello digest")},
	}

	assert.Equal(t, "hello digest", extractBody(payload))
}

func TestExtractBodyMultiPartPrefersPlain(t *testing.T) {
	t.Parallel()

	payload := &gmailapi.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmailapi.MessagePart{
			{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: encode("<p>html</p>")}},
			{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: encode("plain wins")}},
			{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: encode("second plain ignored")}},
		},
	}

	assert.Equal(t, "plain wins", extractBody(payload))
}

func TestExtractBodyHTMLOnlyPart(t *testing.T) {
	t.Parallel()

	// Scenario: a newsletter shipped only as HTML keeps its raw decoded
	// markup; no tag stripping happens at this layer.
	payload := &gmailapi.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmailapi.MessagePart{
			{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: encode("<h1>Weekly News</h1>")}},
		},
	}

	assert.Equal(t, "<h1>Weekly News</h1>", extractBody(payload))
}

func TestExtractBodyNothingDecodable(t *testing.T) {
	t.Parallel()

	payload := &gmailapi.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmailapi.MessagePart{
			{MimeType: "image/png", Body: &gmailapi.MessagePartBody{Data: encode("binary")}},
			{MimeType: "text/plain", Body: &gmailapi.MessagePartBody{Data: "!!!not-base64!!!"}},
		},
	}

	assert.Equal(t, "", extractBody(payload))
	assert.Equal(t, "", extractBody(nil))
	assert.Equal(t, "", extractBody(&gmailapi.MessagePart{MimeType: "text/plain"}))
}

func TestDecodeBodyPaddingVariants(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ab", decodeBody(base64.URLEncoding.EncodeToString([]byte("ab"))))
	assert.Equal(t, "ab", decodeBody(base64.RawURLEncoding.EncodeToString([]byte("ab"))))
	assert.Equal(t, "", decodeBody(""))
}

func TestSubjectHeader(t *testing.T) {
	t.Parallel()

	payload := &gmailapi.MessagePart{
		Headers: []*gmailapi.MessagePartHeader{
			{Name: "From", Value: "news@example.org"},
			{Name: "Subject", Value: "Safety Update #42"},
		},
	}

	assert.Equal(t, "Safety Update #42", subjectHeader(payload))
	assert.Equal(t, "", subjectHeader(&gmailapi.MessagePart{}))
}

func TestCollectNewslettersWithoutCredentials(t *testing.T) {
	t.Parallel()

	collector := NewCollector(nil, "AI-Safety-Newsletters", nil)
	items, err := collector.CollectNewsletters(context.Background(), domain.NewTimeWindow(time.Now(), 7))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCollectNewslettersQueriesAndExtracts(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/messages/m1"):
			require.NoError(t, json.NewEncoder(w).Encode(&gmailapi.Message{
				Id: "m1",
				Payload: &gmailapi.MessagePart{
					MimeType: "text/plain",
					Headers:  []*gmailapi.MessagePartHeader{{Name: "Subject", Value: "Issue 1"}},
					Body:     &gmailapi.MessagePartBody{Data: encode("first body")},
				},
			}))
		case strings.HasSuffix(r.URL.Path, "/messages/m2"):
			require.NoError(t, json.NewEncoder(w).Encode(&gmailapi.Message{
				Id: "m2",
				Payload: &gmailapi.MessagePart{
					MimeType: "multipart/alternative",
					Parts: []*gmailapi.MessagePart{
						{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: encode("<b>second</b>")}},
					},
				},
			}))
		case strings.HasSuffix(r.URL.Path, "/messages"):
			query := r.URL.Query().Get("q")
			assert.Contains(t, query, "label:AI-Safety-Newsletters")
			assert.Contains(t, query, "after:")
			if r.URL.Query().Get("pageToken") == "" {
				fmt.Fprint(w, `{"messages":[{"id":"m1"}],"nextPageToken":"next"}`)
				return
			}
			fmt.Fprint(w, `{"messages":[{"id":"m2"}]}`)
		default:
			t.Errorf("unexpected call to %s", r.URL.Path)
		}
	}))
	t.Cleanup(server.Close)

	service, err := gmailapi.NewService(context.Background(),
		option.WithEndpoint(server.URL),
		option.WithoutAuthentication())
	require.NoError(t, err)

	collector := NewCollector(service, "AI-Safety-Newsletters", nil)
	items, err := collector.CollectNewsletters(context.Background(), domain.NewTimeWindow(time.Now(), 7))
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, domain.NewsletterItem{Subject: "Issue 1", Body: "first body", MessageID: "m1"}, items[0])
	assert.Equal(t, domain.NewsletterItem{Subject: "", Body: "<b>second</b>", MessageID: "m2"}, items[1])
}
