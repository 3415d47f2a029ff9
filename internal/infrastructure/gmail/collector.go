// Package gmail collects labeled newsletter messages from a mailbox and
// extracts their plain-text bodies.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"SafetyDigest/internal/domain"
	"SafetyDigest/internal/ports"
)

const (
	mailboxUser  = "me"
	mimePlain    = "text/plain"
	mimeHTML     = "text/html"
	queryDateFmt = "2006/01/02"
)

// NewService builds a Gmail API service from pre-authorized user credentials
// JSON. Credential acquisition and refresh happen outside this process.
func NewService(ctx context.Context, credentialsJSON string, opts ...option.ClientOption) (*gmailapi.Service, error) {
	creds, err := google.CredentialsFromJSON(ctx, []byte(credentialsJSON), gmailapi.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse gmail credentials: %w", err)
	}
	opts = append([]option.ClientOption{option.WithTokenSource(creds.TokenSource)}, opts...)
	service, err := gmailapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("build gmail service: %w", err)
	}
	return service, nil
}

// Collector pulls messages carrying a label received inside the time window.
// A nil service means credentials were not supplied; the collector then
// contributes an empty sequence instead of failing the run.
type Collector struct {
	service *gmailapi.Service
	label   string
	logger  *slog.Logger
}

var _ ports.NewsletterSource = (*Collector)(nil)

// NewCollector wires the Gmail service with the newsletter label to query.
func NewCollector(service *gmailapi.Service, label string, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{service: service, label: label, logger: logger}
}

// CollectNewsletters lists all messages matching the label and window start,
// fetches each in full, and extracts subject plus best-effort body text.
func (c *Collector) CollectNewsletters(ctx context.Context, window domain.TimeWindow) ([]domain.NewsletterItem, error) {
	if c.service == nil {
		c.logger.Warn("gmail credentials not configured, contributing no newsletters")
		return []domain.NewsletterItem{}, nil
	}

	query := fmt.Sprintf("label:%s after:%s", c.label, window.Start.Format(queryDateFmt))

	var ids []string
	pageToken := ""
	for {
		call := c.service.Users.Messages.List(mailboxUser).Q(query).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list messages with label %s: %w", c.label, err)
		}
		for _, msg := range resp.Messages {
			ids = append(ids, msg.Id)
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	items := make([]domain.NewsletterItem, 0, len(ids))
	for _, id := range ids {
		msg, err := c.service.Users.Messages.Get(mailboxUser, id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("fetch message %s: %w", id, err)
		}
		items = append(items, domain.NewsletterItem{
			Subject:   subjectHeader(msg.Payload),
			Body:      extractBody(msg.Payload),
			MessageID: id,
		})
	}

	c.logger.Info("collected newsletters", "label", c.label, "count", len(items))
	return items, nil
}

func subjectHeader(payload *gmailapi.MessagePart) string {
	if payload == nil {
		return ""
	}
	for _, header := range payload.Headers {
		if header.Name == "Subject" {
			return header.Value
		}
	}
	return ""
}

// extractBody picks the message text with an explicit priority order: for
// multi-part messages the first text/plain part wins, then the first
// text/html part (raw decoded markup, stripping happens downstream if at
// all); single-part messages use the payload body directly. An undecodable
// message yields "".
func extractBody(payload *gmailapi.MessagePart) string {
	if payload == nil {
		return ""
	}

	if len(payload.Parts) > 0 {
		if text := firstPartOfKind(payload.Parts, mimePlain); text != "" {
			return text
		}
		return firstPartOfKind(payload.Parts, mimeHTML)
	}

	if payload.Body == nil {
		return ""
	}
	return decodeBody(payload.Body.Data)
}

func firstPartOfKind(parts []*gmailapi.MessagePart, mimeType string) string {
	for _, part := range parts {
		if part.MimeType != mimeType || part.Body == nil {
			continue
		}
		return decodeBody(part.Body.Data)
	}
	return ""
}

// decodeBody handles the web-safe base64 Gmail uses, with or without padding.
func decodeBody(data string) string {
	if data == "" {
		return ""
	}
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	decoded, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return ""
	}
	return string(decoded)
}
