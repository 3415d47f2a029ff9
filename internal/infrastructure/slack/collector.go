// Package slack collects candidate references from a Slack channel by paging
// through its message history inside a time window.
package slack

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	slackapi "github.com/slack-go/slack"

	"SafetyDigest/internal/domain"
	"SafetyDigest/internal/ports"
)

const historyPageSize = 200

// urlExpr matches bare URLs in message text. Slack wraps links in
// <url|label>, so '<', '>' and '|' terminate a match.
var urlExpr = regexp.MustCompile(`https?://[^\s<>|]+`)

// Client is the subset of the Slack Web API the collector needs.
type Client interface {
	GetConversationsContext(ctx context.Context, params *slackapi.GetConversationsParameters) ([]slackapi.Channel, string, error)
	GetConversationHistoryContext(ctx context.Context, params *slackapi.GetConversationHistoryParameters) (*slackapi.GetConversationHistoryResponse, error)
}

// Collector extracts unique references from all channel messages within the
// requested window.
type Collector struct {
	client  Client
	channel string
	logger  *slog.Logger
}

var _ ports.ReferenceSource = (*Collector)(nil)

// NewCollector wires a Slack API client with the channel name to scan.
func NewCollector(client Client, channel string, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{client: client, channel: channel, logger: logger}
}

// CollectReferences pages through the channel history from the window start
// onward and returns first-seen-unique references in API listing order.
// An unresolvable channel name is not an error: it yields an empty sequence.
func (c *Collector) CollectReferences(ctx context.Context, window domain.TimeWindow) ([]domain.Reference, error) {
	channelID, err := c.resolveChannelID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve channel %s: %w", c.channel, err)
	}
	if channelID == "" {
		c.logger.Warn("channel not found, contributing no references", "channel", c.channel)
		return []domain.Reference{}, nil
	}

	var refs []domain.Reference
	cursor := ""
	for {
		resp, err := c.client.GetConversationHistoryContext(ctx, &slackapi.GetConversationHistoryParameters{
			ChannelID: channelID,
			Oldest:    slackTimestamp(window.Start),
			Latest:    slackTimestamp(window.End),
			Inclusive: true,
			Cursor:    cursor,
			Limit:     historyPageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("channel history %s: %w", c.channel, err)
		}

		for _, msg := range resp.Messages {
			if ts, ok := parseSlackTimestamp(msg.Timestamp); ok && ts.Before(window.Start) {
				continue
			}
			refs = append(refs, extractReferences(msg.Text)...)
		}

		if !resp.HasMore || resp.ResponseMetaData.NextCursor == "" {
			break
		}
		cursor = resp.ResponseMetaData.NextCursor
	}

	unique := domain.DedupeReferences(refs)
	c.logger.Info("collected references", "channel", c.channel, "unique", len(unique), "raw", len(refs))
	return unique, nil
}

func (c *Collector) resolveChannelID(ctx context.Context) (string, error) {
	cursor := ""
	for {
		channels, next, err := c.client.GetConversationsContext(ctx, &slackapi.GetConversationsParameters{
			Cursor:          cursor,
			Limit:           historyPageSize,
			ExcludeArchived: true,
		})
		if err != nil {
			return "", err
		}

		for _, ch := range channels {
			if ch.Name == c.channel {
				return ch.ID, nil
			}
		}

		if next == "" {
			return "", nil
		}
		cursor = next
	}
}

// extractReferences scans one message body for URLs. A message may yield zero
// or more references; trailing link punctuation is trimmed.
func extractReferences(text string) []domain.Reference {
	matches := urlExpr.FindAllString(text, -1)
	refs := make([]domain.Reference, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimRight(m, ".,;:)")
		if m != "" {
			refs = append(refs, domain.Reference(m))
		}
	}
	return refs
}

func slackTimestamp(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixMicro())/1e6, 'f', 6, 64)
}

func parseSlackTimestamp(ts string) (time.Time, bool) {
	seconds, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMicro(int64(seconds * 1e6)), true
}
