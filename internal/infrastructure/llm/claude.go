// Package llm produces the condensed digest by sending the assembled corpus
// to the Claude Messages API.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"SafetyDigest/internal/config"
	"SafetyDigest/internal/domain"
	"SafetyDigest/internal/ports"
)

// Per-item excerpt bounds keep the prompt within model limits even when the
// corpus carries dozens of long documents.
const (
	newsletterExcerptLimit = 10_000
	documentExcerptLimit   = 30_000
)

// ClaudeProducer implements ports.DigestProducer against the Anthropic API.
type ClaudeProducer struct {
	client         anthropic.Client
	model          string
	maxTokens      int
	thinkingBudget int
}

var _ ports.DigestProducer = (*ClaudeProducer)(nil)

// NewClaudeProducer builds a producer from configuration. Extra request
// options (base URL overrides for tests) are passed through to the client.
func NewClaudeProducer(cfg config.ClaudeConfig, opts ...option.RequestOption) *ClaudeProducer {
	opts = append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	return &ClaudeProducer{
		client:         anthropic.NewClient(opts...),
		model:          cfg.Model,
		maxTokens:      cfg.MaxTokens,
		thinkingBudget: cfg.ThinkingBudget,
	}
}

// Produce sends the corpus as one prompt and concatenates the text blocks of
// the response, skipping thinking blocks.
func (p *ClaudeProducer) Produce(ctx context.Context, corpus domain.Corpus) (string, error) {
	if p.model == "" {
		return "", fmt.Errorf("claude producer misconfigured: model is empty")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(p.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(corpus))),
		},
	}
	if p.thinkingBudget > 0 {
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(int64(p.thinkingBudget))
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude message: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return sb.String(), nil
}

// buildPrompt lays the corpus out as newsletter and paper sections followed
// by the digest instructions. The corpus is read, never modified.
func buildPrompt(corpus domain.Corpus) string {
	var parts []string

	if len(corpus.Newsletters) > 0 {
		parts = append(parts, "=== EMAIL NEWSLETTERS ===\n")
		for i, newsletter := range corpus.Newsletters {
			parts = append(parts,
				fmt.Sprintf("\n--- Newsletter %d: %s ---\n", i+1, newsletter.Subject),
				excerpt(newsletter.Body, newsletterExcerptLimit))
		}
	}

	if len(corpus.Documents) > 0 {
		parts = append(parts, "\n\n=== PAPERS FROM SLACK ===\n")
		for i, doc := range corpus.Documents {
			if !doc.Success {
				parts = append(parts, fmt.Sprintf("\n--- Paper %d: %s (failed to fetch) ---\n", i+1, doc.Reference))
				continue
			}
			parts = append(parts,
				fmt.Sprintf("\n--- Paper %d: %s ---\nType: %s\n", i+1, doc.Reference, doc.Kind),
				excerpt(doc.Text, documentExcerptLimit))
		}
	}

	return fmt.Sprintf(`You are analyzing this week's AI safety content from newsletters and research papers. Your task is to create a COMPACT weekly digest that:

1. Removes all redundancy (many sources cover the same topics/papers)
2. Extracts the most important insights, findings, and developments
3. Highlights key data, results, or plots mentioned
4. Organizes information by theme/topic rather than by source
5. Keeps the summary concise but comprehensive

Focus on:
- Novel research findings in AI safety/alignment
- Important policy or governance developments
- Technical breakthroughs or concerning capabilities
- Key empirical results and data
- Significant debates or discussions in the field

Format the output with clear sections and bullet points for scannability.

Here is this week's content:

%s

Generate the compact weekly digest now:`, strings.Join(parts, "\n"))
}

func excerpt(text string, limit int) string {
	if len(text) > limit {
		return text[:limit]
	}
	return text
}
