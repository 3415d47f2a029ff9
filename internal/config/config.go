package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv       = "SAFETY_DIGEST_CONFIG"
	slackTokenEnv       = "SLACK_BOT_TOKEN"
	slackChannelEnv     = "SLACK_CHANNEL_NAME"
	gmailCredentialsEnv = "GMAIL_CREDENTIALS_JSON"
	gmailLabelEnv       = "GMAIL_LABEL"
	daysBackEnv         = "DAYS_BACK"
	anthropicAPIKeyEnv  = "ANTHROPIC_API_KEY"
	senderEmailEnv      = "SENDER_EMAIL"
	senderPasswordEnv   = "SENDER_PASSWORD"
	recipientEmailEnv   = "RECIPIENT_EMAIL"
)

// Config holds all settings recognized by the application. Components never
// read the process environment themselves; everything they need is passed in
// from here.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Slack    SlackConfig    `yaml:"slack"`
	Gmail    GmailConfig    `yaml:"gmail"`
	Digest   DigestConfig   `yaml:"digest"`
	Resolver ResolverConfig `yaml:"resolver"`
	Claude   ClaudeConfig   `yaml:"claude"`
	Email    EmailConfig    `yaml:"email"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SlackConfig identifies the channel to scan for references.
type SlackConfig struct {
	Channel  string `yaml:"channel"`
	BotToken string `yaml:"botToken"`
}

// GmailConfig identifies the newsletter label and the pre-authorized
// credentials JSON (authorized-user format).
type GmailConfig struct {
	Label           string `yaml:"label"`
	CredentialsJSON string `yaml:"credentialsJson"`
}

// DigestConfig bounds one run of the aggregation pipeline.
type DigestConfig struct {
	DaysBack      int    `yaml:"daysBack"`
	MaxReferences int    `yaml:"maxReferences"`
	Workers       int    `yaml:"workers"`
	ArtifactPath  string `yaml:"artifactPath"`
}

// ResolverConfig bounds individual document fetches.
type ResolverConfig struct {
	FetchTimeout      time.Duration `yaml:"fetchTimeout"`
	PDFTextLimit      int           `yaml:"pdfTextLimit"`
	WebTextLimit      int           `yaml:"webTextLimit"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
}

// ClaudeConfig defines how to contact the Claude Messages API.
type ClaudeConfig struct {
	Model          string `yaml:"model"`
	APIKey         string `yaml:"apiKey"`
	MaxTokens      int    `yaml:"maxTokens"`
	ThinkingBudget int    `yaml:"thinkingBudget"`
}

// EmailConfig wires SMTP delivery of the finished digest.
type EmailConfig struct {
	SMTPHost string `yaml:"smtpHost"`
	SMTPPort int    `yaml:"smtpPort"`
	From     string `yaml:"from"`
	Password string `yaml:"password"`
	To       string `yaml:"to"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides on top.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(slackTokenEnv); v != "" {
		c.Slack.BotToken = v
	}
	if v := os.Getenv(slackChannelEnv); v != "" {
		c.Slack.Channel = v
	}
	if v := os.Getenv(gmailCredentialsEnv); v != "" {
		c.Gmail.CredentialsJSON = v
	}
	if v := os.Getenv(gmailLabelEnv); v != "" {
		c.Gmail.Label = v
	}
	if v := os.Getenv(daysBackEnv); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			c.Digest.DaysBack = days
		}
	}
	if v := os.Getenv(anthropicAPIKeyEnv); v != "" {
		c.Claude.APIKey = v
	}
	if v := os.Getenv(senderEmailEnv); v != "" {
		c.Email.From = v
	}
	if v := os.Getenv(senderPasswordEnv); v != "" {
		c.Email.Password = v
	}
	if v := os.Getenv(recipientEmailEnv); v != "" {
		c.Email.To = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Slack.Channel != "" {
		base.Slack.Channel = override.Slack.Channel
	}
	if override.Slack.BotToken != "" {
		base.Slack.BotToken = override.Slack.BotToken
	}

	if override.Gmail.Label != "" {
		base.Gmail.Label = override.Gmail.Label
	}
	if override.Gmail.CredentialsJSON != "" {
		base.Gmail.CredentialsJSON = override.Gmail.CredentialsJSON
	}

	if override.Digest.DaysBack > 0 {
		base.Digest.DaysBack = override.Digest.DaysBack
	}
	if override.Digest.MaxReferences > 0 {
		base.Digest.MaxReferences = override.Digest.MaxReferences
	}
	if override.Digest.Workers > 0 {
		base.Digest.Workers = override.Digest.Workers
	}
	if override.Digest.ArtifactPath != "" {
		base.Digest.ArtifactPath = override.Digest.ArtifactPath
	}

	if override.Resolver.FetchTimeout > 0 {
		base.Resolver.FetchTimeout = override.Resolver.FetchTimeout
	}
	if override.Resolver.PDFTextLimit > 0 {
		base.Resolver.PDFTextLimit = override.Resolver.PDFTextLimit
	}
	if override.Resolver.WebTextLimit > 0 {
		base.Resolver.WebTextLimit = override.Resolver.WebTextLimit
	}
	if override.Resolver.RequestsPerSecond > 0 {
		base.Resolver.RequestsPerSecond = override.Resolver.RequestsPerSecond
	}

	if override.Claude.Model != "" {
		base.Claude.Model = override.Claude.Model
	}
	if override.Claude.APIKey != "" {
		base.Claude.APIKey = override.Claude.APIKey
	}
	if override.Claude.MaxTokens > 0 {
		base.Claude.MaxTokens = override.Claude.MaxTokens
	}
	if override.Claude.ThinkingBudget > 0 {
		base.Claude.ThinkingBudget = override.Claude.ThinkingBudget
	}

	if override.Email.SMTPHost != "" {
		base.Email.SMTPHost = override.Email.SMTPHost
	}
	if override.Email.SMTPPort > 0 {
		base.Email.SMTPPort = override.Email.SMTPPort
	}
	if override.Email.From != "" {
		base.Email.From = override.Email.From
	}
	if override.Email.Password != "" {
		base.Email.Password = override.Email.Password
	}
	if override.Email.To != "" {
		base.Email.To = override.Email.To
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Slack:   SlackConfig{Channel: "papers-running-list"},
		Gmail:   GmailConfig{Label: "AI-Safety-Newsletters"},
		Digest: DigestConfig{
			DaysBack:      7,
			MaxReferences: 50,
			Workers:       4,
			ArtifactPath:  "digest.txt",
		},
		Resolver: ResolverConfig{
			FetchTimeout:      30 * time.Second,
			PDFTextLimit:      100_000,
			WebTextLimit:      50_000,
			RequestsPerSecond: 2,
		},
		Claude: ClaudeConfig{
			Model:          "claude-sonnet-4-20250514",
			MaxTokens:      16_000,
			ThinkingBudget: 10_000,
		},
		Email: EmailConfig{
			SMTPHost: "smtp.gmail.com",
			SMTPPort: 587,
		},
	}
}
