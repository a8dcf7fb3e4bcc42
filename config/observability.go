package config

import (
	"strings"
	"time"
)

const (
	defaultSlackUsername = "llm-relay"
	defaultSQSRegion     = "us-east-1"
	defaultNotifyTimeout = 5 * time.Second
)

// ObservabilityConfig covers StatsD metrics and the relay-failure notice sinks.
type ObservabilityConfig struct {
	Metrics       ObservabilityMetricsConfig
	Notifications ObservabilityNotificationsConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.Metrics.Sanitize()
	c.Notifications.Sanitize()
}

// ObservabilityMetricsConfig controls the StatsD client.
type ObservabilityMetricsConfig struct {
	Enabled       bool   `env:"OBSERVABILITY_METRICS_ENABLED"        envDefault:"false"`
	StatsdAddress string `env:"OBSERVABILITY_METRICS_STATSD_ADDRESS" envDefault:"127.0.0.1:8125"`
	// Prefix is prepended to every metric name, e.g. llm_relay.relay.result.
	Prefix string `env:"OBSERVABILITY_METRICS_PREFIX" envDefault:"llm_relay"`
}

// Sanitize trims the address and prefix; a blank address turns metrics off.
func (c *ObservabilityMetricsConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	c.Prefix = strings.Trim(strings.TrimSpace(c.Prefix), ".")
	c.Enabled = c.Enabled && c.StatsdAddress != ""
}

// IsEnabled reports whether a StatsD client should be dialed.
func (c *ObservabilityMetricsConfig) IsEnabled() bool {
	return c.Enabled && c.StatsdAddress != ""
}

// ObservabilityNotificationsConfig controls where undeliverable relays are reported.
// Each sink needs both the top-level switch and its own.
type ObservabilityNotificationsConfig struct {
	Enabled    bool                    `env:"OBSERVABILITY_NOTIFICATIONS_ENABLED"     envDefault:"false"`
	Timeout    time.Duration           `env:"OBSERVABILITY_NOTIFICATIONS_TIMEOUT"     envDefault:"5s"`
	RetryLimit int                     `env:"OBSERVABILITY_NOTIFICATIONS_RETRY_LIMIT" envDefault:"3"`
	Slack      SlackNotificationConfig `                                                                 envPrefix:"OBSERVABILITY_NOTIFICATIONS_SLACK_"`
	SQS        SQSNotificationConfig   `                                                                 envPrefix:"OBSERVABILITY_NOTIFICATIONS_SQS_"`
}

// Sanitize clamps timeouts and retries and switches off sinks that cannot work.
func (c *ObservabilityNotificationsConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = defaultNotifyTimeout
	}
	c.RetryLimit = max(c.RetryLimit, 0)

	c.Slack.sanitize(c.Enabled)
	c.SQS.sanitize(c.Enabled)
}

// AnySinkEnabled reports whether at least one sink survived sanitisation.
func (c *ObservabilityNotificationsConfig) AnySinkEnabled() bool {
	return c.Slack.Enabled || c.SQS.Enabled
}

// SlackNotificationConfig posts a human-readable notice to an incoming webhook.
type SlackNotificationConfig struct {
	Enabled    bool   `env:"ENABLED"     envDefault:"false"`
	WebhookURL string `env:"WEBHOOK_URL"`
	Channel    string `env:"CHANNEL"`
	Username   string `env:"USERNAME"    envDefault:"llm-relay"`
}

func (c *SlackNotificationConfig) sanitize(parentEnabled bool) {
	c.WebhookURL = strings.TrimSpace(c.WebhookURL)
	c.Channel = strings.TrimSpace(c.Channel)
	if c.Username = strings.TrimSpace(c.Username); c.Username == "" {
		c.Username = defaultSlackUsername
	}
	c.Enabled = parentEnabled && c.Enabled && c.WebhookURL != ""
}

// SQSNotificationConfig publishes each notice to a queue that a reconciliation
// worker drains to re-drive the relay.
type SQSNotificationConfig struct {
	Enabled  bool   `env:"ENABLED"   envDefault:"false"`
	QueueURL string `env:"QUEUE_URL"`
	Region   string `env:"REGION"    envDefault:"us-east-1"`
}

func (c *SQSNotificationConfig) sanitize(parentEnabled bool) {
	c.QueueURL = strings.TrimSpace(c.QueueURL)
	if c.Region = strings.TrimSpace(c.Region); c.Region == "" {
		c.Region = defaultSQSRegion
	}
	c.Enabled = parentEnabled && c.Enabled && c.QueueURL != ""
}
