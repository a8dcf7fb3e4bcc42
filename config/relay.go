package config

import (
	"strings"
	"time"
)

const (
	maxRelayBackoff     = 60 * time.Second
	defaultRelayBackoff = 2 * time.Second
)

// UpstreamConfig describes the external processor that performs the reviews.
type UpstreamConfig struct {
	// APIURL is the processor base URL; jobs are posted to <APIURL>/v1/reviews.
	APIURL string `env:"LLM_API_URL" envDefault:"http://llm-host:8000"`

	// APIKey is sent as a bearer token when set.
	APIKey string `env:"LLM_API_KEY"`

	// RequestTimeout bounds every outbound call (dispatch and each relay attempt).
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
}

// Sanitize trims values and enforces a positive timeout.
func (c *UpstreamConfig) Sanitize() {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	c.APIKey = strings.TrimSpace(c.APIKey)
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 60 * time.Second
	}
}

// RelayConfig controls signed delivery of job outcomes to requester webhooks.
type RelayConfig struct {
	// HMACSecret signs relay bodies (X-Signature: sha256=<hex>).
	HMACSecret string `env:"CALLBACK_HMAC_SECRET" envDefault:"dev-secret"`

	// MaxAttempts is the total number of delivery attempts per relay.
	MaxAttempts int `env:"CALLBACK_MAX_RETRIES" envDefault:"6"`

	// BackoffInitial is the delay before the second attempt; later delays double.
	BackoffInitial time.Duration `env:"CALLBACK_BACKOFF_INITIAL" envDefault:"2s"`

	// BackoffMax caps every delay including jitter.
	BackoffMax time.Duration `env:"CALLBACK_BACKOFF_MAX" envDefault:"60s"`

	// BackoffJitter is the upper bound of the random delay added to each wait.
	// It never exceeds BackoffInitial so successive waits stay non-decreasing.
	BackoffJitter time.Duration `env:"CALLBACK_BACKOFF_JITTER" envDefault:"1s"`

	// VerifyInboundSignature requires processor callbacks to carry a valid X-Signature.
	VerifyInboundSignature bool `env:"CALLBACK_VERIFY_SIGNATURE" envDefault:"false"`
}

// Sanitize clamps retry settings to safe bounds. Jitter is capped at BackoffInitial.
func (c *RelayConfig) Sanitize() {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.BackoffMax <= 0 || c.BackoffMax > maxRelayBackoff {
		c.BackoffMax = maxRelayBackoff
	}
	if c.BackoffInitial <= 0 {
		c.BackoffInitial = defaultRelayBackoff
	}
	if c.BackoffInitial > c.BackoffMax {
		c.BackoffInitial = c.BackoffMax
	}
	if c.BackoffJitter < 0 {
		c.BackoffJitter = 0
	}
	if c.BackoffJitter > c.BackoffInitial {
		c.BackoffJitter = c.BackoffInitial
	}
}
