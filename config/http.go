package config

import "strings"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// PublicBaseURL is the externally reachable base URL of this service.
	// The processor is told to call back at <PublicBaseURL>/v1/llm/callback/<job-id>.
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	// MaxBodyBytes caps inbound request bodies.
	MaxBodyBytes int64 `env:"HTTP_MAX_BODY_BYTES" envDefault:"1048576"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.Addr = strings.TrimSpace(h.Addr)
	if h.Addr == "" {
		h.Addr = ":8080"
	}
	h.PublicBaseURL = strings.TrimRight(strings.TrimSpace(h.PublicBaseURL), "/")
	if h.PublicBaseURL == "" {
		h.PublicBaseURL = "http://localhost:8080"
	}
	if h.MaxBodyBytes <= 0 {
		h.MaxBodyBytes = 1 << 20
	}
}

// CallbackURL returns the URL the processor must call when a job completes.
func (h *HTTPConfig) CallbackURL(jobID string) string {
	return h.PublicBaseURL + "/v1/llm/callback/" + jobID
}
