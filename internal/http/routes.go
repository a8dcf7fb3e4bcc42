package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/llm-relay/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Relay *service.RelayService
	// CallbackSecret and VerifyCallbackSignature control inbound callback authentication.
	CallbackSecret          string
	VerifyCallbackSignature bool
	// MaxBodyBytes caps request bodies; zero disables the limit.
	MaxBodyBytes int64
	// Readiness checks served on /readyz.
	Readiness map[string]ReadinessCheck
	IsDev     bool         // Development mode enables /simulate-llm/{id}
	Logger    *slog.Logger // Logger for request and error logs (optional)
}

// NewRouter creates and configures the HTTP router with logging, recovery and body limits.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	h := &RelayHandlers{
		Svc:                     services.Relay,
		Secret:                  services.CallbackSecret,
		VerifyCallbackSignature: services.VerifyCallbackSignature,
		Logger:                  logger,
	}

	mux.HandleFunc("POST /v1/reviews", h.CreateReview)
	mux.HandleFunc("POST /v1/llm/callback/{id}", h.Callback)
	mux.HandleFunc("GET /v1/jobs/{id}", h.GetJob)
	if services.IsDev {
		mux.HandleFunc("POST /simulate-llm/{id}", h.Simulate)
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readinessHandler(services.Readiness))

	var handler http.Handler = mux
	handler = LimitBody(services.MaxBodyBytes)(handler)
	handler = Recover(logger)(handler)
	handler = Logging(logger)(handler)
	return handler
}
