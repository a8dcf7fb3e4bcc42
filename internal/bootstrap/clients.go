package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/llm-relay/config"
	"github.com/target/llm-relay/internal/adapters/processor"
	"github.com/target/llm-relay/internal/adapters/webhook"
	"github.com/target/llm-relay/internal/core"
	"github.com/target/llm-relay/internal/data"
	"github.com/target/llm-relay/internal/domain/relay"
	"github.com/target/llm-relay/internal/observability/notify/slack"
	"github.com/target/llm-relay/internal/observability/notify/sqs"
	"github.com/target/llm-relay/internal/observability/statsd"
	"github.com/target/llm-relay/internal/service"
	"github.com/target/llm-relay/internal/service/failurenotifier"
)

// dispatchLeaseSlack extends the dispatch lease past the upstream timeout.
const dispatchLeaseSlack = 5 * time.Second

// ServiceDeps contains the infrastructure needed to build the relay service.
type ServiceDeps struct {
	Config      *config.AppConfig
	Store       *Store
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// Services is the assembled application graph.
type Services struct {
	Relay    *service.RelayService
	Notifier *failurenotifier.Service
	Metrics  *statsd.Client
	Guard    core.LeaseStore
}

// Close releases resources owned by the service graph.
func (s *Services) Close() error {
	if s == nil || s.Metrics == nil {
		return nil
	}
	return s.Metrics.Close()
}

// NewServices builds the relay service and its adapters from configuration.
func NewServices(ctx context.Context, deps *ServiceDeps) (*Services, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dispatcher, err := processor.NewClient(processor.Config{
		BaseURL:     cfg.Upstream.APIURL,
		APIKey:      cfg.Upstream.APIKey,
		CallbackURL: cfg.HTTP.CallbackURL,
		Timeout:     cfg.Upstream.RequestTimeout,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build processor client: %w", err)
	}

	sender, err := buildWebhookSender(cfg, logger)
	if err != nil {
		return nil, err
	}

	leases := leaseStore(deps.RedisClient)
	guard, err := core.NewDispatchGuard(core.DispatchGuardOptions{
		Store: leases,
		TTL:   cfg.Upstream.RequestTimeout + dispatchLeaseSlack,
	})
	if err != nil {
		return nil, fmt.Errorf("build dispatch guard: %w", err)
	}

	notifier, err := buildFailureNotifier(ctx, cfg.Observability.Notifications, logger)
	if err != nil {
		return nil, err
	}

	metricsClient, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.Observability.Metrics.IsEnabled(),
		Address: cfg.Observability.Metrics.StatsdAddress,
		Prefix:  cfg.Observability.Metrics.Prefix,
		Logger:  logger,
	})
	if err != nil {
		// Metrics are optional; run without them rather than refusing to start.
		logger.WarnContext(ctx, "statsd unavailable; metrics disabled", "error", err)
		metricsClient, _ = statsd.NewClient(statsd.Config{Logger: logger})
	}

	relaySvc, err := service.NewRelayService(service.RelayServiceOptions{
		Repo:       deps.Store.Repo,
		Dispatcher: dispatcher,
		Relayer:    sender,
		Guard:      guard,
		Reporter:   notifier,
		Metrics:    metricsClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build relay service: %w", err)
	}

	return &Services{
		Relay:    relaySvc,
		Notifier: notifier,
		Metrics:  metricsClient,
		Guard:    leases,
	}, nil
}

func buildWebhookSender(cfg *config.AppConfig, logger *slog.Logger) (*webhook.Sender, error) {
	policy, err := relay.NewBackoffPolicy(relay.BackoffOptions{
		MaxAttempts: cfg.Relay.MaxAttempts,
		Initial:     cfg.Relay.BackoffInitial,
		Max:         cfg.Relay.BackoffMax,
		Jitter:      cfg.Relay.BackoffJitter,
	})
	if err != nil {
		return nil, fmt.Errorf("build relay backoff policy: %w", err)
	}

	sender, err := webhook.NewSender(webhook.SenderOptions{
		Secret:  cfg.Relay.HMACSecret,
		Policy:  policy,
		Timeout: cfg.Upstream.RequestTimeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build webhook sender: %w", err)
	}
	return sender, nil
}

//nolint:ireturn // the store kind depends on whether redis is configured.
func leaseStore(client redis.UniversalClient) core.LeaseStore {
	if client == nil {
		return data.NewMemoryLeaseStore(nil)
	}
	return data.NewRedisLeaseStore(client)
}

func buildFailureNotifier(
	ctx context.Context,
	cfg config.ObservabilityNotificationsConfig,
	logger *slog.Logger,
) (*failurenotifier.Service, error) {
	var sinks []failurenotifier.SinkRegistration
	if !cfg.AnySinkEnabled() {
		logger.DebugContext(ctx, "relay failure notifications disabled")
	}

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("build slack notifier: %w", err)
		}
		sinks = append(sinks, failurenotifier.SinkRegistration{Name: "slack", Sink: client})
	}

	if cfg.SQS.Enabled {
		sink, err := sqs.NewSink(ctx, sqs.Config{
			QueueURL: cfg.SQS.QueueURL,
			Region:   cfg.SQS.Region,
			Timeout:  cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("build sqs notifier: %w", err)
		}
		sinks = append(sinks, failurenotifier.SinkRegistration{Name: "sqs", Sink: sink})
	}

	if len(sinks) > 0 {
		names := make([]string, 0, len(sinks))
		for _, s := range sinks {
			names = append(names, s.Name)
		}
		logger.InfoContext(ctx, "relay failure notifications enabled", "sinks", names)
	}

	return failurenotifier.NewService(failurenotifier.Options{Logger: logger, Sinks: sinks}), nil
}
