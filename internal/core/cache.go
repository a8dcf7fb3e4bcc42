// Package core provides the ports and small coordination services of the relay.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/target/llm-relay/internal/domain/model"
)

// LeaseStore is a key/value store with atomic conditional writes.
// Redis backs it in clustered deployments; an in-process map serves single instances.
type LeaseStore interface {
	// SetIfNotExists atomically sets a key only if it doesn't already exist.
	// Returns true if the key was set, false if it already existed.
	SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// DeleteIfEquals removes the key only while it still holds value.
	// Returns true if the key was deleted.
	DeleteIfEquals(ctx context.Context, key string, value []byte) (bool, error)

	// Health checks the health of the store connection.
	Health(ctx context.Context) error
}

// DispatchGuard enforces single-flight forwarding of a job to the processor.
type DispatchGuard struct {
	store  LeaseStore
	ttl    time.Duration
	prefix string
}

// DispatchGuardOptions bundles dependencies for NewDispatchGuard.
type DispatchGuardOptions struct {
	Store LeaseStore
	// TTL bounds how long a crashed holder can block a job.
	TTL time.Duration
	// Prefix namespaces lease keys; defaults to "llm-relay:dispatch:".
	Prefix string
}

// NewDispatchGuard creates a new DispatchGuard.
func NewDispatchGuard(opts DispatchGuardOptions) (*DispatchGuard, error) {
	if opts.Store == nil {
		return nil, errors.New("lease store is required")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "llm-relay:dispatch:"
	}
	return &DispatchGuard{store: opts.Store, ttl: ttl, prefix: prefix}, nil
}

// Acquire takes the dispatch lease for jobID. The returned release func is safe to call once
// and only removes the lease if this caller still holds it.
func (g *DispatchGuard) Acquire(ctx context.Context, jobID string) (func(context.Context), error) {
	key := g.prefix + jobID
	token := []byte(uuid.NewString())

	ok, err := g.store.SetIfNotExists(ctx, key, token, g.ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire dispatch lease: %w", err)
	}
	if !ok {
		return nil, model.ErrDispatchInFlight
	}

	release := func(ctx context.Context) {
		// Releasing is best effort; the TTL reclaims the lease otherwise.
		_, _ = g.store.DeleteIfEquals(ctx, key, token)
	}
	return release, nil
}
