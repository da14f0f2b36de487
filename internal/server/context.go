package server

import (
	"context"
	"sync"

	"github.com/sundialhq/sundial/internal/calendar"
	"github.com/sundialhq/sundial/internal/google"
	"github.com/sundialhq/sundial/internal/instrumentation"
	"github.com/sundialhq/sundial/internal/location"
	"github.com/sundialhq/sundial/internal/tokenstore"
)

// ServerContext holds the shared dependencies of the MCP server: the
// credential store, the resolver that picks a user for each call, the
// calendar gateway and the geolocation client. Tool registration receives it
// and handlers reach their collaborators through it.
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	store    *tokenstore.FileStore
	resolver *google.Resolver
	gateway  *calendar.Gateway
	location *location.Client
	metrics  *instrumentation.Metrics

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext wires the server dependencies over the given OAuth client
// configuration and state directory.
func NewServerContext(ctx context.Context, clientCfg *google.ClientConfig, stateDir string) (*ServerContext, error) {
	shutdownCtx, cancel := context.WithCancel(ctx)

	store := tokenstore.NewFileStore(stateDir)

	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		store:    store,
		resolver: google.NewResolver(store),
		gateway:  calendar.NewGateway(clientCfg, store),
		location: location.NewClient(),
		metrics:  &instrumentation.Metrics{},
	}, nil
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Store returns the credential store.
func (sc *ServerContext) Store() *tokenstore.FileStore {
	return sc.store
}

// Resolver returns the credential resolver.
func (sc *ServerContext) Resolver() *google.Resolver {
	return sc.resolver
}

// Gateway returns the calendar gateway.
func (sc *ServerContext) Gateway() *calendar.Gateway {
	return sc.gateway
}

// Location returns the geolocation client.
func (sc *ServerContext) Location() *location.Client {
	return sc.location
}

// Metrics returns the metrics recorder. Never nil; without instrumentation a
// no-op recorder is returned.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetMetrics installs the metrics recorder and propagates it to the gateway.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	if m == nil {
		return
	}
	sc.mu.Lock()
	sc.metrics = m
	sc.mu.Unlock()
	sc.gateway.SetMetrics(m)
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context. Safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
