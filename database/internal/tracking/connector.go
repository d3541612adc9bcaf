package tracking

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaborage/fluentsql/config"
	"github.com/gaborage/fluentsql/database/types"
	"github.com/gaborage/fluentsql/logger"
)

// Connector wraps a types.Connector and tracks every session it hands out.
type Connector struct {
	next       types.Connector
	logger     logger.Logger
	vendor     string
	settings   Settings
	telemetry  *telemetry
	unregister func()
}

var (
	_ types.Connector = (*Connector)(nil)
	_ types.Stater    = (*Connector)(nil)
)

type options struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option customizes a tracked connector.
type Option func(*options)

// WithTracerProvider sets the tracer provider; the global one is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider; the global one is used otherwise.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// NewConnector wraps next. Settings are derived from cfg, which may be nil.
// When next reports pool statistics they are exported as gauges.
func NewConnector(next types.Connector, log logger.Logger, cfg *config.DatabaseConfig, opts ...Option) *Connector {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Connector{
		next:       next,
		logger:     log,
		vendor:     next.DatabaseType(),
		settings:   NewSettings(cfg),
		telemetry:  newTelemetry(o.tracerProvider, o.meterProvider),
		unregister: func() {},
	}
	if stater, ok := next.(types.Stater); ok {
		c.unregister = c.telemetry.registerPoolMetrics(stater, c.vendor)
	}
	return c
}

// Connect opens a tracked session on the wrapped connector.
func (c *Connector) Connect(ctx context.Context) (types.Session, error) {
	start := time.Now()
	s, err := c.next.Connect(ctx)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("vendor", c.vendor).
			Dur("elapsed", time.Since(start)).
			Msg("Failed to open database session")
		return nil, err
	}

	id := uuid.NewString()
	c.logger.Debug().Str("session_id", id).Str("vendor", c.vendor).Msg("Database session opened")

	return &Session{
		next: s,
		tc: &Context{
			Logger:    c.logger,
			Vendor:    c.vendor,
			SessionID: id,
			Settings:  c.settings,
			telemetry: c.telemetry,
		},
	}, nil
}

// DatabaseType returns the wrapped connector's vendor.
func (c *Connector) DatabaseType() string {
	return c.vendor
}

// Stats returns the wrapped connector's statistics, or an empty map when it
// does not report any.
func (c *Connector) Stats() (map[string]any, error) {
	if stater, ok := c.next.(types.Stater); ok {
		return stater.Stats()
	}
	return map[string]any{}, nil
}

// Close stops exporting pool metrics and closes the wrapped connector.
func (c *Connector) Close() error {
	c.unregister()
	return c.next.Close()
}

// Session is a tracked types.Session.
type Session struct {
	next    types.Session
	tc      *Context
	queries atomic.Int64
}

var _ types.Session = (*Session)(nil)

// ID returns the session's identifier as it appears in log events.
func (s *Session) ID() string {
	return s.tc.SessionID
}

// Query executes query on the wrapped session and records it.
func (s *Session) Query(ctx context.Context, query string, args ...any) (*types.Result, error) {
	start := time.Now()
	res, err := s.next.Query(ctx, query, args...)
	s.queries.Add(1)

	var affected int64
	if res != nil {
		affected = res.RowsAffected
	}
	TrackDBOperation(ctx, s.tc, query, args, start, affected, err)

	return res, err
}

// Close releases the wrapped session.
func (s *Session) Close() error {
	err := s.next.Close()
	ev := s.tc.Logger.Debug()
	if err != nil {
		ev = s.tc.Logger.Warn().Err(err)
	}
	ev.Str("session_id", s.tc.SessionID).
		Int64("queries", s.queries.Load()).
		Msg("Database session released")
	return err
}
