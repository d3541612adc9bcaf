package tracking

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaborage/fluentsql/database/internal/sqllex"
	"github.com/gaborage/fluentsql/database/types"
)

const (
	instrumentationName = "github.com/gaborage/fluentsql/database"

	metricDBCalls      = "db.client.calls"
	metricDBDuration   = "db.client.operation.duration"
	metricRowsAffected = "db.rows.affected"

	metricPoolActive = "db.connection.pool.active"
	metricPoolIdle   = "db.connection.pool.idle"
	metricPoolTotal  = "db.connection.pool.total"

	attrDBSystem    = "db.system"
	attrDBOperation = "db.operation.name"
	attrDBTable     = "db.sql.table"

	maxDBQueryAttrLen = 2000
)

// telemetry holds the tracer and instruments of one tracked connector.
// Instruments that failed to register are nil and skipped.
type telemetry struct {
	tracer trace.Tracer
	meter  metric.Meter

	calls        metric.Int64Counter
	duration     metric.Float64Histogram
	rowsAffected metric.Int64Counter
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) *telemetry {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	t := &telemetry{
		tracer: tp.Tracer(instrumentationName),
		meter:  mp.Meter(instrumentationName),
	}

	var err error
	t.calls, err = t.meter.Int64Counter(metricDBCalls,
		metric.WithDescription("Total number of database client calls"))
	logMetricError(metricDBCalls, err)

	t.duration, err = t.meter.Float64Histogram(metricDBDuration,
		metric.WithDescription("Duration of database operations in milliseconds"),
		metric.WithUnit("ms"))
	logMetricError(metricDBDuration, err)

	t.rowsAffected, err = t.meter.Int64Counter(metricRowsAffected,
		metric.WithDescription("Number of rows affected by database operations"))
	logMetricError(metricRowsAffected, err)

	return t
}

// logMetricError reports instrument registration failures without failing
// the connector.
func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize metric %s: %v\n", metricName, err)
	}
}

// recordSpan emits a client span covering [start, now) for query.
func (t *telemetry) recordSpan(ctx context.Context, vendor, query string, start time.Time, err error) {
	operation := sqllex.Operation(query)

	_, span := t.tracer.Start(ctx, "db."+operation,
		trace.WithTimestamp(start),
		trace.WithSpanKind(trace.SpanKindClient),
	)

	attrs := []attribute.KeyValue{
		attribute.String(attrDBSystem, normalizeDBVendor(vendor)),
		semconv.DBQueryText(TruncateString(query, maxDBQueryAttrLen)),
	}
	if operation != "query" {
		attrs = append(attrs, semconv.DBOperationName(operation))
	}
	if table := sqllex.TableName(query); table != sqllex.UnknownTable {
		attrs = append(attrs, semconv.DBCollectionName(table))
	}
	span.SetAttributes(attrs...)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}

// recordMetrics updates the call counter, duration histogram and, for
// successful writes, the rows affected counter.
func (t *telemetry) recordMetrics(ctx context.Context, vendor, query string, elapsed time.Duration, rowsAffected int64, err error) {
	common := []attribute.KeyValue{
		attribute.String(attrDBSystem, normalizeDBVendor(vendor)),
		attribute.String(attrDBOperation, sqllex.Operation(query)),
		attribute.String(attrDBTable, sqllex.TableName(query)),
	}

	if t.calls != nil {
		attrs := make([]attribute.KeyValue, 0, len(common)+1)
		attrs = append(attrs, common...)
		attrs = append(attrs, attribute.Bool("error", err != nil))
		t.calls.Add(ctx, 1, metric.WithAttributes(attrs...))
	}

	if t.duration != nil {
		t.duration.Record(ctx, float64(elapsed.Nanoseconds())/1e6, metric.WithAttributes(common...))
	}

	if t.rowsAffected != nil && err == nil && rowsAffected > 0 && !sqllex.ReturnsRows(query) {
		t.rowsAffected.Add(ctx, rowsAffected, metric.WithAttributes(common...))
	}
}

// registerPoolMetrics observes the pool statistics of stater on every
// collection. The returned function unregisters the callback.
func (t *telemetry) registerPoolMetrics(stater types.Stater, vendor string) func() {
	noop := func() {}

	active, err := t.meter.Int64ObservableGauge(metricPoolActive, metric.WithDescription("Number of active database connections"))
	logMetricError(metricPoolActive, err)
	idle, err := t.meter.Int64ObservableGauge(metricPoolIdle, metric.WithDescription("Number of idle database connections"))
	logMetricError(metricPoolIdle, err)
	total, err := t.meter.Int64ObservableGauge(metricPoolTotal, metric.WithDescription("Maximum number of database connections configured"))
	logMetricError(metricPoolTotal, err)
	if active == nil || idle == nil || total == nil {
		return noop
	}

	attrs := metric.WithAttributes(attribute.String(attrDBSystem, normalizeDBVendor(vendor)))
	registration, err := t.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats, err := stater.Stats()
		if err != nil {
			// best effort
			return nil
		}
		o.ObserveInt64(active, asInt64(stats["in_use"]), attrs)
		o.ObserveInt64(idle, asInt64(stats["idle"]), attrs)
		o.ObserveInt64(total, asInt64(stats["max_open_connections"]), attrs)
		return nil
	}, active, idle, total)
	if err != nil {
		logMetricError("pool_metrics_callback", err)
		return noop
	}

	return func() {
		if err := registration.Unregister(); err != nil {
			logMetricError("pool_metrics_unregister", err)
		}
	}
}

func asInt64(v any) int64 {
	switch val := v.(type) {
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case int64:
		return val
	case uint32:
		return int64(val)
	case float64:
		return int64(val)
	default:
		return 0
	}
}

// normalizeDBVendor maps vendor identifiers to OpenTelemetry db.system values.
func normalizeDBVendor(vendor string) string {
	switch v := strings.ToLower(vendor); v {
	case "postgres", types.PostgreSQL:
		return types.PostgreSQL
	case "sqlite3", types.SQLite, types.LibSQL:
		return types.SQLite
	default:
		return v
	}
}
