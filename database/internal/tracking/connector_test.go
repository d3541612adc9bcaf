package tracking

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/gaborage/fluentsql/config"
	dbtesting "github.com/gaborage/fluentsql/database/testing"
	"github.com/gaborage/fluentsql/database/types"
	"github.com/gaborage/fluentsql/logger"
)

const (
	selectUsers = `SELECT * FROM "users" WHERE "active" = true`
	deleteUsers = `DELETE FROM "users" WHERE "active" = false`
)

type harness struct {
	inner   *dbtesting.TestConnector
	tracked *Connector
	spans   *tracetest.InMemoryExporter
	reader  *sdkmetric.ManualReader
	logs    *bytes.Buffer
}

func newHarness(t *testing.T, cfg *config.DatabaseConfig) *harness {
	t.Helper()

	spans := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	var logs bytes.Buffer
	inner := dbtesting.NewTestConnector(types.PostgreSQL)
	tracked := NewConnector(inner, logger.NewWithWriter(&logs, "debug", false, nil), cfg,
		WithTracerProvider(tp), WithMeterProvider(mp))

	return &harness{inner: inner, tracked: tracked, spans: spans, reader: reader, logs: &logs}
}

func (h *harness) run(t *testing.T, query string) (*types.Result, error) {
	t.Helper()
	ctx := context.Background()
	s, err := h.tracked.Connect(ctx)
	require.NoError(t, err)
	defer s.Close()
	return s.Query(ctx, query)
}

func (h *harness) collect(t *testing.T) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, h.reader.Collect(context.Background(), &rm))

	byName := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			byName[m.Name] = m
		}
	}
	return byName
}

// logLines decodes every JSON log line written so far.
func (h *harness) logLines(t *testing.T) []map[string]any {
	t.Helper()
	var lines []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(h.logs.Bytes()))
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}
	return lines
}

func (h *harness) findLog(t *testing.T, message string) map[string]any {
	t.Helper()
	for _, entry := range h.logLines(t) {
		if msg, _ := entry["message"].(string); strings.HasPrefix(msg, message) {
			return entry
		}
	}
	t.Fatalf("no log line starting with %q in:\n%s", message, h.logs.String())
	return nil
}

func spanAttr(span tracetest.SpanStub, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestQueryIsForwarded(t *testing.T) {
	h := newHarness(t, nil)
	h.inner.ExpectQuery(selectUsers).WillReturnRows(dbtesting.NewRowSet("id").AddRow(1).AddRow(2))

	res, err := h.run(t, selectUsers)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)

	dbtesting.AssertQueryExecuted(t, h.inner, selectUsers)
	dbtesting.AssertSessionsReleased(t, h.inner)
	assert.Equal(t, types.PostgreSQL, h.tracked.DatabaseType())
}

func TestQueryEmitsSpan(t *testing.T) {
	h := newHarness(t, nil)
	h.inner.ExpectQuery(selectUsers).WillReturnRows(dbtesting.NewRowSet("id"))

	_, err := h.run(t, selectUsers)
	require.NoError(t, err)

	spans := h.spans.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "db.select", span.Name)
	assert.Equal(t, codes.Unset, span.Status.Code)

	system, ok := spanAttr(span, "db.system")
	require.True(t, ok)
	assert.Equal(t, "postgresql", system.AsString())

	table, ok := spanAttr(span, "db.collection.name")
	require.True(t, ok)
	assert.Equal(t, "users", table.AsString())

	text, ok := spanAttr(span, "db.query.text")
	require.True(t, ok)
	assert.Equal(t, selectUsers, text.AsString())
}

func TestFailedQueryMarksSpanAndLogsError(t *testing.T) {
	h := newHarness(t, nil)
	boom := errors.New("relation does not exist")
	h.inner.ExpectQuery(deleteUsers).WillReturnError(boom)

	_, err := h.run(t, deleteUsers)
	require.ErrorIs(t, err, boom)

	spans := h.spans.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.delete", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)

	entry := h.findLog(t, "Database operation error")
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, boom.Error(), entry["error"])
	assert.Equal(t, deleteUsers, entry["query"])
}

func TestQueryRecordsMetrics(t *testing.T) {
	h := newHarness(t, nil)
	h.inner.ExpectQuery(selectUsers).WillReturnRows(dbtesting.NewRowSet("id").AddRow(1))
	h.inner.ExpectQuery(deleteUsers).WillReturnRowsAffected(4)

	_, err := h.run(t, selectUsers)
	require.NoError(t, err)
	_, err = h.run(t, deleteUsers)
	require.NoError(t, err)

	metrics := h.collect(t)

	calls, ok := metrics[metricDBCalls].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range calls.DataPoints {
		total += dp.Value
		table, _ := dp.Attributes.Value(attrDBTable)
		assert.Equal(t, "users", table.AsString())
	}
	assert.EqualValues(t, 2, total)

	duration, ok := metrics[metricDBDuration].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, duration.DataPoints, 2, "one series per operation")

	affected, ok := metrics[metricRowsAffected].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, affected.DataPoints, 1, "reads do not count as affected rows")
	assert.EqualValues(t, 4, affected.DataPoints[0].Value)
	op, _ := affected.DataPoints[0].Attributes.Value(attrDBOperation)
	assert.Equal(t, "delete", op.AsString())
}

func TestPoolMetricsAreObserved(t *testing.T) {
	h := newHarness(t, nil)

	metrics := h.collect(t)
	for _, name := range []string{metricPoolActive, metricPoolIdle, metricPoolTotal} {
		gauge, ok := metrics[name].Data.(metricdata.Gauge[int64])
		require.True(t, ok, name)
		require.Len(t, gauge.DataPoints, 1, name)
	}

	require.NoError(t, h.tracked.Close())
	assert.True(t, h.inner.IsClosed())
}

func TestSlowQueryLogsWarning(t *testing.T) {
	cfg := &config.DatabaseConfig{}
	cfg.Query.Slow.Enabled = true
	cfg.Query.Slow.Threshold = time.Nanosecond

	h := newHarness(t, cfg)
	h.inner.ExpectQuery(selectUsers).WillReturnRows(dbtesting.NewRowSet("id"))

	_, err := h.run(t, selectUsers)
	require.NoError(t, err)

	entry := h.findLog(t, "Slow database operation detected")
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "postgresql", entry["vendor"])
}

func TestSlowQueryDetectionCanBeDisabled(t *testing.T) {
	cfg := &config.DatabaseConfig{}
	cfg.Query.Slow.Enabled = false
	cfg.Query.Slow.Threshold = time.Nanosecond

	h := newHarness(t, cfg)
	h.inner.ExpectQuery(selectUsers).WillReturnRows(dbtesting.NewRowSet("id"))

	_, err := h.run(t, selectUsers)
	require.NoError(t, err)

	assert.NotContains(t, h.logs.String(), "Slow database operation")
	entry := h.findLog(t, "Database operation executed")
	assert.Equal(t, "debug", entry["level"])
}

func TestQueryLogTruncationAndParameters(t *testing.T) {
	cfg := &config.DatabaseConfig{}
	cfg.Query.Log.MaxLength = 20
	cfg.Query.Log.Parameters = true

	h := newHarness(t, cfg)
	h.inner.ExpectQuery("SELECT").WillReturnRows(dbtesting.NewRowSet("id"))

	ctx := context.Background()
	s, err := h.tracked.Connect(ctx)
	require.NoError(t, err)
	_, err = s.Query(ctx, `SELECT * FROM "users" WHERE "name" = $1`, strings.Repeat("x", 50), []byte("raw"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	entry := h.findLog(t, "Database operation executed")
	assert.Equal(t, `SELECT * FROM "us...`, entry["query"])
	assert.Equal(t, []any{strings.Repeat("x", 17) + "...", "<bytes len=3>"}, entry["args"])
}

func TestSessionIdentity(t *testing.T) {
	h := newHarness(t, nil)
	h.inner.ExpectQuery(selectUsers).WillReturnRows(dbtesting.NewRowSet("id"))

	ctx := context.Background()
	s, err := h.tracked.Connect(ctx)
	require.NoError(t, err)

	id := s.(*Session).ID()
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	_, err = s.Query(ctx, selectUsers)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.Equal(t, id, h.findLog(t, "Database operation executed")["session_id"])
	released := h.findLog(t, "Database session released")
	assert.Equal(t, id, released["session_id"])
	assert.EqualValues(t, 1, released["queries"])
}

func TestConnectFailure(t *testing.T) {
	h := newHarness(t, nil)
	boom := errors.New("connection refused")
	h.inner.FailConnect(boom)

	s, err := h.tracked.Connect(context.Background())
	assert.Nil(t, s)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "error", h.findLog(t, "Failed to open database session")["level"])
}

func TestSessionCloseFailure(t *testing.T) {
	h := newHarness(t, nil)
	boom := errors.New("bad connection")
	h.inner.FailSessionClose(boom)

	s, err := h.tracked.Connect(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, s.Close(), boom)
	assert.Equal(t, "warn", h.findLog(t, "Database session released")["level"])
}

func TestStatsDelegates(t *testing.T) {
	h := newHarness(t, nil)

	stats, err := h.tracked.Stats()
	require.NoError(t, err)
	assert.Equal(t, types.PostgreSQL, stats["vendor"])
}
