package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/gaborage/fluentsql/logger"
)

// Context groups the parameters TrackDBOperation needs about the statement's
// origin.
type Context struct {
	Logger    logger.Logger
	Vendor    string
	SessionID string
	Settings  Settings

	telemetry *telemetry
}

// TrackDBOperation records a completed statement: one span, the call and
// duration metrics, and a log event. Errors log at error level, statements
// over the slow threshold at warn, everything else at debug.
//
// It is a no-op if tc or its Logger is nil.
func TrackDBOperation(ctx context.Context, tc *Context, query string, args []any, start time.Time, rowsAffected int64, err error) {
	if tc == nil || tc.Logger == nil {
		return
	}

	elapsed := time.Since(start)

	if tc.telemetry != nil {
		tc.telemetry.recordSpan(ctx, tc.Vendor, query, start, err)
		tc.telemetry.recordMetrics(ctx, tc.Vendor, query, elapsed, rowsAffected, err)
	}

	fields := map[string]any{
		"vendor":      tc.Vendor,
		"duration_ms": elapsed.Milliseconds(),
		"query":       TruncateString(query, tc.Settings.MaxQueryLength()),
	}
	if tc.SessionID != "" {
		fields["session_id"] = tc.SessionID
	}
	if tc.Settings.LogQueryParameters() && len(args) > 0 {
		fields["args"] = SanitizeArgs(args, tc.Settings.MaxQueryLength())
	}
	log := tc.Logger.WithFields(fields)

	switch {
	case err != nil:
		log.Error().Err(err).Msg("Database operation error")
	case tc.Settings.IsSlow(elapsed):
		log.Warn().Int64("rows_affected", rowsAffected).Msgf("Slow database operation detected (%s)", elapsed)
	default:
		log.Debug().Int64("rows_affected", rowsAffected).Msg("Database operation executed")
	}
}

// TruncateString truncates value to at most maxLen runes, ending in "..."
// when there is room for it. A non-positive maxLen disables truncation.
func TruncateString(value string, maxLen int) string {
	if maxLen <= 0 {
		return value
	}
	r := []rune(value)
	if len(r) <= maxLen {
		return value
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// SanitizeArgs returns a copy of args suitable for logging. Strings and
// formatted values are truncated to maxLen; byte slices become a length
// placeholder.
func SanitizeArgs(args []any, maxLen int) []any {
	if len(args) == 0 {
		return nil
	}
	sanitized := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case string:
			sanitized[i] = TruncateString(v, maxLen)
		case []byte:
			sanitized[i] = fmt.Sprintf("<bytes len=%d>", len(v))
		default:
			sanitized[i] = TruncateString(fmt.Sprintf("%v", v), maxLen)
		}
	}
	return sanitized
}
