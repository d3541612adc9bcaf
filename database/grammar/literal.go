package grammar

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05.999999"

// nullKeyword is the bare string compared with = or != that reads as NULL
// rather than as text.
const nullKeyword = "NULL"

func isNull(v any) bool {
	if v == nil {
		return true
	}
	_, ok := v.(nullToken)
	return ok
}

// formatConditionValue renders the right-hand side of a WHERE comparison.
// When the statement joins other tables a string is read as a column reference.
func formatConditionValue(dl dialect, d *Descriptor, v any) string {
	if s, ok := v.(string); ok && d.HasJoins() {
		return QuoteIdentifier(s)
	}
	return formatLiteral(dl, v)
}

// formatLiteral renders v inline: numbers bare, text single-quoted.
func formatLiteral(dl dialect, v any) string {
	switch val := v.(type) {
	case nil, nullToken:
		return "NULL"
	case bool:
		return dl.boolLiteral(val)
	case string:
		return quoteString(val)
	case []byte:
		return quoteString(string(val))
	case time.Time:
		return quoteString(val.Format(timestampLayout))
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return formatFloat(val, 64)
	case float32:
		return formatFloat(float64(val), 32)
	case fmt.Stringer:
		return quoteString(val.String())
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return "NULL"
		}
		return formatLiteral(dl, rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return formatFloat(rv.Float(), 32)
	case reflect.Float64:
		return formatFloat(rv.Float(), 64)
	case reflect.Bool:
		return dl.boolLiteral(rv.Bool())
	case reflect.String:
		return quoteString(rv.String())
	default:
		return quoteString(fmt.Sprint(v))
	}
}

// formatFloat renders finite values bare. NaN and the infinities have no bare
// SQL spelling and go out as the quoted text PostgreSQL accepts for them.
func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return quoteString("NaN")
	case math.IsInf(f, 1):
		return quoteString("Infinity")
	case math.IsInf(f, -1):
		return quoteString("-Infinity")
	}
	return strconv.FormatFloat(f, 'f', -1, bitSize)
}

// quoteString wraps s in single quotes, doubling any embedded quote.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
