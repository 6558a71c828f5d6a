package oraclesql

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// formatLiteralInline renders a bound value as a SQL literal for
// inline-bind mode (spec.md §6): strings single-quoted with doubled-quote
// escaping, NULL for nil, 'true'/'false' for booleans (quoted so the
// value round-trips through Oracle's JSON text storage), unquoted numeric
// literals, and an ISO-8601 string wrapped in TO_TIMESTAMP for dates.
func formatLiteralInline(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case bool:
		if v {
			return "'true'"
		}
		return "'false'"
	case string:
		return quoteString(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case time.Time:
		return fmt.Sprintf("TO_TIMESTAMP(%s,'YYYY-MM-DD\"T\"HH24:MI:SS.FF3\"Z\"')", quoteString(v.UTC().Format("2006-01-02T15:04:05.000Z")))
	default:
		return quoteString(fmt.Sprintf("%v", v))
	}
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
