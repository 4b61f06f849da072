// Package sqlfile renders the run's records into MySQL scripts the
// downstream archive ingests. The upserts are keyed by filename for the
// import table and by (date, site) for the log table, so re-running a day
// overwrites rather than duplicates.
package sqlfile

import (
	"strings"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05"

// escapeSQL quotes a string literal for MySQL. Backslashes and single
// quotes are doubled; anything else passes through.
func escapeSQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", "''")
	return "'" + s + "'"
}

// nullableText renders an optional string column.
func nullableText(s string) string {
	if s == "" {
		return "NULL"
	}
	return escapeSQL(s)
}

// nullableDate renders an optional date column.
func nullableDate(t time.Time) string {
	if t.IsZero() {
		return "NULL"
	}
	return "'" + t.Format("2006-01-02") + "'"
}
