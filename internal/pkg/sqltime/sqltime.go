// Package sqltime stores timestamps as TEXT columns in SQLite, which has no
// native datetime type. Every table in the storefront database uses this
// encoding so values compare and sort the same way across tables.
package sqltime

import (
	"fmt"
	"time"
)

// Layout is RFC3339 in UTC with a fixed nine-digit fraction, so text order
// matches chronological order.
const Layout = "2006-01-02T15:04:05.000000000Z07:00"

// Format renders t in UTC using Layout.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Parse accepts any RFC3339 timestamp, including rows written before the
// fraction was fixed-width.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
