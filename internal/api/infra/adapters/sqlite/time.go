package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jcmexdev/ecommerce-storefront/internal/pkg/sqltime"
)

func formatTime(t time.Time) string {
	return sqltime.Format(t)
}

func parseTime(s string) (time.Time, error) {
	t, err := sqltime.Parse(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: %w", err)
	}
	return t, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
