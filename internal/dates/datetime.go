// Copyright (C) 2025 the datecoord maintainers
// See root-dir/LICENSE for more information

package dates

import (
	"time"

	"github.com/glimpsed/datecoord/internal/model"
)

// parseDateTime accepts the timestamp formats callers actually send:
// RFC 3339 and the date-time-local flavor without a zone.
func parseDateTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, &model.ValidationError{Field: "date_time", Reason: "required"}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &model.ValidationError{Field: "date_time", Reason: "unrecognized timestamp format"}
}
