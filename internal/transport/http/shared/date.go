package shared

import "time"

// ParseDateIn accepts RFC3339 or YYYY-MM-DD, interpreting zone-less values
// in the given location.
func ParseDateIn(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.ParseInLocation("2006-01-02", value, loc)
}

// ParseDateTimeIn accepts RFC3339 or a zone-less local date-time.
func ParseDateTimeIn(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.ParseInLocation("2006-01-02T15:04", value, loc)
}
