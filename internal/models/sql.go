package models

import (
	"database/sql/driver"
	"fmt"
)

// Value implements driver.Valuer
func (t ActivityType) Value() (driver.Value, error) {
	return t.String(), nil
}

// Scan implements sql.Scanner
func (t *ActivityType) Scan(src any) error {
	text, err := scanText(src)
	if err != nil {
		return fmt.Errorf("failed to scan activity type: %w", err)
	}
	return t.UnmarshalText(text)
}

// Value implements driver.Valuer
func (s RecordingState) Value() (driver.Value, error) {
	return s.String(), nil
}

// Scan implements sql.Scanner
func (s *RecordingState) Scan(src any) error {
	text, err := scanText(src)
	if err != nil {
		return fmt.Errorf("failed to scan recording state: %w", err)
	}
	return s.UnmarshalText(text)
}

func scanText(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", src)
	}
}
