package postgres

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type scanner interface {
	Scan(dest ...any) error
}

// encodeJSON renders v for a JSONB column; nil slices and maps become [] and {}.
func encodeJSON(v any) (string, error) {
	switch t := v.(type) {
	case []string:
		if t == nil {
			return "[]", nil
		}
	case map[string]string:
		if t == nil {
			return "{}", nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJSON(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func isUniqueViolation(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code == uniqueViolation
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
