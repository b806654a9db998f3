package rowsource

import (
	"errors"

	jsoniter "github.com/json-iterator/go"
)

// Row is the scannable current row of a result set.
type Row interface {
	Scan(dest ...any) error
}

// ScanFunc turns the current row into a value.
type ScanFunc[T any] func(row Row) (T, error)

// ScanInto scans a single column into a T.
func ScanInto[T any]() ScanFunc[T] {
	return func(row Row) (T, error) {
		var value T
		err := row.Scan(&value)

		return value, err
	}
}

// JSONColumn scans a single JSON or JSONB column and decodes it into a T.
func JSONColumn[T any]() ScanFunc[T] {
	return func(row Row) (T, error) {
		var (
			raw   []byte
			value T
		)

		if err := row.Scan(&raw); err != nil {
			return value, err
		}

		if err := jsoniter.ConfigFastest.Unmarshal(raw, &value); err != nil {
			return value, errors.Join(ErrDecodingJSONFailed, err)
		}

		return value, nil
	}
}
