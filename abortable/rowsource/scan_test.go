package rowsource_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/abortable-streams-go/abortable/rowsource"
)

type rawRow struct {
	value any
	err   error
}

func (r rawRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}

	switch d := dest[0].(type) {
	case *[]byte:
		*d = r.value.([]byte)
	case *string:
		*d = r.value.(string)
	}

	return nil
}

type payload struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func Test_JSONColumn_DecodesThePayload(t *testing.T) {
	scan := rowsource.JSONColumn[payload]()

	value, err := scan(rawRow{value: []byte(`{"name":"order-1","items":["a","b"]}`)})

	require.NoError(t, err)
	assert.Equal(t, payload{Name: "order-1", Items: []string{"a", "b"}}, value)
}

func Test_JSONColumn_RejectsInvalidJSON(t *testing.T) {
	scan := rowsource.JSONColumn[payload]()

	_, err := scan(rawRow{value: []byte(`{"name":`)})

	assert.ErrorIs(t, err, rowsource.ErrDecodingJSONFailed)
}

func Test_JSONColumn_PassesScanErrorsThrough(t *testing.T) {
	scanErr := errors.New("column missing")
	scan := rowsource.JSONColumn[payload]()

	_, err := scan(rawRow{err: scanErr})

	assert.ErrorIs(t, err, scanErr)
}

func Test_ScanInto_ScansAScalar(t *testing.T) {
	scan := rowsource.ScanInto[string]()

	value, err := scan(rawRow{value: "hello"})

	require.NoError(t, err)
	assert.Equal(t, "hello", value)
}
