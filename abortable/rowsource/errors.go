package rowsource

import "errors"

// ErrNilDatabaseConnection is returned when a nil database connection is supplied.
var ErrNilDatabaseConnection = errors.New("database connection must not be nil")

// ErrNilLogger is returned when a nil logger is supplied to WithLogger.
var ErrNilLogger = errors.New("logger must not be nil")

// ErrEmptyQuery is returned when Stream is called without a query.
var ErrEmptyQuery = errors.New("query must not be empty")

// ErrNilScanFunc is returned when Stream is called without a scan function.
var ErrNilScanFunc = errors.New("scan function must not be nil")

// ErrEmptyTableName is returned when SelectQuery is called without a table.
var ErrEmptyTableName = errors.New("table name must not be empty")

// ErrBuildingQueryFailed is returned when the select query cannot be built.
var ErrBuildingQueryFailed = errors.New("building query failed")

// ErrQueryingRowsFailed is returned when the database rejects the query.
var ErrQueryingRowsFailed = errors.New("querying rows failed")

// ErrReadingRowsFailed is returned when the result set breaks off while it is being read.
var ErrReadingRowsFailed = errors.New("reading rows failed")

// ErrScanningRowFailed is returned when a row cannot be scanned.
var ErrScanningRowFailed = errors.New("scanning db row failed")

// ErrDecodingJSONFailed is returned when a JSON column cannot be decoded.
var ErrDecodingJSONFailed = errors.New("decoding json column failed")
