// Package postgreswrapper creates rowsource streamers on top of the different database engines,
// selected by the ADAPTER_TYPE environment variable.
package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/abortable-streams-go/abortable/rowsource"
	"github.com/AntonStoeckl/abortable-streams-go/testutil/config"
)

// Engine type constants
const (
	typePGXPool = "pgxpool"
	typeSQLDB   = "sqldb"
	typeSQLX    = "sqlx"
)

// Wrapper interface to abstract over different engine types
type Wrapper interface {
	GetStreamer() rowsource.Streamer
	EngineType() string
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing
type PGXPoolWrapper struct {
	pool     *pgxpool.Pool
	streamer rowsource.Streamer
}

func (e *PGXPoolWrapper) GetStreamer() rowsource.Streamer {
	return e.streamer
}

func (e *PGXPoolWrapper) EngineType() string {
	return typePGXPool
}

func (e *PGXPoolWrapper) Close() {
	e.pool.Close()
}

// SQLDBWrapper wraps sql.DB-based testing
type SQLDBWrapper struct {
	db       *sql.DB
	streamer rowsource.Streamer
}

func (e *SQLDBWrapper) GetStreamer() rowsource.Streamer {
	return e.streamer
}

func (e *SQLDBWrapper) EngineType() string {
	return typeSQLDB
}

func (e *SQLDBWrapper) Close() {
	_ = e.db.Close() // ignore error
}

// SQLXWrapper wraps sqlx.DB-based testing
type SQLXWrapper struct {
	db       *sqlx.DB
	streamer rowsource.Streamer
}

func (e *SQLXWrapper) GetStreamer() rowsource.Streamer {
	return e.streamer
}

func (e *SQLXWrapper) EngineType() string {
	return typeSQLX
}

func (e *SQLXWrapper) Close() {
	_ = e.db.Close() // ignore error
}

// CreateWrapperWithTestConfig creates the appropriate wrapper based on the environment variable.
// The test is skipped when the database is not reachable.
func CreateWrapperWithTestConfig(ctx context.Context, t testing.TB, options ...rowsource.Option) Wrapper {
	t.Helper()

	engineTypeFromEnv := strings.ToLower(os.Getenv("ADAPTER_TYPE"))

	switch engineTypeFromEnv {
	case typePGXPool, "":
		pool, err := config.PostgresPGXPool(ctx)
		skipIfUnreachable(t, err)

		streamer, err := rowsource.NewStreamerFromPGXPool(pool, options...)
		require.NoError(t, err, "error creating the streamer in test setup")

		return &PGXPoolWrapper{pool: pool, streamer: streamer}

	case typeSQLDB:
		db, err := config.PostgresSQLDB(ctx)
		skipIfUnreachable(t, err)

		streamer, err := rowsource.NewStreamerFromSQLDB(db, options...)
		require.NoError(t, err, "error creating the streamer in test setup")

		return &SQLDBWrapper{db: db, streamer: streamer}

	case typeSQLX:
		db, err := config.PostgresSQLX(ctx)
		skipIfUnreachable(t, err)

		streamer, err := rowsource.NewStreamerFromSQLX(db, options...)
		require.NoError(t, err, "error creating the streamer in test setup")

		return &SQLXWrapper{db: db, streamer: streamer}

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", engineTypeFromEnv))
	}
}

func skipIfUnreachable(t testing.TB, err error) {
	t.Helper()

	if err != nil {
		t.Skipf("postgres not reachable: %v", err)
	}
}
