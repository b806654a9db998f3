package config

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

const (
	defaultMaxConnections  = 10
	defaultMaxConnLifetime = time.Hour
	defaultMaxConnIdleTime = time.Minute * 5
	defaultConnectTimeout  = time.Second * 2
)

// PostgresPGXPool creates a pgxpool.Pool for the test database and pings it.
func PostgresPGXPool(ctx context.Context) (*pgxpool.Pool, error) {
	dbConfig, err := pgxpool.ParseConfig(PostgresDSN())
	if err != nil {
		return nil, err
	}

	dbConfig.MaxConns = defaultMaxConnections
	dbConfig.MaxConnLifetime = defaultMaxConnLifetime
	dbConfig.MaxConnIdleTime = defaultMaxConnIdleTime
	dbConfig.ConnConfig.ConnectTimeout = defaultConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, err
	}

	if pingErr := pool.Ping(ctx); pingErr != nil {
		pool.Close()
		return nil, pingErr
	}

	return pool, nil
}

// PostgresConn opens a single pgx connection to the test database, as LISTEN needs a dedicated one.
func PostgresConn(ctx context.Context) (*pgx.Conn, error) {
	connConfig, err := pgx.ParseConfig(PostgresDSN())
	if err != nil {
		return nil, err
	}

	connConfig.ConnectTimeout = defaultConnectTimeout

	return pgx.ConnectConfig(ctx, connConfig)
}

// PostgresSQLDB creates a *sql.DB for the test database (lib/pq driver) and pings it.
func PostgresSQLDB(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("postgres", PostgresDSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(defaultMaxConnections)
	db.SetConnMaxLifetime(defaultMaxConnLifetime)
	db.SetConnMaxIdleTime(defaultMaxConnIdleTime)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, pingErr
	}

	return db, nil
}

// PostgresSQLX creates a *sqlx.DB for the test database (lib/pq driver) and pings it.
func PostgresSQLX(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", PostgresDSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(defaultMaxConnections)
	db.SetConnMaxLifetime(defaultMaxConnLifetime)
	db.SetConnMaxIdleTime(defaultMaxConnIdleTime)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, pingErr
	}

	return db, nil
}
