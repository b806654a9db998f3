// Package config provides connection settings for the integration tests of the
// rowsource, pgnotify and redissource packages.
//
// Defaults point at a local PostgreSQL and Redis; ABORTABLE_PG_DSN and
// ABORTABLE_REDIS_ADDR override them.
package config
