// Package adapters provides the database adapters behind rowsource.
//
// pgxpool.Pool, sql.DB and sqlx.DB are all reduced to the DBAdapter interface,
// so a row source works the same on top of any of them.
package adapters
