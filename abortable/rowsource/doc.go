// Package rowsource streams SQL result sets as releasable abortable sources.
//
// A Streamer runs a query on a pgxpool.Pool, a sql.DB or a sqlx.DB and hands out the rows one
// at a time through a Source. Releasing the Source, which the abortable package does when a
// signal fires, cancels the query and closes the result set, also while a row is being fetched.
//
// Usage:
//
//	streamer, err := rowsource.NewStreamerFromPGXPool(pool, rowsource.WithLogger(logger))
//	query, err := rowsource.SelectQuery("orders", []string{"payload"}, goqu.Ex{"status": "open"}, "id")
//	rows, err := rowsource.Stream(ctx, streamer, query, rowsource.JSONColumn[Order]())
//	it, err := abortable.WrapSource[Order](rows, controller, abortable.Options[Order]{})
package rowsource
