package rowsource

import (
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
)

const dialectPostgres = "postgres"

// SelectQuery builds a postgres SELECT over table.
// No columns selects all columns, an empty where selects all rows and an empty orderBy keeps the
// database order. Values in where are inlined as literals.
func SelectQuery(table string, columns []string, where goqu.Ex, orderBy string) (string, error) {
	if table == "" {
		return "", ErrEmptyTableName
	}

	selectStmt := goqu.Dialect(dialectPostgres).From(table)

	if len(columns) > 0 {
		cols := make([]any, len(columns))
		for i, column := range columns {
			cols[i] = column
		}

		selectStmt = selectStmt.Select(cols...)
	}

	if len(where) > 0 {
		selectStmt = selectStmt.Where(where)
	}

	if orderBy != "" {
		selectStmt = selectStmt.Order(goqu.I(orderBy).Asc())
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}
