package db

import (
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
)

// Dialect builds PostgreSQL statements with numbered placeholders.
var Dialect = goqu.Dialect("postgres")

// SQLBuilder is satisfied by goqu select, insert and update datasets.
type SQLBuilder interface {
	ToSQL() (string, []interface{}, error)
}

// Build renders a goqu dataset for execution through pgx.
func Build(b SQLBuilder) (string, []interface{}, error) {
	return b.ToSQL()
}
