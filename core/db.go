package core

import (
	"context"
	"database/sql"
)

type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type DBOrdering struct {
	Field      string
	Ascending  bool
	NullsFirst bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	nulls := " NULLS LAST"
	if ord.NullsFirst {
		nulls = " NULLS FIRST"
	}
	return ord.Field + " " + direction + nulls
}
