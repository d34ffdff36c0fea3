package boiledrepos

import (
	"context"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/volatiletech/sqlboiler/v4/drivers"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"
	"github.com/volatiletech/strmangle"

	"github.com/likelion-sch/recruit/core"
)

// postgres error codes
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

var dialect = drivers.Dialect{
	LQ:                   '"',
	RQ:                   '"',
	UseIndexPlaceholders: true,
	UseDefaultKeyword:    true,
}

// newQuery builds a postgres query from mods.
func newQuery(mods ...qm.QueryMod) *queries.Query {
	q := &queries.Query{}
	queries.SetDialect(q, &dialect)
	qm.Apply(q, mods...)
	return q
}

// insert runs INSERT INTO table (columns) VALUES (args) RETURNING id.
func insert(ctx context.Context, exec core.DBExecutor, table string, columns []string, args ...interface{}) (int, error) {
	var row struct {
		ID int `boil:"id"`
	}
	q := "INSERT INTO " + strmangle.IdentQuote(dialect.LQ, dialect.RQ, table) +
		" (" + strings.Join(strmangle.IdentQuoteSlice(dialect.LQ, dialect.RQ, columns), ", ") + ") VALUES (" +
		strmangle.Placeholders(dialect.UseIndexPlaceholders, len(columns), 1, 1) + ") RETURNING id"
	if err := queries.Raw(q, args...).Bind(ctx, exec, &row); err != nil {
		return 0, err
	}
	return row.ID, nil
}

// update runs UPDATE table SET columns = args WHERE id = id.
func update(ctx context.Context, exec core.DBExecutor, table string, id int, columns []string, args ...interface{}) (int64, error) {
	q := "UPDATE " + strmangle.IdentQuote(dialect.LQ, dialect.RQ, table) + " SET " +
		strmangle.SetParamNames(string(dialect.LQ), string(dialect.RQ), 1, columns) +
		" WHERE id = $" + strconv.Itoa(len(columns)+1)
	res, err := queries.Raw(q, append(args, id)...).ExecContext(ctx, exec)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func pqCode(err error) string {
	if pqErr, ok := err.(*pq.Error); ok {
		return string(pqErr.Code)
	}
	return ""
}

func idArgs(ids []int) []interface{} {
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}
