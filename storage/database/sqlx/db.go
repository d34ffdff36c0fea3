package sqlxrepos

import (
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// postgres error codes
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// NewDB wraps an opened postgres connection pool.
func NewDB(db *sql.DB) *sqlx.DB {
	return sqlx.NewDb(db, "postgres")
}

func pqCode(err error) string {
	if pqErr, ok := err.(*pq.Error); ok {
		return string(pqErr.Code)
	}
	return ""
}

func rollback(tx *sqlx.Tx) {
	_ = tx.Rollback()
}

func int64s(ids []int) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		out = append(out, int64(id))
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern is an ILIKE pattern matching values that contain s.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// setClause renders "col = :col, ..." for named queries.
func setClause(columns []string) string {
	parts := make([]string, 0, len(columns))
	for _, c := range columns {
		parts = append(parts, c+" = :"+c)
	}
	return strings.Join(parts, ", ")
}
