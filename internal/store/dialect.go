package store

import (
	"strconv"
	"strings"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type dialect struct {
	driver string
}

// rebind rewrites ? placeholders into $1..$n for postgres.
func (d dialect) rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// lockRow is appended to a SELECT that must serialize writers on a session.
// SQLite already serializes through its single connection.
func (d dialect) lockRow() string {
	if d.driver == DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}
