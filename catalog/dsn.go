package catalog

import (
	"fmt"
	"net/url"

	"github.com/federatedsql/multidb/schema"
)

// postgresDSN builds a postgres:// connection string, grounded on
// database/postgres/database.go's postgresBuildDSN (same URL-escaping
// choice: QueryEscape so a colon in a password is escaped too).
func postgresDSN(p schema.ConnParams, db string) string {
	user, password := p.User, p.Password
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		url.QueryEscape(user), url.QueryEscape(password), p.Server, db)
}

// mysqlDSN builds a go-sql-driver/mysql DSN, grounded on
// database/mysql/database.go's mysqlBuildDSN.
func mysqlDSN(p schema.ConnParams, db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s", p.User, p.Password, p.Server, db)
}
