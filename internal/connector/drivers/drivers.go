// Package drivers registers every built-in connector with a registry.
package drivers

import (
	"github.com/tabletalk/tabletalk/internal/connector"
	"github.com/tabletalk/tabletalk/internal/connector/mssql"
	"github.com/tabletalk/tabletalk/internal/connector/mysql"
	"github.com/tabletalk/tabletalk/internal/connector/oracle"
	"github.com/tabletalk/tabletalk/internal/connector/postgres"
	"github.com/tabletalk/tabletalk/internal/connector/snowflake"
	"github.com/tabletalk/tabletalk/internal/connector/sqlite"
)

// NewRegistry returns a registry with all supported drivers registered.
func NewRegistry() *connector.Registry {
	r := connector.NewRegistry()
	r.RegisterDriver("postgres", postgres.New)
	r.RegisterDriver("mysql", mysql.New)
	r.RegisterDriver("sqlite", sqlite.New)
	r.RegisterDriver("mssql", mssql.New)
	r.RegisterDriver("snowflake", snowflake.New)
	r.RegisterDriver("oracle", oracle.New)
	return r
}
