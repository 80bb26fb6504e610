// Package mssql implements the SQL Server connector.
package mssql

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/tabletalk/tabletalk/internal/connector"
	"github.com/tabletalk/tabletalk/internal/model"
)

// Connector implements connector.Connector for SQL Server.
type Connector struct {
	db         *sqlx.DB
	schemaName string
}

// New creates an unconnected SQL Server connector.
func New() connector.Connector {
	return &Connector{schemaName: "dbo"}
}

// BuildDSN renders cfg as a sqlserver:// URL with encoded credentials.
func BuildDSN(cfg connector.ConnectionConfig) string {
	port := cfg.Port
	if port == 0 {
		port = 1433
	}
	query := url.Values{}
	query.Set("database", cfg.Database)
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, port),
		RawQuery: query.Encode(),
	}
	return u.String()
}

// Connect opens and verifies a connection pool.
func (c *Connector) Connect(cfg connector.ConnectionConfig) error {
	db, err := sqlx.Connect("sqlserver", BuildDSN(cfg))
	if err != nil {
		return fmt.Errorf("mssql connect: %w", err)
	}
	connector.ApplyPool(db, cfg)
	if cfg.SchemaName != "" {
		c.schemaName = cfg.SchemaName
	}
	c.db = db
	return nil
}

// Disconnect closes the connection pool.
func (c *Connector) Disconnect() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping verifies the connection is alive.
func (c *Connector) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// DB returns the underlying connection pool.
func (c *Connector) DB() *sqlx.DB { return c.db }

// DriverName returns "mssql".
func (c *Connector) DriverName() string { return "mssql" }

// QuoteIdentifier wraps an identifier in square brackets, escaping embedded
// closing brackets.
func (c *Connector) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// Query runs one statement and captures the raw rows.
func (c *Connector) Query(ctx context.Context, query string) (*model.RawRows, error) {
	return connector.RunQuery(ctx, c.db, query)
}

// SampleRows fetches up to limit example rows from a table.
func (c *Connector) SampleRows(ctx context.Context, table string, limit int) (*model.RawRows, error) {
	query := fmt.Sprintf("SELECT TOP %d * FROM %s", limit, c.QuoteIdentifier(table))
	return connector.RunQuery(ctx, c.db, query)
}
