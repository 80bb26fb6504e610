// Package postgres implements the PostgreSQL connector.
package postgres

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/tabletalk/tabletalk/internal/connector"
	"github.com/tabletalk/tabletalk/internal/model"
)

// Connector implements connector.Connector for PostgreSQL.
type Connector struct {
	db         *sqlx.DB
	schemaName string
}

// New creates an unconnected PostgreSQL connector.
func New() connector.Connector {
	return &Connector{schemaName: "public"}
}

// BuildDSN renders cfg as a postgres:// URL. Credentials go through the URL
// userinfo encoder so passwords with @, #, or % survive parsing.
func BuildDSN(cfg connector.ConnectionConfig) string {
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, port),
		Path:   "/" + cfg.Database,
	}
	return u.String()
}

// Connect opens and verifies a connection pool.
func (c *Connector) Connect(cfg connector.ConnectionConfig) error {
	db, err := sqlx.Connect("pgx", BuildDSN(cfg))
	if err != nil {
		return fmt.Errorf("postgres connect: %w", err)
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

// DriverName returns "postgres".
func (c *Connector) DriverName() string { return "postgres" }

// QuoteIdentifier wraps an identifier in double quotes, escaping embedded
// quotes.
func (c *Connector) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Query runs one statement and captures the raw rows.
func (c *Connector) Query(ctx context.Context, query string) (*model.RawRows, error) {
	return connector.RunQuery(ctx, c.db, query)
}

// SampleRows fetches up to limit example rows from a table.
func (c *Connector) SampleRows(ctx context.Context, table string, limit int) (*model.RawRows, error) {
	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", c.QuoteIdentifier(table), limit)
	return connector.RunQuery(ctx, c.db, query)
}
