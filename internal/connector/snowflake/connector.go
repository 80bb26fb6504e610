// Package snowflake implements the Snowflake connector.
package snowflake

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	gosnowflake "github.com/snowflakedb/gosnowflake"

	"github.com/tabletalk/tabletalk/internal/connector"
	"github.com/tabletalk/tabletalk/internal/model"
)

// Connector implements connector.Connector for Snowflake.
type Connector struct {
	db         *sqlx.DB
	schemaName string
}

// New creates an unconnected Snowflake connector.
func New() connector.Connector {
	return &Connector{schemaName: "PUBLIC"}
}

// BuildDSN renders cfg through the driver's config type. Snowflake has its
// own non-URL DSN format; the driver owns the encoding rules.
func BuildDSN(cfg connector.ConnectionConfig) (string, error) {
	sc := gosnowflake.Config{
		Account:  cfg.Account,
		User:     cfg.User,
		Password: cfg.Password,
		Database: cfg.Database,
		Schema:   cfg.SchemaName,
	}
	dsn, err := gosnowflake.DSN(&sc)
	if err != nil {
		return "", fmt.Errorf("snowflake dsn: %w", err)
	}
	return dsn, nil
}

// Connect opens and verifies a connection pool.
func (c *Connector) Connect(cfg connector.ConnectionConfig) error {
	dsn, err := BuildDSN(cfg)
	if err != nil {
		return err
	}
	db, err := sqlx.Connect("snowflake", dsn)
	if err != nil {
		return fmt.Errorf("snowflake connect: %w", err)
	}
	connector.ApplyPool(db, cfg)
	if cfg.SchemaName != "" {
		c.schemaName = strings.ToUpper(cfg.SchemaName)
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

// DriverName returns "snowflake".
func (c *Connector) DriverName() string { return "snowflake" }

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
