// Package sqlite implements the SQLite connector over the pure-Go driver.
package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/tabletalk/tabletalk/internal/connector"
	"github.com/tabletalk/tabletalk/internal/model"
)

// Connector implements connector.Connector for SQLite database files.
type Connector struct {
	db *sqlx.DB
}

// New creates an unconnected SQLite connector.
func New() connector.Connector {
	return &Connector{}
}

// Connect opens the database file named by cfg.FilePath.
func (c *Connector) Connect(cfg connector.ConnectionConfig) error {
	if cfg.FilePath == "" {
		return fmt.Errorf("sqlite connect: file_path is required")
	}
	db, err := sqlx.Connect("sqlite", cfg.FilePath)
	if err != nil {
		return fmt.Errorf("sqlite connect: %w", err)
	}
	connector.ApplyPool(db, cfg)
	c.db = db
	return nil
}

// Disconnect closes the database file.
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

// DriverName returns "sqlite".
func (c *Connector) DriverName() string { return "sqlite" }

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
