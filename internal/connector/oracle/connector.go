// Package oracle implements the Oracle connector.
package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	go_ora "github.com/sijms/go-ora/v2"

	"github.com/tabletalk/tabletalk/internal/connector"
	"github.com/tabletalk/tabletalk/internal/model"
)

// Connector implements connector.Connector for Oracle.
type Connector struct {
	db *sqlx.DB
}

// New creates an unconnected Oracle connector.
func New() connector.Connector {
	return &Connector{}
}

// BuildDSN renders cfg through the driver's URL builder, which handles
// credential escaping.
func BuildDSN(cfg connector.ConnectionConfig) string {
	port := cfg.Port
	if port == 0 {
		port = 1521
	}
	service := cfg.Service
	if service == "" {
		service = cfg.Database
	}
	return go_ora.BuildUrl(cfg.Host, port, service, cfg.User, cfg.Password, nil)
}

// Connect opens and verifies a connection pool.
func (c *Connector) Connect(cfg connector.ConnectionConfig) error {
	db, err := sqlx.Connect("oracle", BuildDSN(cfg))
	if err != nil {
		return fmt.Errorf("oracle connect: %w", err)
	}
	connector.ApplyPool(db, cfg)
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

// DriverName returns "oracle".
func (c *Connector) DriverName() string { return "oracle" }

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
	query := fmt.Sprintf("SELECT * FROM %s FETCH FIRST %d ROWS ONLY", c.QuoteIdentifier(table), limit)
	return connector.RunQuery(ctx, c.db, query)
}
