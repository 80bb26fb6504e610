// Package mysql implements the MySQL and MariaDB connector.
package mysql

import (
	"context"
	"fmt"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/tabletalk/tabletalk/internal/connector"
	"github.com/tabletalk/tabletalk/internal/model"
)

// Connector implements connector.Connector for MySQL.
type Connector struct {
	db       *sqlx.DB
	database string
}

// New creates an unconnected MySQL connector.
func New() connector.Connector {
	return &Connector{}
}

// BuildDSN renders cfg through the driver's own config type, which handles
// credential escaping and the tcp() address wrapper.
func BuildDSN(cfg connector.ConnectionConfig) string {
	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	mc := mysqldriver.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, port)
	mc.DBName = cfg.Database
	mc.ParseTime = true
	return mc.FormatDSN()
}

// Connect opens and verifies a connection pool.
func (c *Connector) Connect(cfg connector.ConnectionConfig) error {
	db, err := sqlx.Connect("mysql", BuildDSN(cfg))
	if err != nil {
		return fmt.Errorf("mysql connect: %w", err)
	}
	connector.ApplyPool(db, cfg)
	c.db = db
	c.database = cfg.Database
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

// DriverName returns "mysql".
func (c *Connector) DriverName() string { return "mysql" }

// QuoteIdentifier wraps an identifier in backticks, escaping embedded
// backticks.
func (c *Connector) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
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
