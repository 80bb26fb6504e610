// Package connector defines the database access surface: one live,
// introspectable, read-only connection per conversation, with per-driver
// implementations in subpackages.
package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tabletalk/tabletalk/internal/model"
)

// ConnectionConfig holds structured connection parameters. Which fields
// matter depends on the driver: file databases use FilePath, Snowflake adds
// Account, Oracle adds Service.
type ConnectionConfig struct {
	Driver   string `json:"driver"`
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
	Database string `json:"database,omitempty"`

	// FilePath is the database file for sqlite.
	FilePath string `json:"file_path,omitempty"`

	// Account is the Snowflake account identifier.
	Account string `json:"account,omitempty"`

	// Service is the Oracle service name.
	Service string `json:"service,omitempty"`

	// SchemaName overrides the driver's default introspection schema.
	SchemaName string `json:"schema,omitempty"`

	MaxOpenConns    int           `json:"-"`
	MaxIdleConns    int           `json:"-"`
	ConnMaxLifetime time.Duration `json:"-"`
	ConnMaxIdleTime time.Duration `json:"-"`
}

// Connector is the per-driver connection handle. Implementations expose
// structure and read-only data access; nothing on this surface can mutate
// the target database.
type Connector interface {
	// Connection management
	Connect(cfg ConnectionConfig) error
	Disconnect() error
	Ping(ctx context.Context) error
	DB() *sqlx.DB

	// Schema introspection
	IntrospectSchema(ctx context.Context) (*model.Schema, error)

	// Data access
	Query(ctx context.Context, query string) (*model.RawRows, error)
	SampleRows(ctx context.Context, table string, limit int) (*model.RawRows, error)

	// Metadata
	DriverName() string
	QuoteIdentifier(name string) string
}

// ApplyPool configures the connection pool from cfg, leaving driver defaults
// in place for unset fields.
func ApplyPool(db *sqlx.DB, cfg ConnectionConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

// RunQuery executes one statement and captures every row as raw driver
// values. All drivers share this path so results reach the normalizer in
// one shape.
func RunQuery(ctx context.Context, db *sqlx.DB, query string) (*model.RawRows, error) {
	if db == nil {
		return nil, fmt.Errorf("not connected")
	}

	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	out := &model.RawRows{Columns: columns}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out.Rows = append(out.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
