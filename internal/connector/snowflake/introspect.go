package snowflake

import (
	"context"
	"fmt"

	"github.com/tabletalk/tabletalk/internal/model"
)

type tableRow struct {
	TableName string `db:"TABLE_NAME"`
	TableType string `db:"TABLE_TYPE"`
}

type columnRow struct {
	TableName  string `db:"TABLE_NAME"`
	ColumnName string `db:"COLUMN_NAME"`
	DataType   string `db:"DATA_TYPE"`
	IsNullable string `db:"IS_NULLABLE"`
	Position   int    `db:"ORDINAL_POSITION"`
}

// IntrospectSchema reads tables, views, and columns for the configured
// schema. Snowflake exposes key constraints through SHOW commands rather
// than information_schema, and does not enforce them, so the description
// carries structure only.
func (c *Connector) IntrospectSchema(ctx context.Context) (*model.Schema, error) {
	var tables []tableRow
	const tableQuery = `SELECT TABLE_NAME, TABLE_TYPE
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = ?
		ORDER BY TABLE_NAME`
	if err := c.db.SelectContext(ctx, &tables, tableQuery, c.schemaName); err != nil {
		return nil, fmt.Errorf("introspect tables: %w", err)
	}

	var columns []columnRow
	const columnQuery = `SELECT TABLE_NAME, COLUMN_NAME, DATA_TYPE, IS_NULLABLE, ORDINAL_POSITION
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = ?
		ORDER BY TABLE_NAME, ORDINAL_POSITION`
	if err := c.db.SelectContext(ctx, &columns, columnQuery, c.schemaName); err != nil {
		return nil, fmt.Errorf("introspect columns: %w", err)
	}

	colMap := make(map[string][]model.Column)
	for _, col := range columns {
		colMap[col.TableName] = append(colMap[col.TableName], model.Column{
			Name:     col.ColumnName,
			Position: col.Position,
			Type:     col.DataType,
			Nullable: col.IsNullable == "YES",
		})
	}

	schema := &model.Schema{Tables: make([]model.TableSchema, 0, len(tables))}
	for _, t := range tables {
		tableType := "table"
		if t.TableType == "VIEW" {
			tableType = "view"
		}
		schema.Tables = append(schema.Tables, model.TableSchema{
			Name:    t.TableName,
			Type:    tableType,
			Columns: colMap[t.TableName],
		})
	}
	return schema, nil
}
