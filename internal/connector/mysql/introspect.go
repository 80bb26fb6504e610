package mysql

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
	ColumnKey  string `db:"COLUMN_KEY"`
}

type fkRow struct {
	TableName        string `db:"TABLE_NAME"`
	ColumnName       string `db:"COLUMN_NAME"`
	ReferencedTable  string `db:"REFERENCED_TABLE_NAME"`
	ReferencedColumn string `db:"REFERENCED_COLUMN_NAME"`
}

// IntrospectSchema reads tables, views, columns, and key constraints for the
// connected database from information_schema.
func (c *Connector) IntrospectSchema(ctx context.Context) (*model.Schema, error) {
	var tables []tableRow
	const tableQuery = `SELECT TABLE_NAME, TABLE_TYPE
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ?
		ORDER BY TABLE_NAME`
	if err := c.db.SelectContext(ctx, &tables, tableQuery, c.database); err != nil {
		return nil, fmt.Errorf("introspect tables: %w", err)
	}

	var columns []columnRow
	const columnQuery = `SELECT TABLE_NAME, COLUMN_NAME, DATA_TYPE, IS_NULLABLE, ORDINAL_POSITION, COLUMN_KEY
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ?
		ORDER BY TABLE_NAME, ORDINAL_POSITION`
	if err := c.db.SelectContext(ctx, &columns, columnQuery, c.database); err != nil {
		return nil, fmt.Errorf("introspect columns: %w", err)
	}

	var fks []fkRow
	const fkQuery = `SELECT TABLE_NAME, COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ? AND REFERENCED_TABLE_NAME IS NOT NULL`
	if err := c.db.SelectContext(ctx, &fks, fkQuery, c.database); err != nil {
		return nil, fmt.Errorf("introspect foreign keys: %w", err)
	}

	colMap := make(map[string][]model.Column)
	pkMap := make(map[string][]string)
	for _, col := range columns {
		colMap[col.TableName] = append(colMap[col.TableName], model.Column{
			Name:     col.ColumnName,
			Position: col.Position,
			Type:     col.DataType,
			Nullable: col.IsNullable == "YES",
		})
		if col.ColumnKey == "PRI" {
			pkMap[col.TableName] = append(pkMap[col.TableName], col.ColumnName)
		}
	}

	fkMap := make(map[string][]model.ForeignKey)
	for _, fk := range fks {
		fkMap[fk.TableName] = append(fkMap[fk.TableName], model.ForeignKey{
			ColumnName:       fk.ColumnName,
			ReferencedTable:  fk.ReferencedTable,
			ReferencedColumn: fk.ReferencedColumn,
		})
	}

	schema := &model.Schema{Tables: make([]model.TableSchema, 0, len(tables))}
	for _, t := range tables {
		tableType := "table"
		if t.TableType == "VIEW" {
			tableType = "view"
		}
		schema.Tables = append(schema.Tables, model.TableSchema{
			Name:        t.TableName,
			Type:        tableType,
			Columns:     colMap[t.TableName],
			PrimaryKey:  pkMap[t.TableName],
			ForeignKeys: fkMap[t.TableName],
		})
	}
	return schema, nil
}
