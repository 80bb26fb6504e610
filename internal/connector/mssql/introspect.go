package mssql

import (
	"context"
	"fmt"

	"github.com/tabletalk/tabletalk/internal/model"
)

type tableRow struct {
	TableName string `db:"table_name"`
	TableType string `db:"table_type"`
}

type columnRow struct {
	TableName  string `db:"table_name"`
	ColumnName string `db:"column_name"`
	DataType   string `db:"data_type"`
	IsNullable string `db:"is_nullable"`
	Position   int    `db:"ordinal_position"`
}

type pkRow struct {
	TableName  string `db:"table_name"`
	ColumnName string `db:"column_name"`
}

type fkRow struct {
	TableName        string `db:"table_name"`
	ColumnName       string `db:"column_name"`
	ReferencedTable  string `db:"referenced_table"`
	ReferencedColumn string `db:"referenced_column"`
}

// IntrospectSchema reads tables, views, columns, and key constraints for the
// configured schema from INFORMATION_SCHEMA and the sys catalog.
func (c *Connector) IntrospectSchema(ctx context.Context) (*model.Schema, error) {
	var tables []tableRow
	const tableQuery = `SELECT TABLE_NAME AS table_name, TABLE_TYPE AS table_type
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = @p1
		ORDER BY TABLE_NAME`
	if err := c.db.SelectContext(ctx, &tables, tableQuery, c.schemaName); err != nil {
		return nil, fmt.Errorf("introspect tables: %w", err)
	}

	var columns []columnRow
	const columnQuery = `SELECT TABLE_NAME AS table_name, COLUMN_NAME AS column_name,
			DATA_TYPE AS data_type, IS_NULLABLE AS is_nullable, ORDINAL_POSITION AS ordinal_position
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = @p1
		ORDER BY TABLE_NAME, ORDINAL_POSITION`
	if err := c.db.SelectContext(ctx, &columns, columnQuery, c.schemaName); err != nil {
		return nil, fmt.Errorf("introspect columns: %w", err)
	}

	var pks []pkRow
	const pkQuery = `SELECT kcu.TABLE_NAME AS table_name, kcu.COLUMN_NAME AS column_name
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
			ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
			AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA
		WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY' AND tc.TABLE_SCHEMA = @p1`
	if err := c.db.SelectContext(ctx, &pks, pkQuery, c.schemaName); err != nil {
		return nil, fmt.Errorf("introspect primary keys: %w", err)
	}

	var fks []fkRow
	const fkQuery = `SELECT
			tp.name AS table_name,
			cp.name AS column_name,
			tr.name AS referenced_table,
			cr.name AS referenced_column
		FROM sys.foreign_key_columns fkc
		JOIN sys.tables tp ON fkc.parent_object_id = tp.object_id
		JOIN sys.columns cp ON fkc.parent_object_id = cp.object_id AND fkc.parent_column_id = cp.column_id
		JOIN sys.tables tr ON fkc.referenced_object_id = tr.object_id
		JOIN sys.columns cr ON fkc.referenced_object_id = cr.object_id AND fkc.referenced_column_id = cr.column_id
		JOIN sys.schemas s ON tp.schema_id = s.schema_id
		WHERE s.name = @p1`
	if err := c.db.SelectContext(ctx, &fks, fkQuery, c.schemaName); err != nil {
		return nil, fmt.Errorf("introspect foreign keys: %w", err)
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

	pkMap := make(map[string][]string)
	for _, pk := range pks {
		pkMap[pk.TableName] = append(pkMap[pk.TableName], pk.ColumnName)
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
