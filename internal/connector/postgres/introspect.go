package postgres

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
	UDTName    string `db:"udt_name"`
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
// configured schema from information_schema.
func (c *Connector) IntrospectSchema(ctx context.Context) (*model.Schema, error) {
	var tables []tableRow
	const tableQuery = `SELECT table_name, table_type
		FROM information_schema.tables
		WHERE table_schema = $1
		ORDER BY table_name`
	if err := c.db.SelectContext(ctx, &tables, tableQuery, c.schemaName); err != nil {
		return nil, fmt.Errorf("introspect tables: %w", err)
	}

	var columns []columnRow
	const columnQuery = `SELECT table_name, column_name, udt_name, is_nullable, ordinal_position
		FROM information_schema.columns
		WHERE table_schema = $1
		ORDER BY table_name, ordinal_position`
	if err := c.db.SelectContext(ctx, &columns, columnQuery, c.schemaName); err != nil {
		return nil, fmt.Errorf("introspect columns: %w", err)
	}

	var pks []pkRow
	const pkQuery = `SELECT kcu.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = $1`
	if err := c.db.SelectContext(ctx, &pks, pkQuery, c.schemaName); err != nil {
		return nil, fmt.Errorf("introspect primary keys: %w", err)
	}

	var fks []fkRow
	const fkQuery = `SELECT
			tc.table_name,
			kcu.column_name,
			ccu.table_name AS referenced_table,
			ccu.column_name AS referenced_column
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1`
	if err := c.db.SelectContext(ctx, &fks, fkQuery, c.schemaName); err != nil {
		return nil, fmt.Errorf("introspect foreign keys: %w", err)
	}

	colMap := make(map[string][]model.Column)
	for _, col := range columns {
		colMap[col.TableName] = append(colMap[col.TableName], model.Column{
			Name:     col.ColumnName,
			Position: col.Position,
			Type:     col.UDTName,
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
