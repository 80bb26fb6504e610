package oracle

import (
	"context"
	"fmt"

	"github.com/tabletalk/tabletalk/internal/model"
)

type objectRow struct {
	Name string `db:"OBJECT_NAME"`
	Type string `db:"OBJECT_TYPE"`
}

type columnRow struct {
	TableName  string `db:"TABLE_NAME"`
	ColumnName string `db:"COLUMN_NAME"`
	DataType   string `db:"DATA_TYPE"`
	Nullable   string `db:"NULLABLE"`
	Position   int    `db:"COLUMN_ID"`
}

type keyRow struct {
	TableName        string  `db:"TABLE_NAME"`
	ColumnName       string  `db:"COLUMN_NAME"`
	ConstraintType   string  `db:"CONSTRAINT_TYPE"`
	ReferencedTable  *string `db:"REFERENCED_TABLE"`
	ReferencedColumn *string `db:"REFERENCED_COLUMN"`
}

// IntrospectSchema reads the connected user's tables, views, columns, and
// key constraints from the USER_* data dictionary views.
func (c *Connector) IntrospectSchema(ctx context.Context) (*model.Schema, error) {
	var objects []objectRow
	const objectQuery = `SELECT object_name AS "OBJECT_NAME", object_type AS "OBJECT_TYPE"
		FROM user_objects
		WHERE object_type IN ('TABLE', 'VIEW')
		ORDER BY object_name`
	if err := c.db.SelectContext(ctx, &objects, objectQuery); err != nil {
		return nil, fmt.Errorf("introspect tables: %w", err)
	}

	var columns []columnRow
	const columnQuery = `SELECT table_name AS "TABLE_NAME", column_name AS "COLUMN_NAME",
			data_type AS "DATA_TYPE", nullable AS "NULLABLE", column_id AS "COLUMN_ID"
		FROM user_tab_columns
		ORDER BY table_name, column_id`
	if err := c.db.SelectContext(ctx, &columns, columnQuery); err != nil {
		return nil, fmt.Errorf("introspect columns: %w", err)
	}

	var keys []keyRow
	const keyQuery = `SELECT
			cc.table_name AS "TABLE_NAME",
			cc.column_name AS "COLUMN_NAME",
			c.constraint_type AS "CONSTRAINT_TYPE",
			rc.table_name AS "REFERENCED_TABLE",
			rc.column_name AS "REFERENCED_COLUMN"
		FROM user_constraints c
		JOIN user_cons_columns cc ON c.constraint_name = cc.constraint_name
		LEFT JOIN user_cons_columns rc
			ON c.r_constraint_name = rc.constraint_name
			AND cc.position = rc.position
		WHERE c.constraint_type IN ('P', 'R')`
	if err := c.db.SelectContext(ctx, &keys, keyQuery); err != nil {
		return nil, fmt.Errorf("introspect key constraints: %w", err)
	}

	colMap := make(map[string][]model.Column)
	for _, col := range columns {
		colMap[col.TableName] = append(colMap[col.TableName], model.Column{
			Name:     col.ColumnName,
			Position: col.Position,
			Type:     col.DataType,
			Nullable: col.Nullable == "Y",
		})
	}

	pkMap := make(map[string][]string)
	fkMap := make(map[string][]model.ForeignKey)
	for _, k := range keys {
		switch k.ConstraintType {
		case "P":
			pkMap[k.TableName] = append(pkMap[k.TableName], k.ColumnName)
		case "R":
			if k.ReferencedTable == nil || k.ReferencedColumn == nil {
				continue
			}
			fkMap[k.TableName] = append(fkMap[k.TableName], model.ForeignKey{
				ColumnName:       k.ColumnName,
				ReferencedTable:  *k.ReferencedTable,
				ReferencedColumn: *k.ReferencedColumn,
			})
		}
	}

	schema := &model.Schema{Tables: make([]model.TableSchema, 0, len(objects))}
	for _, obj := range objects {
		tableType := "table"
		if obj.Type == "VIEW" {
			tableType = "view"
		}
		schema.Tables = append(schema.Tables, model.TableSchema{
			Name:        obj.Name,
			Type:        tableType,
			Columns:     colMap[obj.Name],
			PrimaryKey:  pkMap[obj.Name],
			ForeignKeys: fkMap[obj.Name],
		})
	}
	return schema, nil
}
