package sqlite

import (
	"context"
	"fmt"

	"github.com/tabletalk/tabletalk/internal/model"
)

type masterRow struct {
	Name string `db:"name"`
	Type string `db:"type"`
}

// tableInfoRow maps PRAGMA table_info output.
type tableInfoRow struct {
	CID        int     `db:"cid"`
	Name       string  `db:"name"`
	Type       string  `db:"type"`
	NotNull    int     `db:"notnull"`
	DefaultVal *string `db:"dflt_value"`
	PK         int     `db:"pk"`
}

// fkListRow maps PRAGMA foreign_key_list output.
type fkListRow struct {
	ID       int     `db:"id"`
	Seq      int     `db:"seq"`
	Table    string  `db:"table"`
	From     string  `db:"from"`
	To       *string `db:"to"`
	OnUpdate string  `db:"on_update"`
	OnDelete string  `db:"on_delete"`
	Match    string  `db:"match"`
}

// IntrospectSchema reads tables and views from sqlite_master and their
// structure from the table_info and foreign_key_list pragmas.
func (c *Connector) IntrospectSchema(ctx context.Context) (*model.Schema, error) {
	var entries []masterRow
	const masterQuery = `SELECT name, type FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name`
	if err := c.db.SelectContext(ctx, &entries, masterQuery); err != nil {
		return nil, fmt.Errorf("introspect tables: %w", err)
	}

	schema := &model.Schema{Tables: make([]model.TableSchema, 0, len(entries))}
	for _, entry := range entries {
		table, err := c.introspectTable(ctx, entry.Name, entry.Type)
		if err != nil {
			return nil, err
		}
		schema.Tables = append(schema.Tables, *table)
	}
	return schema, nil
}

func (c *Connector) introspectTable(ctx context.Context, name, entryType string) (*model.TableSchema, error) {
	var info []tableInfoRow
	infoQuery := fmt.Sprintf("PRAGMA table_info(%s)", c.QuoteIdentifier(name))
	if err := c.db.SelectContext(ctx, &info, infoQuery); err != nil {
		return nil, fmt.Errorf("introspect columns for %q: %w", name, err)
	}

	columns := make([]model.Column, 0, len(info))
	var pk []string
	for _, col := range info {
		columns = append(columns, model.Column{
			Name:     col.Name,
			Position: col.CID + 1,
			Type:     col.Type,
			Nullable: col.NotNull == 0 && col.PK == 0,
		})
		if col.PK > 0 {
			pk = append(pk, col.Name)
		}
	}

	var fkList []fkListRow
	fkQuery := fmt.Sprintf("PRAGMA foreign_key_list(%s)", c.QuoteIdentifier(name))
	if err := c.db.SelectContext(ctx, &fkList, fkQuery); err != nil {
		return nil, fmt.Errorf("introspect foreign keys for %q: %w", name, err)
	}

	fks := make([]model.ForeignKey, 0, len(fkList))
	for _, fk := range fkList {
		referenced := ""
		if fk.To != nil {
			referenced = *fk.To
		}
		fks = append(fks, model.ForeignKey{
			ColumnName:       fk.From,
			ReferencedTable:  fk.Table,
			ReferencedColumn: referenced,
		})
	}

	return &model.TableSchema{
		Name:        name,
		Type:        entryType,
		Columns:     columns,
		PrimaryKey:  pk,
		ForeignKeys: fks,
	}, nil
}
