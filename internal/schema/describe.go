// Package schema turns introspected database structure into the textual
// description fed to the query planner.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/tabletalk/tabletalk/internal/model"
)

// sampleLimit bounds how many example rows each table contributes to the
// description. Samples show the planner real value shapes without flooding
// the prompt.
const sampleLimit = 3

// Source provides the structural and sample data a description is built
// from. Connectors satisfy it.
type Source interface {
	IntrospectSchema(ctx context.Context) (*model.Schema, error)
	SampleRows(ctx context.Context, table string, limit int) (*model.RawRows, error)
}

// Description is the cached, planner-ready view of a connected database.
type Description struct {
	Schema        *model.Schema
	Relationships []model.Relationship
	Text          string
}

// Describe introspects src and renders the planner prompt text. Sample
// collection is best effort: a table whose sample query fails still appears
// in the description, just without example rows.
func Describe(ctx context.Context, src Source, includeSamples bool) (*Description, error) {
	sch, err := src.IntrospectSchema(ctx)
	if err != nil {
		return nil, fmt.Errorf("introspect schema: %w", err)
	}

	samples := map[string]*model.RawRows{}
	if includeSamples {
		for _, table := range sch.Tables {
			rows, err := src.SampleRows(ctx, table.Name, sampleLimit)
			if err != nil {
				continue
			}
			samples[table.Name] = rows
		}
	}

	return &Description{
		Schema:        sch,
		Relationships: sch.Relationships(),
		Text:          Render(sch, samples),
	}, nil
}

// Render produces the textual schema description. samples may be nil.
func Render(sch *model.Schema, samples map[string]*model.RawRows) string {
	var b strings.Builder
	b.WriteString("DATABASE SCHEMA:\n")

	for _, table := range sch.Tables {
		fmt.Fprintf(&b, "\nTable: %s\n", table.Name)
		b.WriteString("Columns:\n")
		for _, col := range table.Columns {
			fmt.Fprintf(&b, "  - %s (%s%s)%s\n",
				col.Name, col.Type, nullability(col), keyMarker(table, col.Name))
		}

		if len(table.ForeignKeys) > 0 {
			b.WriteString("Links:\n")
			for _, fk := range table.ForeignKeys {
				fmt.Fprintf(&b, "  - %s.%s -> %s.%s\n",
					table.Name, fk.ColumnName, fk.ReferencedTable, fk.ReferencedColumn)
			}
		}

		if rows, ok := samples[table.Name]; ok && !rows.Empty() {
			b.WriteString("Sample rows:\n")
			for _, row := range rows.Rows {
				fmt.Fprintf(&b, "  %s\n", renderSample(row))
			}
		}
	}

	rels := sch.Relationships()
	if len(rels) > 0 {
		b.WriteString("\nRELATIONSHIPS:\n")
		for _, rel := range rels {
			fmt.Fprintf(&b, "  %s.%s references %s.%s\n",
				rel.FromTable, rel.FromColumn, rel.ToTable, rel.ToColumn)
		}
	}

	return b.String()
}

func nullability(col model.Column) string {
	if col.Nullable {
		return ", nullable"
	}
	return ""
}

func keyMarker(table model.TableSchema, column string) string {
	for _, pk := range table.PrimaryKey {
		if pk == column {
			return " [primary key]"
		}
	}
	return ""
}

// renderSample formats one sample row compactly. Long values are cut so a
// wide text column cannot dominate the prompt.
func renderSample(row []any) string {
	const maxValue = 40
	fields := make([]string, 0, len(row))
	for _, v := range row {
		s := "NULL"
		if v != nil {
			switch x := v.(type) {
			case []byte:
				s = "<binary>"
			case string:
				s = x
			default:
				s = fmt.Sprintf("%v", x)
			}
		}
		if len(s) > maxValue {
			s = s[:maxValue] + "..."
		}
		fields = append(fields, s)
	}
	return strings.Join(fields, " | ")
}
