package schema

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tabletalk/tabletalk/internal/model"
)

type stubSource struct {
	schema    *model.Schema
	sampleErr map[string]error
	samples   map[string]*model.RawRows
}

func (s *stubSource) IntrospectSchema(context.Context) (*model.Schema, error) {
	if s.schema == nil {
		return nil, errors.New("not connected")
	}
	return s.schema, nil
}

func (s *stubSource) SampleRows(_ context.Context, table string, _ int) (*model.RawRows, error) {
	if err := s.sampleErr[table]; err != nil {
		return nil, err
	}
	return s.samples[table], nil
}

func rentalSchema() *model.Schema {
	return &model.Schema{
		Tables: []model.TableSchema{
			{
				Name: "film",
				Columns: []model.Column{
					{Name: "film_id", Position: 1, Type: "integer"},
					{Name: "title", Position: 2, Type: "varchar"},
					{Name: "description", Position: 3, Type: "text", Nullable: true},
				},
				PrimaryKey: []string{"film_id"},
			},
			{
				Name: "inventory",
				Columns: []model.Column{
					{Name: "inventory_id", Position: 1, Type: "integer"},
					{Name: "film_id", Position: 2, Type: "integer"},
				},
				PrimaryKey: []string{"inventory_id"},
				ForeignKeys: []model.ForeignKey{
					{ColumnName: "film_id", ReferencedTable: "film", ReferencedColumn: "film_id"},
				},
			},
		},
	}
}

func TestDescribeRendersTablesAndRelationships(t *testing.T) {
	src := &stubSource{
		schema: rentalSchema(),
		samples: map[string]*model.RawRows{
			"film": {
				Columns: []string{"film_id", "title", "description"},
				Rows:    [][]any{{int64(1), "ACADEMY DINOSAUR", nil}},
			},
		},
		sampleErr: map[string]error{"inventory": errors.New("permission denied")},
	}

	desc, err := Describe(context.Background(), src, true)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}

	for _, want := range []string{
		"Table: film",
		"film_id (integer) [primary key]",
		"description (text, nullable)",
		"inventory.film_id -> film.film_id",
		"film_id references",
		"1 | ACADEMY DINOSAUR | NULL",
	} {
		if !strings.Contains(desc.Text, want) {
			t.Errorf("description missing %q\n%s", want, desc.Text)
		}
	}

	if len(desc.Relationships) != 1 {
		t.Fatalf("got %d relationships, want 1", len(desc.Relationships))
	}

	// A failed sample query must not drop the table from the description.
	if !strings.Contains(desc.Text, "Table: inventory") {
		t.Fatal("table with failing sample query missing from description")
	}
}

func TestDescribeWithoutSamples(t *testing.T) {
	src := &stubSource{schema: rentalSchema()}

	desc, err := Describe(context.Background(), src, false)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if strings.Contains(desc.Text, "Sample rows:") {
		t.Fatal("samples rendered despite includeSamples=false")
	}
}

func TestDescribeIntrospectionFailure(t *testing.T) {
	if _, err := Describe(context.Background(), &stubSource{}, false); err == nil {
		t.Fatal("expected error from failed introspection")
	}
}

func TestRenderSampleTruncatesLongValues(t *testing.T) {
	row := []any{strings.Repeat("x", 100), []byte{0x89, 0x50}}
	got := renderSample(row)
	if !strings.Contains(got, strings.Repeat("x", 40)+"...") {
		t.Fatalf("long value not truncated: %q", got)
	}
	if !strings.Contains(got, "<binary>") {
		t.Fatalf("binary value not redacted: %q", got)
	}
}
