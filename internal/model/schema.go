package model

// Schema represents the introspection result for a connected database.
type Schema struct {
	Tables []TableSchema `json:"tables"`
}

// TableSchema describes the structure of a single table or view.
type TableSchema struct {
	Name        string       `json:"name"`
	Type        string       `json:"type"` // "table" or "view"
	Columns     []Column     `json:"columns"`
	PrimaryKey  []string     `json:"primary_key"`
	ForeignKeys []ForeignKey `json:"foreign_keys"`
}

// Column describes a single column within a table or view.
type Column struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// ForeignKey describes a foreign key constraint between two tables.
type ForeignKey struct {
	ColumnName       string `json:"column_name"`
	ReferencedTable  string `json:"referenced_table"`
	ReferencedColumn string `json:"referenced_column"`
}

// Relationship is a flattened foreign-key edge, as presented to the planner.
type Relationship struct {
	FromTable  string `json:"from_table"`
	FromColumn string `json:"from_column"`
	ToTable    string `json:"to_table"`
	ToColumn   string `json:"to_column"`
}

// TableNames returns the names of all tables in declaration order.
func (s *Schema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		names = append(names, t.Name)
	}
	return names
}

// Relationships flattens every foreign key in the schema into edges.
func (s *Schema) Relationships() []Relationship {
	var rels []Relationship
	for _, t := range s.Tables {
		for _, fk := range t.ForeignKeys {
			rels = append(rels, Relationship{
				FromTable:  t.Name,
				FromColumn: fk.ColumnName,
				ToTable:    fk.ReferencedTable,
				ToColumn:   fk.ReferencedColumn,
			})
		}
	}
	return rels
}
