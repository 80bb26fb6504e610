package model

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single entry in a conversation. Turns are immutable once
// appended; history is append-only for the life of a session.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// QueryPlan is the structured output of the planning step: a candidate SQL
// query, the model's reasoning, a confidence score in [0,1], and the tables
// the query touches. A plan with confidence 0 never carries a query.
type QueryPlan struct {
	Query      string   `json:"sql_query"`
	Reasoning  string   `json:"reasoning"`
	Confidence float64  `json:"confidence"`
	TablesUsed []string `json:"tables_used"`
}

// ValidationResult is the outcome of the read-only gate. A rejected result
// always carries a human-readable reason.
type ValidationResult struct {
	Accepted bool
	Reason   string
}

// RawRows is the executor's row representation before normalization: column
// names plus driver-typed cell values (strings, numbers, nils, byte slices).
type RawRows struct {
	Columns []string
	Rows    [][]any
}

// Empty reports whether the result carries no rows.
func (r *RawRows) Empty() bool {
	return r == nil || len(r.Rows) == 0
}
