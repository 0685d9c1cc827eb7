package harness

import "github.com/GNOME/libgda-sub020/internal/sqlstmt"

// StepEvent records one applied step and the builder id it returned
// (0 for steps that return no id).
type StepEvent struct {
	Step int    `json:"step"`
	Op   string `json:"op"`
	ID   uint32 `json:"id,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if every expect clause matches.
	Pass bool `json:"pass"`

	// Trace lists the top-level steps in the order they were applied.
	Trace []StepEvent `json:"trace"`

	// Errors contains mismatch messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// ErrorCode is the code of the builder or validation error the
	// scenario stopped at, if any.
	ErrorCode string `json:"error_code,omitempty"`

	// Serialization is the canonical form of the built statement.
	Serialization string `json:"serialization,omitempty"`

	// ContentHash is the store key of the built statement.
	ContentHash string `json:"content_hash,omitempty"`

	// SQL is the SQLite rendering, when one was requested.
	SQL string `json:"sql,omitempty"`

	// Statement is the built statement (nil when building failed).
	Statement *sqlstmt.Statement `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []StepEvent{},
		Errors: []string{},
	}
}

// AddError adds a mismatch message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a step to the trace.
func (r *Result) AddStep(step int, op string, id uint32) {
	r.Trace = append(r.Trace, StepEvent{Step: step, Op: op, ID: id})
}
