package harness

import "github.com/roach88/rota/internal/ir"

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success: every assertion held.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Validation is the validator's output. Nil when the rules failed to
	// load.
	Validation *ir.ValidationResult `json:"validation,omitempty"`

	// ConfigErrors lists the codes of the errors that stopped the rules
	// from loading, in reported order.
	ConfigErrors []string `json:"config_errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
