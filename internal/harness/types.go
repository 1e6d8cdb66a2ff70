package harness

// CaseResult is the observed outcome of one case.
type CaseResult struct {
	Filter      string     `json:"filter"`
	Description string     `json:"description,omitempty"`
	Canonical   string     `json:"canonical,omitempty"`
	Matched     []string   `json:"matched,omitempty"`
	Error       *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo is the observed parse failure of a case.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Offset  int    `json:"offset"`
	Message string `json:"message"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every case matched its expectation.
	Pass bool `json:"pass"`

	// Cases holds one entry per scenario case, in order.
	// Used for golden comparison.
	Cases []CaseResult `json:"cases"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Cases:  []CaseResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
