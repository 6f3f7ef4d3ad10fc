package harness

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation and assertion holds.
	Pass bool `json:"pass"`

	// Document is the generated markup document.
	// Empty when serialization failed.
	Document string `json:"document,omitempty"`

	// Blocks holds the serialized markup of each top-level tree.
	Blocks []string `json:"blocks,omitempty"`

	// ErrorCode and Error describe the serialization failure, if any.
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`

	// UnknownTypes lists the IR types that had no mapping, sorted.
	UnknownTypes []string `json:"unknown_types,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
