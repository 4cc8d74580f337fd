package problemgen

import "fmt"

// Validator checks a generated question before it is served.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier for logs, e.g. "structural".
	Name() string

	// Validate returns nil if the question passes.
	Validate(q *GeneratedQuestion) *ValidationError
}

// ValidationError describes why a question failed validation.
type ValidationError struct {
	Validator string // Name of the validator that failed
	Message   string // Human-readable description of the failure
	Retryable bool   // Whether regenerating with new random values may fix it
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// validate runs validators in order and stops at the first failure.
func validate(validators []Validator, q *GeneratedQuestion) *ValidationError {
	for _, v := range validators {
		if verr := v.Validate(q); verr != nil {
			return verr
		}
	}
	return nil
}
