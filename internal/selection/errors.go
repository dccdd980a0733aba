// Package selection diversifies a scored candidate list with greedy Maximal
// Marginal Relevance.
package selection

import "fmt"

// Error represents invalid selection parameters.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Params controls one selection run.
type Params struct {
	// Lambda trades relevance (1.0) against novelty (0.0).
	Lambda float64 `json:"lambda" yaml:"lambda" validate:"gte=0,lte=1"`
	// TopN caps the number of selections.
	TopN int `json:"top_n" yaml:"top_n" validate:"gte=1"`
}

// Validate checks that Lambda is within [0, 1] and TopN is positive.
func (p Params) Validate() error {
	if p.Lambda < 0 || p.Lambda > 1 {
		return &Error{Message: fmt.Sprintf("lambda must be within [0, 1], got %g", p.Lambda)}
	}
	if p.TopN < 1 {
		return &Error{Message: fmt.Sprintf("top_n must be at least 1, got %d", p.TopN)}
	}
	return nil
}
