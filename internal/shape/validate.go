package shape

import (
	"fmt"
	"strings"
)

// Candidate is a JSON object that passed the full-record predicate. It is
// still untyped; queue.FromCandidate builds the canonical record from it.
type Candidate struct {
	Fields map[string]any
}

// Field returns the raw value for key and whether it was present.
func (c Candidate) Field(key string) (any, bool) {
	value, ok := c.Fields[key]
	return value, ok
}

// ShapeError describes why a value failed the full-record predicate.
type ShapeError struct {
	NotObject bool
	Missing   []string
}

func (e *ShapeError) Error() string {
	if e.NotObject {
		return "shape mismatch: candidate is not a JSON object"
	}
	return fmt.Sprintf("shape mismatch: missing %s", strings.Join(e.Missing, ", "))
}

// ErrorKind classifies the error for logging.
func (e *ShapeError) ErrorKind() string { return "shape_mismatch" }

// Validate applies the full-record predicate to a single element. The ticket
// must be present on the entry itself (any value, including null); queue and
// itemId must be truthy; state must be present.
func Validate(value any) (Candidate, error) {
	obj, ok := value.(map[string]any)
	if !ok || obj == nil {
		return Candidate{}, &ShapeError{NotObject: true}
	}

	var missing []string
	if _, ok := obj[KeyTicket]; !ok {
		missing = append(missing, KeyTicket)
	}
	if !truthy(obj[KeyQueue]) {
		missing = append(missing, KeyQueue)
	}
	if _, ok := obj[KeyState]; !ok {
		missing = append(missing, KeyState)
	}
	if !truthy(obj[KeyItemID]) {
		missing = append(missing, KeyItemID)
	}
	if len(missing) > 0 {
		return Candidate{}, &ShapeError{Missing: missing}
	}
	return Candidate{Fields: obj}, nil
}
