/*
errors.go - Centralized error taxonomy for the costing engine

PURPOSE:
  All engine error kinds in one place. The funds package and the API layer
  classify errors through these sentinels, so every failure maps cleanly
  to an HTTP status without string matching.

ERROR KINDS:
  1. Evaluation errors  - raised by the eval package (banned construct,
                          undefined variable); classified client errors here
  2. CyclicFormulaError - no valid evaluation order for a template's formulas
  3. ValidationError    - non-positive effective quantity, negative amounts,
                          NaN in a final cost figure
  4. NotFoundError      - referenced resource/category/item absent

PROPAGATION POLICY:
  Errors surface synchronously and before any part of a result is
  returned. Nothing is retried; nothing is partially written.

USAGE:
  if costing.IsClientError(err) { ... } // 4xx
  if costing.IsNotFound(err)    { ... } // 404

SEE ALSO:
  - eval/eval.go: EvaluationError
  - api/handlers.go: HTTP status mapping
*/
package costing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/warp/costing-engine/eval"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrCyclicFormula is returned when a template's formula dependency
	// graph has no valid evaluation order.
	ErrCyclicFormula = errors.New("cyclic formula dependency")

	// ErrValidation is returned for inputs with no meaningful cost
	// decomposition: non-positive effective quantities, negative amounts,
	// or a non-finite value surfacing in a final cost figure.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced resource, category, or
	// item is absent from the supplied graph.
	ErrNotFound = errors.New("not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// CyclicFormulaError names the components left unresolvable after every
// evaluable formula has been ordered.
type CyclicFormulaError struct {
	DefinitionID string
	Components   []string // outputs/resource IDs participating in the cycle
}

func (e *CyclicFormulaError) Error() string {
	return fmt.Sprintf("definition %s: no valid formula evaluation order (cycle through %s)",
		e.DefinitionID, strings.Join(e.Components, ", "))
}

func (e *CyclicFormulaError) Unwrap() error { return ErrCyclicFormula }

// ValidationError identifies the field that made the computation
// meaningless. Raised before any mutation is applied.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError identifies the missing object.
type NotFoundError struct {
	Kind string // "resource", "category", "item", "line item", ...
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// and should surface as a 4xx-equivalent.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrCyclicFormula) ||
		errors.Is(err, eval.ErrEvaluation)
}

// IsNotFound returns true if the error indicates a missing object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
