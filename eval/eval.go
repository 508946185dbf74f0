/*
Package eval provides a sandboxed evaluator for template formulas.

PURPOSE:
  Template and BOM quantity formulas are authored as small arithmetic
  expressions ("CEIL(HEIGHT / 280)", "WIDTH * DEPTH * 0.02") that must be
  evaluated against a caller-supplied set of named variables. The original
  formula dialect is a subset of infix arithmetic with a Math.* function
  library, so authored formulas evaluate unchanged.

SECURITY MODEL:
  The capability surface is closed by construction, not by a denylist:
  formulas are tokenized and parsed into a tagged expression tree (literal,
  variable, binaryOp, unaryOp, ternary, call) and interpreted against the
  supplied environment plus a fixed function library. There is no dynamic
  code generation, no loops, no user-defined functions, and no way to name
  anything outside the environment and the whitelist. A call to any
  function not in the library fails at compile time.

FUNCTION LIBRARY:
  ceil, floor, round, abs, sqrt  (1 argument)
  pow                            (2 arguments)
  max, min                       (1+ arguments)
  PI                             (constant)

  Both bare names (ceil(x)) and Math-qualified names (Math.ceil(x),
  Math.PI) are accepted.

DETERMINISM:
  Evaluating the same expression against the same environment always
  yields the same value. No randomness, no clock access, no I/O.

USAGE:
  expr, err := eval.Compile("Math.ceil(HEIGHT / 280)")
  if err != nil { ... }
  result, err := expr.Evaluate(eval.Environment{
      "HEIGHT": eval.Number(2500),
  })
  // result == 9

SEE ALSO:
  - lexer.go: Tokenization
  - parser.go: Recursive-descent parser producing the expression tree
  - costing/materialize.go: Primary caller (BOM quantity formulas)
*/
package eval

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrEvaluation is the sentinel wrapped by every EvaluationError.
var ErrEvaluation = errors.New("expression evaluation failed")

// EvaluationError identifies the offending expression and position.
// Raised for banned constructs, unknown functions, undefined variables,
// type mismatches, and non-numeric results.
type EvaluationError struct {
	Source  string // The full expression text
	Pos     int    // Byte offset of the offending token
	Message string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("cannot evaluate %q: %s (at offset %d)", e.Source, e.Message, e.Pos)
}

func (e *EvaluationError) Unwrap() error { return ErrEvaluation }

func evalErr(source string, pos int, format string, args ...any) error {
	return &EvaluationError{Source: source, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// =============================================================================
// VALUES AND ENVIRONMENT
// =============================================================================

// Kind tags the runtime type of a Value.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindBool
)

// Value is a formula runtime value: a number, a string, or a boolean.
// Strings and booleans exist only as intermediates (comparisons, ternary
// conditions); the final result of an expression must be numeric.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Bool bool
}

func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }
func String(s string) Value  { return Value{Kind: KindString, Str: s} }
func Boolean(b bool) Value   { return Value{Kind: KindBool, Bool: b} }

func (v Value) kindName() string {
	switch v.Kind {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "boolean"
	}
}

// truthy follows the formula dialect: 0, "" and false are falsy.
func (v Value) truthy() bool {
	switch v.Kind {
	case KindNumber:
		return v.Num != 0
	case KindString:
		return v.Str != ""
	default:
		return v.Bool
	}
}

// Environment maps free variable names to values.
type Environment map[string]Value

// NewEnvironment builds an Environment from loosely-typed caller input
// (JSON request parameters decode to float64, string, bool).
func NewEnvironment(params map[string]any) (Environment, error) {
	env := make(Environment, len(params))
	for name, raw := range params {
		switch v := raw.(type) {
		case float64:
			env[name] = Number(v)
		case int:
			env[name] = Number(float64(v))
		case int64:
			env[name] = Number(float64(v))
		case string:
			env[name] = String(v)
		case bool:
			env[name] = Boolean(v)
		default:
			return nil, fmt.Errorf("parameter %q has unsupported type %T", name, raw)
		}
	}
	return env, nil
}

// =============================================================================
// EXPRESSION - Compiled, immutable formula
// =============================================================================

// Expression is a compiled formula: the source text, the parsed tree, and
// the set of free variable names it references. Immutable after Compile.
type Expression struct {
	source string
	root   node
	vars   []string // sorted, unique
}

// Compile tokenizes and parses source into an Expression. Any construct
// outside the whitelisted grammar, including calls to unknown functions,
// fails here with an EvaluationError.
func Compile(source string) (*Expression, error) {
	tokens, err := lex(source)
	if err != nil {
		return nil, err
	}
	p := &parser{source: source, tokens: tokens}
	root, err := p.parse()
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	collectVars(root, seen)
	vars := make([]string, 0, len(seen))
	for name := range seen {
		vars = append(vars, name)
	}
	sort.Strings(vars)

	return &Expression{source: source, root: root, vars: vars}, nil
}

// Source returns the original expression text.
func (e *Expression) Source() string { return e.source }

// InputParameters returns the sorted set of free variable names.
func (e *Expression) InputParameters() []string {
	out := make([]string, len(e.vars))
	copy(out, e.vars)
	return out
}

// Evaluate interprets the expression against env. The result must be a
// finite number; a string or boolean result, an undefined variable, or a
// NaN/Inf outcome is an EvaluationError.
func (e *Expression) Evaluate(env Environment) (float64, error) {
	v, err := e.root.eval(e, env)
	if err != nil {
		return 0, err
	}
	if v.Kind != KindNumber {
		return 0, evalErr(e.source, 0, "result is %s, not a number", v.kindName())
	}
	if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
		return 0, evalErr(e.source, 0, "result is not a finite number")
	}
	return v.Num, nil
}

// Evaluate is the package-level convenience: compile and evaluate in one
// call. Used when the expression is evaluated once and discarded.
func Evaluate(source string, env Environment) (float64, error) {
	expr, err := Compile(source)
	if err != nil {
		return 0, err
	}
	return expr.Evaluate(env)
}

// =============================================================================
// EXPRESSION TREE - Tagged nodes, interpreted directly
// =============================================================================

type node interface {
	eval(e *Expression, env Environment) (Value, error)
}

type literalNode struct {
	value Value
}

func (n *literalNode) eval(*Expression, Environment) (Value, error) {
	return n.value, nil
}

type variableNode struct {
	name string
	pos  int
}

func (n *variableNode) eval(e *Expression, env Environment) (Value, error) {
	v, ok := env[n.name]
	if !ok {
		return Value{}, evalErr(e.source, n.pos, "undefined variable %q", n.name)
	}
	return v, nil
}

type unaryNode struct {
	op      string
	operand node
	pos     int
}

func (n *unaryNode) eval(e *Expression, env Environment) (Value, error) {
	v, err := n.operand.eval(e, env)
	if err != nil {
		return Value{}, err
	}
	switch n.op {
	case "-":
		if v.Kind != KindNumber {
			return Value{}, evalErr(e.source, n.pos, "unary minus on %s", v.kindName())
		}
		return Number(-v.Num), nil
	case "+":
		if v.Kind != KindNumber {
			return Value{}, evalErr(e.source, n.pos, "unary plus on %s", v.kindName())
		}
		return v, nil
	case "!":
		return Boolean(!v.truthy()), nil
	}
	return Value{}, evalErr(e.source, n.pos, "unknown unary operator %q", n.op)
}

type binaryNode struct {
	op          string
	left, right node
	pos         int
}

func (n *binaryNode) eval(e *Expression, env Environment) (Value, error) {
	// Logical operators short-circuit and never evaluate the unused side.
	switch n.op {
	case "&&":
		l, err := n.left.eval(e, env)
		if err != nil {
			return Value{}, err
		}
		if !l.truthy() {
			return Boolean(false), nil
		}
		r, err := n.right.eval(e, env)
		if err != nil {
			return Value{}, err
		}
		return Boolean(r.truthy()), nil
	case "||":
		l, err := n.left.eval(e, env)
		if err != nil {
			return Value{}, err
		}
		if l.truthy() {
			return Boolean(true), nil
		}
		r, err := n.right.eval(e, env)
		if err != nil {
			return Value{}, err
		}
		return Boolean(r.truthy()), nil
	}

	l, err := n.left.eval(e, env)
	if err != nil {
		return Value{}, err
	}
	r, err := n.right.eval(e, env)
	if err != nil {
		return Value{}, err
	}

	switch n.op {
	case "==":
		return Boolean(valuesEqual(l, r)), nil
	case "!=":
		return Boolean(!valuesEqual(l, r)), nil
	}

	if l.Kind != KindNumber || r.Kind != KindNumber {
		return Value{}, evalErr(e.source, n.pos, "operator %q requires numbers, got %s and %s",
			n.op, l.kindName(), r.kindName())
	}

	switch n.op {
	case "+":
		return Number(l.Num + r.Num), nil
	case "-":
		return Number(l.Num - r.Num), nil
	case "*":
		return Number(l.Num * r.Num), nil
	case "/":
		if r.Num == 0 {
			return Value{}, evalErr(e.source, n.pos, "division by zero")
		}
		return Number(l.Num / r.Num), nil
	case "%":
		if r.Num == 0 {
			return Value{}, evalErr(e.source, n.pos, "division by zero")
		}
		return Number(math.Mod(l.Num, r.Num)), nil
	case "<":
		return Boolean(l.Num < r.Num), nil
	case "<=":
		return Boolean(l.Num <= r.Num), nil
	case ">":
		return Boolean(l.Num > r.Num), nil
	case ">=":
		return Boolean(l.Num >= r.Num), nil
	}
	return Value{}, evalErr(e.source, n.pos, "unknown operator %q", n.op)
}

func valuesEqual(l, r Value) bool {
	if l.Kind != r.Kind {
		return false
	}
	switch l.Kind {
	case KindNumber:
		return l.Num == r.Num
	case KindString:
		return l.Str == r.Str
	default:
		return l.Bool == r.Bool
	}
}

type ternaryNode struct {
	cond, then, otherwise node
}

func (n *ternaryNode) eval(e *Expression, env Environment) (Value, error) {
	c, err := n.cond.eval(e, env)
	if err != nil {
		return Value{}, err
	}
	if c.truthy() {
		return n.then.eval(e, env)
	}
	return n.otherwise.eval(e, env)
}

type callNode struct {
	name string
	args []node
	pos  int
}

func (n *callNode) eval(e *Expression, env Environment) (Value, error) {
	args := make([]float64, len(n.args))
	for i, argNode := range n.args {
		v, err := argNode.eval(e, env)
		if err != nil {
			return Value{}, err
		}
		if v.Kind != KindNumber {
			return Value{}, evalErr(e.source, n.pos, "%s: argument %d is %s, not a number",
				n.name, i+1, v.kindName())
		}
		args[i] = v.Num
	}
	result, err := callFunction(n.name, args)
	if err != nil {
		return Value{}, evalErr(e.source, n.pos, "%s", err)
	}
	return Number(result), nil
}

// =============================================================================
// FUNCTION LIBRARY - The complete callable surface
// =============================================================================

func callFunction(name string, args []float64) (float64, error) {
	switch name {
	case "ceil", "floor", "round", "abs", "sqrt":
		if len(args) != 1 {
			return 0, fmt.Errorf("%s expects 1 argument, got %d", name, len(args))
		}
		switch name {
		case "ceil":
			return math.Ceil(args[0]), nil
		case "floor":
			return math.Floor(args[0]), nil
		case "round":
			return math.Round(args[0]), nil
		case "abs":
			return math.Abs(args[0]), nil
		default: // sqrt
			if args[0] < 0 {
				return 0, fmt.Errorf("sqrt of negative number %v", args[0])
			}
			return math.Sqrt(args[0]), nil
		}
	case "pow":
		if len(args) != 2 {
			return 0, fmt.Errorf("pow expects 2 arguments, got %d", len(args))
		}
		return math.Pow(args[0], args[1]), nil
	case "max", "min":
		if len(args) == 0 {
			return 0, fmt.Errorf("%s expects at least 1 argument", name)
		}
		result := args[0]
		for _, a := range args[1:] {
			if name == "max" && a > result {
				result = a
			}
			if name == "min" && a < result {
				result = a
			}
		}
		return result, nil
	}
	return 0, fmt.Errorf("unknown function %q", name)
}

// isFunction reports whether name is in the callable whitelist.
func isFunction(name string) bool {
	switch name {
	case "ceil", "floor", "round", "abs", "sqrt", "pow", "max", "min":
		return true
	}
	return false
}

// isConstant reports whether name is a library constant.
func isConstant(name string) (float64, bool) {
	if name == "PI" {
		return math.Pi, true
	}
	return 0, false
}

func collectVars(n node, out map[string]bool) {
	switch v := n.(type) {
	case *variableNode:
		out[v.name] = true
	case *unaryNode:
		collectVars(v.operand, out)
	case *binaryNode:
		collectVars(v.left, out)
		collectVars(v.right, out)
	case *ternaryNode:
		collectVars(v.cond, out)
		collectVars(v.then, out)
		collectVars(v.otherwise, out)
	case *callNode:
		for _, arg := range v.args {
			collectVars(arg, out)
		}
	}
}
