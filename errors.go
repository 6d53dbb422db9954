package formsync

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formsync/pkg/store"
)

var (
	// ErrConfigNotFound reports an operation that requires a form config which
	// is absent from the store.
	ErrConfigNotFound = errors.New("formsync: form config not found")
	// ErrInputNotFound reports an input id missing from its form config.
	ErrInputNotFound = errors.New("formsync: input not found")
	// ErrDependencyCycle reports a dependency chain that revisits an input.
	ErrDependencyCycle = errors.New("formsync: dependency cycle")
	// ErrFormIDRequired reports a config or state without an id.
	ErrFormIDRequired = errors.New("formsync: form id is required")
	// ErrGlobalKeyRequired reports a global write without a key.
	ErrGlobalKeyRequired = errors.New("formsync: global key is required")
	// ErrNoEvaluator reports an expression with no evaluator to run it.
	ErrNoEvaluator = errors.New("formsync: evaluator not configured")
)

// StoreError wraps a failure reported by the underlying Value Store.
type StoreError struct {
	Op  string
	Ref store.Ref
	Err error
}

func (e *StoreError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("formsync: %s %s: %v", e.Op, e.Ref, e.Err)
}

func (e *StoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func storeError(op string, ref store.Ref, err error) error {
	if err == nil {
		return nil
	}
	var existing *StoreError
	if errors.As(err, &existing) {
		return err
	}
	return &StoreError{Op: op, Ref: ref, Err: err}
}

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine string
	Expr   string
	Form   string
	Input  string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("formsync: %s evaluator %s input=%s: %v", e.Engine, describeExpression(e.Expr), e.target(), e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *EvaluationError) target() string {
	switch {
	case e.Form == "" && e.Input == "":
		return "<unknown>"
	case e.Form == "":
		return e.Input
	default:
		return e.Form + "." + e.Input
	}
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "formsync:") {
		return err
	}
	return fmt.Errorf("formsync: %s evaluator: %w", engine, err)
}

// wrapEvaluationError attaches metadata to err, filling only the fields an
// existing EvaluationError left empty.
func wrapEvaluationError(engine, expr string, ctx RuleContext, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Form == "" {
			evalErr.Form = ctx.FormID
		}
		if evalErr.Input == "" {
			evalErr.Input = ctx.InputID
		}
		return evalErr
	}

	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Form:   ctx.FormID,
		Input:  ctx.InputID,
		Err:    err,
	}
}
