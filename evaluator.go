package formsync

import (
	"fmt"
	"sync"
	"time"
)

// RuleContext carries the inputs visible to an option or enablement
// expression.
type RuleContext struct {
	FormID  string
	InputID string
	// State is the resolved state of the owning form.
	State map[string]any
	// Deps holds the resolved dependency values of the input.
	Deps map[string]any
	Args map[string]any
	Now  *time.Time
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.State == nil {
		ctx.State = map[string]any{}
	}
	if ctx.Deps == nil {
		ctx.Deps = map[string]any{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	if ctx.Now == nil {
		return time.Now()
	}
	return *ctx.Now
}

// bindings returns the variables shared by every evaluator. State keys are
// also exposed at the top level unless they collide with a reserved name.
func (ctx RuleContext) bindings() map[string]any {
	env := map[string]any{
		"state": ctx.State,
		"deps":  ctx.Deps,
		"form":  ctx.FormID,
		"input": ctx.InputID,
		"args":  ctx.Args,
		"now":   ctx.timestamp(),
	}
	for key, value := range ctx.State {
		if _, reserved := env[key]; reserved {
			continue
		}
		env[key] = value
	}
	return env
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MapProgramCache is an unbounded ProgramCache safe for concurrent use. Form
// configs carry a small, fixed set of expressions so eviction is not needed.
type MapProgramCache struct {
	programs sync.Map
}

// NewProgramCache returns an empty MapProgramCache.
func NewProgramCache() *MapProgramCache {
	return &MapProgramCache{}
}

func (c *MapProgramCache) Get(key string) (any, bool) {
	return c.programs.Load(key)
}

func (c *MapProgramCache) Set(key string, value any) {
	c.programs.Store(key, value)
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*formsync.exprEvaluator":
		return "expr"
	case "*formsync.celEvaluator":
		return "cel"
	case "*formsync.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
