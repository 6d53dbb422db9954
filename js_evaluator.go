//go:build js_eval

package formsync

import (
	"fmt"
	"time"

	"github.com/dop251/goja"
)

type jsEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
	timeout  time.Duration
}

// NewJSEvaluator constructs an Evaluator backed by goja.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	cfg := applyJSEvaluatorOptions(opts)
	return &jsEvaluator{
		cache:    cfg.cache,
		registry: cfg.registry,
		timeout:  cfg.timeout,
	}
}

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("js", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, wrapEvaluationError("js", expression, ctx, err)
	}
	return e.run(ctx, expression, program)
}

func (e *jsEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("js", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, wrapEvaluationError("js", expression, RuleContext{}, err)
	}
	return &jsCompiledRule{evaluator: e, expression: expression, program: program}, nil
}

func (e *jsEvaluator) loadOrCompile(expression string) (*goja.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", wrapExpression(expression), false)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

// run uses a fresh runtime per call; goja runtimes are not safe for
// concurrent use.
func (e *jsEvaluator) run(ctx RuleContext, expression string, program *goja.Program) (any, error) {
	ctx = ctx.withDefaults()
	vm := goja.New()
	if e.timeout > 0 {
		timer := time.AfterFunc(e.timeout, func() {
			vm.Interrupt(fmt.Sprintf("evaluation exceeded %s", e.timeout))
		})
		defer timer.Stop()
	}
	if err := e.injectContext(vm, ctx); err != nil {
		return nil, wrapEvaluationError("js", expression, ctx, err)
	}
	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, wrapEvaluationError("js", expression, ctx, err)
	}
	return value.Export(), nil
}

func (e *jsEvaluator) injectContext(vm *goja.Runtime, ctx RuleContext) error {
	for key, value := range ctx.bindings() {
		if err := vm.Set(key, value); err != nil {
			return err
		}
	}
	if e.registry == nil {
		return nil
	}
	if err := vm.Set("call", func(name string, arguments ...any) (any, error) {
		return e.registry.Call(name, arguments...)
	}); err != nil {
		return err
	}
	for _, name := range e.registry.Names() {
		fn := name
		if err := vm.Set(fn, func(arguments ...any) (any, error) {
			return e.registry.Call(fn, arguments...)
		}); err != nil {
			return err
		}
	}
	return nil
}

func wrapExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

type jsCompiledRule struct {
	evaluator  *jsEvaluator
	expression string
	program    *goja.Program
}

func (r *jsCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, wrapEvaluatorError("js", fmt.Errorf("compiled rule missing evaluator"))
	}
	return r.evaluator.run(ctx, r.expression, r.program)
}

func jsEvaluatorAvailable() bool {
	return true
}
