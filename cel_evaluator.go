package formsync

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry exposes registry functions through
// `call("name", [args...])`.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

// celEvaluator runs expressions with cel-go. CEL is type checked, so only the
// fixed bindings (state, deps, form, input, args, now) are declared; state keys
// are reached through `state.<input>`.
type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx, err)
	}
	return e.run(ctx, expression, program)
}

func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, RuleContext{}, err)
	}
	return &celCompiledRule{evaluator: e, program: program, expression: expression}, nil
}

func (e *celEvaluator) loadOrCompile(expression string) (celgo.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

func (e *celEvaluator) buildEnv() (*celgo.Env, error) {
	dynMap := celgo.MapType(celgo.StringType, celgo.DynType)
	opts := []celgo.EnvOption{
		celgo.Variable("state", dynMap),
		celgo.Variable("deps", dynMap),
		celgo.Variable("args", dynMap),
		celgo.Variable("form", celgo.StringType),
		celgo.Variable("input", celgo.StringType),
		celgo.Variable("now", celgo.TimestampType),
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string_list",
				[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
				celgo.DynType,
				celgo.BinaryBinding(e.callBinding),
			),
		))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) run(ctx RuleContext, expression string, program celgo.Program) (any, error) {
	ctx = ctx.withDefaults()
	activation := map[string]any{
		"state": ctx.State,
		"deps":  ctx.Deps,
		"args":  ctx.Args,
		"form":  ctx.FormID,
		"input": ctx.InputID,
		"now":   ctx.timestamp(),
	}
	out, _, err := program.Eval(activation)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx, err)
	}
	return celToNative(out), nil
}

func (e *celEvaluator) callBinding(name, arguments ref.Val) ref.Val {
	fn, ok := name.Value().(string)
	if !ok {
		return types.NewErr("formsync: call name must be string")
	}
	args, _ := celToNative(arguments).([]any)
	result, err := e.registry.Call(fn, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	program    celgo.Program
	expression string
}

func (r *celCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("compiled rule missing evaluator"))
	}
	return r.evaluator.run(ctx, r.expression, r.program)
}

// celToNative unwraps CEL lists and maps into []any and map[string]any so
// results look the same as the other evaluators'.
func celToNative(value ref.Val) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case types.Null:
		return nil
	case traits.Lister:
		size, _ := typed.Size().(types.Int)
		out := make([]any, 0, int(size))
		for i := types.Int(0); i < size; i++ {
			out = append(out, celToNative(typed.Get(i)))
		}
		return out
	case traits.Mapper:
		out := map[string]any{}
		it := typed.Iterator()
		for it.HasNext() == types.True {
			key := it.Next()
			out[fmt.Sprint(key.Value())] = celToNative(typed.Get(key))
		}
		return out
	default:
		return value.Value()
	}
}
