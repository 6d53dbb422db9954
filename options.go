package formsync

import (
	"github.com/goliatone/go-formsync/pkg/activity"
)

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	logger         Logger
	evaluator      Evaluator
	programCache   ProgramCache
	functions      *FunctionRegistry
	activityHooks  activity.Hooks
	activityConfig activity.Config
	activitySet    bool
	transitive     bool
}

func applyOptions(opts []Option) engineConfig {
	cfg := engineConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = noopLogger{}
	}
	if cfg.functions == nil {
		cfg.functions = NewFunctionRegistry()
	}
	if !cfg.activitySet {
		cfg.activityConfig = activity.Config{Enabled: len(cfg.activityHooks) > 0}
	}
	return cfg
}

// resolveEvaluator returns the configured evaluator or builds the default expr
// evaluator wired to the program cache and function registry.
func (cfg engineConfig) resolveEvaluator() Evaluator {
	if cfg.evaluator != nil {
		return cfg.evaluator
	}
	exprOpts := []ExprEvaluatorOption{ExprWithFunctionRegistry(cfg.functions)}
	if cfg.programCache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cfg.programCache))
	}
	return NewExprEvaluator(exprOpts...)
}

// WithLogger attaches a logger. Nil restores the no-op logger.
func WithLogger(logger Logger) Option {
	return func(cfg *engineConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithEvaluator replaces the default expr evaluator used for OptionsExpr and
// EnabledWhen.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *engineConfig) {
		cfg.evaluator = e
	}
}

// WithProgramCache registers a program cache on the default evaluator.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *engineConfig) {
		cfg.programCache = cache
	}
}

// WithFunctionRegistry configures the registry used for OptionsFunction
// lookups and expression helpers.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *engineConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *engineConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

// WithActivityHooks attaches activity hooks. Emission is enabled unless
// WithActivityConfig says otherwise.
func WithActivityHooks(hooks activity.Hooks) Option {
	return func(cfg *engineConfig) {
		cfg.activityHooks = append(activity.Hooks(nil), hooks...)
	}
}

// WithActivityConfig overrides the activity emitter configuration.
func WithActivityConfig(config activity.Config) Option {
	return func(cfg *engineConfig) {
		cfg.activityConfig = config
		cfg.activitySet = true
	}
}

// WithTransitiveEnablement disables an input whenever one of its dependency
// inputs is itself disabled. Resolution then walks dependency chains across
// forms and reports ErrDependencyCycle on loops.
func WithTransitiveEnablement(enabled bool) Option {
	return func(cfg *engineConfig) {
		cfg.transitive = enabled
	}
}
