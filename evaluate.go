package formsync

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ruleRunner executes option and enablement expressions with the configured
// evaluator, logging every evaluation.
type ruleRunner struct {
	evaluator Evaluator
	logger    Logger
}

func (r ruleRunner) run(ctx context.Context, rule RuleContext, expr string) (any, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("formsync: expression must not be empty")
	}
	if r.evaluator == nil {
		return nil, ErrNoEvaluator
	}
	rule = rule.withDefaults()
	engine := evaluatorEngineName(r.evaluator)
	start := time.Now()
	value, err := r.evaluator.Evaluate(rule, expr)
	duration := time.Since(start)
	err = wrapEvaluationError(engine, expr, rule, err)
	r.logger.Log(ctx, LogEvent{
		Op:       "evaluate",
		FormID:   rule.FormID,
		InputID:  rule.InputID,
		Engine:   engine,
		Expr:     expr,
		Duration: duration,
		Err:      err,
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// runBool evaluates expr and requires a boolean result.
func (r ruleRunner) runBool(ctx context.Context, rule RuleContext, expr string) (bool, error) {
	value, err := r.run(ctx, rule, expr)
	if err != nil {
		return false, err
	}
	result, ok := value.(bool)
	if !ok {
		return false, wrapEvaluationError(evaluatorEngineName(r.evaluator), expr, rule,
			fmt.Errorf("expression returned %T, want bool", value))
	}
	return result, nil
}
