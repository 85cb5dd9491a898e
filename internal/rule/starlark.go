package rule

import (
	"context"
	"fmt"
	"time"

	"go.starlark.net/starlark"
)

const defaultStarlarkTimeout = 1 * time.Second

// StarlarkEvaluator 把规则表达式当作单个Starlark表达式求值，
// 上下文变量作为预定义环境注入。表达式可以使用 and/or/not 组合条件。
type StarlarkEvaluator struct {
	timeout time.Duration
}

// NewStarlarkEvaluator 创建Starlark表达式求值器
func NewStarlarkEvaluator(timeout time.Duration) *StarlarkEvaluator {
	if timeout <= 0 {
		timeout = defaultStarlarkTimeout
	}
	return &StarlarkEvaluator{timeout: timeout}
}

// Evaluate 在超时保护下求值表达式
func (e *StarlarkEvaluator) Evaluate(expression string, ctx map[string]interface{}) (bool, error) {
	evalCtx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	env, err := toStarlarkEnv(ctx)
	if err != nil {
		return false, err
	}

	thread := &starlark.Thread{Name: "rule"}
	done := make(chan error, 1)
	var result bool

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("starlark evaluation panic: %v", r)
			}
		}()

		value, err := starlark.Eval(thread, "rule.star", expression, env)
		if err != nil {
			done <- fmt.Errorf("starlark evaluation error: %v", err)
			return
		}

		boolValue, ok := value.(starlark.Bool)
		if !ok {
			done <- fmt.Errorf("expression must evaluate to a boolean, got %s", value.Type())
			return
		}
		result = bool(boolValue)
		done <- nil
	}()

	select {
	case err := <-done:
		return result, err
	case <-evalCtx.Done():
		thread.Cancel("timeout")
		return false, fmt.Errorf("starlark evaluation timeout after %v", e.timeout)
	}
}

// toStarlarkEnv 把上下文转换为Starlark预定义环境
func toStarlarkEnv(ctx map[string]interface{}) (starlark.StringDict, error) {
	env := make(starlark.StringDict, len(ctx))
	for name, value := range ctx {
		sv, err := toStarlarkValue(value)
		if err != nil {
			return nil, fmt.Errorf("context variable %s: %v", name, err)
		}
		env[name] = sv
	}
	return env, nil
}

func toStarlarkValue(value interface{}) (starlark.Value, error) {
	switch v := value.(type) {
	case nil:
		return starlark.None, nil
	case bool:
		return starlark.Bool(v), nil
	case string:
		return starlark.String(v), nil
	case int:
		return starlark.MakeInt(v), nil
	case int64:
		return starlark.MakeInt64(v), nil
	case float64:
		return starlark.Float(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", value)
	}
}
