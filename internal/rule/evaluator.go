// Package rule 实现基于表达式的路由规则引擎。
// 引擎只依赖 Evaluator 抽象，表达式语言实现可替换。
package rule

import (
	"errors"
	"fmt"

	"github.com/Knetic/govaluate"
)

// Evaluator 布尔表达式求值能力抽象
type Evaluator interface {
	// Evaluate 在给定上下文里求值表达式。结果不是布尔值时返回错误。
	Evaluate(expression string, context map[string]interface{}) (bool, error)
}

// GovaluateEvaluator 基于 govaluate 的默认表达式实现，
// 支持数值比较、字符串比较（单引号字面量）与 && / || 组合。
type GovaluateEvaluator struct{}

// NewGovaluateEvaluator 创建默认表达式求值器
func NewGovaluateEvaluator() *GovaluateEvaluator {
	return &GovaluateEvaluator{}
}

// Evaluate 求值表达式
func (e *GovaluateEvaluator) Evaluate(expression string, context map[string]interface{}) (bool, error) {
	expr, err := govaluate.NewEvaluableExpression(expression)
	if err != nil {
		return false, fmt.Errorf("failed to parse expression: %v", err)
	}

	result, err := expr.Evaluate(context)
	if err != nil {
		return false, err
	}

	boolResult, ok := result.(bool)
	if !ok {
		return false, errors.New("expression did not evaluate to a boolean")
	}
	return boolResult, nil
}

// NewEvaluator 按配置名选择求值器实现，未知名称回落到 govaluate
func NewEvaluator(name string) Evaluator {
	switch name {
	case "starlark":
		return NewStarlarkEvaluator(defaultStarlarkTimeout)
	default:
		return NewGovaluateEvaluator()
	}
}
