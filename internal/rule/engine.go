package rule

import (
	"sort"

	"github.com/sirupsen/logrus"

	"smartaiproxy/internal/config"
	"smartaiproxy/internal/logger"
)

// ContextEnricher 在评估单条规则前补充上下文，参数是规则的目标渠道名。
// 返回的键值覆盖基础上下文，典型用途是注入该渠道的当日用量与额度。
type ContextEnricher func(channelName string) map[string]interface{}

// Engine 规则引擎：按优先级评估规则并选出一个渠道
type Engine struct {
	evaluator Evaluator
	log       *logger.Logger
}

// NewEngine 创建规则引擎
func NewEngine(evaluator Evaluator, log *logger.Logger) *Engine {
	return &Engine{evaluator: evaluator, log: log}
}

// Select 评估规则并返回选中的渠道，无可用渠道时返回nil。
//
// 算法：规则按 Priority 升序稳定排序逐条评估；表达式求值出错按未命中处理
// 继续下一条；命中且目标渠道处于 active 状态则立即返回（先到先得）；
// 命中但目标不可用同样继续。全部未命中时回落到 Priority 值最小的 active
// 渠道（同值保持快照顺序）。
func (e *Engine) Select(rules []config.RuleConfig, channels []config.ChannelConfig, ctx map[string]interface{}, enrich ContextEnricher) *config.ChannelConfig {
	sorted := append([]config.RuleConfig(nil), rules...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	for _, r := range sorted {
		ruleCtx := ctx
		if enrich != nil {
			ruleCtx = make(map[string]interface{}, len(ctx)+2)
			for k, v := range ctx {
				ruleCtx[k] = v
			}
			for k, v := range enrich(r.Channel) {
				ruleCtx[k] = v
			}
		}

		matched, err := e.evaluator.Evaluate(r.Expression, ruleCtx)
		if err != nil {
			// 表达式写错不应导致请求失败，记日志后继续下一条规则
			if e.log != nil {
				e.log.Warn("Rule evaluation error, skipping", logrus.Fields{
					"rule":       r.Name,
					"expression": r.Expression,
					"error":      err.Error(),
				})
			}
			continue
		}
		if !matched {
			continue
		}

		if ch := findActiveChannel(channels, r.Channel); ch != nil {
			if e.log != nil {
				e.log.Debug("Rule matched", logrus.Fields{
					"rule":    r.Name,
					"channel": ch.Name,
				})
			}
			return ch
		}
		// 规则命中但目标渠道不可用，继续尝试后续规则
	}

	// 无规则命中：回落到优先级数值最小的 active 渠道
	var fallback *config.ChannelConfig
	for i := range channels {
		if channels[i].Status != config.StatusActive {
			continue
		}
		if fallback == nil || channels[i].Priority < fallback.Priority {
			fallback = &channels[i]
		}
	}

	if fallback != nil && e.log != nil {
		e.log.Debug("No rules matched, using default channel", logrus.Fields{
			"channel": fallback.Name,
		})
	}
	return fallback
}

func findActiveChannel(channels []config.ChannelConfig, name string) *config.ChannelConfig {
	for i := range channels {
		if channels[i].Name == name && channels[i].Status == config.StatusActive {
			return &channels[i]
		}
	}
	return nil
}
