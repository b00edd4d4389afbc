// Package rank 实现融合排序与重排（多样性、新鲜度、截断）。
package rank

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
	"github.com/rushteam/feedkit/pkg/dsl"
	"github.com/rushteam/feedkit/pkg/utils"
)

// 固定的上下文加成增量。
const (
	boostPrimeTime = 0.10
	boostBored     = 0.15
	boostCurious   = 0.20
	boostMobile    = 0.05
)

// BoostRule 是一条 CEL 表达式驱动的加成规则：表达式命中则追加 Amount。
// 用于在不改代码的情况下做业务调优（节日倾斜、实验分层等）。
type BoostRule struct {
	Name   string  `yaml:"name"`
	Expr   string  `yaml:"expr"`
	Amount float64 `yaml:"amount"`
}

// FuseNode 是融合排序节点：把多路召回的候选融合成一个按分排序的列表。
//
// 对每个候选：
//
//	Score      = RawScore × 策略权重 + 上下文加成（固定增量 + 规则命中，总和封顶）
//	Confidence = 策略置信度先验 × 质量提示
//
// 本节点是纯函数：不修改画像，不保留调用间状态。
type FuseNode struct {
	Config core.RankConfig

	// Rules 可选的表达式加成规则
	Rules []BoostRule
}

func (n *FuseNode) Name() string        { return "rank.fuse" }
func (n *FuseNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *FuseNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	cands []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(cands) == 0 {
		return cands, nil
	}

	cfg := n.Config
	if cfg == nil {
		cfg = &core.DefaultRankConfig{}
	}
	weights := cfg.StrategyWeights()
	priors := cfg.BaseConfidence()
	boostCap := cfg.BoostCap()

	for _, c := range cands {
		if c == nil {
			continue
		}
		boost := n.contextualBoost(c, rctx, boostCap)
		c.Score = c.RawScore*weights[c.Strategy] + boost
		c.Confidence = priors[c.Strategy] * c.Quality
		if boost > 0 {
			c.PutLabel("boost", utils.Label{Value: "context", Source: "rank"})
		}
		c.PutLabel("reason", utils.Label{Value: reasonOf(c.Strategy), Source: "rank"})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})
	return cands, nil
}

// contextualBoost 计算上下文加成，增量相加并封顶。
func (n *FuseNode) contextualBoost(c *core.Candidate, rctx *core.RecommendContext, limit float64) float64 {
	if rctx == nil {
		return 0
	}
	var boost float64
	if rctx.PrimeTime() {
		boost += boostPrimeTime
	}
	if rctx.Mood == core.MoodBored {
		boost += boostBored
	}
	if rctx.Mood == core.MoodCurious {
		boost += boostCurious
	}
	if rctx.Device == core.DeviceMobile {
		boost += boostMobile
	}

	for _, rule := range n.Rules {
		ok, err := dsl.NewEval(c, rctx).Evaluate(rule.Expr)
		if err != nil {
			logrus.WithError(err).WithField("rule", rule.Name).Warn("加成规则求值失败，跳过")
			continue
		}
		if ok {
			boost += rule.Amount
		}
	}

	if boost > limit {
		boost = limit
	}
	return boost
}

// reasonOf 返回策略对应的推荐理由文案。
func reasonOf(strategy string) string {
	switch strategy {
	case core.StrategyCollaborative:
		return "similar users also liked this"
	case core.StrategyContent:
		return "matches your interests"
	case core.StrategyKnowledge:
		return "related to topics you follow"
	case core.StrategyContextual:
		return "fits this moment"
	case core.StrategyTrending:
		return "trending now"
	default:
		return strategy
	}
}

var _ pipeline.Node = (*FuseNode)(nil)
