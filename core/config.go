package core

import "time"

// 策略名常量（召回源 / 融合权重 / 置信度先验共用）。
const (
	StrategyCollaborative = "collaborative"
	StrategyContent       = "content"
	StrategyKnowledge     = "knowledge"
	StrategyContextual    = "contextual"
	StrategyTrending      = "trending"
)

// RankConfig 是融合排序的配置接口，用于提供默认值。
// 具体实现见 config.EngineConfig（支持 YAML 加载与校验）。
type RankConfig interface {
	// StrategyWeights 返回各策略的融合权重，和为 1.0。
	StrategyWeights() map[string]float64

	// BaseConfidence 返回各策略的置信度先验。
	BaseConfidence() map[string]float64

	// BoostCap 返回上下文加成的总上限。
	BoostCap() float64
}

// DefaultRankConfig 是默认的融合排序配置实现。
// 默认权重与加成值是经验取值，应视为可调参数而非固定契约。
type DefaultRankConfig struct{}

// StrategyWeights 四个个性化策略分摊全部权重。trending 刻意不占权重：
// 它是冷启动兜底，融合分只来自上下文加成，候选依赖稳定排序保留召回
// 阶段的热度次序，不与个性化源争位。
func (c *DefaultRankConfig) StrategyWeights() map[string]float64 {
	return map[string]float64{
		StrategyCollaborative: 0.3,
		StrategyContent:       0.25,
		StrategyKnowledge:     0.25,
		StrategyContextual:    0.2,
	}
}

func (c *DefaultRankConfig) BaseConfidence() map[string]float64 {
	return map[string]float64{
		StrategyKnowledge:     0.90,
		StrategyContextual:    0.95,
		StrategyCollaborative: 0.85,
		StrategyContent:       0.75,
		StrategyTrending:      0.60,
	}
}

func (c *DefaultRankConfig) BoostCap() float64 { return 0.5 }

// RecallDefaults 是召回相关的默认参数。
type RecallDefaults struct{}

// DefaultTopKSimilarUsers 协同召回考虑的相似用户数。
func (RecallDefaults) DefaultTopKSimilarUsers() int { return 20 }

// DefaultTopKItems 每个召回源返回的候选数。
func (RecallDefaults) DefaultTopKItems() int { return 20 }

// DefaultMinCommonItems 计算相似度所需的最少共同评分物品数。
func (RecallDefaults) DefaultMinCommonItems() int { return 2 }

// DefaultTimeout 单个召回源的默认超时。
func (RecallDefaults) DefaultTimeout() time.Duration { return 2 * time.Second }
