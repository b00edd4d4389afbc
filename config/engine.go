// Package config 提供引擎配置（YAML 加载与校验）与配置驱动的 Node 注册表。
package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/rank"
)

// EngineConfig 是引擎的顶层配置，实现 core.RankConfig。
// 零值可用：未设置的字段回落到默认值。
type EngineConfig struct {
	// MaxResults 单次推荐返回的结果数上限
	MaxResults int `yaml:"max_results"`

	// Weights 各策略的融合权重，必须和为 1.0
	Weights map[string]float64 `yaml:"strategy_weights"`

	// Confidence 各策略的置信度先验
	Confidence map[string]float64 `yaml:"base_confidence"`

	// BoostLimit 上下文加成的总上限
	BoostLimit float64 `yaml:"boost_cap"`

	// BoostRules 表达式驱动的加成规则
	BoostRules []rank.BoostRule `yaml:"boost_rules"`

	Recall struct {
		TopKSimilarUsers int      `yaml:"top_k_similar_users"`
		TopKItems        int      `yaml:"top_k_items"`
		MinCommonItems   int      `yaml:"min_common_items"`
		Timeout          Duration `yaml:"timeout"`
	} `yaml:"recall"`

	Retrain struct {
		// Interval 定时重训周期，默认 5m
		Interval Duration `yaml:"interval"`
		// EventThreshold 单用户累计事件数达到该值即触发，默认 10
		EventThreshold int `yaml:"event_threshold"`
	} `yaml:"retrain"`

	Redis struct {
		Addr string `yaml:"addr"`
		DB   int    `yaml:"db"`
	} `yaml:"redis"`

	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`

	Feast struct {
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
		Project string `yaml:"project"`
	} `yaml:"feast"`
}

// Duration 是 time.Duration 的 YAML 包装，支持 "30s"、"5m" 这类写法。
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std 返回标准库的 time.Duration。
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load 从 YAML 文件加载引擎配置并校验。
func Load(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg EngineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置：显式给出的策略权重必须和为 1.0。
func (c *EngineConfig) Validate() error {
	if len(c.Weights) > 0 {
		var sum float64
		for strategy, w := range c.Weights {
			if w < 0 {
				return fmt.Errorf("strategy weight %s is negative: %v", strategy, w)
			}
			sum += w
		}
		if math.Abs(sum-1.0) > 1e-6 {
			return fmt.Errorf("strategy weights must sum to 1.0, got %v", sum)
		}
	}
	for strategy, conf := range c.Confidence {
		if conf < 0 || conf > 1 {
			return fmt.Errorf("base confidence %s out of [0,1]: %v", strategy, conf)
		}
	}
	if c.BoostLimit < 0 {
		return fmt.Errorf("boost cap must be non-negative: %v", c.BoostLimit)
	}
	if c.MaxResults < 0 {
		return fmt.Errorf("max results must be non-negative: %d", c.MaxResults)
	}
	return nil
}

// StrategyWeights 实现 core.RankConfig。
func (c *EngineConfig) StrategyWeights() map[string]float64 {
	if len(c.Weights) == 0 {
		return (&core.DefaultRankConfig{}).StrategyWeights()
	}
	return c.Weights
}

// BaseConfidence 实现 core.RankConfig。
func (c *EngineConfig) BaseConfidence() map[string]float64 {
	if len(c.Confidence) == 0 {
		return (&core.DefaultRankConfig{}).BaseConfidence()
	}
	return c.Confidence
}

// BoostCap 实现 core.RankConfig。
func (c *EngineConfig) BoostCap() float64 {
	if c.BoostLimit <= 0 {
		return (&core.DefaultRankConfig{}).BoostCap()
	}
	return c.BoostLimit
}

// RetrainInterval 定时重训周期（带默认值）。
func (c *EngineConfig) RetrainInterval() time.Duration {
	if c.Retrain.Interval <= 0 {
		return 5 * time.Minute
	}
	return c.Retrain.Interval.Std()
}

// RetrainEventThreshold 触发重训的单用户事件数（带默认值）。
func (c *EngineConfig) RetrainEventThreshold() int {
	if c.Retrain.EventThreshold <= 0 {
		return 10
	}
	return c.Retrain.EventThreshold
}

var _ core.RankConfig = (*EngineConfig)(nil)
