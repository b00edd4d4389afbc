package core

import (
	"time"

	"github.com/rushteam/feedkit/pkg/utils"
)

// ItemFeatures 是内容目录提供的物品元数据。
// 引擎只读（目录协作方维护），唯一例外是派生的 popularity 计数。
type ItemFeatures struct {
	ItemID          string
	Category        string
	Tags            []string
	DurationSeconds int
	QualityTier     int // 1(低) ~ 4(高)
	Embedding       []float64
	PublishedAt     time.Time
}

// NewStubItem 返回未知物品的占位特征（目录缺失时的兜底）。
// 未知 itemID 不允许阻塞链路：目录查询永不失败，只降级。
func NewStubItem(itemID string) *ItemFeatures {
	return &ItemFeatures{
		ItemID:      itemID,
		Category:    "unknown",
		QualityTier: 1,
		Embedding:   make([]float64, EmbeddingDim),
		PublishedAt: time.Now(),
	}
}

// Clone 返回深拷贝（Tags、Embedding 均独立）。
// 目录按 copy-on-read 发放特征快照，读写两侧互不可见。
func (f *ItemFeatures) Clone() *ItemFeatures {
	if f == nil {
		return nil
	}
	clone := *f
	clone.Tags = append([]string(nil), f.Tags...)
	clone.Embedding = append([]float64(nil), f.Embedding...)
	return &clone
}

// HasTag 判断物品是否携带某个标签。
func (f *ItemFeatures) HasTag(tag string) bool {
	for _, t := range f.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Candidate 是推荐链路中的统一承载结构：单个召回源产出的候选物品，
// 随后在 Rank/ReRank 阶段被融合打分。瞬态对象，从不持久化。
//
// Labels 用于解释与策略驱动（召回来源、推荐理由等）；Score 用于排序决策。
type Candidate struct {
	ID       string
	Strategy string  // 产出该候选的策略名（collaborative / content / knowledge / trending）
	RawScore float64 // 策略内原始分
	Quality  float64 // 质量提示 ∈ [0,1]，参与置信度计算

	// 以下由 Rank/ReRank 阶段填充
	Score          float64 // 融合后的最终分
	Confidence     float64
	NoveltyBonus   float64
	FreshnessBonus float64

	Labels map[string]utils.Label
}

// NewCandidate 创建一个候选。
func NewCandidate(id, strategy string, rawScore float64) *Candidate {
	return &Candidate{
		ID:       id,
		Strategy: strategy,
		RawScore: rawScore,
		Labels:   make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (c *Candidate) PutLabel(key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}

// GetLabel 读取 Label 值；不存在返回空串。
func (c *Candidate) GetLabel(key string) string {
	if c.Labels == nil {
		return ""
	}
	return c.Labels[key].Value
}

// RankedResult 是返回给调用方的最终排序结果。
// 引擎不持久化（调用方可自行落日志）。
type RankedResult struct {
	ItemID         string  `json:"item_id"`
	Strategy       string  `json:"strategy"`
	RawScore       float64 `json:"raw_score"`
	FinalScore     float64 `json:"final_score"`
	Confidence     float64 `json:"confidence"`
	NoveltyBonus   float64 `json:"novelty_bonus"`
	FreshnessBonus float64 `json:"freshness_bonus"`
	Reason         string  `json:"reason"` // 推荐理由，来自 labels（explain 用）
}

// ToResult 把链路末端的候选转换为对外结果。
func (c *Candidate) ToResult() RankedResult {
	reason := c.GetLabel("reason")
	if reason == "" {
		reason = c.Strategy
	}
	return RankedResult{
		ItemID:         c.ID,
		Strategy:       c.Strategy,
		RawScore:       c.RawScore,
		FinalScore:     c.Score,
		Confidence:     c.Confidence,
		NoveltyBonus:   c.NoveltyBonus,
		FreshnessBonus: c.FreshnessBonus,
		Reason:         reason,
	}
}
