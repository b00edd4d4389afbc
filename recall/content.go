package recall

import (
	"context"
	"math"
	"sort"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pkg/utils"
)

// ContentScoreThreshold 内容匹配分低于该值的候选被丢弃，保持候选集聚焦。
const ContentScoreThreshold = 0.3

// durationTolerance 时长偏差的归一化半径（秒）。
const durationTolerance = 1800.0

// Content 是基于内容画像的召回源。
//
// 核心思想："用户喜欢具有某些特征的物品，推荐具有相似特征的其他物品"
//
// 匹配分是确定性的加权和：
//
//	0.3×类目匹配 + 0.3×标签均值匹配 + 0.2×时长匹配 + 0.1×质量匹配 + 0.1×热度权重
//
// 给定画像和目录，输出完全确定（无随机性），是最容易单测的召回源。
type Content struct {
	Profiles ProfileSource
	Catalog  core.Catalog

	// TopK 返回 TopK 个物品
	TopK int
}

func (r *Content) Name() string { return "recall.content" }

func (r *Content) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Candidate, error) {
	if r.Catalog == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	p := rctx.User
	if p == nil {
		if r.Profiles == nil {
			return nil, nil
		}
		p = r.Profiles.Get(ctx, rctx.UserID)
	}

	allItems := r.Catalog.AllItems(ctx)

	type scored struct {
		c     *core.Candidate
		score float64
	}
	scores := make([]scored, 0)

	for _, itemID := range allItems {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.HasRated(itemID) {
			continue
		}
		item := r.Catalog.ItemFeatures(ctx, itemID)
		score := r.matchScore(ctx, p, item)
		if score < ContentScoreThreshold {
			continue
		}
		c := core.NewCandidate(itemID, core.StrategyContent, score)
		c.Quality = score
		c.PutLabel("recall_metric", utils.Label{Value: "content_profile", Source: "recall"})
		scores = append(scores, scored{c: c, score: score})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].c.ID < scores[j].c.ID
	})

	topK := r.TopK
	if topK <= 0 {
		topK = core.RecallDefaults{}.DefaultTopKItems()
	}
	if len(scores) > topK {
		scores = scores[:topK]
	}

	out := make([]*core.Candidate, 0, len(scores))
	for _, s := range scores {
		out = append(out, s.c)
	}
	return out, nil
}

func (r *Content) matchScore(ctx context.Context, p *core.UserProfile, item *core.ItemFeatures) float64 {
	category := clamp01(p.CategoryAffinity[item.Category].Strength)

	var tag float64
	if len(item.Tags) > 0 {
		var sum float64
		for _, t := range item.Tags {
			sum += clamp01(p.TagAffinity[t])
		}
		tag = sum / float64(len(item.Tags))
	}

	var duration float64
	if p.AvgWatchDuration > 0 && item.DurationSeconds > 0 {
		duration = 1 - math.Abs(float64(item.DurationSeconds)-p.AvgWatchDuration)/durationTolerance
		if duration < 0 {
			duration = 0
		}
	}

	// 质量匹配：有观看质量画像时比较偏差，否则直接用物品档位
	quality := float64(item.QualityTier) / 4.0
	if p.AvgQuality > 0 {
		quality = clamp01(1 - math.Abs(float64(item.QualityTier)-p.AvgQuality)/3.0)
	}

	popularity := math.Min(1, float64(r.Catalog.Popularity(ctx, item.ItemID))/1000.0)

	return 0.3*category + 0.3*tag + 0.2*duration + 0.1*quality + 0.1*popularity
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var _ Source = (*Content)(nil)
