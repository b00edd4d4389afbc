package rank

import (
	"context"
	"math"
	"time"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
)

// 新颖度/新鲜度参数。
const (
	noveltyHorizonDays = 30.0
	noveltyWeight      = 0.3
	freshnessScale     = 1000.0
	freshnessWeight    = 0.2
)

// NoveltyNode 给存活候选追加新颖度与新鲜度加成：
//
//	noveltyBonus   = max(0, 1 - 发布天数/30) × 0.3
//	freshnessBonus = min(1, 近期互动数/1000) × 0.2
//
// 两项是封顶的加法贡献，奖励新内容与当前热门内容但不让其支配排序。
type NoveltyNode struct {
	Catalog core.Catalog

	// Now 注入的时钟，nil 时使用 time.Now。
	Now func() time.Time
}

func (n *NoveltyNode) Name() string        { return "rank.novelty" }
func (n *NoveltyNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *NoveltyNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	cands []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(cands) == 0 || n.Catalog == nil {
		return cands, nil
	}

	now := time.Now()
	if n.Now != nil {
		now = n.Now()
	}

	for _, c := range cands {
		if c == nil {
			continue
		}
		item := n.Catalog.ItemFeatures(ctx, c.ID)

		var novelty float64
		if !item.PublishedAt.IsZero() {
			ageDays := now.Sub(item.PublishedAt).Hours() / 24.0
			novelty = math.Max(0, 1-ageDays/noveltyHorizonDays) * noveltyWeight
		}

		engagement := float64(n.Catalog.Popularity(ctx, c.ID))
		freshness := math.Min(1, engagement/freshnessScale) * freshnessWeight

		c.NoveltyBonus = novelty
		c.FreshnessBonus = freshness
		c.Score += novelty + freshness
	}
	return cands, nil
}

var _ pipeline.Node = (*NoveltyNode)(nil)
