package recall

import (
	"context"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pkg/utils"
)

// Trending 是热度兜底召回源：冷启动用户或其他策略全空时仍有结果。
// rawScore 按名次线性衰减，质量提示固定偏低（热度先验精度有限）。
type Trending struct {
	Popular PopularSource
	Catalog core.Catalog

	// TopK 返回 TopK 个物品
	TopK int
}

func (r *Trending) Name() string { return "recall.trending" }

func (r *Trending) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Candidate, error) {
	if r.Popular == nil || rctx == nil {
		return nil, nil
	}

	topK := r.TopK
	if topK <= 0 {
		topK = core.RecallDefaults{}.DefaultTopKItems()
	}

	ids := r.Popular.TopPopular(ctx, topK)
	if len(ids) == 0 {
		return nil, nil
	}

	out := make([]*core.Candidate, 0, len(ids))
	for rank, itemID := range ids {
		if rctx.User != nil && rctx.User.HasRated(itemID) {
			continue
		}
		score := 1.0 - float64(rank)/float64(len(ids))
		c := core.NewCandidate(itemID, core.StrategyTrending, score)
		c.Quality = 0.5
		c.PutLabel("recall_metric", utils.Label{Value: "popularity", Source: "recall"})
		out = append(out, c)
	}
	return out, nil
}

var _ Source = (*Trending)(nil)
