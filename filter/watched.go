package filter

import (
	"context"

	"github.com/rushteam/feedkit/core"
)

// WatchedFilter 过滤用户已经交互过的物品。
// 各召回源自身已排除已评分物品，这里兜底融合后的整体候选集
// （例如外部注入的候选或无画像快照的调用路径）。
type WatchedFilter struct{}

func (f *WatchedFilter) Name() string { return "filter.watched" }

func (f *WatchedFilter) ShouldFilter(ctx context.Context, rctx *core.RecommendContext, c *core.Candidate) (bool, error) {
	if rctx == nil || rctx.User == nil || c == nil {
		return false, nil
	}
	return rctx.User.HasRated(c.ID), nil
}

var _ Filter = (*WatchedFilter)(nil)
