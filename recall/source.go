// Package recall 实现候选生成（召回）：协同、内容、知识图谱、情境、趋势兜底。
package recall

import (
	"context"

	"github.com/rushteam/feedkit/core"
)

// Source 表示一个可复用的召回源（协同/内容/知识/趋势/...）。
// 你可以把它理解为“可并发 fan-out 的策略单元”。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Candidate, error)
}

// ProfileSource 提供画像读取，协同召回据此比较用户间评分。
// 返回的画像是快照，召回方只读不写。
type ProfileSource interface {
	Get(ctx context.Context, userID string) *core.UserProfile
	Users(ctx context.Context) []string
}

// PopularSource 提供热门物品列表，趋势召回据此兜底。
type PopularSource interface {
	TopPopular(ctx context.Context, n int) []string
}
