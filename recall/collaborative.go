package recall

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pkg/utils"
)

// Collaborative 是基于用户的协同过滤召回源（User-CF）。
//
// 核心思想："兴趣相似的用户，喜欢相似的物品"
//
// 算法流程：
//  1. 取目标用户的评分表
//  2. 对全体用户计算皮尔逊相关系数（至少 MinCommonItems 个共同物品，否则视为 0）
//  3. 取 TopK 相似用户
//  4. 推荐这些用户评过分但目标用户没看过的物品：
//     rawScore = 对方评分 × 相似度
//     质量提示 = 相似度 × 物品评分人数占比 × 用户活跃度
//
// 同一物品经多个相似用户可达时，保留相似度更高的来源；
// 相似度打平时保留评分时间更近的。
// 与任何人都没有足够共同物品时返回空序列，不报错。
type Collaborative struct {
	Profiles ProfileSource

	// TopKSimilarUsers 计算相似度时考虑的 TopK 个相似用户
	TopKSimilarUsers int

	// TopKItems 最终返回的 TopK 个物品
	TopKItems int

	// MinCommonItems 两个用户至少需要有多少个共同评分物品才计算相似度
	MinCommonItems int
}

func (r *Collaborative) Name() string { return "recall.collaborative" }

func (r *Collaborative) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Candidate, error) {
	if r.Profiles == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	target := rctx.User
	if target == nil {
		target = r.Profiles.Get(ctx, rctx.UserID)
	}
	if len(target.Ratings) == 0 {
		return nil, nil
	}

	topKSimilar := r.TopKSimilarUsers
	if topKSimilar <= 0 {
		topKSimilar = core.RecallDefaults{}.DefaultTopKSimilarUsers()
	}
	minCommon := r.MinCommonItems
	if minCommon <= 0 {
		minCommon = 2
	}

	// 全量画像只取一次，顺便为候选物品统计评分人数
	allUsers := r.Profiles.Users(ctx)
	type neighbor struct {
		profile    *core.UserProfile
		similarity float64
	}
	neighbors := make([]neighbor, 0)
	raters := make(map[string]int) // itemID -> 评分人数（含目标用户）
	totalUsers := 0

	for _, userID := range allUsers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Profiles.Get(ctx, userID)
		if len(p.Ratings) == 0 {
			continue
		}
		totalUsers++
		for itemID := range p.Ratings {
			raters[itemID]++
		}
		if userID == rctx.UserID {
			continue
		}

		sim := pearsonOnCommon(target.Ratings, p.Ratings, minCommon)
		if sim > 0 {
			neighbors = append(neighbors, neighbor{profile: p, similarity: sim})
		}
	}
	if len(neighbors) == 0 {
		return nil, nil
	}

	sort.Slice(neighbors, func(i, j int) bool {
		return neighbors[i].similarity > neighbors[j].similarity
	})
	if len(neighbors) > topKSimilar {
		neighbors = neighbors[:topKSimilar]
	}

	if totalUsers == 0 {
		totalUsers = 1
	}
	activity := target.Activity()

	// 收集相似用户的未看物品；同一物品保留更优来源
	best := make(map[string]*core.Candidate)
	bestSim := make(map[string]float64)
	bestAt := make(map[string]time.Time)

	for _, nb := range neighbors {
		for itemID, rating := range nb.profile.Ratings {
			if target.HasRated(itemID) {
				continue
			}
			ratedAt := nb.profile.RatingTimes[itemID]
			if _, ok := best[itemID]; ok {
				if nb.similarity < bestSim[itemID] {
					continue
				}
				if nb.similarity == bestSim[itemID] && !ratedAt.After(bestAt[itemID]) {
					continue
				}
			}
			popularity := float64(raters[itemID]) / float64(totalUsers)
			if popularity > 1 {
				popularity = 1
			}
			c := core.NewCandidate(itemID, core.StrategyCollaborative, rating*nb.similarity)
			c.Quality = nb.similarity * popularity * activity
			c.PutLabel("cf_metric", utils.Label{Value: "pearson", Source: "recall"})
			best[itemID] = c
			bestSim[itemID] = nb.similarity
			bestAt[itemID] = ratedAt
		}
	}

	out := make([]*core.Candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RawScore != out[j].RawScore {
			return out[i].RawScore > out[j].RawScore
		}
		return out[i].ID < out[j].ID
	})

	topK := r.TopKItems
	if topK <= 0 {
		topK = 20
	}
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// pearsonOnCommon 在两份评分表的共同物品上计算皮尔逊相关系数。
// 共同物品数不足 minCommon 时返回 0。
func pearsonOnCommon(a, b map[string]float64, minCommon int) float64 {
	xs := make([]float64, 0)
	ys := make([]float64, 0)
	for itemID, av := range a {
		if bv, ok := b[itemID]; ok {
			xs = append(xs, av)
			ys = append(ys, bv)
		}
	}
	if len(xs) < minCommon {
		return 0
	}
	return pearsonCorrelation(xs, ys)
}

// pearsonCorrelation 计算皮尔逊相关系数
func pearsonCorrelation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0
	}

	var meanX, meanY float64
	for i := range x {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= float64(len(x))
	meanY /= float64(len(y))

	var cov, varX, varY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

var _ Source = (*Collaborative)(nil)
