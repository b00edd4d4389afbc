package recall

import (
	"context"
	"sort"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/graph"
	"github.com/rushteam/feedkit/pkg/utils"
)

// ConceptAffinityThreshold 画像中强度达到该值的类目/标签才算用户概念。
const ConceptAffinityThreshold = 0.3

// KnowledgeMaxCandidates 图扩散累计候选的上限，防止无界游走。
const KnowledgeMaxCandidates = 20

// Knowledge 是基于概念图扩散的召回源。
//
// 算法流程：
//  1. 从画像提取用户概念（强度达标的类目与标签）
//  2. 以用户正向评分且在图中的物品为种子，沿边做广度优先扩散
//  3. 候选打分：0.3×热度 + 0.3×相关度 + 0.2×质量 + 0.2×(类目命中用户概念 ? 1 : 0)
//
// 扩散读取的是图的不可变快照，与后台重建互不阻塞。
type Knowledge struct {
	Profiles ProfileSource
	Graph    *graph.Graph

	// MaxDepth 扩散层数，默认 2
	MaxDepth int

	// TopK 返回 TopK 个物品
	TopK int
}

func (r *Knowledge) Name() string { return "recall.knowledge" }

func (r *Knowledge) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Candidate, error) {
	if r.Graph == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	p := rctx.User
	if p == nil {
		if r.Profiles == nil {
			return nil, nil
		}
		p = r.Profiles.Get(ctx, rctx.UserID)
	}

	concepts := extractUserConcepts(p)

	// 种子：正向评分且在图中的物品
	seeds := make([]string, 0, len(p.Ratings))
	for itemID, rating := range p.Ratings {
		if rating > 0 && r.Graph.Node(itemID) != nil {
			seeds = append(seeds, itemID)
		}
	}
	if len(seeds) == 0 {
		return nil, nil
	}
	sort.Strings(seeds)

	reached := r.Graph.Expand(seeds, r.MaxDepth, KnowledgeMaxCandidates)
	if len(reached) == 0 {
		return nil, nil
	}

	maxPop := r.Graph.MaxPopularity()
	out := make([]*core.Candidate, 0, len(reached))
	for _, itemID := range reached {
		if p.HasRated(itemID) {
			continue
		}
		node := r.Graph.Node(itemID)
		if node == nil {
			continue
		}

		categoryMatch := 0.0
		if concepts[node.Category] {
			categoryMatch = 1.0
		}
		score := 0.3*(r.Graph.Popularity(itemID)/maxPop) +
			0.3*r.Graph.Relevance(itemID) +
			0.2*node.Quality +
			0.2*categoryMatch

		c := core.NewCandidate(itemID, core.StrategyKnowledge, score)
		c.Quality = clamp01(score)
		c.PutLabel("recall_metric", utils.Label{Value: "graph_walk", Source: "recall"})
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].RawScore != out[j].RawScore {
			return out[i].RawScore > out[j].RawScore
		}
		return out[i].ID < out[j].ID
	})

	topK := r.TopK
	if topK <= 0 {
		topK = core.RecallDefaults{}.DefaultTopKItems()
	}
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// extractUserConcepts 返回画像中强度达标的类目和标签集合。
func extractUserConcepts(p *core.UserProfile) map[string]bool {
	concepts := make(map[string]bool)
	for category, aff := range p.CategoryAffinity {
		if aff.Strength >= ConceptAffinityThreshold {
			concepts[category] = true
		}
	}
	for tag, weight := range p.TagAffinity {
		if weight >= ConceptAffinityThreshold {
			concepts[tag] = true
		}
	}
	return concepts
}

var _ Source = (*Knowledge)(nil)
