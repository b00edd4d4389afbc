package rank

import (
	"context"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
)

// TopNNode 去重并截断最终结果。
//
// 去重按 ID 保留首个出现的候选：列表此时按分数排好序，
// 首个出现的即该物品的最高分版本。N <= 0 表示不截断。
type TopNNode struct {
	N int
}

func (n *TopNNode) Name() string        { return "rank.topn" }
func (n *TopNNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	cands []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(cands) == 0 {
		return cands, nil
	}

	seen := make(map[string]bool, len(cands))
	out := make([]*core.Candidate, 0, len(cands))
	for _, c := range cands {
		if c == nil || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
		if n.N > 0 && len(out) >= n.N {
			break
		}
	}
	return out, nil
}

var _ pipeline.Node = (*TopNNode)(nil)
