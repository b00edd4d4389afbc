package rank

import (
	"context"
	"math/rand"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pipeline"
	"github.com/rushteam/feedkit/pkg/utils"
)

// 多样性参数：单类目免检名额与超额后的通过概率。
const (
	diversityCategoryCap = 5
	diversityAdmitChance = 0.3
)

// diversityAdmittedLabel 标记概率闸门放行过的候选。
// 再跑一遍多样性过滤时带标记的候选直接通过，保证过滤幂等。
const diversityAdmittedLabel = "diversity_admitted"

// DiversityNode 是多样性重排节点：防止单一类目垄断头部。
//
// 沿已排序列表自上而下：每个类目前 5 个候选直接通过，超额的候选
// 过一道 30% 的概率闸门，偶尔放行强势同类内容。
// 对已过滤的列表重复执行结果不变。
type DiversityNode struct {
	Catalog core.Catalog

	// Rand 注入的随机源，nil 时使用全局源。测试时注入定值源保证确定性。
	Rand *rand.Rand
}

func (n *DiversityNode) Name() string        { return "rank.diversity" }
func (n *DiversityNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *DiversityNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	cands []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(cands) == 0 || n.Catalog == nil {
		return cands, nil
	}

	counts := make(map[string]int, 16)
	out := make([]*core.Candidate, 0, len(cands))

	for _, c := range cands {
		if c == nil {
			continue
		}
		category := n.Catalog.ItemFeatures(ctx, c.ID).Category
		if counts[category] < diversityCategoryCap {
			counts[category]++
			out = append(out, c)
			continue
		}
		if c.GetLabel(diversityAdmittedLabel) == "true" {
			counts[category]++
			out = append(out, c)
			continue
		}
		if n.chance() < diversityAdmitChance {
			c.PutLabel(diversityAdmittedLabel, utils.Label{Value: "true", Source: "rank"})
			counts[category]++
			out = append(out, c)
		}
	}
	return out, nil
}

func (n *DiversityNode) chance() float64 {
	if n.Rand != nil {
		return n.Rand.Float64()
	}
	return rand.Float64()
}

var _ pipeline.Node = (*DiversityNode)(nil)
