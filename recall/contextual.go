package recall

import (
	"context"
	"sort"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/pkg/utils"
)

// Contextual 是情境化召回源：依据当前小时与设备在画像直方图中的
// 观看记录，推断此刻偏好的类目，再从目录中找同类未看物品。
//
// 例如用户工作日晚间在手机上常看短内容，晚间的手机请求会偏向这些类目。
type Contextual struct {
	Profiles ProfileSource
	Catalog  core.Catalog

	// TopK 返回 TopK 个物品
	TopK int
}

func (r *Contextual) Name() string { return "recall.contextual" }

func (r *Contextual) Recall(
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

	// 当前小时、当前设备下看过的物品 → 类目权重
	weights := make(map[string]float64)
	var total float64
	accumulate := func(counts map[string]int64) {
		for itemID, count := range counts {
			item := r.Catalog.ItemFeatures(ctx, itemID)
			weights[item.Category] += float64(count)
			total += float64(count)
		}
	}
	accumulate(p.TimeOfDayHistogram[rctx.Hour])
	accumulate(p.DeviceHistogram[rctx.Device])

	if total == 0 {
		return nil, nil
	}
	for category := range weights {
		weights[category] /= total
	}

	out := make([]*core.Candidate, 0)
	for _, itemID := range r.Catalog.AllItems(ctx) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.HasRated(itemID) {
			continue
		}
		item := r.Catalog.ItemFeatures(ctx, itemID)
		w := weights[item.Category]
		if w <= 0 {
			continue
		}
		c := core.NewCandidate(itemID, core.StrategyContextual, w)
		c.Quality = w
		c.PutLabel("recall_metric", utils.Label{Value: "time_device_histogram", Source: "recall"})
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

var _ Source = (*Contextual)(nil)
