package rank

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/feedkit/core"
)

func TestFuseWeightsAndConfidence(t *testing.T) {
	c := core.NewCandidate("v1", core.StrategyCollaborative, 2.0)
	c.Quality = 0.5

	node := &FuseNode{}
	out, err := node.Process(context.Background(), &core.RecommendContext{UserID: "u1", Hour: 3}, []*core.Candidate{c})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	// 无任何上下文加成：Score = 2.0×0.3，Confidence = 0.85×0.5
	if got := out[0].Score; math.Abs(got-0.6) > 1e-9 {
		t.Fatalf("score = %v, want 0.6", got)
	}
	if got := out[0].Confidence; math.Abs(got-0.425) > 1e-9 {
		t.Fatalf("confidence = %v, want 0.425", got)
	}
}

func TestFuseBoostMonotonicity(t *testing.T) {
	// rawScore 固定时，每个加成项叠加都应让 finalScore 严格上升
	contexts := []*core.RecommendContext{
		{UserID: "u1", Hour: 3},
		{UserID: "u1", Hour: 20},                                              // +0.1 黄金时段
		{UserID: "u1", Hour: 20, Device: core.DeviceMobile},                   // +0.05 手机
		{UserID: "u1", Hour: 20, Device: core.DeviceMobile, Mood: core.MoodBored}, // +0.15 无聊
	}

	node := &FuseNode{}
	prev := -1.0
	for i, rctx := range contexts {
		c := core.NewCandidate("v1", core.StrategyContent, 1.0)
		out, err := node.Process(context.Background(), rctx, []*core.Candidate{c})
		if err != nil {
			t.Fatalf("process: %v", err)
		}
		if out[0].Score <= prev {
			t.Fatalf("score at step %d = %v, want > %v (boost must be monotone)", i, out[0].Score, prev)
		}
		prev = out[0].Score
	}
}

func TestFuseBoostCapped(t *testing.T) {
	rctx := &core.RecommendContext{UserID: "u1", Hour: 20, Device: core.DeviceMobile, Mood: core.MoodCurious}
	node := &FuseNode{Rules: []BoostRule{
		{Name: "extra", Expr: `rctx.prime_time`, Amount: 0.4},
	}}

	c := core.NewCandidate("v1", core.StrategyContent, 0)
	out, err := node.Process(context.Background(), rctx, []*core.Candidate{c})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	// 0.1+0.2+0.05+0.4 = 0.75，应封顶在 0.5
	if got := out[0].Score; math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("score = %v, want capped boost 0.5", got)
	}
}

func TestFuseTrendingZeroWeightKeepsOrder(t *testing.T) {
	// trending 不占融合权重：无上下文加成时分数为 0，
	// 稳定排序保留召回阶段的热度次序
	hot := core.NewCandidate("hot", core.StrategyTrending, 5.0)
	warm := core.NewCandidate("warm", core.StrategyTrending, 1.0)
	node := &FuseNode{}

	out, err := node.Process(context.Background(), &core.RecommendContext{UserID: "u1", Hour: 3}, []*core.Candidate{hot, warm})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if out[0].Score != 0 || out[1].Score != 0 {
		t.Fatalf("trending fused scores = %v/%v, want 0 (boost-only strategy)", out[0].Score, out[1].Score)
	}
	if out[0].ID != "hot" || out[1].ID != "warm" {
		t.Fatalf("order = [%s %s], want [hot warm] (stable sort keeps recall order)", out[0].ID, out[1].ID)
	}
}

func TestFuseSortsDescending(t *testing.T) {
	a := core.NewCandidate("a", core.StrategyContent, 0.2)
	b := core.NewCandidate("b", core.StrategyContent, 0.9)
	node := &FuseNode{}

	out, _ := node.Process(context.Background(), &core.RecommendContext{UserID: "u1", Hour: 3}, []*core.Candidate{a, b})
	if out[0].ID != "b" || out[1].ID != "a" {
		t.Fatalf("order = [%s %s], want [b a]", out[0].ID, out[1].ID)
	}
}

func TestFuseRuleEvaluation(t *testing.T) {
	rctx := &core.RecommendContext{UserID: "u1", Hour: 3, Mood: core.MoodNeutral}
	node := &FuseNode{Rules: []BoostRule{
		{Name: "knowledge-lift", Expr: `cand.strategy == "knowledge"`, Amount: 0.1},
	}}

	hit := core.NewCandidate("k", core.StrategyKnowledge, 1.0)
	miss := core.NewCandidate("c", core.StrategyKnowledge, 1.0)
	miss.Strategy = core.StrategyContent

	out, err := node.Process(context.Background(), rctx, []*core.Candidate{hit, miss})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	var hitScore, missScore float64
	for _, c := range out {
		if c.ID == "k" {
			hitScore = c.Score
		} else {
			missScore = c.Score
		}
	}
	// knowledge 权重 0.25 + 规则 0.1；content 权重 0.25
	if math.Abs(hitScore-0.35) > 1e-9 || math.Abs(missScore-0.25) > 1e-9 {
		t.Fatalf("hit = %v want 0.35, miss = %v want 0.25", hitScore, missScore)
	}
}
