package recall

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rushteam/feedkit/core"
)

// fakeProfiles 是测试用的画像源。
type fakeProfiles struct {
	profiles map[string]*core.UserProfile
}

func (f *fakeProfiles) Get(_ context.Context, userID string) *core.UserProfile {
	if p, ok := f.profiles[userID]; ok {
		return p
	}
	return core.NewUserProfile(userID)
}

func (f *fakeProfiles) Users(_ context.Context) []string {
	out := make([]string, 0, len(f.profiles))
	for id := range f.profiles {
		out = append(out, id)
	}
	return out
}

func profileWithRatings(userID string, ratings map[string]float64) *core.UserProfile {
	p := core.NewUserProfile(userID)
	now := time.Now()
	for itemID, r := range ratings {
		p.Ratings[itemID] = r
		p.RatingTimes[itemID] = now
	}
	return p
}

func TestCollaborativePerfectCorrelation(t *testing.T) {
	// A 评 {x:5, y:4}，B 评 {x:5, y:4, z:3}：
	// 共同物品上相关系数应为 1.0，z 应以 rawScore = 3×1.0 进入候选
	profiles := &fakeProfiles{profiles: map[string]*core.UserProfile{
		"a": profileWithRatings("a", map[string]float64{"x": 5, "y": 4}),
		"b": profileWithRatings("b", map[string]float64{"x": 5, "y": 4, "z": 3}),
	}}
	r := &Collaborative{Profiles: profiles}

	cands, err := r.Recall(context.Background(), &core.RecommendContext{UserID: "a"})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("candidates = %d, want 1", len(cands))
	}
	c := cands[0]
	if c.ID != "z" {
		t.Fatalf("candidate = %s, want z", c.ID)
	}
	if math.Abs(c.RawScore-3.0) > 1e-9 {
		t.Fatalf("rawScore = %v, want 3.0", c.RawScore)
	}
	if c.Strategy != core.StrategyCollaborative {
		t.Fatalf("strategy = %s", c.Strategy)
	}
}

func TestCollaborativeNoOverlapReturnsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		other map[string]float64
	}{
		{name: "disjoint ratings", other: map[string]float64{"m": 5, "n": 4}},
		{name: "single common item", other: map[string]float64{"x": 5, "n": 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles := &fakeProfiles{profiles: map[string]*core.UserProfile{
				"a": profileWithRatings("a", map[string]float64{"x": 5, "y": 4}),
				"b": profileWithRatings("b", tt.other),
			}}
			r := &Collaborative{Profiles: profiles}
			cands, err := r.Recall(context.Background(), &core.RecommendContext{UserID: "a"})
			if err != nil {
				t.Fatalf("recall: %v", err)
			}
			if len(cands) != 0 {
				t.Fatalf("candidates = %d, want 0 (insufficient overlap)", len(cands))
			}
		})
	}
}

func TestCollaborativeQualityHint(t *testing.T) {
	profiles := &fakeProfiles{profiles: map[string]*core.UserProfile{
		"a": profileWithRatings("a", map[string]float64{"x": 5, "y": 4}),
		"b": profileWithRatings("b", map[string]float64{"x": 5, "y": 4, "z": 3}),
	}}
	r := &Collaborative{Profiles: profiles}

	cands, _ := r.Recall(context.Background(), &core.RecommendContext{UserID: "a"})
	if len(cands) != 1 {
		t.Fatalf("candidates = %d, want 1", len(cands))
	}
	// 质量提示 = 相似度(1.0) × 评分人数占比(z: 1/2) × 活跃度(2/50)
	want := 1.0 * 0.5 * (2.0 / 50.0)
	if math.Abs(cands[0].Quality-want) > 1e-9 {
		t.Fatalf("quality = %v, want %v", cands[0].Quality, want)
	}
}

func TestCollaborativeColdUser(t *testing.T) {
	profiles := &fakeProfiles{profiles: map[string]*core.UserProfile{}}
	r := &Collaborative{Profiles: profiles}
	cands, err := r.Recall(context.Background(), &core.RecommendContext{UserID: "ghost"})
	if err != nil || len(cands) != 0 {
		t.Fatalf("cold user should yield empty result, got %d cands err=%v", len(cands), err)
	}
}
