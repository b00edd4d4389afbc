package signal

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/event"
	"github.com/rushteam/feedkit/store"
)

func TestEngagementScore(t *testing.T) {
	events := event.NewLog(store.NewMemoryStore())
	scorer := &Scorer{Events: events}
	now := time.Now()

	// view(+1) + like(+10) + comment(+5) → mean 16/3 → /10
	for i, action := range []core.ActionKind{core.ActionView, core.ActionLike, core.ActionComment} {
		record(t, events, "g1", action, now.Add(time.Duration(i-5)*time.Minute), core.DeviceMobile)
	}

	got := scorer.Score(context.Background(), "u1", time.Hour)
	want := (16.0 / 3.0) / 10.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", got, want)
	}
}

func TestEngagementScoreClampsNegative(t *testing.T) {
	events := event.NewLog(store.NewMemoryStore())
	scorer := &Scorer{Events: events}
	now := time.Now()
	record(t, events, "g1", core.ActionDislike, now.Add(-time.Minute), core.DeviceMobile)
	record(t, events, "g1", core.ActionDislike, now, core.DeviceMobile)

	if got := scorer.Score(context.Background(), "u1", time.Hour); got != 0 {
		t.Fatalf("negative mean should clamp to 0, got %v", got)
	}
}

func TestEngagementScoreNoEvents(t *testing.T) {
	scorer := &Scorer{Events: event.NewLog(store.NewMemoryStore())}
	if got := scorer.Score(context.Background(), "nobody", time.Hour); got != 0 {
		t.Fatalf("score = %v, want 0", got)
	}
}

func TestEngagementWindowCapsEvents(t *testing.T) {
	events := event.NewLog(store.NewMemoryStore())
	scorer := &Scorer{Events: events, MaxEvents: 2}
	now := time.Now()
	// 最老的 dislike 落在窗口容量之外，不计入均值
	record(t, events, "g1", core.ActionDislike, now.Add(-3*time.Minute), core.DeviceMobile)
	record(t, events, "g1", core.ActionLike, now.Add(-2*time.Minute), core.DeviceMobile)
	record(t, events, "g1", core.ActionLike, now.Add(-time.Minute), core.DeviceMobile)

	got := scorer.Score(context.Background(), "u1", time.Hour)
	if got != 1.0 {
		t.Fatalf("score = %v, want 1.0 (two likes, mean 10)", got)
	}
}

func TestEngagementConfidence(t *testing.T) {
	scorer := &Scorer{}
	if got := scorer.Confidence(0); got != 0 {
		t.Fatalf("confidence(0) = %v, want 0", got)
	}
	if got := scorer.Confidence(25); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("confidence(25) = %v, want 0.5", got)
	}
	if got := scorer.Confidence(1000); got != 1 {
		t.Fatalf("confidence(1000) = %v, want 1 (capped)", got)
	}
}
