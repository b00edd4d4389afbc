package signal

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/feedkit/catalog"
	"github.com/rushteam/feedkit/core"
	"github.com/rushteam/feedkit/event"
	"github.com/rushteam/feedkit/store"
)

func estimatorFixture(t *testing.T) (*Estimator, *event.Log, *catalog.MemoryCatalog) {
	t.Helper()
	cat := catalog.NewMemoryCatalog()
	cat.Put(&core.ItemFeatures{ItemID: "g1", Category: "Gaming", QualityTier: 2})
	cat.Put(&core.ItemFeatures{ItemID: "m1", Category: "Music", QualityTier: 2})
	cat.Put(&core.ItemFeatures{ItemID: "t1", Category: "Tech", QualityTier: 2})

	events := event.NewLog(store.NewMemoryStore())
	est := &Estimator{Events: events, Catalog: cat}
	return est, events, cat
}

func record(t *testing.T, events *event.Log, itemID string, action core.ActionKind, at time.Time, device core.DeviceKind) {
	t.Helper()
	err := events.Record(context.Background(), &core.InteractionEvent{
		UserID: "u1", ItemID: itemID, Action: action, Timestamp: at, Device: device,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
}

func TestCurrentContextClockFields(t *testing.T) {
	est, _, _ := estimatorFixture(t)
	now := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC) // 周一 20 点
	est.Now = func() time.Time { return now }

	rctx := est.CurrentContext(context.Background(), "u1")
	if rctx.Hour != 20 || rctx.DayOfWeek != time.Monday {
		t.Fatalf("hour=%d dow=%v, want 20/Monday", rctx.Hour, rctx.DayOfWeek)
	}
	if !rctx.PrimeTime() {
		t.Fatalf("20 点应属于黄金时段")
	}
	if rctx.Mood != core.MoodNeutral || rctx.Device != core.DeviceUnknown {
		t.Fatalf("no events: mood=%v device=%v, want neutral/unknown", rctx.Mood, rctx.Device)
	}
}

func TestMoodHeuristics(t *testing.T) {
	tests := []struct {
		name   string
		events []struct {
			item   string
			action core.ActionKind
		}
		want core.Mood
	}{
		{
			name: "three skips means bored",
			events: []struct {
				item   string
				action core.ActionKind
			}{{"g1", core.ActionSkip}, {"g1", core.ActionSkip}, {"g1", core.ActionSkip}},
			want: core.MoodBored,
		},
		{
			name: "three categories means curious",
			events: []struct {
				item   string
				action core.ActionKind
			}{{"g1", core.ActionView}, {"m1", core.ActionView}, {"t1", core.ActionView}},
			want: core.MoodCurious,
		},
		{
			name: "likes beat dislikes",
			events: []struct {
				item   string
				action core.ActionKind
			}{{"g1", core.ActionLike}, {"g1", core.ActionShare}, {"g1", core.ActionDislike}},
			want: core.MoodPositive,
		},
		{
			name: "dislikes beat likes",
			events: []struct {
				item   string
				action core.ActionKind
			}{{"g1", core.ActionDislike}, {"g1", core.ActionDislike}, {"g1", core.ActionLike}},
			want: core.MoodNegative,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est, events, _ := estimatorFixture(t)
			now := time.Now()
			est.Now = func() time.Time { return now }
			for i, ev := range tt.events {
				record(t, events, ev.item, ev.action, now.Add(time.Duration(i-10)*time.Minute), core.DeviceMobile)
			}

			rctx := est.CurrentContext(context.Background(), "u1")
			if rctx.Mood != tt.want {
				t.Fatalf("mood = %v, want %v", rctx.Mood, tt.want)
			}
		})
	}
}

func TestDeviceFromLatestEvent(t *testing.T) {
	est, events, _ := estimatorFixture(t)
	now := time.Now()
	est.Now = func() time.Time { return now }
	record(t, events, "g1", core.ActionView, now.Add(-2*time.Minute), core.DeviceDesktop)
	record(t, events, "g1", core.ActionView, now.Add(-time.Minute), core.DeviceTV)

	rctx := est.CurrentContext(context.Background(), "u1")
	if rctx.Device != core.DeviceTV {
		t.Fatalf("device = %v, want tv (latest event)", rctx.Device)
	}
	if rctx.SessionDuration < time.Minute {
		t.Fatalf("session duration = %v, want >= 1m", rctx.SessionDuration)
	}
}
