// Package signal 从事件流尾部派生瞬时信号：时段、设备、情绪、会话时长。
package signal

import (
	"context"
	"time"

	"github.com/rushteam/feedkit/core"
)

// 情绪推断窗口：只看最近 moodWindow 个事件。
const moodWindow = 5

// sessionGap 两个事件间隔超过该值视为新会话。
const sessionGap = 30 * time.Minute

// Estimator 从事件流派生请求时刻的上下文。
// 失败（事件流不可读）只会退化为纯时钟上下文，不报错。
type Estimator struct {
	Events  core.EventStore
	Catalog core.Catalog

	// Window 读取事件尾部的时间窗口，默认 24h。
	Window time.Duration

	// Now 注入的时钟，nil 时使用 time.Now。
	Now func() time.Time
}

// CurrentContext 构造一次推荐请求的上下文（不含画像快照，由引擎补充）。
func (e *Estimator) CurrentContext(ctx context.Context, userID string) *core.RecommendContext {
	now := time.Now()
	if e.Now != nil {
		now = e.Now()
	}

	rctx := &core.RecommendContext{
		UserID:    userID,
		Hour:      now.Hour(),
		DayOfWeek: now.Weekday(),
		Device:    core.DeviceUnknown,
		Mood:      core.MoodNeutral,
	}
	if e.Events == nil {
		return rctx
	}

	window := e.Window
	if window <= 0 {
		window = 24 * time.Hour
	}
	events, err := e.Events.Tail(ctx, userID, window)
	if err != nil || len(events) == 0 {
		return rctx
	}

	// 设备取最近一次事件的设备
	last := events[len(events)-1]
	if last.Device != "" {
		rctx.Device = last.Device
	}

	rctx.Mood = e.moodOf(ctx, events)
	rctx.SessionDuration = sessionDuration(events, now)
	return rctx
}

// moodOf 基于最近 moodWindow 个事件的行为计数推断情绪：
//   - skip 达 3 次 → bored
//   - 横跨 3 个及以上类目 → curious
//   - 否则比较 like/share 与 dislike 计数 → positive/negative/neutral
func (e *Estimator) moodOf(ctx context.Context, events []core.InteractionEvent) core.Mood {
	recent := events
	if len(recent) > moodWindow {
		recent = recent[len(recent)-moodWindow:]
	}

	var skips, likes, dislikes int
	categories := make(map[string]bool, moodWindow)
	for i := range recent {
		ev := &recent[i]
		switch ev.Action {
		case core.ActionSkip:
			skips++
		case core.ActionLike, core.ActionShare:
			likes++
		case core.ActionDislike:
			dislikes++
		}
		if e.Catalog != nil {
			categories[e.Catalog.ItemFeatures(ctx, ev.ItemID).Category] = true
		}
	}

	switch {
	case skips >= 3:
		return core.MoodBored
	case len(categories) >= 3:
		return core.MoodCurious
	case likes > dislikes:
		return core.MoodPositive
	case dislikes > likes:
		return core.MoodNegative
	default:
		return core.MoodNeutral
	}
}

// sessionDuration 从最近一段连续事件（间隔小于 sessionGap）估算会话时长。
func sessionDuration(events []core.InteractionEvent, now time.Time) time.Duration {
	start := events[len(events)-1].Timestamp
	for i := len(events) - 1; i > 0; i-- {
		if events[i].Timestamp.Sub(events[i-1].Timestamp) > sessionGap {
			break
		}
		start = events[i-1].Timestamp
	}
	if now.Sub(events[len(events)-1].Timestamp) > sessionGap {
		// 最近会话已结束
		return events[len(events)-1].Timestamp.Sub(start)
	}
	return now.Sub(start)
}
