package core

import (
	"time"

	"github.com/rushteam/feedkit/pkg/utils"
)

// Mood 是从近期行为推断的用户情绪。
// 纯行为计数启发式，不做内容情感分析。
type Mood string

const (
	MoodNeutral  Mood = "neutral"
	MoodPositive Mood = "positive"
	MoodNegative Mood = "negative"
	MoodBored    Mood = "bored"   // 近 5 次事件中 skip 占多数
	MoodCurious  Mood = "curious" // 近 5 次事件横跨多个类别
)

// RecommendContext 承载一次推荐请求的用户/场景/实时信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string
	Scene  string

	// User 是请求时刻的画像快照（copy-on-read，排序期间不会被并发更新破坏）。
	User *UserProfile

	// 上下文信号，由 signal.Estimator 派生。
	Hour      int // 0-23
	DayOfWeek time.Weekday
	Device    DeviceKind
	Mood      Mood

	// SessionDuration 当前会话时长（有事件流时由 Estimator 估算）。
	SessionDuration time.Duration

	// Labels 是用户级标签，可驱动整个 Pipeline 行为。
	Labels map[string]utils.Label

	// Params 请求级上下文参数（query、实验参数等）。
	Params map[string]any
}

// PrimeTime 判断是否处于黄金时段（18-22 点，含端点）。
func (rctx *RecommendContext) PrimeTime() bool {
	return rctx.Hour >= 18 && rctx.Hour <= 22
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
