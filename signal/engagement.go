package signal

import (
	"context"
	"math"
	"time"

	"github.com/rushteam/feedkit/core"
)

// engagementNormalizer 把平均奖励归一化到 [0,1]（最大正向奖励为 10）。
const engagementNormalizer = 10.0

// Scorer 计算用户近期参与度，供 UI 角标、分析侧只读消费。
//
// 参与度不回流进排序打分：热门内容的参与度高会进一步抬高其排名，
// 形成自我放大的反馈环，这里刻意隔离。
type Scorer struct {
	Events core.EventStore

	// MaxEvents 参与窗口内最多计入的事件数，默认 100。
	MaxEvents int
}

// Score 返回窗口内的参与度 ∈ [0,1]：动作奖励均值归一化。
// 无事件返回 0；事件流读取失败也返回 0（只读信号，不冒错）。
func (s *Scorer) Score(ctx context.Context, userID string, window time.Duration) float64 {
	if s.Events == nil {
		return 0
	}
	events, err := s.Events.Tail(ctx, userID, window)
	if err != nil || len(events) == 0 {
		return 0
	}

	maxEvents := s.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 100
	}
	if len(events) > maxEvents {
		events = events[len(events)-maxEvents:]
	}

	var sum float64
	for i := range events {
		sum += core.RewardOf(events[i].Action)
	}
	score := (sum / float64(len(events))) / engagementNormalizer
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Confidence 返回参与度的样本置信度 ∈ [0,1]：事件越多越可信。
// 纯分析用途的辅助量，同样不参与排序。
func (s *Scorer) Confidence(eventCount int) float64 {
	if eventCount <= 0 {
		return 0
	}
	return math.Min(1, math.Sqrt(float64(eventCount))/10.0)
}
