package core

import "time"

// ActionKind 是一次交互的动作类型。
type ActionKind string

const (
	ActionView     ActionKind = "view"
	ActionLike     ActionKind = "like"
	ActionDislike  ActionKind = "dislike"
	ActionShare    ActionKind = "share"
	ActionBookmark ActionKind = "bookmark"
	ActionComment  ActionKind = "comment"
	ActionSkip     ActionKind = "skip"
	ActionPause    ActionKind = "pause"
)

// DeviceKind 是交互发生的设备类型。
type DeviceKind string

const (
	DeviceMobile  DeviceKind = "mobile"
	DeviceDesktop DeviceKind = "desktop"
	DeviceTV      DeviceKind = "tv"
	DeviceUnknown DeviceKind = "unknown"
)

// InteractionEvent 是一次用户交互，记录后不可变。
// 时间戳决定了所有按近因加权的计算顺序。
type InteractionEvent struct {
	UserID    string     `json:"user_id"`
	ItemID    string     `json:"item_id"`
	Action    ActionKind `json:"action"`
	Timestamp time.Time  `json:"timestamp"`
	Device    DeviceKind `json:"device"`
	SessionID string     `json:"session_id"`
}

// RatingReward 是动作到评分奖励的固定映射。
// 该表直接决定画像与下游排序的走向，调整后必须同步更新文档与测试。
var RatingReward = map[ActionKind]float64{
	ActionView:     1,
	ActionLike:     10,
	ActionShare:    10,
	ActionBookmark: 10,
	ActionComment:  5,
	ActionDislike:  -5,
	ActionSkip:     -2,
	ActionPause:    0,
}

// EmbeddingReward 是动作到 embedding 更新奖励的映射，取值 [0,1]，
// 0.5 为中性点（见画像的 Hebbian 更新步）。
var EmbeddingReward = map[ActionKind]float64{
	ActionView:     0.8,
	ActionLike:     1.0,
	ActionShare:    1.0,
	ActionBookmark: 1.0,
	ActionComment:  0.6,
	ActionPause:    0.3,
	ActionSkip:     0.1,
	ActionDislike:  0,
}

// DefaultEmbeddingReward 是未知动作的 embedding 奖励。
const DefaultEmbeddingReward = 0.1

// RewardOf 返回动作的评分奖励，未知动作为 0。
func RewardOf(action ActionKind) float64 {
	return RatingReward[action]
}

// EmbeddingRewardOf 返回动作的 embedding 奖励。
func EmbeddingRewardOf(action ActionKind) float64 {
	if r, ok := EmbeddingReward[action]; ok {
		return r
	}
	return DefaultEmbeddingReward
}

// IsPositive 判断动作是否为正向交互。
func (a ActionKind) IsPositive() bool {
	return RewardOf(a) > 0
}
