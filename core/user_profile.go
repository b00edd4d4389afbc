package core

import "time"

// EmbeddingDim 是用户/物品/概念 embedding 的统一维度。
// 所有 embedding 长度一致是点积比较的前提，不允许逐用户变化。
const EmbeddingDim = 64

// CategoryAffinity 是用户对某个类别的偏好状态。
type CategoryAffinity struct {
	Strength   float64 `json:"strength"`    // 当前偏好强度
	GrowthRate float64 `json:"growth_rate"` // 最近增长速率（更新增量的运行均值）
}

// UserProfile 是用户画像的核心抽象。
//
// 一句话定义：用户画像 = 推荐链路的"长期状态 + 特征源 + 决策信号"
//
// 设计要点：
//  维度              作用
//  Ratings           协同召回核心（itemID → 累积评分）
//  CategoryAffinity  内容召回核心
//  TagAffinity       内容召回核心
//  直方图            时段/设备上下文信号
//  Embedding         embedding 协同更新与概念图边权
//  EngagementScore   对外暴露的活跃度信号（不参与排序）
//
// 归属：只有 ProfileStore 可以修改画像；召回/排序只读（拿到的是快照副本）。
type UserProfile struct {
	UserID string

	// Ratings 是 itemID → 累积评分，裁剪到 [RatingMin, RatingMax]。
	Ratings map[string]float64

	// RatingTimes 记录每个 rating 最近一次更新时间，用于同分时的新鲜度决胜。
	RatingTimes map[string]time.Time

	// CategoryAffinity 类别偏好；TagAffinity 标签偏好。
	CategoryAffinity map[string]CategoryAffinity
	TagAffinity      map[string]float64

	// TimeOfDayHistogram: hour(0-23) → itemID → count
	TimeOfDayHistogram map[int]map[string]int64
	// DeviceHistogram: device → itemID → count
	DeviceHistogram map[DeviceKind]map[string]int64

	// Embedding 固定长度 EmbeddingDim 的用户向量。
	Embedding []float64

	// AvgWatchDuration / AvgQuality 是内容画像的运行均值。
	AvgWatchDuration float64
	AvgQuality       float64

	// EngagementScore ∈ [0,1]，滑动窗口内正向交互占比。
	EngagementScore float64

	// InteractionCount 累计交互次数。
	InteractionCount int64

	UpdateTime time.Time
}

// Rating 裁剪边界，避免重复交互导致评分无界增长。
const (
	RatingMin = -50.0
	RatingMax = 100.0
)

// NewUserProfile 创建一个默认画像（零 embedding，空偏好）。
// 画像在用户首次产生事件时惰性创建，除隐私删除外不会被销毁。
func NewUserProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:             userID,
		Ratings:            make(map[string]float64),
		RatingTimes:        make(map[string]time.Time),
		CategoryAffinity:   make(map[string]CategoryAffinity),
		TagAffinity:        make(map[string]float64),
		TimeOfDayHistogram: make(map[int]map[string]int64),
		DeviceHistogram:    make(map[DeviceKind]map[string]int64),
		Embedding:          make([]float64, EmbeddingDim),
		UpdateTime:         time.Now(),
	}
}

// Clone 返回画像的深拷贝，用于 copy-on-read 快照语义：
// 排序过程中持有的画像不会被并发更新破坏。
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	cp := &UserProfile{
		UserID:             p.UserID,
		Ratings:            make(map[string]float64, len(p.Ratings)),
		RatingTimes:        make(map[string]time.Time, len(p.RatingTimes)),
		CategoryAffinity:   make(map[string]CategoryAffinity, len(p.CategoryAffinity)),
		TagAffinity:        make(map[string]float64, len(p.TagAffinity)),
		TimeOfDayHistogram: make(map[int]map[string]int64, len(p.TimeOfDayHistogram)),
		DeviceHistogram:    make(map[DeviceKind]map[string]int64, len(p.DeviceHistogram)),
		Embedding:          make([]float64, len(p.Embedding)),
		AvgWatchDuration:   p.AvgWatchDuration,
		AvgQuality:         p.AvgQuality,
		EngagementScore:    p.EngagementScore,
		InteractionCount:   p.InteractionCount,
		UpdateTime:         p.UpdateTime,
	}
	for k, v := range p.Ratings {
		cp.Ratings[k] = v
	}
	for k, v := range p.RatingTimes {
		cp.RatingTimes[k] = v
	}
	for k, v := range p.CategoryAffinity {
		cp.CategoryAffinity[k] = v
	}
	for k, v := range p.TagAffinity {
		cp.TagAffinity[k] = v
	}
	for hour, m := range p.TimeOfDayHistogram {
		mm := make(map[string]int64, len(m))
		for k, v := range m {
			mm[k] = v
		}
		cp.TimeOfDayHistogram[hour] = mm
	}
	for dev, m := range p.DeviceHistogram {
		mm := make(map[string]int64, len(m))
		for k, v := range m {
			mm[k] = v
		}
		cp.DeviceHistogram[dev] = mm
	}
	copy(cp.Embedding, p.Embedding)
	return cp
}

// HasRated 判断用户是否已对物品产生过评分（用于 exclude-watched）。
func (p *UserProfile) HasRated(itemID string) bool {
	if p == nil || p.Ratings == nil {
		return false
	}
	_, ok := p.Ratings[itemID]
	return ok
}

// Activity 返回用户活跃度 min(1, ratingCount/50)，用于协同召回的质量提示。
func (p *UserProfile) Activity() float64 {
	if p == nil {
		return 0
	}
	a := float64(len(p.Ratings)) / 50.0
	if a > 1 {
		return 1
	}
	return a
}
