// Package profile 实现用户画像存储（Profile Store）。
//
// 画像由事件流增量驱动：每条交互同步推进一次画像，O(1) 均摊成本，
// 不需要批量梯度。写入按用户串行（single-writer-per-user），
// 读取返回深拷贝快照（copy-on-read），排序过程不会被并发更新破坏。
package profile

import (
	"context"
	"sync"

	"github.com/rushteam/feedkit/core"
)

// EmbeddingNudger 是目录侧的可选能力：embedding 协同更新时对称推动物品向量。
// 只读目录（如 Feast 适配器）可以不实现，此时只更新用户侧。
type EmbeddingNudger interface {
	NudgeEmbedding(ctx context.Context, itemID string, delta []float64)
}

// Store 是画像存储。画像只能由 Store 修改；召回/排序拿到的是快照。
type Store struct {
	mu    sync.RWMutex
	users map[string]*userState

	catalog core.Catalog

	// Alpha 是 embedding 协同更新的学习率。
	Alpha float64
	// Window 是 engagement 滑动窗口的事件数。
	Window int
}

// userState 是单个用户的内部状态：画像本体 + engagement 窗口。
// 每个用户一把锁，保证 single-writer-per-user；
// 不同用户的更新与读取互不阻塞。
type userState struct {
	mu      sync.Mutex
	profile *core.UserProfile
	recent  []float64 // 窗口内的评分奖励序列
}

// 画像更新的固定步长。
const (
	categoryStep = 0.1  // 类别偏好步长（乘以奖励符号）
	tagStep      = 0.05 // 标签偏好步长
	growthDecay  = 0.9  // GrowthRate 的指数平滑系数
)

// DefaultAlpha 是 embedding 学习率默认值。
const DefaultAlpha = 0.01

// DefaultWindow 是 engagement 滑动窗口默认值（最近 100 条事件）。
const DefaultWindow = 100

// NewStore 创建画像存储。catalog 用于 embedding 对称更新与内容画像均值。
func NewStore(catalog core.Catalog) *Store {
	return &Store{
		users:   make(map[string]*userState),
		catalog: catalog,
		Alpha:   DefaultAlpha,
		Window:  DefaultWindow,
	}
}

func (s *Store) state(userID string) *userState {
	s.mu.RLock()
	st, ok := s.users[userID]
	s.mu.RUnlock()
	if ok {
		return st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok = s.users[userID]; ok {
		return st
	}
	st = &userState{profile: core.NewUserProfile(userID)}
	s.users[userID] = st
	return st
}

// Update 根据一条交互事件推进画像。不保证幂等：每次调用都会推进计数。
// 除存储损坏外不向调用方抛错；未知 itemID 由目录的占位特征兜底，链路不阻塞。
func (s *Store) Update(ctx context.Context, ev *core.InteractionEvent) {
	if ev == nil || ev.UserID == "" {
		return
	}
	item := s.itemOf(ctx, ev.ItemID)

	st := s.state(ev.UserID)
	st.mu.Lock()
	defer st.mu.Unlock()

	p := st.profile
	reward := core.RewardOf(ev.Action)

	// 1. 评分累积，裁剪到 [RatingMin, RatingMax]
	r := p.Ratings[ev.ItemID] + reward
	if r > core.RatingMax {
		r = core.RatingMax
	}
	if r < core.RatingMin {
		r = core.RatingMin
	}
	p.Ratings[ev.ItemID] = r
	p.RatingTimes[ev.ItemID] = ev.Timestamp

	// 2. 类别/标签偏好
	delta := categoryStep * sign(reward)
	aff := p.CategoryAffinity[item.Category]
	aff.Strength += delta
	aff.GrowthRate = growthDecay*aff.GrowthRate + (1-growthDecay)*delta
	p.CategoryAffinity[item.Category] = aff
	for _, tag := range item.Tags {
		p.TagAffinity[tag] += tagStep
	}

	// 3. 时段/设备直方图
	hour := ev.Timestamp.Hour()
	if p.TimeOfDayHistogram[hour] == nil {
		p.TimeOfDayHistogram[hour] = make(map[string]int64)
	}
	p.TimeOfDayHistogram[hour][ev.ItemID]++
	if p.DeviceHistogram[ev.Device] == nil {
		p.DeviceHistogram[ev.Device] = make(map[string]int64)
	}
	p.DeviceHistogram[ev.Device][ev.ItemID]++

	// 4. 内容画像运行均值
	n := float64(p.InteractionCount)
	if ev.Action == core.ActionView && item.DurationSeconds > 0 {
		p.AvgWatchDuration = runningMean(p.AvgWatchDuration, float64(item.DurationSeconds), n)
	}
	if reward > 0 && item.QualityTier > 0 {
		p.AvgQuality = runningMean(p.AvgQuality, float64(item.QualityTier), n)
	}

	// 5. embedding 协同更新（Hebbian 式，无梯度）
	s.embeddingStepLocked(ctx, p, item, core.EmbeddingRewardOf(ev.Action))

	// 6. engagement 滑动窗口
	window := s.Window
	if window <= 0 {
		window = DefaultWindow
	}
	st.recent = append(st.recent, reward)
	if len(st.recent) > window {
		st.recent = st.recent[len(st.recent)-window:]
	}
	positive := 0
	for _, rw := range st.recent {
		if rw > 0 {
			positive++
		}
	}
	p.EngagementScore = float64(positive) / float64(len(st.recent))

	p.InteractionCount++
	p.UpdateTime = ev.Timestamp
}

// EmbeddingStep 单独执行一次 embedding 协同更新（reward ∈ [0,1]，0.5 为中性点）。
func (s *Store) EmbeddingStep(ctx context.Context, userID, itemID string, reward float64) {
	item := s.itemOf(ctx, itemID)
	st := s.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()
	s.embeddingStepLocked(ctx, st.profile, item, reward)
}

// embeddingStepLocked: userEmb[i] += α*(reward-0.5)*itemEmb[i]，并对称推动物品向量。
// reward=0.5 时两侧均不变。
func (s *Store) embeddingStepLocked(ctx context.Context, p *core.UserProfile, item *core.ItemFeatures, reward float64) {
	alpha := s.Alpha
	if alpha <= 0 {
		alpha = DefaultAlpha
	}
	g := alpha * (reward - 0.5)
	if g == 0 || len(item.Embedding) != len(p.Embedding) {
		return
	}

	itemDelta := make([]float64, len(p.Embedding))
	for i := range p.Embedding {
		itemDelta[i] = g * p.Embedding[i]
		p.Embedding[i] += g * item.Embedding[i]
	}
	if nudger, ok := s.catalog.(EmbeddingNudger); ok {
		nudger.NudgeEmbedding(ctx, item.ItemID, itemDelta)
	}
}

// Get 返回画像快照。画像缺失从不是错误：返回默认画像。
func (s *Store) Get(ctx context.Context, userID string) *core.UserProfile {
	s.mu.RLock()
	st, ok := s.users[userID]
	s.mu.RUnlock()
	if !ok {
		return core.NewUserProfile(userID)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return st.profile.Clone()
}

// Users 返回当前持有画像的全部用户 id（协同召回遍历用）。
func (s *Store) Users(ctx context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.users))
	for id := range s.users {
		out = append(out, id)
	}
	return out
}

// Delete 删除用户画像（隐私删除钩子）。
func (s *Store) Delete(ctx context.Context, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
}

func (s *Store) itemOf(ctx context.Context, itemID string) *core.ItemFeatures {
	if s.catalog == nil {
		return core.NewStubItem(itemID)
	}
	return s.catalog.ItemFeatures(ctx, itemID)
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

func runningMean(mean, value, n float64) float64 {
	return (mean*n + value) / (n + 1)
}
