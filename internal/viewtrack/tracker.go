// Package viewtrack 实现浏览计数的客户端侧限流：
// 同一客户端在冷却窗口内的重复浏览只上报一次，状态保存在客户端本地的 KV 存储里。
package viewtrack

import (
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultCooldownWindow 是同一篇文章两次计数之间的最小间隔。
	DefaultCooldownWindow = 30 * time.Minute
	// DefaultRetentionWindow 之外的冷却条目会在下一次写入时被剪除。
	DefaultRetentionWindow = 24 * time.Hour
	// StorageKey 是冷却表在客户端 KV 存储中的键名。
	StorageKey = "inkstream_view_cooldowns"
)

// Store 抽象客户端本地的同步 KV 存储。
// 实现必须容忍不可用（隐私模式、配额耗尽），返回错误而不是崩溃。
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Dispatcher 把一次浏览事件交给统计协作方。
// 投递失败由实现自行吞掉，绝不能阻塞或拖垮阅读路径。
type Dispatcher interface {
	DispatchView(postID uint, sessionToken string)
}

// Tracker 是单次页面生命周期内的浏览上报守卫。
// 每个实例最多评估一次，内存粘滞标记与持久化冷却表互相独立：
// 前者挡住同一生命周期内的重复调用，后者挡住窗口内的重复访问。
type Tracker struct {
	store     Store
	dispatch  Dispatcher
	now       func() time.Time
	newToken  func() string
	cooldown  time.Duration
	retention time.Duration
	attempted bool
}

// New 创建一个 Tracker，默认使用真实时钟与随机会话令牌。
func New(store Store, dispatcher Dispatcher) *Tracker {
	return &Tracker{
		store:     store,
		dispatch:  dispatcher,
		now:       time.Now,
		newToken:  uuid.NewString,
		cooldown:  DefaultCooldownWindow,
		retention: DefaultRetentionWindow,
	}
}

// WithCooldownWindow 允许在测试或特定场景下调整冷却窗口。
func (t *Tracker) WithCooldownWindow(d time.Duration) *Tracker {
	if d > 0 {
		t.cooldown = d
	}
	return t
}

// WithRetentionWindow 允许调整冷却条目的保留期。
func (t *Tracker) WithRetentionWindow(d time.Duration) *Tracker {
	if d > 0 {
		t.retention = d
	}
	return t
}

// WithClock 注入时钟，便于确定性测试。
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	if now != nil {
		t.now = now
	}
	return t
}

// WithTokenSource 注入会话令牌生成器，便于确定性测试。
func (t *Tracker) WithTokenSource(newToken func() string) *Tracker {
	if newToken != nil {
		t.newToken = newToken
	}
	return t
}

// Track 对指定文章评估一次冷却守卫，放行时派发一次浏览事件。
// 返回值表示本次是否派发。同一实例的后续调用一律不再派发。
func (t *Tracker) Track(postID uint) bool {
	if t.attempted || postID == 0 {
		return false
	}
	t.attempted = true

	now := t.now()
	entries := t.loadEntries()
	key := strconv.FormatUint(uint64(postID), 10)

	if last, ok := entries[key]; ok {
		if now.Sub(time.Unix(last, 0)) < t.cooldown {
			return false
		}
	}

	entries[key] = now.Unix()
	t.persistEntries(entries, now)

	// 令牌每次派发都重新生成，不与任何持久化身份挂钩
	t.dispatch.DispatchView(postID, t.newToken())
	return true
}

// loadEntries 读取持久化的冷却表。
// 存储不可用或内容损坏时放行上报（fail-open），计数准确性让位于页面健壮性。
func (t *Tracker) loadEntries() map[string]int64 {
	entries := make(map[string]int64)
	if t.store == nil {
		return entries
	}

	raw, err := t.store.Get(StorageKey)
	if err != nil {
		log.Printf("view cooldown store read failed: %v", err)
		return entries
	}
	if raw == "" {
		return entries
	}

	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		log.Printf("view cooldown store corrupt, resetting: %v", err)
		return make(map[string]int64)
	}
	return entries
}

// persistEntries 剪除超过保留期的条目后写回存储，写入失败只记录日志。
func (t *Tracker) persistEntries(entries map[string]int64, now time.Time) {
	if t.store == nil {
		return
	}

	for key, last := range entries {
		if now.Sub(time.Unix(last, 0)) > t.retention {
			delete(entries, key)
		}
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		log.Printf("view cooldown encode failed: %v", err)
		return
	}
	if err := t.store.Set(StorageKey, string(raw)); err != nil {
		log.Printf("view cooldown store write failed: %v", err)
	}
}
