package viewtrack

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieStore 把冷却表存放在访问者的 Cookie 里，
// 是 Store 在服务端渲染场景下最接近浏览器 localStorage 的实现。
// 跨标签页的读改写不保证原子性，与浏览器本地存储的语义一致。
type CookieStore struct {
	ctx    *gin.Context
	maxAge int
}

// NewCookieStore 基于当前请求上下文创建 CookieStore，
// Cookie 生存期与冷却条目的保留期对齐。
func NewCookieStore(c *gin.Context) *CookieStore {
	return &CookieStore{
		ctx:    c,
		maxAge: int(DefaultRetentionWindow / time.Second),
	}
}

// Get 返回 Cookie 中保存的值，Cookie 不存在时返回空串而非错误。
func (s *CookieStore) Get(key string) (string, error) {
	value, err := s.ctx.Cookie(key)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// Set 写回 Cookie。HttpOnly 防止脚本篡改冷却表。
func (s *CookieStore) Set(key, value string) error {
	s.ctx.SetCookie(key, value, s.maxAge, "/", "", false, true)
	return nil
}
