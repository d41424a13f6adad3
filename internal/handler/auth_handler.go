package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/inkstream/internal/db"
	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login 处理后台登录请求，成功后在会话中写入用户标识。
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}

	var user db.User
	if err := a.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		respondError(c, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, "invalid email or password")
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Set("user_email", user.Email)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        user.ID,
		"email":     user.Email,
		"full_name": user.FullName,
	})
}

// Logout 清除当前会话。
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// AuthRequired 认证中间件，保护后台路由。
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get("user_id")
		if userID == nil {
			respondError(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentUserID 从会话中取出登录用户 ID，未登录时返回 0。
func currentUserID(c *gin.Context) uint {
	session := sessions.Default(c)
	if id, ok := session.Get("user_id").(uint); ok {
		return id
	}
	return 0
}
