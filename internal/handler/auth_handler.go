package handler

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jogcadence/internal/db"
)

const (
	sessionUserIDKey   = "user_id"
	sessionUsernameKey = "username"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login 校验账号密码并写入会话
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req, message(c, "invalid login payload", "登录参数无效")) {
		return
	}

	var user db.User
	if err := a.db.WithContext(c.Request.Context()).Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error; err != nil {
		respondError(c, http.StatusUnauthorized, message(c, "wrong username or password", "用户名或密码错误"))
		return
	}
	if !user.CheckPassword(req.Password) {
		respondError(c, http.StatusUnauthorized, message(c, "wrong username or password", "用户名或密码错误"))
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	session.Set(sessionUsernameKey, user.Username)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, message(c, "failed to save session", "会话保存失败"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"username": user.Username})
}

// Logout 清空会话
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.Status(http.StatusNoContent)
}

// IssueToken 为已登录用户签发手表端使用的令牌
func (a *API) IssueToken(c *gin.Context) {
	session := sessions.Default(c)
	userID, _ := session.Get(sessionUserIDKey).(uint)
	username, _ := session.Get(sessionUsernameKey).(string)
	if userID == 0 {
		if claims, ok := c.Get("claims"); ok {
			if parsed, ok := claims.(*Claims); ok {
				userID, username = parsed.UserID, parsed.Username
			}
		}
	}
	if userID == 0 {
		respondError(c, http.StatusUnauthorized, message(c, "login required", "请先登录"))
		return
	}

	token, expiresAt, err := a.tokens.Generate(userID, username)
	if err != nil {
		respondError(c, http.StatusInternalServerError, message(c, "failed to issue token", "签发令牌失败"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresAt": formatTime(expiresAt),
	})
}

// AuthRequired 接受会话登录或 Bearer 令牌
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if session.Get(sessionUserIDKey) != nil {
			c.Next()
			return
		}

		if header := c.GetHeader("Authorization"); header != "" {
			claims, err := a.tokens.Parse(header)
			if err == nil {
				c.Set("claims", claims)
				c.Next()
				return
			}
		}

		respondError(c, http.StatusUnauthorized, message(c, "login required", "请先登录"))
		c.Abort()
	}
}
