package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"room-booking/config"
	"room-booking/internal/dto"
	"room-booking/internal/service"
	pkgerrors "room-booking/pkg/errors"
	"room-booking/pkg/response"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/v1/auth"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
	cookie  config.CookieConfig
	ttl     time.Duration // refresh token 默认有效期
	ttlLong time.Duration // 记住我
}

// NewAuthHandler 创建 AuthHandler；cfg 为 nil 时使用默认 Cookie 设置
func NewAuthHandler(authSvc service.AuthService, cfg *config.Config) *AuthHandler {
	h := &AuthHandler{
		authSvc: authSvc,
		cookie:  config.CookieConfig{SameSite: "Lax"},
		ttl:     24 * time.Hour,
		ttlLong: 7 * 24 * time.Hour,
	}
	if cfg != nil {
		h.cookie = cfg.Auth.Cookie
		h.ttl = cfg.Auth.RefreshTokenTTLDefault
		h.ttlLong = cfg.Auth.RefreshTokenTTLRemember
	}
	return h
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	ttl := h.ttl
	if req.RememberMe {
		ttl = h.ttlLong
	}
	h.setRefreshCookie(c, result.RefreshToken, ttl)
	response.OK(c, result)
}

// RefreshToken 刷新 Token；优先读取 Cookie，其次读取请求体
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, _ := c.Cookie(refreshCookieName)
	if token == "" {
		var req dto.RefreshTokenRequest
		_ = c.ShouldBindJSON(&req)
		token = req.RefreshToken
	}
	if token == "" {
		response.BadRequest(c, 10001, "缺少 refresh token")
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), token)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken, h.ttl)
	response.OK(c, result)
}

// Logout 用户登出：Access Token 与 Refresh Token 均加入黑名单
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, exp := GetTokenInfo(c)
	refresh, _ := c.Cookie(refreshCookieName)

	if err := h.authSvc.Logout(c.Request.Context(), jti, exp, refresh); err != nil {
		response.InternalError(c)
		return
	}

	h.setRefreshCookie(c, "", -1)
	response.OK(c, nil)
}

// GetCurrentUser 获取当前用户
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, user)
}

// ChangePassword 修改密码
// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, nil)
}

// setRefreshCookie maxAge<0 时清除 Cookie
func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string, ttl time.Duration) {
	switch strings.ToLower(h.cookie.SameSite) {
	case "strict":
		c.SetSameSite(http.SameSiteStrictMode)
	case "none":
		c.SetSameSite(http.SameSiteNoneMode)
	default:
		c.SetSameSite(http.SameSiteLaxMode)
	}
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}
	c.SetCookie(refreshCookieName, token, maxAge, refreshCookiePath, h.cookie.Domain, h.cookie.Secure, true)
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, 11001, "账号或密码错误")
	case errors.Is(err, service.ErrInvalidRefresh):
		response.Unauthorized(c, 11002, "登录已失效，请重新登录")
	case errors.Is(err, service.ErrWrongPassword):
		response.BadRequest(c, 11003, "原密码错误")
	case errors.Is(err, service.ErrSamePassword):
		response.BadRequest(c, 11004, "新密码不能与原密码相同")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 20001, "用户不存在")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 20003, pkgerrors.ErrOptimisticLock.Error())
	default:
		response.InternalError(c)
	}
}
