package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"room-booking/config"
)

const issuer = "room-booking"

// Token 类型
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrTokenExpired   = errors.New("token 已过期")
	ErrTokenInvalid   = errors.New("token 无效")
	ErrTokenWrongType = errors.New("token 类型不符")
)

// Claims 自定义 JWT 声明；jti 用于注销黑名单
type Claims struct {
	UserID     string `json:"user_id"`
	Role       string `json:"role"`
	CourseID   string `json:"course_id,omitempty"`   // 课代表所属课程，预约时作为默认课程
	TokenType  string `json:"token_type"`            // access | refresh
	RememberMe bool   `json:"remember_me,omitempty"` // 仅 refresh token 使用，轮换时沿用
	jwtv5.RegisteredClaims
}

// ExpiresAtOr 过期时间；未设置时返回 fallback
func (c *Claims) ExpiresAtOr(fallback time.Time) time.Time {
	if c.ExpiresAt == nil {
		return fallback
	}
	return c.ExpiresAt.Time
}

// Manager 签发与校验 HS256 Token
type Manager struct {
	secret                  []byte
	accessTokenTTL          time.Duration
	refreshTokenTTLDefault  time.Duration
	refreshTokenTTLRemember time.Duration
	now                     func() time.Time
}

// NewManager 创建 JWT 管理器
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret:                  []byte(cfg.JWTSecret),
		accessTokenTTL:          cfg.AccessTokenTTL,
		refreshTokenTTLDefault:  cfg.RefreshTokenTTLDefault,
		refreshTokenTTLRemember: cfg.RefreshTokenTTLRemember,
		now:                     time.Now,
	}
}

// AccessTokenTTL Access Token 有效期
func (m *Manager) AccessTokenTTL() time.Duration { return m.accessTokenTTL }

// GenerateAccessToken 签发 Access Token
func (m *Manager) GenerateAccessToken(userID, role, courseID string) (string, error) {
	return m.sign(Claims{
		UserID:    userID,
		Role:      role,
		CourseID:  courseID,
		TokenType: TokenTypeAccess,
	}, m.accessTokenTTL)
}

// GenerateRefreshToken 签发 Refresh Token；rememberMe 使用更长的有效期
func (m *Manager) GenerateRefreshToken(userID, role, courseID string, rememberMe bool) (string, error) {
	ttl := m.refreshTokenTTLDefault
	if rememberMe {
		ttl = m.refreshTokenTTLRemember
	}
	return m.sign(Claims{
		UserID:     userID,
		Role:       role,
		CourseID:   courseID,
		TokenType:  TokenTypeRefresh,
		RememberMe: rememberMe,
	}, ttl)
}

func (m *Manager) sign(claims Claims, ttl time.Duration) (string, error) {
	now := m.now()
	claims.RegisteredClaims = jwtv5.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    issuer,
		IssuedAt:  jwtv5.NewNumericDate(now),
		ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
	}
	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(m.secret)
}

// ParseToken 校验签名、签发方与有效期，不区分类型
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwtv5.ParseWithClaims(tokenString, claims, func(t *jwtv5.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwtv5.WithIssuer(issuer),
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseAccess 仅接受 Access Token
func (m *Manager) ParseAccess(tokenString string) (*Claims, error) {
	return m.parseTyped(tokenString, TokenTypeAccess)
}

// ParseRefresh 仅接受 Refresh Token
func (m *Manager) ParseRefresh(tokenString string) (*Claims, error) {
	return m.parseTyped(tokenString, TokenTypeRefresh)
}

func (m *Manager) parseTyped(tokenString, tokenType string) (*Claims, error) {
	claims, err := m.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, ErrTokenWrongType
	}
	return claims, nil
}
