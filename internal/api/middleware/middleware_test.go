package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"room-booking/config"
	"room-booking/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ── 测试替身 ──

type fakeBlacklist struct {
	revoked map[string]bool
	err     error
}

func (f *fakeBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], f.err
}

type fakeLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (f *fakeLimiter) CheckRateLimit(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allowed, f.err
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:               "middleware-test-secret-2026",
		AccessTokenTTL:          15 * time.Minute,
		RefreshTokenTTLDefault:  24 * time.Hour,
		RefreshTokenTTLRemember: 7 * 24 * time.Hour,
	})
}

func do(r *gin.Engine, method, target string, header map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

// ── JWTAuth ──

func TestJWTAuth(t *testing.T) {
	mgr := newTestJWT()
	access, _ := mgr.GenerateAccessToken("user-1", "class_rep", "course-1")
	refresh, _ := mgr.GenerateRefreshToken("user-1", "class_rep", "course-1", false)
	claims, _ := mgr.ParseToken(access)

	tests := []struct {
		name      string
		header    string
		blacklist Blacklist
		want      int
	}{
		{"缺少认证头", "", nil, http.StatusUnauthorized},
		{"非 Bearer", "Basic abc", nil, http.StatusUnauthorized},
		{"签名无效", "Bearer not-a-token", nil, http.StatusUnauthorized},
		{"使用 refresh token", "Bearer " + refresh, nil, http.StatusUnauthorized},
		{"有效 token", "Bearer " + access, nil, http.StatusOK},
		{"已注销", "Bearer " + access, &fakeBlacklist{revoked: map[string]bool{claims.ID: true}}, http.StatusUnauthorized},
		{"黑名单故障时放行", "Bearer " + access, &fakeBlacklist{err: errors.New("redis down")}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser, gotCourse, gotJTI string
			r := gin.New()
			r.GET("/p", JWTAuth(mgr, tt.blacklist), func(c *gin.Context) {
				gotUser = c.GetString("user_id")
				gotCourse = c.GetString("course_id")
				gotJTI = c.GetString("token_jti")
				c.Status(http.StatusOK)
			})

			w := do(r, "GET", "/p", map[string]string{"Authorization": tt.header})

			if w.Code != tt.want {
				t.Fatalf("期望 %d，实际: %d", tt.want, w.Code)
			}
			if tt.want == http.StatusOK {
				if gotUser != "user-1" || gotCourse != "course-1" || gotJTI != claims.ID {
					t.Errorf("上下文注入错误: user=%s course=%s jti=%s", gotUser, gotCourse, gotJTI)
				}
			}
		})
	}
}

// ── RoleAuth ──

func TestRoleAuth(t *testing.T) {
	tests := []struct {
		role string
		want int
	}{
		{"approver", http.StatusOK},
		{"admin", http.StatusOK},
		{"class_rep", http.StatusForbidden},
		{"", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			r := gin.New()
			r.GET("/p", func(c *gin.Context) {
				if tt.role != "" {
					c.Set("role", tt.role)
				}
			}, RoleAuth("approver", "admin"), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			if w := do(r, "GET", "/p", nil); w.Code != tt.want {
				t.Errorf("期望 %d，实际: %d", tt.want, w.Code)
			}
		})
	}
}

// ── RateLimit ──

func TestRateLimit(t *testing.T) {
	limited := &fakeLimiter{allowed: false}
	r := gin.New()
	r.POST("/login", RateLimit(limited, 10, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, "POST", "/login", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("期望 429，实际: %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Errorf("期望 Retry-After=60，实际: %s", w.Header().Get("Retry-After"))
	}
	// httptest 默认 RemoteAddr 为 192.0.2.1
	if len(limited.keys) != 1 || limited.keys[0] != "192.0.2.1:/login" {
		t.Errorf("限流键应为 <ip>:<route>，实际: %v", limited.keys)
	}

	// 限流器故障时放行
	broken := &fakeLimiter{err: errors.New("redis down")}
	r = gin.New()
	r.POST("/login", RateLimit(broken, 10, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })
	if w := do(r, "POST", "/login", nil); w.Code != http.StatusOK {
		t.Errorf("期望 200，实际: %d", w.Code)
	}

	r = gin.New()
	r.POST("/login", RateLimit(nil, 10, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })
	if w := do(r, "POST", "/login", nil); w.Code != http.StatusOK {
		t.Errorf("未配置限流器时期望 200，实际: %d", w.Code)
	}
}

// ── BodyLimit ──

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(16))
	r.POST("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/p", strings.NewReader(strings.Repeat("x", 64)))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("期望 413，实际: %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/p", strings.NewReader("{}"))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际: %d", w.Code)
	}
}

// ── RequestID / CORS / Recovery ──

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/p", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := do(r, "GET", "/p", map[string]string{"X-Request-ID": "abc-123"})
	if w.Header().Get("X-Request-ID") != "abc-123" || w.Body.String() != "abc-123" {
		t.Errorf("应沿用客户端传入的 ID，实际: %s", w.Header().Get("X-Request-ID"))
	}

	w = do(r, "GET", "/p", map[string]string{"X-Request-ID": strings.Repeat("a", 100)})
	if got := w.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Errorf("过长的 ID 应被替换为 UUID，实际: %s", got)
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173/"}))
	r.GET("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, "OPTIONS", "/p", map[string]string{"Origin": "http://localhost:5173"})
	if w.Code != http.StatusNoContent {
		t.Errorf("预检期望 204，实际: %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Error("白名单内的 Origin 应被回写")
	}

	w = do(r, "GET", "/p", map[string]string{"Origin": "http://evil.example"})
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("白名单外的 Origin 不应被回写")
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/p", func(c *gin.Context) { panic("boom") })

	w := do(r, "GET", "/p", nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("期望 500，实际: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "50000") {
		t.Errorf("期望统一错误体，实际: %s", w.Body.String())
	}
}
