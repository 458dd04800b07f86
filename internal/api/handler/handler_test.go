package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"room-booking/internal/api/validate"
	"room-booking/internal/dto"
	"room-booking/internal/service"
	"room-booking/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := validate.Register(); err != nil {
		panic(err)
	}
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult      *dto.TokenResponse
	loginErr         error
	refreshResult    *dto.TokenResponse
	refreshErr       error
	refreshGot       string
	logoutErr        error
	logoutJTI        string
	logoutRefresh    string
	getCurrentResult *dto.UserDetailResponse
	getCurrentErr    error
	changePassErr    error
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Refresh(_ context.Context, token string) (*dto.TokenResponse, error) {
	m.refreshGot = token
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, jti string, _ time.Time, refresh string) error {
	m.logoutJTI = jti
	m.logoutRefresh = refresh
	return m.logoutErr
}
func (m *mockAuthService) GetCurrentUser(_ context.Context, _ string) (*dto.UserDetailResponse, error) {
	return m.getCurrentResult, m.getCurrentErr
}
func (m *mockAuthService) ChangePassword(_ context.Context, _ string, _ *dto.ChangePasswordRequest) error {
	return m.changePassErr
}

// ── Mock UserService ──

type mockUserService struct {
	profile   *dto.UserDetailResponse
	err       error
	updateErr error
}

func (m *mockUserService) GetProfile(_ context.Context, _ string) (*dto.UserDetailResponse, error) {
	return m.profile, m.err
}
func (m *mockUserService) UpdateProfile(_ context.Context, _ string, _ *dto.UpdateProfileRequest) (*dto.UserDetailResponse, error) {
	return m.profile, m.updateErr
}

// ── Mock RoomService ──

type mockRoomService struct {
	list      []dto.RoomResponse
	room      *dto.RoomResponse
	day       *dto.RoomDayResponse
	err       error
	gotListIn *dto.RoomListRequest
}

func (m *mockRoomService) List(_ context.Context, req *dto.RoomListRequest) ([]dto.RoomResponse, error) {
	m.gotListIn = req
	return m.list, m.err
}
func (m *mockRoomService) GetByID(_ context.Context, _ string) (*dto.RoomResponse, error) {
	return m.room, m.err
}
func (m *mockRoomService) DayBookings(_ context.Context, _ string, _ *dto.RoomDayRequest) (*dto.RoomDayResponse, error) {
	return m.day, m.err
}
func (m *mockRoomService) Create(_ context.Context, _ *dto.CreateRoomRequest, _ string) (*dto.RoomResponse, error) {
	return m.room, m.err
}
func (m *mockRoomService) Update(_ context.Context, _ string, _ *dto.UpdateRoomRequest, _ string) (*dto.RoomResponse, error) {
	return m.room, m.err
}
func (m *mockRoomService) Delete(_ context.Context, _, _ string) error {
	return m.err
}

// ── Mock BookingService ──

type mockBookingService struct {
	booking        *dto.BookingResponse
	check          *dto.CheckConflictResponse
	schedule       *dto.ScheduleBookingResponse
	list           []dto.BookingResponse
	total          int64
	err            error
	gotCourseID    string
	gotRole        string
	gotReject      *dto.ReviewBookingRequest
	gotListRequest *dto.BookingListRequest
}

func (m *mockBookingService) Create(_ context.Context, _ *dto.CreateBookingRequest, _, courseID string) (*dto.BookingResponse, error) {
	m.gotCourseID = courseID
	return m.booking, m.err
}
func (m *mockBookingService) Check(_ context.Context, _ *dto.CheckConflictRequest) (*dto.CheckConflictResponse, error) {
	return m.check, m.err
}
func (m *mockBookingService) Schedule(_ context.Context, _ *dto.ScheduleBookingRequest, _, _ string) (*dto.ScheduleBookingResponse, error) {
	return m.schedule, m.err
}
func (m *mockBookingService) GetByID(_ context.Context, _, _, role string) (*dto.BookingResponse, error) {
	m.gotRole = role
	return m.booking, m.err
}
func (m *mockBookingService) ListMine(_ context.Context, _ string, req *dto.BookingListRequest) ([]dto.BookingResponse, int64, error) {
	m.gotListRequest = req
	return m.list, m.total, m.err
}
func (m *mockBookingService) Cancel(_ context.Context, _, _ string) error {
	return m.err
}
func (m *mockBookingService) ListPending(_ context.Context, _ *dto.PaginationRequest) ([]dto.BookingResponse, int64, error) {
	return m.list, m.total, m.err
}
func (m *mockBookingService) Approve(_ context.Context, _, _ string) (*dto.BookingResponse, error) {
	return m.booking, m.err
}
func (m *mockBookingService) Reject(_ context.Context, _, _ string, req *dto.ReviewBookingRequest) (*dto.BookingResponse, error) {
	m.gotReject = req
	return m.booking, m.err
}

// ── Mock CalendarService ──

type mockCalendarService struct {
	data []byte
	err  error
}

func (m *mockCalendarService) MyCalendar(_ context.Context, _ string) ([]byte, error) {
	return m.data, m.err
}

// ── Mock NotificationService ──

type mockNotificationService struct {
	list   []dto.NotificationResponse
	total  int64
	unread *dto.UnreadCountResponse
	err    error
}

func (m *mockNotificationService) List(_ context.Context, _ string, _ *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error) {
	return m.list, m.total, m.err
}
func (m *mockNotificationService) UnreadCount(_ context.Context, _ string) (*dto.UnreadCountResponse, error) {
	return m.unread, m.err
}
func (m *mockNotificationService) MarkRead(_ context.Context, _, _ string) error {
	return m.err
}
func (m *mockNotificationService) MarkAllRead(_ context.Context, _ string) (*dto.MarkAllReadResponse, error) {
	return &dto.MarkAllReadResponse{Updated: 2}, m.err
}
func (m *mockNotificationService) Delete(_ context.Context, _, _ string) error {
	return m.err
}
func (m *mockNotificationService) HandleEvent(_ context.Context, _ string, _ []byte) error {
	return nil
}

// ── Mock DashboardService ──

type mockDashboardService struct {
	result  *dto.DashboardResponse
	err     error
	gotRole string
}

func (m *mockDashboardService) Get(_ context.Context, _, role string) (*dto.DashboardResponse, error) {
	m.gotRole = role
	return m.result, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportBookings(_ context.Context, _ *dto.ExportBookingsRequest) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setupGin() (*gin.Engine, *gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, r := gin.CreateTestContext(w)
	return r, c, w
}

func setAuth(c *gin.Context) {
	c.Set("user_id", "test-user-id")
	c.Set("role", "class_rep")
	c.Set("course_id", "test-course-id")
	c.Set("token_jti", "test-jti")
	c.Set("token_exp", time.Now().Add(15*time.Minute))
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// serve 注册单条带认证的路由并发起请求
const (
	testBookingID      = "6f1c2a4e-0b7d-4c59-9a3e-2d8f1b7c5e10"
	testRoomID         = "0d9e7b2c-4a61-4f38-8c15-93b0e6a2d7f4"
	testNotificationID = "b3a85f0e-7c2d-4e91-a6b4-58d1c0f9e327"
)

func serve(method, route, target string, body io.Reader, fn gin.HandlerFunc) *httptest.ResponseRecorder {
	_, _, w := setupGin()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	r := gin.New()
	r.Handle(method, route, func(c *gin.Context) {
		setAuth(c)
		fn(c)
	})
	r.ServeHTTP(w, req)
	return w
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.TokenResponse{
			AccessToken:  "test-access-token",
			RefreshToken: "test-refresh-token",
			ExpiresIn:    900,
		},
	}
	h := NewAuthHandler(mock, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Account:  "2024001",
		Password: "Test1234",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
	cookie := findCookie(w, "refresh_token")
	if cookie == nil {
		t.Fatal("expected refresh_token cookie to be set")
	}
	if cookie.Value != "test-refresh-token" {
		t.Errorf("expected cookie value test-refresh-token, got %s", cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Error("expected refresh_token cookie to be HttpOnly")
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials}, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Account:  "2024001",
		Password: "wrong",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 11001 {
		t.Errorf("expected error code 11001, got %d", resp.Code)
	}
}

func TestAuthHandler_RefreshToken_FromBody(t *testing.T) {
	mock := &mockAuthService{
		refreshResult: &dto.TokenResponse{AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresIn: 900},
	}
	h := NewAuthHandler(mock, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/refresh", jsonBody(dto.RefreshTokenRequest{RefreshToken: "old-refresh"}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/refresh", h.RefreshToken)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.refreshGot != "old-refresh" {
		t.Errorf("expected token from body, got %q", mock.refreshGot)
	}
	if c := findCookie(w, "refresh_token"); c == nil || c.Value != "new-refresh" {
		t.Error("expected rotated refresh_token cookie")
	}
}

func TestAuthHandler_RefreshToken_FromCookie(t *testing.T) {
	mock := &mockAuthService{
		refreshResult: &dto.TokenResponse{AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresIn: 900},
	}
	h := NewAuthHandler(mock, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "cookie-refresh"})

	r := gin.New()
	r.POST("/auth/refresh", h.RefreshToken)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.refreshGot != "cookie-refresh" {
		t.Errorf("expected token from cookie, got %q", mock.refreshGot)
	}
}

func TestAuthHandler_RefreshToken_MissingToken(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/refresh", jsonBody(map[string]string{}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/refresh", h.RefreshToken)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_RefreshToken_Revoked(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{refreshErr: service.ErrInvalidRefresh}, nil)

	w := serve("POST", "/auth/refresh", "/auth/refresh",
		jsonBody(dto.RefreshTokenRequest{RefreshToken: "revoked"}), h.RefreshToken)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 11002 {
		t.Errorf("expected error code 11002, got %d", resp.Code)
	}
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "cookie-refresh"})

	r := gin.New()
	r.POST("/auth/logout", func(c *gin.Context) {
		setAuth(c)
		h.Logout(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.logoutJTI != "test-jti" || mock.logoutRefresh != "cookie-refresh" {
		t.Errorf("expected jti and refresh passed through, got %q %q", mock.logoutJTI, mock.logoutRefresh)
	}
	cookie := findCookie(w, "refresh_token")
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Error("expected refresh_token cookie to be cleared")
	}
}

func TestAuthHandler_GetCurrentUser_NoAuth(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/auth/me", nil)

	r := gin.New()
	r.GET("/auth/me", h.GetCurrentUser)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuthHandler_ChangePassword_Wrong(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{changePassErr: service.ErrWrongPassword}, nil)

	w := serve("PUT", "/auth/password", "/auth/password",
		jsonBody(dto.ChangePasswordRequest{OldPassword: "old", NewPassword: "NewPass123"}), h.ChangePassword)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 11003 {
		t.Errorf("expected error code 11003, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// UserHandler Tests
// ═══════════════════════════════════════════════════════════

func TestUserHandler_UpdateProfile_EmailTaken(t *testing.T) {
	h := NewUserHandler(&mockUserService{updateErr: service.ErrEmailTaken})
	email := "taken@example.com"

	w := serve("PUT", "/users/me", "/users/me", jsonBody(dto.UpdateProfileRequest{Email: &email}), h.UpdateProfile)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 20002 {
		t.Errorf("expected error code 20002, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// RoomHandler Tests
// ═══════════════════════════════════════════════════════════

func TestRoomHandler_List_AvailableOnly(t *testing.T) {
	mock := &mockRoomService{list: []dto.RoomResponse{{ID: "r1", Name: "LT-1", IsAvailable: true}}}
	h := NewRoomHandler(mock)

	w := serve("GET", "/rooms", "/rooms?available_only=true", nil, h.List)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.gotListIn == nil || !mock.gotListIn.AvailableOnly {
		t.Error("expected available_only to be bound")
	}
}

func TestRoomHandler_DayBookings_MissingDate(t *testing.T) {
	h := NewRoomHandler(&mockRoomService{})

	w := serve("GET", "/rooms/:id/bookings", "/rooms/" + testRoomID + "/bookings", nil, h.DayBookings)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestRoomHandler_Create_NameTaken(t *testing.T) {
	h := NewRoomHandler(&mockRoomService{err: service.ErrRoomNameTaken})

	w := serve("POST", "/rooms", "/rooms", jsonBody(dto.CreateRoomRequest{Name: "LT-1", Capacity: 100}), h.Create)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 12002 {
		t.Errorf("expected error code 12002, got %d", resp.Code)
	}
}

func TestRoomHandler_GetByID_NotFound(t *testing.T) {
	h := NewRoomHandler(&mockRoomService{err: service.ErrRoomNotFound})

	w := serve("GET", "/rooms/:id", "/rooms/" + testRoomID, nil, h.GetByID)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestRoomHandler_Delete_MalformedID(t *testing.T) {
	h := NewRoomHandler(&mockRoomService{})

	w := serve("DELETE", "/rooms/:id", "/rooms/LT-1", nil, h.Delete)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 12001 {
		t.Errorf("expected error code 12001, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// BookingHandler Tests
// ═══════════════════════════════════════════════════════════

func validCreateBody() io.Reader {
	return jsonBody(dto.CreateBookingRequest{
		RoomID:    testRoomID,
		Date:      "2026-11-02",
		StartTime: "09:00",
		EndTime:   "10:00",
	})
}

func TestBookingHandler_Create_Success(t *testing.T) {
	mock := &mockBookingService{booking: &dto.BookingResponse{ID: "bk-1", Status: "pending"}}
	h := NewBookingHandler(mock, &mockCalendarService{})

	w := serve("POST", "/bookings", "/bookings", validCreateBody(), h.Create)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	if mock.gotCourseID != "test-course-id" {
		t.Errorf("expected caller course id from context, got %q", mock.gotCourseID)
	}
}

func TestBookingHandler_Create_InvalidClock(t *testing.T) {
	h := NewBookingHandler(&mockBookingService{}, &mockCalendarService{})

	body := jsonBody(dto.CreateBookingRequest{
		RoomID:    testRoomID,
		Date:      "2026-11-02",
		StartTime: "25:00",
		EndTime:   "26:00",
	})
	w := serve("POST", "/bookings", "/bookings", body, h.Create)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 10001 {
		t.Errorf("expected error code 10001, got %d", resp.Code)
	}
}

func TestBookingHandler_Create_Conflict(t *testing.T) {
	h := NewBookingHandler(&mockBookingService{err: service.ErrBookingConflict}, &mockCalendarService{})

	w := serve("POST", "/bookings", "/bookings", validCreateBody(), h.Create)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 13003 {
		t.Errorf("expected error code 13003, got %d", resp.Code)
	}
}

func TestBookingHandler_Create_InvalidInterval(t *testing.T) {
	err := fmt.Errorf("%w: 结束时间必须晚于开始时间", service.ErrBookingInvalid)
	h := NewBookingHandler(&mockBookingService{err: err}, &mockCalendarService{})

	w := serve("POST", "/bookings", "/bookings", validCreateBody(), h.Create)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 13002 {
		t.Errorf("expected error code 13002, got %d", resp.Code)
	}
	if !strings.Contains(resp.Details, "结束时间") {
		t.Errorf("expected details to carry the cause, got %q", resp.Details)
	}
}

func TestBookingHandler_Check(t *testing.T) {
	mock := &mockBookingService{check: &dto.CheckConflictResponse{Conflict: true}}
	h := NewBookingHandler(mock, &mockCalendarService{})

	body := jsonBody(dto.CheckConflictRequest{RoomID: testRoomID, Date: "2026-11-02", StartTime: "09:00", EndTime: "10:00"})
	w := serve("POST", "/bookings/check", "/bookings/check", body, h.Check)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	data, _ := resp.Data.(map[string]interface{})
	if data["conflict"] != true {
		t.Errorf("expected conflict=true, got %v", resp.Data)
	}
}

func TestBookingHandler_Schedule_InvalidMode(t *testing.T) {
	h := NewBookingHandler(&mockBookingService{}, &mockCalendarService{})

	body := jsonBody(map[string]interface{}{
		"room_id":         testRoomID,
		"start_date":      "2026-11-02",
		"start_time":      "09:00",
		"end_time":        "10:00",
		"recurrence_mode": "monthly",
	})
	w := serve("POST", "/bookings/schedule", "/bookings/schedule", body, h.Schedule)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestBookingHandler_Schedule_InvalidWeekday(t *testing.T) {
	h := NewBookingHandler(&mockBookingService{}, &mockCalendarService{})

	body := jsonBody(dto.ScheduleBookingRequest{
		RoomID:           testRoomID,
		StartDate:        "2026-11-02",
		EndDate:          "2026-11-30",
		StartTime:        "09:00",
		EndTime:          "10:00",
		RecurrenceMode:   "weekly",
		SelectedWeekdays: []int{0, 3},
	})
	w := serve("POST", "/bookings/schedule", "/bookings/schedule", body, h.Schedule)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestBookingHandler_Schedule_Success(t *testing.T) {
	mock := &mockBookingService{schedule: &dto.ScheduleBookingResponse{
		SeriesID:     "s-1",
		CreatedCount: 2,
		SkippedCount: 1,
		SkippedDates: []string{"2026-11-03"},
	}}
	h := NewBookingHandler(mock, &mockCalendarService{})

	body := jsonBody(dto.ScheduleBookingRequest{
		RoomID:         testRoomID,
		StartDate:      "2026-11-02",
		EndDate:        "2026-11-04",
		StartTime:      "09:00",
		EndTime:        "10:00",
		RecurrenceMode: "daily",
	})
	w := serve("POST", "/bookings/schedule", "/bookings/schedule", body, h.Schedule)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	data, _ := parseResponse(w).Data.(map[string]interface{})
	if data["created_count"] != float64(2) || data["skipped_count"] != float64(1) {
		t.Errorf("expected counts 2/1, got %v", data)
	}
}

func TestBookingHandler_Schedule_Incomplete(t *testing.T) {
	mock := &mockBookingService{
		schedule: &dto.ScheduleBookingResponse{SeriesID: "s-1", CreatedCount: 1},
		err:      fmt.Errorf("%w: connection reset", service.ErrScheduleIncomplete),
	}
	h := NewBookingHandler(mock, &mockCalendarService{})

	body := jsonBody(dto.ScheduleBookingRequest{
		RoomID:         testRoomID,
		StartDate:      "2026-11-02",
		EndDate:        "2026-11-04",
		StartTime:      "09:00",
		EndTime:        "10:00",
		RecurrenceMode: "daily",
	})
	w := serve("POST", "/bookings/schedule", "/bookings/schedule", body, h.Schedule)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 13009 {
		t.Errorf("expected error code 13009, got %d", resp.Code)
	}
	if resp.Data == nil {
		t.Error("expected partial result in data")
	}
}

func TestBookingHandler_GetByID_Forbidden(t *testing.T) {
	mock := &mockBookingService{err: service.ErrBookingForbidden}
	h := NewBookingHandler(mock, &mockCalendarService{})

	w := serve("GET", "/bookings/:id", "/bookings/" + testBookingID, nil, h.GetByID)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	if mock.gotRole != "class_rep" {
		t.Errorf("expected role from context, got %q", mock.gotRole)
	}
}

func TestBookingHandler_ListMine_Paged(t *testing.T) {
	mock := &mockBookingService{list: []dto.BookingResponse{{ID: "bk-1"}}, total: 21}
	h := NewBookingHandler(mock, &mockCalendarService{})

	w := serve("GET", "/bookings/my", "/bookings/my?page=2&page_size=10&status=pending", nil, h.ListMine)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.gotListRequest.Status != "pending" {
		t.Errorf("expected status filter pending, got %q", mock.gotListRequest.Status)
	}
	data, _ := parseResponse(w).Data.(map[string]interface{})
	pagination, _ := data["pagination"].(map[string]interface{})
	if pagination["total_pages"] != float64(3) {
		t.Errorf("expected 3 pages, got %v", pagination["total_pages"])
	}
}

func TestBookingHandler_ListMine_BadStatus(t *testing.T) {
	h := NewBookingHandler(&mockBookingService{}, &mockCalendarService{})

	w := serve("GET", "/bookings/my", "/bookings/my?status=rejected", nil, h.ListMine)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestBookingHandler_Cancel_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHTTP int
		wantCode int
	}{
		{"成功", nil, http.StatusOK, 0},
		{"不存在", service.ErrBookingNotFound, http.StatusNotFound, 13001},
		{"非本人", service.ErrBookingForbidden, http.StatusForbidden, 13004},
		{"已开始", fmt.Errorf("%w: 预约已开始", service.ErrCannotCancel), http.StatusConflict, 13006},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewBookingHandler(&mockBookingService{err: tt.err}, &mockCalendarService{})

			w := serve("POST", "/bookings/:id/cancel", "/bookings/" + testBookingID + "/cancel", nil, h.Cancel)

			if w.Code != tt.wantHTTP {
				t.Errorf("expected %d, got %d", tt.wantHTTP, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestBookingHandler_MalformedID(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		route    string
		target   string
		fn       func(h *BookingHandler) gin.HandlerFunc
		wantHTTP int
		wantCode int
	}{
		{"查询", "GET", "/bookings/:id", "/bookings/missing", func(h *BookingHandler) gin.HandlerFunc { return h.GetByID }, http.StatusNotFound, 13001},
		{"取消", "POST", "/bookings/:id/cancel", "/bookings/missing/cancel", func(h *BookingHandler) gin.HandlerFunc { return h.Cancel }, http.StatusConflict, 13006},
		{"通过", "POST", "/bookings/:id/approve", "/bookings/1%27%3B--/approve", func(h *BookingHandler) gin.HandlerFunc { return h.Approve }, http.StatusNotFound, 13001},
		{"驳回", "POST", "/bookings/:id/reject", "/bookings/bk-1/reject", func(h *BookingHandler) gin.HandlerFunc { return h.Reject }, http.StatusNotFound, 13001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 服务被调用时会返回 200，以此确认非法 id 未到达服务层
			h := NewBookingHandler(&mockBookingService{booking: &dto.BookingResponse{ID: testBookingID}}, &mockCalendarService{})

			w := serve(tt.method, tt.route, tt.target, nil, tt.fn(h))

			if w.Code != tt.wantHTTP {
				t.Errorf("expected %d, got %d", tt.wantHTTP, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestBookingHandler_Approve_NotPending(t *testing.T) {
	h := NewBookingHandler(&mockBookingService{err: service.ErrBookingNotPending}, &mockCalendarService{})

	w := serve("POST", "/bookings/:id/approve", "/bookings/" + testBookingID + "/approve", nil, h.Approve)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 13005 {
		t.Errorf("expected error code 13005, got %d", resp.Code)
	}
}

func TestBookingHandler_Reject_WithAndWithoutBody(t *testing.T) {
	mock := &mockBookingService{booking: &dto.BookingResponse{ID: "bk-1", Status: "cancelled"}}
	h := NewBookingHandler(mock, &mockCalendarService{})

	w := serve("POST", "/bookings/:id/reject", "/bookings/" + testBookingID + "/reject",
		jsonBody(dto.ReviewBookingRequest{Reason: "设备检修"}), h.Reject)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.gotReject == nil || mock.gotReject.Reason != "设备检修" {
		t.Errorf("expected reason passed through, got %+v", mock.gotReject)
	}

	w = serve("POST", "/bookings/:id/reject", "/bookings/" + testBookingID + "/reject", nil, h.Reject)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 without body, got %d", w.Code)
	}
}

func TestBookingHandler_MyCalendar(t *testing.T) {
	ics := []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")
	h := NewBookingHandler(&mockBookingService{}, &mockCalendarService{data: ics})

	w := serve("GET", "/bookings/my/calendar.ics", "/bookings/my/calendar.ics", nil, h.MyCalendar)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("expected text/calendar, got %s", ct)
	}
	if !bytes.Equal(w.Body.Bytes(), ics) {
		t.Error("expected calendar body to be written verbatim")
	}
}

// ═══════════════════════════════════════════════════════════
// NotificationHandler Tests
// ═══════════════════════════════════════════════════════════

func TestNotificationHandler_UnreadCount(t *testing.T) {
	h := NewNotificationHandler(&mockNotificationService{unread: &dto.UnreadCountResponse{Count: 3}})

	w := serve("GET", "/notifications/unread-count", "/notifications/unread-count", nil, h.UnreadCount)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	data, _ := parseResponse(w).Data.(map[string]interface{})
	if data["count"] != float64(3) {
		t.Errorf("expected count 3, got %v", data["count"])
	}
}

func TestNotificationHandler_MarkRead_NotFound(t *testing.T) {
	h := NewNotificationHandler(&mockNotificationService{err: service.ErrNotificationNotFound})

	w := serve("PUT", "/notifications/:id/read", "/notifications/" + testNotificationID + "/read", nil, h.MarkRead)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 14001 {
		t.Errorf("expected error code 14001, got %d", resp.Code)
	}
}

func TestNotificationHandler_Delete_MalformedID(t *testing.T) {
	h := NewNotificationHandler(&mockNotificationService{})

	w := serve("DELETE", "/notifications/:id", "/notifications/n-9", nil, h.Delete)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 14001 {
		t.Errorf("expected error code 14001, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// DashboardHandler Tests
// ═══════════════════════════════════════════════════════════

func TestDashboardHandler_Get(t *testing.T) {
	mock := &mockDashboardService{result: &dto.DashboardResponse{Counts: dto.BookingCounts{Pending: 1, Total: 1}}}
	h := NewDashboardHandler(mock)

	w := serve("GET", "/dashboard", "/dashboard", nil, h.Get)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.gotRole != "class_rep" {
		t.Errorf("expected role from context, got %q", mock.gotRole)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportBookings_Success(t *testing.T) {
	mock := &mockExportService{buf: bytes.NewBufferString("xlsx"), filename: "bookings_2026-11-01_2026-11-30.xlsx"}
	h := NewExportHandler(mock)

	w := serve("GET", "/export/bookings", "/export/bookings?from=2026-11-01&to=2026-11-30", nil, h.ExportBookings)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("expected xlsx content type, got %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "bookings_2026-11-01_2026-11-30.xlsx") {
		t.Errorf("expected filename in Content-Disposition, got %s", cd)
	}
}

func TestExportHandler_ExportBookings_MissingRange(t *testing.T) {
	h := NewExportHandler(&mockExportService{})

	w := serve("GET", "/export/bookings", "/export/bookings?from=2026-11-01", nil, h.ExportBookings)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestExportHandler_ExportBookings_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHTTP int
		wantCode int
	}{
		{"范围无效", service.ErrExportRangeInvalid, http.StatusBadRequest, 16101},
		{"无数据", service.ErrExportNoBookings, http.StatusNotFound, 16102},
		{"生成失败", service.ErrExportGenerateFail, http.StatusInternalServerError, 50000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewExportHandler(&mockExportService{err: tt.err})

			w := serve("GET", "/export/bookings", "/export/bookings?from=2026-11-01&to=2026-11-30", nil, h.ExportBookings)

			if w.Code != tt.wantHTTP {
				t.Errorf("expected %d, got %d", tt.wantHTTP, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}
