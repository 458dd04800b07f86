package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"room-booking/config"
	"room-booking/internal/model"
	"room-booking/internal/repository"
	"room-booking/internal/scheduling"
	pkgerrors "room-booking/pkg/errors"
	"room-booking/pkg/redis"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.StudentID
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByStudentID(_ context.Context, studentID string) (*model.User, error) {
	for _, u := range m.users {
		if u.StudentID == studentID {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByRole(_ context.Context, roles ...string) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		for _, r := range roles {
			if u.Role == r {
				result = append(result, *u)
				break
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.UserID]; !ok {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version++
	m.users[user.UserID] = user
	return nil
}

// ── Mock CourseRepository / LecturerRepository ──

type mockCourseRepo struct {
	courses map[string]*model.Course
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: map[string]*model.Course{
		"course-1": {CourseID: "course-1", Code: "CS101", Name: "程序设计基础"},
	}}
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) List(_ context.Context) ([]model.Course, error) {
	var result []model.Course
	for _, c := range m.courses {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

type mockLecturerRepo struct {
	lecturers map[string]*model.Lecturer
}

func newMockLecturerRepo() *mockLecturerRepo {
	return &mockLecturerRepo{lecturers: map[string]*model.Lecturer{
		"lect-1": {LecturerID: "lect-1", Name: "王老师", IsActive: true},
		"lect-2": {LecturerID: "lect-2", Name: "李老师", IsActive: false},
	}}
}

func (m *mockLecturerRepo) GetByID(_ context.Context, id string) (*model.Lecturer, error) {
	if l, ok := m.lecturers[id]; ok {
		return l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLecturerRepo) List(_ context.Context, includeInactive bool) ([]model.Lecturer, error) {
	var result []model.Lecturer
	for _, l := range m.lecturers {
		if l.IsActive || includeInactive {
			result = append(result, *l)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ── Mock RoomRepository ──

type mockRoomRepo struct {
	rooms     map[string]*model.Room
	listCalls int
}

func newMockRoomRepo() *mockRoomRepo {
	return &mockRoomRepo{rooms: map[string]*model.Room{
		"R1": {RoomID: "R1", Name: "LT-1", Location: "主楼 1 层", Capacity: 120, IsAvailable: true},
		"R2": {RoomID: "R2", Name: "LT-2", Location: "主楼 2 层", Capacity: 60, IsAvailable: false},
	}}
}

func (m *mockRoomRepo) Create(_ context.Context, room *model.Room) error {
	for _, r := range m.rooms {
		if r.Name == room.Name {
			return &pgconn.PgError{Code: "23505", ConstraintName: "uk_rooms_name"}
		}
	}
	if room.RoomID == "" {
		room.RoomID = "room-" + room.Name
	}
	m.rooms[room.RoomID] = room
	return nil
}

func (m *mockRoomRepo) GetByID(_ context.Context, id string) (*model.Room, error) {
	if r, ok := m.rooms[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoomRepo) List(_ context.Context, availableOnly bool) ([]model.Room, error) {
	m.listCalls++
	var result []model.Room
	for _, r := range m.rooms {
		if availableOnly && !r.IsAvailable {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockRoomRepo) Update(_ context.Context, room *model.Room) error {
	m.rooms[room.RoomID] = room
	return nil
}

func (m *mockRoomRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.rooms, id)
	return nil
}

// ── Mock BookingRepository ──

// mockBookingRepo 按插入顺序保存预约，冲突判断复用 scheduling.ConflictsWith
type mockBookingRepo struct {
	bookings []*model.Booking
	rooms    *mockRoomRepo
	seq      int
	failOn   int // 第 n 次 Reserve 返回错误，0 表示不注入
	reserves int
}

func newMockBookingRepo(rooms *mockRoomRepo) *mockBookingRepo {
	return &mockBookingRepo{rooms: rooms}
}

func (m *mockBookingRepo) snapshot() []model.Booking {
	result := make([]model.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		result = append(result, *b)
	}
	return result
}

func (m *mockBookingRepo) add(b *model.Booking) *model.Booking {
	if b.BookingID == "" {
		m.seq++
		b.BookingID = fmt.Sprintf("bk-%d", m.seq)
	}
	if b.Status == "" {
		b.Status = model.BookingStatusPending
	}
	b.Version = 1
	m.bookings = append(m.bookings, b)
	return b
}

func (m *mockBookingRepo) HasOverlap(_ context.Context, roomID string, iv scheduling.Interval) (bool, error) {
	return scheduling.ConflictsWith(m.snapshot(), roomID, iv), nil
}

func (m *mockBookingRepo) HasActiveFrom(_ context.Context, roomID string, from time.Time) (bool, error) {
	for _, b := range m.bookings {
		if b.RoomID == roomID && b.IsActive() && b.EndTime.After(from) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockBookingRepo) Reserve(_ context.Context, booking *model.Booking) error {
	m.reserves++
	if m.failOn > 0 && m.reserves == m.failOn {
		return fmt.Errorf("connection reset")
	}
	iv := scheduling.Interval{Start: booking.StartTime, End: booking.EndTime}
	if scheduling.ConflictsWith(m.snapshot(), booking.RoomID, iv) {
		return scheduling.ErrConflict
	}
	m.add(booking)
	return nil
}

func (m *mockBookingRepo) withRoom(b *model.Booking) *model.Booking {
	cp := *b
	if r, ok := m.rooms.rooms[b.RoomID]; ok {
		cp.Room = r
	}
	return &cp
}

func (m *mockBookingRepo) GetByID(_ context.Context, id string) (*model.Booking, error) {
	for _, b := range m.bookings {
		if b.BookingID == id {
			return m.withRoom(b), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBookingRepo) ListByUser(_ context.Context, userID, status string, offset, limit int) ([]model.Booking, int64, error) {
	var all []model.Booking
	for _, b := range m.bookings {
		if b.BookedBy == userID && (status == "" || b.Status == status) {
			all = append(all, *m.withRoom(b))
		}
	}
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockBookingRepo) ListActiveByUserSince(_ context.Context, userID string, since time.Time) ([]model.Booking, error) {
	var result []model.Booking
	for _, b := range m.bookings {
		if b.BookedBy == userID && b.IsActive() && b.EndTime.After(since) {
			result = append(result, *m.withRoom(b))
		}
	}
	return result, nil
}

func (m *mockBookingRepo) ListUpcomingByUser(_ context.Context, userID string, from time.Time, limit int) ([]model.Booking, error) {
	var result []model.Booking
	for _, b := range m.bookings {
		if (userID == "" || b.BookedBy == userID) && b.IsActive() && b.StartTime.After(from) {
			result = append(result, *m.withRoom(b))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockBookingRepo) ListByRoomAndDate(_ context.Context, roomID string, date time.Time) ([]model.Booking, error) {
	var result []model.Booking
	for _, b := range m.bookings {
		if b.RoomID == roomID && b.IsActive() && b.Date().Equal(date) {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (m *mockBookingRepo) ListPending(_ context.Context, offset, limit int) ([]model.Booking, int64, error) {
	var all []model.Booking
	for _, b := range m.bookings {
		if b.Status == model.BookingStatusPending {
			all = append(all, *m.withRoom(b))
		}
	}
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockBookingRepo) ListBetween(_ context.Context, from, to time.Time) ([]model.Booking, error) {
	var result []model.Booking
	for _, b := range m.bookings {
		d := b.Date()
		if !d.Before(from) && !d.After(to) {
			result = append(result, *m.withRoom(b))
		}
	}
	return result, nil
}

func (m *mockBookingRepo) CountByStatus(_ context.Context, userID string) (map[string]int64, error) {
	result := make(map[string]int64)
	for _, b := range m.bookings {
		if userID == "" || b.BookedBy == userID {
			result[b.Status]++
		}
	}
	return result, nil
}

func (m *mockBookingRepo) CancelIfPendingOwned(_ context.Context, id, userID string) (bool, error) {
	for _, b := range m.bookings {
		if b.BookingID == id && b.BookedBy == userID && b.Status == model.BookingStatusPending {
			b.Status = model.BookingStatusCancelled
			b.Version++
			return true, nil
		}
	}
	return false, nil
}

func (m *mockBookingRepo) UpdateReview(_ context.Context, booking *model.Booking) error {
	for _, b := range m.bookings {
		if b.BookingID == booking.BookingID {
			if b.Version != booking.Version {
				return pkgerrors.ErrOptimisticLock
			}
			b.Status = booking.Status
			b.ReviewedBy = booking.ReviewedBy
			b.ReviewedAt = booking.ReviewedAt
			b.Version++
			booking.Version = b.Version
			return nil
		}
	}
	return pkgerrors.ErrOptimisticLock
}

func paginate(all []model.Booking, offset, limit int) []model.Booking {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

// ── Mock SeriesRepository ──

type mockSeriesRepo struct {
	series map[string]*model.BookingSeries
}

func newMockSeriesRepo() *mockSeriesRepo {
	return &mockSeriesRepo{series: make(map[string]*model.BookingSeries)}
}

func (m *mockSeriesRepo) Create(_ context.Context, s *model.BookingSeries) error {
	if s.SeriesID == "" {
		s.SeriesID = fmt.Sprintf("series-%d", len(m.series)+1)
	}
	m.series[s.SeriesID] = s
	return nil
}

func (m *mockSeriesRepo) GetByID(_ context.Context, id string) (*model.BookingSeries, error) {
	if s, ok := m.series[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSeriesRepo) UpdateCounts(_ context.Context, id string, created, skipped int) error {
	s, ok := m.series[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.CreatedCount = created
	s.SkippedCount = skipped
	return nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	items []*model.Notification
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if n.NotificationID == "" {
		n.NotificationID = fmt.Sprintf("n-%d", len(m.items)+1)
	}
	m.items = append(m.items, n)
	return nil
}

func (m *mockNotificationRepo) BatchCreate(ctx context.Context, ns []model.Notification) error {
	for i := range ns {
		n := ns[i]
		_ = m.Create(ctx, &n)
	}
	return nil
}

func (m *mockNotificationRepo) forUser(userID string) []*model.Notification {
	var result []*model.Notification
	for _, n := range m.items {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result
}

func (m *mockNotificationRepo) List(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	var all []model.Notification
	for _, n := range m.forUser(userID) {
		if !unreadOnly || !n.IsRead {
			all = append(all, *n)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range m.forUser(userID) {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID string) (bool, error) {
	for _, n := range m.forUser(userID) {
		if n.NotificationID == id {
			n.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range m.forUser(userID) {
		if !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) Delete(_ context.Context, id, userID string) (bool, error) {
	for i, n := range m.items {
		if n.NotificationID == id && n.UserID == userID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ── Mock Cache / TokenStore ──

type mockCache struct {
	data    map[string][]byte
	deletes int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) GetJSON(_ context.Context, key string, dst interface{}) error {
	raw, ok := m.data[key]
	if !ok {
		return redis.ErrCacheMiss
	}
	return json.Unmarshal(raw, dst)
}

func (m *mockCache) SetJSON(_ context.Context, key string, v interface{}, _ time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *mockCache) Delete(_ context.Context, keys ...string) error {
	m.deletes++
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

type mockTokenStore struct {
	revoked map[string]bool
}

func newMockTokenStore() *mockTokenStore {
	return &mockTokenStore{revoked: make(map[string]bool)}
}

func (m *mockTokenStore) BlacklistToken(_ context.Context, jti string, _ time.Duration) error {
	m.revoked[jti] = true
	return nil
}

func (m *mockTokenStore) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return m.revoked[jti], nil
}

// ── 测试装配 ──

type testRepos struct {
	user         *mockUserRepo
	room         *mockRoomRepo
	booking      *mockBookingRepo
	series       *mockSeriesRepo
	notification *mockNotificationRepo
}

func newTestRepository() (*repository.Repository, *testRepos) {
	rooms := newMockRoomRepo()
	m := &testRepos{
		user:         newMockUserRepo(),
		room:         rooms,
		booking:      newMockBookingRepo(rooms),
		series:       newMockSeriesRepo(),
		notification: newMockNotificationRepo(),
	}
	repo := &repository.Repository{
		User:         m.user,
		Course:       newMockCourseRepo(),
		Lecturer:     newMockLecturerRepo(),
		Room:         m.room,
		Booking:      m.booking,
		Series:       m.series,
		Notification: m.notification,
	}
	return repo, m
}

func newTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{BaseURL: "http://localhost:8080"},
		Redis:  config.RedisConfig{RoomTTL: 5 * time.Minute},
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret-key-for-unit-testing-2026",
			AccessTokenTTL:          15 * time.Minute,
			RefreshTokenTTLDefault:  24 * time.Hour,
			RefreshTokenTTLRemember: 7 * 24 * time.Hour,
		},
		Booking: config.BookingConfig{
			Timezone:      "UTC",
			MaxSeriesDays: 180,
			UpcomingLimit: 5,
		},
	}
}
