package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"room-booking/config"
	"room-booking/internal/dto"
	"room-booking/internal/model"
	"room-booking/internal/repository"
	"room-booking/internal/scheduling"
	pkgerrors "room-booking/pkg/errors"
	"room-booking/pkg/redis"
)

// ── 教室模块业务错误 ──

var (
	ErrRoomNotFound    = errors.New("教室不存在")
	ErrRoomNameTaken   = errors.New("教室名称已存在")
	ErrRoomUnavailable = errors.New("教室当前不可预约")
	ErrInvalidDate     = errors.New("日期格式应为 YYYY-MM-DD")
	ErrRoomInUse       = errors.New("教室仍有未结束的预约，无法删除")
)

const (
	roomCacheKeyAll       = "rooms:all"
	roomCacheKeyAvailable = "rooms:available"
)

// RoomService 教室业务接口
type RoomService interface {
	List(ctx context.Context, req *dto.RoomListRequest) ([]dto.RoomResponse, error)
	GetByID(ctx context.Context, id string) (*dto.RoomResponse, error)
	DayBookings(ctx context.Context, id string, req *dto.RoomDayRequest) (*dto.RoomDayResponse, error)
	Create(ctx context.Context, req *dto.CreateRoomRequest, callerID string) (*dto.RoomResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateRoomRequest, callerID string) (*dto.RoomResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type roomService struct {
	repo   *repository.Repository
	cache  Cache // 可为 nil
	ttl    time.Duration
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewRoomService 创建 RoomService 实例
func NewRoomService(cfg *config.Config, repo *repository.Repository, cache Cache, logger *zap.Logger) RoomService {
	return &roomService{
		repo:   repo,
		cache:  cache,
		ttl:    cfg.Redis.RoomTTL,
		loc:    cfg.Booking.Location(),
		now:    time.Now,
		logger: logger,
	}
}

// ────────────────────── List ──────────────────────

// List 优先读缓存；缓存故障时回源数据库
func (s *roomService) List(ctx context.Context, req *dto.RoomListRequest) ([]dto.RoomResponse, error) {
	key := roomCacheKeyAll
	if req.AvailableOnly {
		key = roomCacheKeyAvailable
	}

	if s.cache != nil {
		var cached []dto.RoomResponse
		err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.logger.Warn("读取教室缓存失败", zap.String("key", key), zap.Error(err))
		}
	}

	rooms, err := s.repo.Room.List(ctx, req.AvailableOnly)
	if err != nil {
		s.logger.Error("列出教室失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.RoomResponse, 0, len(rooms))
	for i := range rooms {
		result = append(result, *toRoomResponse(&rooms[i]))
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, result, s.ttl); err != nil {
			s.logger.Warn("写入教室缓存失败", zap.String("key", key), zap.Error(err))
		}
	}
	return result, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *roomService) GetByID(ctx context.Context, id string) (*dto.RoomResponse, error) {
	room, err := s.getRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	return toRoomResponse(room), nil
}

// ────────────────────── DayBookings ──────────────────────

func (s *roomService) DayBookings(ctx context.Context, id string, req *dto.RoomDayRequest) (*dto.RoomDayResponse, error) {
	room, err := s.getRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	date, err := scheduling.ParseDate(req.Date, s.loc)
	if err != nil {
		return nil, ErrInvalidDate
	}

	bookings, err := s.repo.Booking.ListByRoomAndDate(ctx, id, date)
	if err != nil {
		s.logger.Error("查询教室预约失败", zap.String("room_id", id), zap.Error(err))
		return nil, err
	}

	briefs := make([]dto.BookingBrief, 0, len(bookings))
	for _, b := range bookings {
		briefs = append(briefs, dto.BookingBrief{
			ID:        b.BookingID,
			StartTime: b.StartTime.In(s.loc).Format(clockLayout),
			EndTime:   b.EndTime.In(s.loc).Format(clockLayout),
			Status:    b.Status,
		})
	}

	return &dto.RoomDayResponse{
		Room:     *toRoomResponse(room),
		Date:     date.Format(dateLayout),
		Bookings: briefs,
	}, nil
}

// ────────────────────── Create ──────────────────────

func (s *roomService) Create(ctx context.Context, req *dto.CreateRoomRequest, callerID string) (*dto.RoomResponse, error) {
	room := &model.Room{
		Name:        strings.TrimSpace(req.Name),
		Location:    req.Location,
		Capacity:    req.Capacity,
		IsAvailable: true,
	}
	room.CreatedBy = &callerID
	room.UpdatedBy = &callerID

	if err := s.repo.Room.Create(ctx, room); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrRoomNameTaken
		}
		s.logger.Error("创建教室失败", zap.Error(err))
		return nil, err
	}

	s.invalidate(ctx)
	return toRoomResponse(room), nil
}

// ────────────────────── Update ──────────────────────

func (s *roomService) Update(ctx context.Context, id string, req *dto.UpdateRoomRequest, callerID string) (*dto.RoomResponse, error) {
	room, err := s.getRoom(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		room.Name = strings.TrimSpace(*req.Name)
	}
	if req.Location != nil {
		room.Location = *req.Location
	}
	if req.Capacity != nil {
		room.Capacity = *req.Capacity
	}
	if req.IsAvailable != nil {
		room.IsAvailable = *req.IsAvailable
	}
	room.UpdatedBy = &callerID

	if err := s.repo.Room.Update(ctx, room); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrRoomNameTaken
		}
		s.logger.Error("更新教室失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.invalidate(ctx)
	return toRoomResponse(room), nil
}

// ────────────────────── Delete ──────────────────────

func (s *roomService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.getRoom(ctx, id); err != nil {
		return err
	}

	inUse, err := s.repo.Booking.HasActiveFrom(ctx, id, s.now())
	if err != nil {
		s.logger.Error("检查教室预约失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if inUse {
		return ErrRoomInUse
	}

	if err := s.repo.Room.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除教室失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.invalidate(ctx)
	return nil
}

// ── 内部辅助方法 ──

func (s *roomService) getRoom(ctx context.Context, id string) (*model.Room, error) {
	room, err := s.repo.Room.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		s.logger.Error("查询教室失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return room, nil
}

func (s *roomService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, roomCacheKeyAll, roomCacheKeyAvailable); err != nil {
		s.logger.Warn("清除教室缓存失败", zap.Error(err))
	}
}
