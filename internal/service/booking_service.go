package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"room-booking/config"
	"room-booking/internal/dto"
	"room-booking/internal/event"
	"room-booking/internal/model"
	"room-booking/internal/repository"
	"room-booking/internal/scheduling"
)

// ── 预约模块业务错误 ──

var (
	ErrBookingNotFound    = errors.New("预约不存在")
	ErrBookingInvalid     = errors.New("预约参数无效")
	ErrBookingConflict    = errors.New("该时段与已有预约冲突")
	ErrBookingForbidden   = errors.New("无权访问该预约")
	ErrBookingNotPending  = errors.New("只能审批待审核的预约")
	ErrCannotCancel       = errors.New("无法取消该预约")
	ErrLecturerNotFound   = errors.New("教师不存在")
	ErrCourseNotFound     = errors.New("课程不存在")
	ErrScheduleIncomplete = errors.New("批量预约中途失败，已创建的预约保留")
)

// BookingService 预约业务接口
type BookingService interface {
	Create(ctx context.Context, req *dto.CreateBookingRequest, callerID, callerCourseID string) (*dto.BookingResponse, error)
	Check(ctx context.Context, req *dto.CheckConflictRequest) (*dto.CheckConflictResponse, error)
	// Schedule 失败时若已有部分写入，返回部分结果与 ErrScheduleIncomplete
	Schedule(ctx context.Context, req *dto.ScheduleBookingRequest, callerID, callerCourseID string) (*dto.ScheduleBookingResponse, error)
	GetByID(ctx context.Context, id, callerID, callerRole string) (*dto.BookingResponse, error)
	ListMine(ctx context.Context, userID string, req *dto.BookingListRequest) ([]dto.BookingResponse, int64, error)
	Cancel(ctx context.Context, id, callerID string) error
	ListPending(ctx context.Context, req *dto.PaginationRequest) ([]dto.BookingResponse, int64, error)
	Approve(ctx context.Context, id, reviewerID string) (*dto.BookingResponse, error)
	Reject(ctx context.Context, id, reviewerID string, req *dto.ReviewBookingRequest) (*dto.BookingResponse, error)
}

type bookingService struct {
	repo      *repository.Repository
	scheduler *scheduling.Scheduler
	publisher event.Publisher
	loc       *time.Location
	maxDays   int
	logger    *zap.Logger
}

// NewBookingService 创建 BookingService 实例
func NewBookingService(cfg *config.Config, repo *repository.Repository, publisher event.Publisher, logger *zap.Logger) BookingService {
	return &bookingService{
		repo:      repo,
		scheduler: scheduling.NewScheduler(repo.Booking, cfg.Booking.MaxSeriesDays),
		publisher: publisher,
		loc:       cfg.Booking.Location(),
		maxDays:   cfg.Booking.MaxSeriesDays,
		logger:    logger,
	}
}

// ────────────────────── Create ──────────────────────

// Create 单次预约：check → reserve，冲突返回 ErrBookingConflict
func (s *bookingService) Create(ctx context.Context, req *dto.CreateBookingRequest, callerID, callerCourseID string) (*dto.BookingResponse, error) {
	date, err := scheduling.ParseDate(req.Date, s.loc)
	if err != nil {
		return nil, invalid(err)
	}
	start, end, err := parseClocks(req.StartTime, req.EndTime)
	if err != nil {
		return nil, invalid(err)
	}

	room, err := s.bookableRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	tpl, err := s.template(ctx, room.RoomID, callerID, callerCourseID, req.CourseID, req.LecturerID, req.Subject, req.Remarks)
	if err != nil {
		return nil, err
	}

	booking, err := s.scheduler.Book(ctx, date, start, end, tpl)
	if err != nil {
		return nil, s.mapSchedulingError(err)
	}
	booking.Room = room

	s.publish(ctx, event.KeyBookingCreated, bookingEvent(booking, room, callerID))

	return toBookingResponse(booking, s.loc), nil
}

// ────────────────────── Check ──────────────────────

// Check 只读预检，不写入
func (s *bookingService) Check(ctx context.Context, req *dto.CheckConflictRequest) (*dto.CheckConflictResponse, error) {
	date, err := scheduling.ParseDate(req.Date, s.loc)
	if err != nil {
		return nil, invalid(err)
	}
	start, end, err := parseClocks(req.StartTime, req.EndTime)
	if err != nil {
		return nil, invalid(err)
	}
	if _, err := s.bookableRoom(ctx, req.RoomID); err != nil {
		return nil, err
	}

	iv, err := scheduling.LocalInterval(date, start, end)
	if err != nil {
		return nil, invalid(err)
	}
	conflict, err := s.scheduler.Checker().HasConflict(ctx, req.RoomID, iv.Start, iv.End)
	if err != nil {
		return nil, s.mapSchedulingError(err)
	}
	return &dto.CheckConflictResponse{Conflict: conflict}, nil
}

// ────────────────────── Schedule ──────────────────────

func (s *bookingService) Schedule(ctx context.Context, req *dto.ScheduleBookingRequest, callerID, callerCourseID string) (*dto.ScheduleBookingResponse, error) {
	sreq, err := s.parseScheduleRequest(req)
	if err != nil {
		return nil, err
	}
	// 先校验，避免为无效请求留下空的 series 记录
	if err := sreq.Validate(s.maxDays); err != nil {
		return nil, invalid(err)
	}

	room, err := s.bookableRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	tpl, err := s.template(ctx, room.RoomID, callerID, callerCourseID, req.CourseID, req.LecturerID, req.Subject, req.Remarks)
	if err != nil {
		return nil, err
	}

	endDate := sreq.EndDate
	if sreq.Mode == scheduling.ModeOnce {
		endDate = sreq.StartDate
	}
	series := &model.BookingSeries{
		RoomID:     room.RoomID,
		BookedBy:   callerID,
		Mode:       string(sreq.Mode),
		StartDate:  datatypes.Date(sreq.StartDate),
		EndDate:    datatypes.Date(endDate),
		StartClock: sreq.StartTime.String(),
		EndClock:   sreq.EndTime.String(),
		Weekdays:   model.Weekdays(sreq.Weekdays.Days()),
	}
	series.CreatedBy = &callerID
	if err := s.repo.Series.Create(ctx, series); err != nil {
		s.logger.Error("创建批量预约记录失败", zap.Error(err))
		return nil, err
	}
	tpl.SeriesID = &series.SeriesID

	result, schedErr := s.scheduler.Schedule(ctx, sreq, tpl)
	if result == nil {
		return nil, s.mapSchedulingError(schedErr)
	}

	if err := s.repo.Series.UpdateCounts(ctx, series.SeriesID, len(result.Created), result.SkippedCount()); err != nil {
		s.logger.Warn("更新批量预约统计失败", zap.String("series_id", series.SeriesID), zap.Error(err))
	}

	resp := s.toScheduleResponse(series.SeriesID, result, room)

	if schedErr != nil {
		s.logger.Error("批量预约中途失败",
			zap.String("series_id", series.SeriesID),
			zap.Int("created", len(result.Created)),
			zap.Error(schedErr),
		)
		return resp, fmt.Errorf("%w: %v", ErrScheduleIncomplete, schedErr)
	}

	s.logger.Info("批量预约完成",
		zap.String("series_id", series.SeriesID),
		zap.String("mode", series.Mode),
		zap.Int("created", resp.CreatedCount),
		zap.Int("skipped", resp.SkippedCount),
	)
	s.publish(ctx, event.KeyBookingScheduled, event.SeriesEvent{
		SeriesID:  series.SeriesID,
		OwnerID:   callerID,
		RoomID:    room.RoomID,
		RoomName:  room.Name,
		Mode:      series.Mode,
		StartDate: sreq.StartDate,
		EndDate:   endDate,
		Created:   resp.CreatedCount,
		Skipped:   resp.SkippedCount,
	})

	return resp, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *bookingService) GetByID(ctx context.Context, id, callerID, callerRole string) (*dto.BookingResponse, error) {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.BookedBy != callerID && !isReviewer(callerRole) {
		return nil, ErrBookingForbidden
	}
	return toBookingResponse(booking, s.loc), nil
}

// ────────────────────── ListMine ──────────────────────

func (s *bookingService) ListMine(ctx context.Context, userID string, req *dto.BookingListRequest) ([]dto.BookingResponse, int64, error) {
	offset, limit := req.Window()
	list, total, err := s.repo.Booking.ListByUser(ctx, userID, req.Status, offset, limit)
	if err != nil {
		s.logger.Error("查询我的预约失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}
	return toBookingResponses(list, s.loc), total, nil
}

// ────────────────────── Cancel ──────────────────────

// Cancel 仅本人且 pending 时可取消；其余情况（不存在、非本人、已审批、已取消）
// 一律返回 ErrCannotCancel
func (s *bookingService) Cancel(ctx context.Context, id, callerID string) error {
	ok, err := s.repo.Booking.CancelIfPendingOwned(ctx, id, callerID)
	if err != nil {
		s.logger.Error("取消预约失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if !ok {
		return ErrCannotCancel
	}

	if booking, err := s.repo.Booking.GetByID(ctx, id); err == nil {
		s.publish(ctx, event.KeyBookingCancelled, bookingEvent(booking, booking.Room, callerID))
	}
	return nil
}

// ────────────────────── Review ──────────────────────

func (s *bookingService) ListPending(ctx context.Context, req *dto.PaginationRequest) ([]dto.BookingResponse, int64, error) {
	offset, limit := req.Window()
	list, total, err := s.repo.Booking.ListPending(ctx, offset, limit)
	if err != nil {
		s.logger.Error("查询待审批预约失败", zap.Error(err))
		return nil, 0, err
	}
	return toBookingResponses(list, s.loc), total, nil
}

func (s *bookingService) Approve(ctx context.Context, id, reviewerID string) (*dto.BookingResponse, error) {
	booking, err := s.review(ctx, id, reviewerID, model.BookingStatusApproved)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event.KeyBookingApproved, bookingEvent(booking, booking.Room, reviewerID))
	return toBookingResponse(booking, s.loc), nil
}

// Reject 驳回即由审批人将 pending 置为 cancelled
func (s *bookingService) Reject(ctx context.Context, id, reviewerID string, req *dto.ReviewBookingRequest) (*dto.BookingResponse, error) {
	booking, err := s.review(ctx, id, reviewerID, model.BookingStatusCancelled)
	if err != nil {
		return nil, err
	}
	ev := bookingEvent(booking, booking.Room, reviewerID)
	ev.Reason = req.Reason
	s.publish(ctx, event.KeyBookingRejected, ev)
	return toBookingResponse(booking, s.loc), nil
}

func (s *bookingService) review(ctx context.Context, id, reviewerID, status string) (*model.Booking, error) {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != model.BookingStatusPending {
		return nil, ErrBookingNotPending
	}

	now := time.Now().UTC()
	booking.Status = status
	booking.ReviewedBy = &reviewerID
	booking.ReviewedAt = &now
	booking.UpdatedBy = &reviewerID

	if err := s.repo.Booking.UpdateReview(ctx, booking); err != nil {
		s.logger.Warn("审批预约失败", zap.String("id", id), zap.String("status", status), zap.Error(err))
		return nil, err
	}
	return booking, nil
}

// ── 内部辅助方法 ──

func (s *bookingService) parseScheduleRequest(req *dto.ScheduleBookingRequest) (scheduling.Request, error) {
	var sreq scheduling.Request

	mode, err := scheduling.ParseMode(req.RecurrenceMode)
	if err != nil {
		return sreq, invalid(err)
	}
	sreq.Mode = mode

	if sreq.StartDate, err = scheduling.ParseDate(req.StartDate, s.loc); err != nil {
		return sreq, invalid(err)
	}
	// once 模式忽略 end_date
	if req.EndDate != "" && mode != scheduling.ModeOnce {
		if sreq.EndDate, err = scheduling.ParseDate(req.EndDate, s.loc); err != nil {
			return sreq, invalid(err)
		}
	}
	if sreq.StartTime, sreq.EndTime, err = parseClocks(req.StartTime, req.EndTime); err != nil {
		return sreq, invalid(err)
	}
	if mode == scheduling.ModeWeekly {
		if sreq.Weekdays, err = scheduling.NewWeekdaySet(req.SelectedWeekdays...); err != nil {
			return sreq, invalid(err)
		}
	}
	return sreq, nil
}

func (s *bookingService) bookableRoom(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := s.repo.Room.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		s.logger.Error("查询教室失败", zap.String("room_id", roomID), zap.Error(err))
		return nil, err
	}
	if !room.IsAvailable {
		return nil, ErrRoomUnavailable
	}
	return room, nil
}

// template 组装批量预约共享字段；未显式指定课程时使用预约人所属课程
func (s *bookingService) template(
	ctx context.Context,
	roomID, callerID, callerCourseID string,
	courseID, lecturerID, subject, remarks *string,
) (scheduling.Template, error) {
	tpl := scheduling.Template{
		RoomID:   roomID,
		BookedBy: callerID,
		Subject:  subject,
		Remarks:  remarks,
	}

	switch {
	case courseID != nil && *courseID != "":
		if _, err := s.repo.Course.GetByID(ctx, *courseID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return tpl, ErrCourseNotFound
			}
			return tpl, err
		}
		tpl.CourseID = courseID
	case callerCourseID != "":
		tpl.CourseID = &callerCourseID
	}

	if lecturerID != nil && *lecturerID != "" {
		if _, err := s.repo.Lecturer.GetByID(ctx, *lecturerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return tpl, ErrLecturerNotFound
			}
			return tpl, err
		}
		tpl.LecturerID = lecturerID
	}
	return tpl, nil
}

func (s *bookingService) getBooking(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.repo.Booking.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		s.logger.Error("查询预约失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) mapSchedulingError(err error) error {
	switch {
	case errors.Is(err, scheduling.ErrConflict):
		return ErrBookingConflict
	case errors.Is(err, scheduling.ErrInvalidInput):
		return invalid(err)
	default:
		s.logger.Error("预约写入失败", zap.Error(err))
		return err
	}
}

func (s *bookingService) toScheduleResponse(seriesID string, result *scheduling.Result, room *model.Room) *dto.ScheduleBookingResponse {
	created := make([]dto.BookingResponse, 0, len(result.Created))
	for _, b := range result.Created {
		b.Room = room
		created = append(created, *toBookingResponse(b, s.loc))
	}
	skipped := make([]string, 0, len(result.SkippedDates))
	for _, d := range result.SkippedDates {
		skipped = append(skipped, d.Format(dateLayout))
	}
	var invalidDates []string
	for _, d := range result.InvalidDates {
		invalidDates = append(invalidDates, d.Format(dateLayout))
	}
	return &dto.ScheduleBookingResponse{
		SeriesID:     seriesID,
		CreatedCount: len(result.Created),
		SkippedCount: result.SkippedCount(),
		SkippedDates: skipped,
		InvalidDates: invalidDates,
		Created:      created,
	}
}

// publish 事件失败不影响预约结果
func (s *bookingService) publish(ctx context.Context, key string, v interface{}) {
	if err := s.publisher.Publish(ctx, key, v); err != nil {
		s.logger.Warn("发布预约事件失败", zap.String("key", key), zap.Error(err))
	}
}

func bookingEvent(b *model.Booking, room *model.Room, actorID string) event.BookingEvent {
	ev := event.BookingEvent{
		BookingID: b.BookingID,
		OwnerID:   b.BookedBy,
		ActorID:   actorID,
		RoomID:    b.RoomID,
		Start:     b.StartTime,
		End:       b.EndTime,
	}
	if room != nil {
		ev.RoomName = room.Name
	}
	return ev
}

// invalid 将解析/校验错误归入 ErrBookingInvalid，保留原始描述
func invalid(err error) error {
	detail := strings.TrimPrefix(err.Error(), scheduling.ErrInvalidInput.Error()+": ")
	return fmt.Errorf("%w: %s", ErrBookingInvalid, detail)
}

func parseClocks(start, end string) (scheduling.Clock, scheduling.Clock, error) {
	s, err := scheduling.ParseClock(start)
	if err != nil {
		return 0, 0, err
	}
	e, err := scheduling.ParseClock(end)
	if err != nil {
		return 0, 0, err
	}
	return s, e, nil
}

func isReviewer(role string) bool {
	return role == model.RoleApprover || role == model.RoleAdmin
}
