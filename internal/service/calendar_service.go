package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"room-booking/config"
	"room-booking/internal/model"
	"room-booking/internal/repository"
)

// calendarLookback 订阅源包含最近 30 天内结束的预约
const calendarLookback = 30 * 24 * time.Hour

// CalendarService iCalendar 订阅
type CalendarService interface {
	MyCalendar(ctx context.Context, userID string) ([]byte, error)
}

type calendarService struct {
	repo   *repository.Repository
	loc    *time.Location
	host   string
	now    func() time.Time
	logger *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) CalendarService {
	host := strings.TrimPrefix(strings.TrimPrefix(cfg.Server.BaseURL, "https://"), "http://")
	if host == "" {
		host = "room-booking"
	}
	return &calendarService{
		repo:   repo,
		loc:    cfg.Booking.Location(),
		host:   strings.TrimSuffix(host, "/"),
		now:    time.Now,
		logger: logger,
	}
}

// MyCalendar 生成用户未取消预约的 VCALENDAR；pending 标记为 TENTATIVE
func (s *calendarService) MyCalendar(ctx context.Context, userID string) ([]byte, error) {
	bookings, err := s.repo.Booking.ListActiveByUserSince(ctx, userID, s.now().Add(-calendarLookback))
	if err != nil {
		s.logger.Error("查询日历预约失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//room-booking//bookings//EN")
	cal.SetXWRCalName("我的教室预约")
	cal.SetXWRTimezone(s.loc.String())

	for i := range bookings {
		s.addEvent(cal, &bookings[i])
	}
	return []byte(cal.Serialize()), nil
}

func (s *calendarService) addEvent(cal *ics.Calendar, b *model.Booking) {
	ev := cal.AddEvent(fmt.Sprintf("%s@%s", b.BookingID, s.host))
	ev.SetDtStampTime(b.UpdatedAt)
	ev.SetCreatedTime(b.CreatedAt)
	ev.SetModifiedAt(b.UpdatedAt)
	ev.SetStartAt(b.StartTime)
	ev.SetEndAt(b.EndTime)

	summary := "教室预约"
	if b.Subject != nil && *b.Subject != "" {
		summary = *b.Subject
	} else if b.Course != nil {
		summary = b.Course.Code + " " + b.Course.Name
	}
	ev.SetSummary(summary)

	if b.Room != nil {
		location := b.Room.Name
		if b.Room.Location != "" {
			location += ", " + b.Room.Location
		}
		ev.SetLocation(location)
	}

	var desc []string
	if b.Lecturer != nil {
		desc = append(desc, "教师: "+b.Lecturer.Name)
	}
	if b.Remarks != nil && *b.Remarks != "" {
		desc = append(desc, *b.Remarks)
	}
	desc = append(desc, "状态: "+statusLabels[b.Status])
	ev.SetDescription(strings.Join(desc, "\n"))

	if b.Status == model.BookingStatusApproved {
		ev.SetStatus(ics.ObjectStatusConfirmed)
	} else {
		ev.SetStatus(ics.ObjectStatusTentative)
	}
}
