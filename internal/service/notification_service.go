package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"room-booking/internal/dto"
	"room-booking/internal/event"
	"room-booking/internal/model"
	"room-booking/internal/repository"
)

// ── 通知模块业务错误 ──

var (
	ErrNotificationNotFound = errors.New("通知不存在")
)

const (
	relatedBooking = "booking"
	relatedSeries  = "booking_series"
)

// NotificationService 站内通知业务接口，同时作为预约事件的处理器
type NotificationService interface {
	event.Handler

	List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error)
	UnreadCount(ctx context.Context, userID string) (*dto.UnreadCountResponse, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (*dto.MarkAllReadResponse, error)
	Delete(ctx context.Context, id, userID string) error
}

type notificationService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, loc: loc, logger: logger}
}

// ────────────────────── 查询 ──────────────────────

func (s *notificationService) List(ctx context.Context, userID string, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error) {
	offset, limit := req.Window()
	list, total, err := s.repo.Notification.List(ctx, userID, req.UnreadOnly, offset, limit)
	if err != nil {
		s.logger.Error("查询通知失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.NotificationResponse, 0, len(list))
	for _, n := range list {
		result = append(result, dto.NotificationResponse{
			ID:          n.NotificationID,
			Type:        n.Type,
			Title:       n.Title,
			Content:     n.Content,
			IsRead:      n.IsRead,
			RelatedType: n.RelatedType,
			RelatedID:   n.RelatedID,
			CreatedAt:   n.CreatedAt.Format(stampLayout),
		})
	}
	return result, total, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (*dto.UnreadCountResponse, error) {
	count, err := s.repo.Notification.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error("统计未读通知失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return &dto.UnreadCountResponse{Count: count}, nil
}

// ────────────────────── 状态变更 ──────────────────────

func (s *notificationService) MarkRead(ctx context.Context, id, userID string) error {
	ok, err := s.repo.Notification.MarkRead(ctx, id, userID)
	if err != nil {
		s.logger.Error("标记通知已读失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (*dto.MarkAllReadResponse, error) {
	n, err := s.repo.Notification.MarkAllRead(ctx, userID)
	if err != nil {
		s.logger.Error("全部标记已读失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return &dto.MarkAllReadResponse{Updated: n}, nil
}

func (s *notificationService) Delete(ctx context.Context, id, userID string) error {
	ok, err := s.repo.Notification.Delete(ctx, id, userID)
	if err != nil {
		s.logger.Error("删除通知失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

// ═══════════════════════════════════════════════════════════
// HandleEvent 将预约事件转为站内通知
// ═══════════════════════════════════════════════════════════

func (s *notificationService) HandleEvent(ctx context.Context, key string, body []byte) error {
	switch key {
	case event.KeyBookingCreated:
		ev, err := event.Decode[event.BookingEvent](body)
		if err != nil {
			return err
		}
		owner := s.bookingNotice(ev, model.NotificationBookingCreated, "预约已提交",
			"您在 %s 的预约（%s）已提交，等待审批。")
		reviewers, err := s.reviewerNotices(ctx, model.NotificationBookingCreated, relatedBooking, ev.BookingID, "新的预约待审批",
			fmt.Sprintf("%s %s 有一条新的预约待审批。", ev.RoomName, s.timeRange(ev.Start, ev.End)))
		if err != nil {
			return err
		}
		return s.repo.Notification.BatchCreate(ctx, append([]model.Notification{owner}, reviewers...))

	case event.KeyBookingScheduled:
		ev, err := event.Decode[event.SeriesEvent](body)
		if err != nil {
			return err
		}
		notices := []model.Notification{{
			UserID: ev.OwnerID,
			Type:   model.NotificationBookingScheduled,
			Title:  "批量预约完成",
			Content: fmt.Sprintf("%s %s 至 %s 的批量预约：成功 %d 条，因冲突跳过 %d 条。",
				ev.RoomName, ev.StartDate.In(s.loc).Format(dateLayout), ev.EndDate.In(s.loc).Format(dateLayout),
				ev.Created, ev.Skipped),
			RelatedType: strPtr(relatedSeries),
			RelatedID:   strPtr(ev.SeriesID),
		}}
		if ev.Created > 0 {
			reviewers, err := s.reviewerNotices(ctx, model.NotificationBookingScheduled, relatedSeries, ev.SeriesID, "新的批量预约待审批",
				fmt.Sprintf("%s 有 %d 条新的预约待审批。", ev.RoomName, ev.Created))
			if err != nil {
				return err
			}
			notices = append(notices, reviewers...)
		}
		return s.repo.Notification.BatchCreate(ctx, notices)

	case event.KeyBookingCancelled:
		return s.notifyOwner(ctx, body, model.NotificationBookingCancelled, "预约已取消",
			"您在 %s 的预约（%s）已取消。")

	case event.KeyBookingApproved:
		return s.notifyOwner(ctx, body, model.NotificationBookingApproved, "预约已通过",
			"您在 %s 的预约（%s）已通过审批。")

	case event.KeyBookingRejected:
		return s.notifyOwner(ctx, body, model.NotificationBookingRejected, "预约被驳回",
			"您在 %s 的预约（%s）未通过审批。")

	default:
		s.logger.Warn("忽略未知事件", zap.String("key", key))
		return nil
	}
}

func (s *notificationService) notifyOwner(ctx context.Context, body []byte, typ, title, format string) error {
	ev, err := event.Decode[event.BookingEvent](body)
	if err != nil {
		return err
	}
	n := s.bookingNotice(ev, typ, title, format)
	if ev.Reason != "" {
		n.Content += "原因：" + ev.Reason
	}
	return s.repo.Notification.Create(ctx, &n)
}

// bookingNotice format 依次接收教室名与时间段
func (s *notificationService) bookingNotice(ev event.BookingEvent, typ, title, format string) model.Notification {
	return model.Notification{
		UserID:      ev.OwnerID,
		Type:        typ,
		Title:       title,
		Content:     fmt.Sprintf(format, ev.RoomName, s.timeRange(ev.Start, ev.End)),
		RelatedType: strPtr(relatedBooking),
		RelatedID:   strPtr(ev.BookingID),
	}
}

func (s *notificationService) reviewerNotices(ctx context.Context, typ, relatedType, relatedID, title, content string) ([]model.Notification, error) {
	reviewers, err := s.repo.User.ListByRole(ctx, model.RoleApprover)
	if err != nil {
		s.logger.Error("查询审批人失败", zap.Error(err))
		return nil, err
	}
	notices := make([]model.Notification, 0, len(reviewers))
	for _, u := range reviewers {
		notices = append(notices, model.Notification{
			UserID:      u.UserID,
			Type:        typ,
			Title:       title,
			Content:     content,
			RelatedType: strPtr(relatedType),
			RelatedID:   strPtr(relatedID),
		})
	}
	return notices, nil
}

func (s *notificationService) timeRange(start, end time.Time) string {
	return fmt.Sprintf("%s %s-%s",
		start.In(s.loc).Format(dateLayout),
		start.In(s.loc).Format(clockLayout),
		end.In(s.loc).Format(clockLayout),
	)
}

func strPtr(v string) *string { return &v }
