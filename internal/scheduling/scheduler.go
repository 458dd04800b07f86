package scheduling

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"room-booking/internal/model"
)

// Request 批量预约请求（不持久化，消费一次）
type Request struct {
	StartDate time.Time
	EndDate   time.Time
	StartTime Clock
	EndTime   Clock
	Mode      Mode
	Weekdays  WeekdaySet
}

// Validate 校验请求；maxDays<=0 表示不限制跨度
//
// once 模式不读取 EndDate，因此也不校验它。
func (r *Request) Validate(maxDays int) error {
	if r.StartDate.IsZero() {
		return fmt.Errorf("%w: 缺少开始日期", ErrInvalidInput)
	}
	if r.StartTime >= r.EndTime {
		return fmt.Errorf("%w: 开始时刻 %s 必须早于结束时刻 %s", ErrInvalidInput, r.StartTime, r.EndTime)
	}

	switch r.Mode {
	case ModeOnce:
		return nil
	case ModeDaily, ModeWeekly:
	default:
		return fmt.Errorf("%w: 未知的重复模式 %q", ErrInvalidInput, r.Mode)
	}

	if r.EndDate.IsZero() {
		return fmt.Errorf("%w: 缺少结束日期", ErrInvalidInput)
	}
	start, end := DateOf(r.StartDate), DateOf(r.EndDate)
	if end.Before(start) {
		return fmt.Errorf("%w: 结束日期早于开始日期", ErrInvalidInput)
	}
	if maxDays > 0 {
		span := DaysBetween(start, end) + 1
		if span > maxDays {
			return fmt.Errorf("%w: 日期跨度 %d 天超过上限 %d 天", ErrInvalidInput, span, maxDays)
		}
	}
	if r.Mode == ModeWeekly && r.Weekdays.Len() == 0 {
		return fmt.Errorf("%w: 按周重复需至少选择一个星期", ErrInvalidInput)
	}
	return nil
}

// Dates 展开后的候选日期
func (r *Request) Dates() []time.Time {
	return Expand(r.StartDate, r.EndDate, r.Mode, r.Weekdays)
}

// Template 批量生成的预约共享的归属信息
type Template struct {
	RoomID     string
	BookedBy   string
	CourseID   *string
	LecturerID *string
	SeriesID   *string
	Subject    *string
	Remarks    *string
}

// Result 批量预约结果：部分成功语义，已写入的不回滚
type Result struct {
	Created      []*model.Booking
	SkippedDates []time.Time
	// InvalidDates 当天请求的时刻因夏令时切换不存在，未尝试预约
	InvalidDates []time.Time
}

// SkippedCount 因冲突跳过的日期数
func (r *Result) SkippedCount() int { return len(r.SkippedDates) }

// Scheduler 组合 RecurrenceExpander 与 ConflictChecker 的批量预约器
type Scheduler struct {
	store   BookingStore
	checker *ConflictChecker
	maxDays int
}

// NewScheduler 创建 Scheduler；maxDays 为批量请求允许的最大日期跨度
func NewScheduler(store BookingStore, maxDays int) *Scheduler {
	return &Scheduler{
		store:   store,
		checker: NewConflictChecker(store),
		maxDays: maxDays,
	}
}

// Checker 暴露只读检查器，供预检接口使用
func (s *Scheduler) Checker() *ConflictChecker { return s.checker }

// Schedule 逐日检查并预留
//
// 每个日期独立执行 check → reserve；无冲突的写入 pending 预约，冲突的计入跳过。
// 中途出错时返回已完成的部分结果与错误，之前写入的预约保持不变。
func (s *Scheduler) Schedule(ctx context.Context, req Request, tpl Template) (*Result, error) {
	if err := req.Validate(s.maxDays); err != nil {
		return nil, err
	}
	if tpl.RoomID == "" || tpl.BookedBy == "" {
		return nil, fmt.Errorf("%w: 缺少教室或预约人", ErrInvalidInput)
	}

	result := &Result{}
	for _, date := range req.Dates() {
		iv, err := LocalInterval(date, req.StartTime, req.EndTime)
		if err != nil {
			result.InvalidDates = append(result.InvalidDates, date)
			continue
		}

		conflict, err := s.checker.HasConflict(ctx, tpl.RoomID, iv.Start, iv.End)
		if err != nil {
			return result, fmt.Errorf("检查 %s 冲突失败: %w", date.Format("2006-01-02"), err)
		}
		if conflict {
			result.SkippedDates = append(result.SkippedDates, date)
			continue
		}

		booking := newPendingBooking(date, iv, tpl)
		if err := s.store.Reserve(ctx, booking); err != nil {
			// 检查之后被并发请求抢先占用
			if isConflict(err) {
				result.SkippedDates = append(result.SkippedDates, date)
				continue
			}
			return result, fmt.Errorf("写入 %s 预约失败: %w", date.Format("2006-01-02"), err)
		}
		result.Created = append(result.Created, booking)
	}
	return result, nil
}

// Book 单次预约：退化为只有一个日期的 Schedule，冲突直接返回 ErrConflict
func (s *Scheduler) Book(ctx context.Context, date time.Time, start, end Clock, tpl Template) (*model.Booking, error) {
	result, err := s.Schedule(ctx, Request{
		StartDate: date,
		EndDate:   date,
		StartTime: start,
		EndTime:   end,
		Mode:      ModeOnce,
	}, tpl)
	if err != nil {
		return nil, err
	}
	if len(result.InvalidDates) > 0 {
		_, err := LocalInterval(date, start, end)
		return nil, err
	}
	if len(result.Created) == 0 {
		return nil, ErrConflict
	}
	return result.Created[0], nil
}

func newPendingBooking(date time.Time, iv Interval, tpl Template) *model.Booking {
	return &model.Booking{
		RoomID:          tpl.RoomID,
		BookedBy:        tpl.BookedBy,
		CourseID:        tpl.CourseID,
		LecturerID:      tpl.LecturerID,
		SeriesID:        tpl.SeriesID,
		BookingDate:     datatypes.Date(DateOf(date)),
		StartTime:       iv.Start,
		EndTime:         iv.End,
		DurationMinutes: iv.Minutes(),
		Subject:         tpl.Subject,
		Remarks:         tpl.Remarks,
		Status:          model.BookingStatusPending,
	}
}
