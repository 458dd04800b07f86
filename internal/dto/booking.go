package dto

// ── 预约模块 DTO ──
// 日期格式 YYYY-MM-DD，时刻格式 HH:MM，均按服务端配置的时区解释

// CreateBookingRequest 单次预约请求
type CreateBookingRequest struct {
	RoomID     string  `json:"room_id"     binding:"required,uuid"`
	Date       string  `json:"date"        binding:"required,datetime=2006-01-02"`
	StartTime  string  `json:"start_time"  binding:"required,clock"`
	EndTime    string  `json:"end_time"    binding:"required,clock"`
	LecturerID *string `json:"lecturer_id" binding:"omitempty,uuid"`
	CourseID   *string `json:"course_id"   binding:"omitempty,uuid"`
	Subject    *string `json:"subject"     binding:"omitempty,max=200"`
	Remarks    *string `json:"remarks"     binding:"omitempty,max=1000"`
}

// CheckConflictRequest 冲突预检请求
type CheckConflictRequest struct {
	RoomID    string `json:"room_id"    binding:"required,uuid"`
	Date      string `json:"date"       binding:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" binding:"required,clock"`
	EndTime   string `json:"end_time"   binding:"required,clock"`
}

// CheckConflictResponse 冲突预检结果
type CheckConflictResponse struct {
	Conflict bool `json:"conflict"`
}

// ScheduleBookingRequest 批量（重复）预约请求
// recurrence_mode=once 时忽略 end_date
type ScheduleBookingRequest struct {
	RoomID           string  `json:"room_id"           binding:"required,uuid"`
	StartDate        string  `json:"start_date"        binding:"required,datetime=2006-01-02"`
	EndDate          string  `json:"end_date"          binding:"omitempty,datetime=2006-01-02"`
	StartTime        string  `json:"start_time"        binding:"required,clock"`
	EndTime          string  `json:"end_time"          binding:"required,clock"`
	RecurrenceMode   string  `json:"recurrence_mode"   binding:"required,oneof=once daily weekly"`
	SelectedWeekdays []int   `json:"selected_weekdays" binding:"omitempty,max=7,dive,weekday"`
	LecturerID       *string `json:"lecturer_id"       binding:"omitempty,uuid"`
	CourseID         *string `json:"course_id"         binding:"omitempty,uuid"`
	Subject          *string `json:"subject"           binding:"omitempty,max=200"`
	Remarks          *string `json:"remarks"           binding:"omitempty,max=1000"`
}

// ScheduleBookingResponse 批量预约结果
type ScheduleBookingResponse struct {
	SeriesID     string            `json:"series_id"`
	CreatedCount int               `json:"created_count"`
	SkippedCount int               `json:"skipped_count"`
	SkippedDates []string          `json:"skipped_dates"`
	InvalidDates []string          `json:"invalid_dates,omitempty"` // 当地不存在该时刻（夏令时）
	Created      []BookingResponse `json:"created"`
}

// BookingListRequest 我的预约列表查询参数
type BookingListRequest struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty,oneof=pending approved cancelled"`
}

// ReviewBookingRequest 审批请求
type ReviewBookingRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// ExportBookingsRequest 导出预约报表
type ExportBookingsRequest struct {
	From string `form:"from" binding:"required,datetime=2006-01-02"`
	To   string `form:"to"   binding:"required,datetime=2006-01-02"`
}

// BookingResponse 预约详情
type BookingResponse struct {
	ID              string         `json:"id"`
	Room            *RoomBrief     `json:"room,omitempty"`
	RoomID          string         `json:"room_id"`
	BookedBy        string         `json:"booked_by"`
	Booker          *UserBrief     `json:"booker,omitempty"`
	Lecturer        *LecturerBrief `json:"lecturer,omitempty"`
	Course          *CourseBrief   `json:"course,omitempty"`
	SeriesID        *string        `json:"series_id,omitempty"`
	Date            string         `json:"date"`
	StartTime       string         `json:"start_time"`
	EndTime         string         `json:"end_time"`
	DurationMinutes int            `json:"duration_minutes"`
	Subject         *string        `json:"subject,omitempty"`
	Remarks         *string        `json:"remarks,omitempty"`
	Status          string         `json:"status"`
	ReviewedBy      *string        `json:"reviewed_by,omitempty"`
	ReviewedAt      *string        `json:"reviewed_at,omitempty"`
	CreatedAt       string         `json:"created_at"`
}

// BookingBrief 教室占用视图使用的简要预约
type BookingBrief struct {
	ID        string `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}
