package model

import (
	"time"

	"gorm.io/datatypes"
)

// 预约状态
const (
	BookingStatusPending   = "pending"
	BookingStatusApproved  = "approved"
	BookingStatusCancelled = "cancelled"
)

// Booking 教室预约表，对应 bookings
// StartTime/EndTime 与 BookingDate 同一天，区间按 [start, end) 解释
type Booking struct {
	BookingID       string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"booking_id"`
	RoomID          string         `gorm:"type:uuid;not null"                             json:"room_id"`
	BookedBy        string         `gorm:"type:uuid;not null"                             json:"booked_by"`
	LecturerID      *string        `gorm:"type:uuid"                                      json:"lecturer_id,omitempty"`
	CourseID        *string        `gorm:"type:uuid"                                      json:"course_id,omitempty"`
	SeriesID        *string        `gorm:"type:uuid"                                      json:"series_id,omitempty"`
	BookingDate     datatypes.Date `gorm:"type:date;not null"                             json:"booking_date"`
	StartTime       time.Time      `gorm:"not null"                                       json:"start_time"`
	EndTime         time.Time      `gorm:"not null"                                       json:"end_time"`
	DurationMinutes int            `gorm:"not null"                                       json:"duration_minutes"`
	Subject         *string        `gorm:"type:varchar(200)"                              json:"subject,omitempty"`
	Remarks         *string        `gorm:"type:text"                                      json:"remarks,omitempty"`
	Status          string         `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | approved | cancelled
	ReviewedBy      *string        `gorm:"type:uuid"                                      json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time     `json:"reviewed_at,omitempty"`
	VersionedModel

	// 关联
	Room     *Room     `gorm:"foreignKey:RoomID;references:RoomID"         json:"room,omitempty"`
	Booker   *User     `gorm:"foreignKey:BookedBy;references:UserID"       json:"booker,omitempty"`
	Lecturer *Lecturer `gorm:"foreignKey:LecturerID;references:LecturerID" json:"lecturer,omitempty"`
	Course   *Course   `gorm:"foreignKey:CourseID;references:CourseID"     json:"course,omitempty"`
}

// TableName 指定表名
func (Booking) TableName() string { return "bookings" }

// Date 以 time.Time 形式返回预约日期
func (b *Booking) Date() time.Time { return time.Time(b.BookingDate) }

// IsActive 未取消的预约参与冲突检测
func (b *Booking) IsActive() bool { return b.Status != BookingStatusCancelled }

// BookingSeries 批量预约记录表，对应 booking_series（一次批量请求一条）
type BookingSeries struct {
	SeriesID     string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"series_id"`
	RoomID       string         `gorm:"type:uuid;not null"                             json:"room_id"`
	BookedBy     string         `gorm:"type:uuid;not null"                             json:"booked_by"`
	Mode         string         `gorm:"type:varchar(10);not null"                      json:"mode"` // once | daily | weekly
	StartDate    datatypes.Date `gorm:"type:date;not null"                             json:"start_date"`
	EndDate      datatypes.Date `gorm:"type:date;not null"                             json:"end_date"`
	StartClock   string         `gorm:"type:varchar(5);not null"                       json:"start_clock"` // HH:MM
	EndClock     string         `gorm:"type:varchar(5);not null"                       json:"end_clock"`
	Weekdays     Weekdays       `gorm:"type:int[]"                                     json:"weekdays,omitempty"`
	CreatedCount int            `gorm:"not null;default:0"                             json:"created_count"`
	SkippedCount int            `gorm:"not null;default:0"                             json:"skipped_count"`
	BaseModel
}

// TableName 指定表名
func (BookingSeries) TableName() string { return "booking_series" }
