package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Routing keys
const (
	KeyBookingCreated   = "booking.created"
	KeyBookingScheduled = "booking.scheduled"
	KeyBookingCancelled = "booking.cancelled"
	KeyBookingApproved  = "booking.approved"
	KeyBookingRejected  = "booking.rejected"
)

// Keys 通知消费者绑定的全部 routing key
func Keys() []string {
	return []string{
		KeyBookingCreated,
		KeyBookingScheduled,
		KeyBookingCancelled,
		KeyBookingApproved,
		KeyBookingRejected,
	}
}

// ErrMalformed 消息体无法解析，重投也不会成功
var ErrMalformed = errors.New("事件消息格式错误")

// BookingEvent 单条预约的状态变化
type BookingEvent struct {
	BookingID string    `json:"booking_id"`
	OwnerID   string    `json:"owner_id"`           // 预约人
	ActorID   string    `json:"actor_id,omitempty"` // 触发者（审批人或本人）
	RoomID    string    `json:"room_id"`
	RoomName  string    `json:"room_name,omitempty"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Reason    string    `json:"reason,omitempty"` // 驳回原因
}

// SeriesEvent 一次批量预约的结果
type SeriesEvent struct {
	SeriesID  string    `json:"series_id"`
	OwnerID   string    `json:"owner_id"`
	RoomID    string    `json:"room_id"`
	RoomName  string    `json:"room_name,omitempty"`
	Mode      string    `json:"mode"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Created   int       `json:"created"`
	Skipped   int       `json:"skipped"`
}

// Decode 解析消息体，失败时包装 ErrMalformed
func Decode[T any](body []byte) (T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, nil
}
