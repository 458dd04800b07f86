package dto

// BookingCounts 各状态预约数
type BookingCounts struct {
	Pending   int64 `json:"pending"`
	Approved  int64 `json:"approved"`
	Cancelled int64 `json:"cancelled"`
	Total     int64 `json:"total"`
}

// DashboardResponse 仪表盘
// 课代表看到自己的统计；审批人与管理员看到全局统计与待审批数
type DashboardResponse struct {
	User                UserResponse      `json:"user"`
	Counts              BookingCounts     `json:"counts"`
	Upcoming            []BookingResponse `json:"upcoming"`
	UnreadNotifications int64             `json:"unread_notifications"`
	PendingReview       *int64            `json:"pending_review,omitempty"`
}
