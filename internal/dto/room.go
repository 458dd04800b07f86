package dto

// ── 教室模块 DTO ──

// CreateRoomRequest 创建教室请求
type CreateRoomRequest struct {
	Name     string `json:"name"     binding:"required,min=1,max=100"`
	Location string `json:"location" binding:"omitempty,max=200"`
	Capacity int    `json:"capacity" binding:"min=0,max=10000"`
}

// UpdateRoomRequest 更新教室请求
type UpdateRoomRequest struct {
	Name        *string `json:"name"         binding:"omitempty,min=1,max=100"`
	Location    *string `json:"location"     binding:"omitempty,max=200"`
	Capacity    *int    `json:"capacity"     binding:"omitempty,min=0,max=10000"`
	IsAvailable *bool   `json:"is_available"`
}

// RoomListRequest 教室列表查询参数
type RoomListRequest struct {
	AvailableOnly bool `form:"available_only"`
}

// RoomDayRequest 查询教室某天的预约
type RoomDayRequest struct {
	Date string `form:"date" binding:"required,datetime=2006-01-02"`
}

// RoomResponse 教室信息响应
type RoomResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Location    string `json:"location,omitempty"`
	Capacity    int    `json:"capacity"`
	IsAvailable bool   `json:"is_available"`
}

// RoomDayResponse 教室某天的占用情况
type RoomDayResponse struct {
	Room     RoomResponse   `json:"room"`
	Date     string         `json:"date"`
	Bookings []BookingBrief `json:"bookings"`
}
