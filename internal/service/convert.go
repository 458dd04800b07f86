package service

import (
	"time"

	"room-booking/internal/dto"
	"room-booking/internal/model"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
	stampLayout = "2006-01-02T15:04:05Z07:00"
)

func toUserResponse(user *model.User) *dto.UserResponse {
	resp := &dto.UserResponse{
		ID:        user.UserID,
		Name:      user.Name,
		Email:     user.Email,
		StudentID: user.StudentID,
		Phone:     user.Phone,
		Role:      user.Role,
	}
	if user.Course != nil {
		resp.Course = toCourseBrief(user.Course)
	}
	return resp
}

func toCourseBrief(c *model.Course) *dto.CourseBrief {
	return &dto.CourseBrief{ID: c.CourseID, Code: c.Code, Name: c.Name}
}

func toRoomResponse(room *model.Room) *dto.RoomResponse {
	return &dto.RoomResponse{
		ID:          room.RoomID,
		Name:        room.Name,
		Location:    room.Location,
		Capacity:    room.Capacity,
		IsAvailable: room.IsAvailable,
	}
}

// toBookingResponse 时刻按 loc 格式化
func toBookingResponse(b *model.Booking, loc *time.Location) *dto.BookingResponse {
	resp := &dto.BookingResponse{
		ID:              b.BookingID,
		RoomID:          b.RoomID,
		BookedBy:        b.BookedBy,
		SeriesID:        b.SeriesID,
		Date:            b.StartTime.In(loc).Format(dateLayout),
		StartTime:       b.StartTime.In(loc).Format(clockLayout),
		EndTime:         b.EndTime.In(loc).Format(clockLayout),
		DurationMinutes: b.DurationMinutes,
		Subject:         b.Subject,
		Remarks:         b.Remarks,
		Status:          b.Status,
		ReviewedBy:      b.ReviewedBy,
		CreatedAt:       b.CreatedAt.Format(stampLayout),
	}
	if b.ReviewedAt != nil {
		at := b.ReviewedAt.Format(stampLayout)
		resp.ReviewedAt = &at
	}
	if b.Room != nil {
		resp.Room = &dto.RoomBrief{ID: b.Room.RoomID, Name: b.Room.Name, Location: b.Room.Location}
	}
	if b.Booker != nil {
		resp.Booker = &dto.UserBrief{ID: b.Booker.UserID, Name: b.Booker.Name, StudentID: b.Booker.StudentID}
	}
	if b.Lecturer != nil {
		resp.Lecturer = &dto.LecturerBrief{ID: b.Lecturer.LecturerID, Name: b.Lecturer.Name}
	}
	if b.Course != nil {
		resp.Course = toCourseBrief(b.Course)
	}
	return resp
}

func toBookingResponses(list []model.Booking, loc *time.Location) []dto.BookingResponse {
	result := make([]dto.BookingResponse, 0, len(list))
	for i := range list {
		result = append(result, *toBookingResponse(&list[i], loc))
	}
	return result
}
