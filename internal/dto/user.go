package dto

// ── 用户模块 DTO ──

// UpdateProfileRequest 更新个人资料请求
type UpdateProfileRequest struct {
	Name  *string `json:"name"  binding:"omitempty,min=2,max=100"`
	Email *string `json:"email" binding:"omitempty,email"`
	Phone *string `json:"phone" binding:"omitempty,max=30"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	StudentID string       `json:"student_id"`
	Phone     *string      `json:"phone,omitempty"`
	Role      string       `json:"role"`
	Course    *CourseBrief `json:"course,omitempty"`
}

// UserDetailResponse 用户详细信息（GET /auth/me、/users/me）
type UserDetailResponse struct {
	UserResponse
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
