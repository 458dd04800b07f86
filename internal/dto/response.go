package dto

// ── 通用简要信息 ──

// CourseBrief 课程简要信息
type CourseBrief struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// RoomBrief 教室简要信息
type RoomBrief struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

// UserBrief 用户简要信息
type UserBrief struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StudentID string `json:"student_id"`
}

// LecturerBrief 教师简要信息
type LecturerBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ── 分页 ──

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PaginationRequest 列表接口共用的 page/page_size 查询参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 从 1 开始
func (p *PaginationRequest) GetPage() int {
	return max(p.Page, 1)
}

// GetPageSize 未传时取 20，超过上限时截断
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return defaultPageSize
	}
	return min(p.PageSize, maxPageSize)
}

// Window 转换为仓储层的 offset/limit
func (p *PaginationRequest) Window() (offset, limit int) {
	limit = p.GetPageSize()
	return (p.GetPage() - 1) * limit, limit
}
