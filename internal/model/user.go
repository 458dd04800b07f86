package model

// 角色
const (
	RoleClassRep = "class_rep" // 课代表：提交/取消预约
	RoleApprover = "approver"  // 审批人：审核预约
	RoleAdmin    = "admin"
)

// User 用户表，对应 users
type User struct {
	UserID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string  `gorm:"type:varchar(100);not null"                     json:"name"`
	StudentID    string  `gorm:"type:varchar(20);not null"                      json:"student_id"`
	Email        string  `gorm:"type:varchar(255);not null"                     json:"email"`
	Phone        *string `gorm:"type:varchar(30)"                               json:"phone,omitempty"`
	PasswordHash string  `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string  `gorm:"type:varchar(20);not null;default:'class_rep'"  json:"role"`
	CourseID     *string `gorm:"type:uuid"                                      json:"course_id,omitempty"`
	VersionedModel

	// 关联
	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }
