package model

// Course 课程表，对应 courses
type Course struct {
	CourseID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	Code     string `gorm:"type:varchar(20);not null"                      json:"code"`
	Name     string `gorm:"type:varchar(150);not null"                     json:"name"`
	BaseModel
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// Lecturer 授课教师表，对应 lecturers
type Lecturer struct {
	LecturerID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"lecturer_id"`
	Name       string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email      string `gorm:"type:varchar(255)"                              json:"email,omitempty"`
	Department string `gorm:"type:varchar(100)"                              json:"department,omitempty"`
	IsActive   bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Lecturer) TableName() string { return "lecturers" }
