package model

// Room 教室表，对应 rooms
type Room struct {
	RoomID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"room_id"`
	Name        string `gorm:"type:varchar(100);not null"                     json:"name"`
	Location    string `gorm:"type:varchar(200)"                              json:"location,omitempty"`
	Capacity    int    `gorm:"not null;default:0"                             json:"capacity"`
	IsAvailable bool   `gorm:"not null;default:true"                          json:"is_available"`
	SoftDeleteModel
}

// TableName 指定表名
func (Room) TableName() string { return "rooms" }
