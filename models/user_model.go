package models

type User struct {
	UserID   int    `gorm:"column:user_id;primaryKey;autoIncrement" json:"user_id"`
	Mail     string `gorm:"size:255;not null;unique" json:"mail"`
	Password string `gorm:"size:255;not null" json:"-"`
}

func (User) TableName() string {
	return "users"
}
