package users

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(150);not null;uniqueIndex:ux_users_username" json:"username"`
	Email        string    `gorm:"type:varchar(254);not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(100);not null" json:"-"`
	IsStaff      bool      `gorm:"not null;default:false" json:"is_staff"`
	CreatedAt    time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }
