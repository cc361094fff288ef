package model

type Comment struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	GameID    string `gorm:"not null;index" json:"game_id"`
	UserID    string `gorm:"not null" json:"user_id"`
	Body      string `gorm:"not null" json:"body"`
	CreatedAt int64  `gorm:"not null" json:"created_at"`
}
