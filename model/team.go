package model

type Team struct {
	ID        string `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"not null" json:"name"`
	CreatedAt int64  `gorm:"not null" json:"created_at"`

	Members []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

type TeamMember struct {
	TeamID string `gorm:"primaryKey" json:"team_id"`
	UserID string `gorm:"primaryKey" json:"user_id"`
	// Either "owner" or "member". Owners may manage the roster
	Role     string `gorm:"not null" json:"role"`
	JoinedAt int64  `gorm:"not null" json:"joined_at"`
}
