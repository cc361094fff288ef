package model

// Build is an immutable snapshot of a game's playable web assets. Every
// unpacked archive entry lives under StorageKeyPrefix as its own object
type Build struct {
	ID     string `gorm:"primaryKey" json:"id"`
	GameID string `gorm:"not null;index" json:"game_id"`

	StorageKeyPrefix string `gorm:"not null" json:"-"`
	CanonicalURL     string `json:"canonical_url"`
	SizeBytes        int64  `json:"size_bytes"`
	CreatedAt        int64  `gorm:"not null" json:"created_at"`
}
