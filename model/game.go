package model

const (
	StatusEditing   = "editing"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

type Game struct {
	ID     string `gorm:"primaryKey" json:"id"`
	TeamID string `gorm:"not null;index" json:"team_id"`

	Title       string      `gorm:"not null" json:"title"`
	Description string      `json:"description"`
	Tags        StringSlice `gorm:"type:text" json:"tags"`

	// One of editing, published or archived. Visibility of the game and
	// its build assets is derived from this field on every read
	Status string `gorm:"not null;default:editing;index" json:"status"`

	// The cover kind is decided once when the cover is written so nobody
	// downstream has to sniff key prefixes to figure out what the value is
	CoverKind string `gorm:"not null;default:none" json:"cover_kind"`
	CoverRef  string `json:"cover_ref,omitempty"`

	// Repointed to the newest build on every successful ingestion.
	// Older builds stay in storage untouched
	CurrentBuildID string `json:"current_build_id,omitempty"`
	BuildURL       string `json:"build_url,omitempty"`

	CreatedAt int64 `gorm:"not null" json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}
