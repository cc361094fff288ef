package service

import (
	"context"

	"jamforge/catalog-api/model"

	"gorm.io/gorm"
)

// Viewer is the identity attached to a request, nil when anonymous
type Viewer struct {
	UserID       string
	IsSuperAdmin bool
}

// MembershipLookup answers whether a user belongs to a team
type MembershipLookup interface {
	IsMember(ctx context.Context, teamID, userID string) (bool, error)
}

// TeamMembership is the database backed MembershipLookup
type TeamMembership struct {
	DB *gorm.DB
}

func (t *TeamMembership) IsMember(ctx context.Context, teamID, userID string) (bool, error) {
	var member bool

	err := t.DB.
		WithContext(ctx).
		Model(model.TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Select("count(*) > 0").
		Find(&member).
		Error
	if err != nil {
		return false, err
	}

	return member, nil
}

// CanRead decides whether viewer may read the game's details or build
// assets. Published games are open to everyone including anonymous
// visitors. Editing and archived games are only visible to superadmins
// and members of the owning team. Evaluated fresh on every read, there
// is no cached decision anywhere
func CanRead(ctx context.Context, game *model.Game, viewer *Viewer, members MembershipLookup) (bool, error) {
	if game.Status == model.StatusPublished {
		return true, nil
	}

	if viewer == nil {
		return false, nil
	}

	if viewer.IsSuperAdmin {
		return true, nil
	}

	return members.IsMember(ctx, game.TeamID, viewer.UserID)
}
