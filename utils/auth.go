package utils

import (
	"slices"

	"github.com/bwmarrin/discordgo"
)

// Auth provides methods for authorization checks.
type Auth struct {
	developers []string
}

// NewAuth creates a new Auth instance for the configured developer ids.
func NewAuth(developers []string) *Auth {
	return &Auth{developers: developers}
}

// IsDeveloper checks if a user is a developer.
func (a *Auth) IsDeveloper(userID string) bool {
	return slices.Contains(a.developers, userID)
}

// CanManagePins reports whether the member may change pin configuration:
// developers always can, anyone else needs Manage Messages in the channel.
func (a *Auth) CanManagePins(i *discordgo.InteractionCreate) bool {
	if i.Member == nil || i.Member.User == nil {
		return false
	}
	if a.IsDeveloper(i.Member.User.ID) {
		return true
	}
	return i.Member.Permissions&discordgo.PermissionManageMessages != 0
}
