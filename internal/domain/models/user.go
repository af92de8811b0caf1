// internal/domain/models/user.go
package models

import "slices"

// User types known to Triton.
const (
	UserTypeUser       = "user"
	UserTypeSuperAdmin = "super_admin"
)

// User is a Copilot account.
type User struct {
	UID                string   `json:"uid"`
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	UserType           string   `json:"user_type"`
	OwnedTeams         []string `json:"owned_teams"`
	OwnedOrganizations []string `json:"owned_organizations"`
}

func (u User) Key() string { return u.UID }

func (u User) IsSuperAdmin() bool { return u.UserType == UserTypeSuperAdmin }

// OwnsTeam reports whether teamID is among the user's teams.
func (u User) OwnsTeam(teamID string) bool {
	return slices.Contains(u.OwnedTeams, teamID)
}
