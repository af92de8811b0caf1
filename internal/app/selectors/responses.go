// internal/app/selectors/responses.go
package selectors

import (
	"github.com/dalemusser/copilot/internal/app/entitycache"
	"github.com/dalemusser/copilot/internal/domain/models"
)

// ResponsesFor returns the team's responses under one parent (cycle uid or
// step label).
func ResponsesFor(t *entitycache.Table[models.Response], teamID, parentID string) []models.Response {
	return t.Filter(func(r models.Response) bool {
		return r.TeamID == teamID && r.ParentID == parentID
	})
}

// TeamResponse finds the team-level response for a module among responses
// already narrowed to one team and parent.
func TeamResponse(filtered []models.Response, moduleLabel string) (models.Response, bool) {
	for _, r := range filtered {
		if r.Owner.IsTeam() && r.ModuleLabel == moduleLabel {
			return r, true
		}
	}
	return models.Response{}, false
}

// UserResponse finds the response owned by userID for a module and parent
// on a team. All four keys must match.
func UserResponse(t *entitycache.Table[models.Response], userID, teamID, moduleLabel, parentID string) (models.Response, bool) {
	for _, r := range t.All() {
		if r.Owner.IsUser(userID) && r.TeamID == teamID &&
			r.ModuleLabel == moduleLabel && r.ParentID == parentID {
			return r, true
		}
	}
	return models.Response{}, false
}

// ModuleResponses returns the user-level responses of a team for one
// module and parent.
func ModuleResponses(t *entitycache.Table[models.Response], teamID, moduleLabel, parentID string) []models.Response {
	return t.Filter(func(r models.Response) bool {
		return !r.Owner.IsTeam() && r.TeamID == teamID &&
			r.ModuleLabel == moduleLabel && r.ParentID == parentID
	})
}

// ModulePercentComplete is the share of team users with a finished
// response, rounded down. It is 0 for a team without users.
func ModulePercentComplete(responses []models.Response, teamUsers []models.User) int {
	if len(teamUsers) == 0 {
		return 0
	}
	done := 0
	for _, r := range responses {
		if r.Complete() {
			done++
		}
	}
	return done * 100 / len(teamUsers)
}
