package selectors_test

import (
	"testing"

	"github.com/dalemusser/copilot/internal/app/selectors"
	"github.com/dalemusser/copilot/internal/domain/models"
	"github.com/dalemusser/copilot/internal/testutil"
)

func TestTeamAndUserResponses(t *testing.T) {
	f := testutil.NewFixtures(t)
	team := f.CreateTeam("Team", 0)
	other := f.CreateTeam("Other", 0)
	cyc := f.CreateCycle(team.UID, 1, models.Date{}, models.Date{})
	u := f.CreateUser("Una", "una@example.com", models.UserTypeUser, team.UID)

	teamResp := f.CreateResponse(models.TeamOwner(), team.UID, cyc.UID, "mod1", 0)
	userResp := f.CreateResponse(models.UserOwner(u.UID), team.UID, cyc.UID, "mod1", 100)
	f.CreateResponse(models.TeamOwner(), other.UID, cyc.UID, "mod1", 0)
	f.CreateResponse(models.TeamOwner(), team.UID, "setup", "mod1", 0)

	table := f.State().Responses()
	filtered := selectors.ResponsesFor(table, team.UID, cyc.UID)
	if len(filtered) != 2 {
		t.Fatalf("ResponsesFor: got %d, want 2", len(filtered))
	}

	got, ok := selectors.TeamResponse(filtered, "mod1")
	if !ok || got.UID != teamResp.UID {
		t.Errorf("TeamResponse: got %q %v, want %q", got.UID, ok, teamResp.UID)
	}
	if _, ok := selectors.TeamResponse(filtered, "mod2"); ok {
		t.Error("expected no team response for another module")
	}

	got, ok = selectors.UserResponse(table, u.UID, team.UID, "mod1", cyc.UID)
	if !ok || got.UID != userResp.UID {
		t.Errorf("UserResponse: got %q %v, want %q", got.UID, ok, userResp.UID)
	}
	if _, ok := selectors.UserResponse(table, u.UID, team.UID, "mod1", "setup"); ok {
		t.Error("expected parent to be part of the match")
	}
	if _, ok := selectors.UserResponse(table, "User_nobody", team.UID, "mod1", cyc.UID); ok {
		t.Error("expected another user not to match")
	}
}

func TestModulePercentComplete(t *testing.T) {
	f := testutil.NewFixtures(t)
	team := f.CreateTeam("Team", 0)
	u1 := f.CreateUser("A", "a@example.com", models.UserTypeUser, team.UID)
	u2 := f.CreateUser("B", "b@example.com", models.UserTypeUser, team.UID)
	u3 := f.CreateUser("C", "c@example.com", models.UserTypeUser, team.UID)
	f.CreateUser("Outsider", "o@example.com", models.UserTypeUser)

	f.CreateResponse(models.UserOwner(u1.UID), team.UID, "setup", "intro", 100)
	f.CreateResponse(models.UserOwner(u2.UID), team.UID, "setup", "intro", 40)
	f.CreateResponse(models.UserOwner(u3.UID), team.UID, "setup", "other", 100)
	f.CreateResponse(models.TeamOwner(), team.UID, "setup", "intro", 100)

	sel := selectors.New()
	st := f.State()
	users := sel.TeamUsers(st, team.UID)
	if len(users) != 3 {
		t.Fatalf("TeamUsers: got %d, want 3", len(users))
	}

	responses := selectors.ModuleResponses(st.Responses(), team.UID, "intro", "setup")
	if len(responses) != 2 {
		t.Fatalf("ModuleResponses: got %d, want 2", len(responses))
	}
	if got := selectors.ModulePercentComplete(responses, users); got != 33 {
		t.Errorf("ModulePercentComplete: got %d, want 33", got)
	}
	if got := selectors.ModulePercentComplete(responses, nil); got != 0 {
		t.Errorf("no users: got %d, want 0", got)
	}
}
