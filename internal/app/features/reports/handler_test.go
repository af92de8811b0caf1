package reports_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/copilot/internal/app/dispatch"
	"github.com/dalemusser/copilot/internal/app/features/reports"
	"github.com/dalemusser/copilot/internal/app/features/shared"
	"github.com/dalemusser/copilot/internal/app/rows"
	"github.com/dalemusser/copilot/internal/app/selectors"
	"github.com/dalemusser/copilot/internal/domain/models"
	"github.com/dalemusser/copilot/internal/testutil"
	"go.uber.org/zap"
)

func serve(t *testing.T, f *testutil.Fixtures, teamID string, user testutil.TestUser) []rows.ReportWeek {
	t.Helper()
	d := dispatch.New(f.Cache(), zap.NewNop())
	h := reports.NewHandler(shared.NewTeams(d, testutil.OfflineClients{}, zap.NewNop()), selectors.New(), zap.NewNop())

	req := testutil.NewAuthenticatedRequest("GET", "/teams/"+teamID+"/reports", user)
	req = testutil.WithChiURLParam(req, "teamID", teamID)
	rec := httptest.NewRecorder()
	h.ServeReports(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	var body struct {
		Weeks []rows.ReportWeek `json:"weeks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Weeks == nil {
		t.Fatal("weeks must be an array")
	}
	return body.Weeks
}

func TestServeReports_ContactOnlySeesOwnClassrooms(t *testing.T) {
	f := testutil.NewFixtures(t)
	team := f.CreateTeam("Hawks", 10)
	me := f.CreateUser("Una", "una@example.com", models.UserTypeUser, team.UID)
	mine := f.CreateClassroom(team.UID, "Alpha", me.UID, 5)
	theirs := f.CreateClassroom(team.UID, "Beta", "User_other", 5)

	f.CreateReport(team.UID, "", "team-2019-10-07.pdf")
	f.CreateReport(team.UID, mine.UID, "alpha-2019-10-07.pdf")
	f.CreateReport(team.UID, theirs.UID, "beta-2019-10-07.pdf")
	f.CreateReport(team.UID, theirs.UID, "beta-2019-09-30.pdf")

	weeks := serve(t, f, team.UID, testutil.CaptainUser(me.UID))

	// Week 41 holds one team and one classroom report, so only Alpha's
	// shows. Week 40 only had Beta's report and is dropped.
	if len(weeks) != 1 || weeks[0].Key != "2019-W41" {
		t.Fatalf("weeks: got %+v", weeks)
	}
	if len(weeks[0].Reports) != 1 || weeks[0].Reports[0].Name != "Alpha" {
		t.Errorf("reports: got %+v", weeks[0].Reports)
	}
}

func TestServeReports_SuperAdminSeesAll(t *testing.T) {
	f := testutil.NewFixtures(t)
	team := f.CreateTeam("Hawks", 10)
	alpha := f.CreateClassroom(team.UID, "Alpha", "User_a", 5)
	beta := f.CreateClassroom(team.UID, "Beta", "User_b", 5)

	f.CreateReport(team.UID, "", "team-2019-10-07.pdf")
	f.CreateReport(team.UID, alpha.UID, "alpha-2019-10-07.pdf")
	f.CreateReport(team.UID, beta.UID, "beta-2019-10-07.pdf")
	f.CreateReport(team.UID, beta.UID, "beta-2019-09-30.pdf")

	weeks := serve(t, f, team.UID, testutil.SuperAdminUser())

	if len(weeks) != 2 || weeks[0].Key != "2019-W41" || weeks[1].Key != "2019-W40" {
		t.Fatalf("weeks: got %+v", weeks)
	}
	names := []string{}
	for _, r := range weeks[0].Reports {
		names = append(names, r.Name)
	}
	if len(names) != 3 || names[0] != "Hawks" || names[1] != "Alpha" || names[2] != "Beta" {
		t.Errorf("week order: got %v", names)
	}
}

func TestServeReports_Empty(t *testing.T) {
	f := testutil.NewFixtures(t)
	team := f.CreateTeam("Hawks", 10)
	if weeks := serve(t, f, team.UID, testutil.SuperAdminUser()); len(weeks) != 0 {
		t.Errorf("got %+v", weeks)
	}
}

func serveClassroom(t *testing.T, f *testutil.Fixtures, teamID, classroomID string, user testutil.TestUser) *httptest.ResponseRecorder {
	t.Helper()
	d := dispatch.New(f.Cache(), zap.NewNop())
	h := reports.NewHandler(shared.NewTeams(d, testutil.OfflineClients{}, zap.NewNop()), selectors.New(), zap.NewNop())

	req := testutil.NewAuthenticatedRequest("GET", "/teams/"+teamID+"/classrooms/"+classroomID+"/reports", user)
	req = testutil.WithChiURLParam(req, "teamID", teamID, "classroomID", classroomID)
	rec := httptest.NewRecorder()
	h.ServeClassroomReports(rec, req)
	return rec
}

func TestServeClassroomReports(t *testing.T) {
	f := testutil.NewFixtures(t)
	team := f.CreateTeam("Hawks", 10)
	alpha := f.CreateClassroom(team.UID, "Alpha", "User_a", 5)
	beta := f.CreateClassroom(team.UID, "Beta", "User_b", 5)

	f.CreateReport(team.UID, "", "team-2019-10-07.pdf")
	f.CreateReport(team.UID, alpha.UID, "alpha-2019-10-07.pdf")
	f.CreateReport(team.UID, alpha.UID, "alpha-2019-09-30.pdf")
	f.CreateReport(team.UID, beta.UID, "beta-2019-10-07.pdf")

	rec := serveClassroom(t, f, team.UID, alpha.UID, testutil.SuperAdminUser())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	var body struct {
		Weeks []rows.ReportWeek `json:"weeks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(body.Weeks) != 2 {
		t.Fatalf("weeks: got %+v", body.Weeks)
	}
	for _, wk := range body.Weeks {
		if len(wk.Reports) != 1 || wk.Reports[0].Name != "Alpha" {
			t.Errorf("week %s: got %+v", wk.Key, wk.Reports)
		}
	}
}

func TestServeClassroomReports_OtherTeamsClassroomIsNotFound(t *testing.T) {
	f := testutil.NewFixtures(t)
	team := f.CreateTeam("Hawks", 10)
	other := f.CreateTeam("Owls", 10)
	room := f.CreateClassroom(other.UID, "Gamma", "User_g", 5)

	rec := serveClassroom(t, f, team.UID, room.UID, testutil.SuperAdminUser())
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}
