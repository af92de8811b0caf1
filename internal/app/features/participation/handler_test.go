package participation_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/copilot/internal/app/dispatch"
	"github.com/dalemusser/copilot/internal/app/features/participation"
	"github.com/dalemusser/copilot/internal/app/features/shared"
	"github.com/dalemusser/copilot/internal/app/rows"
	"github.com/dalemusser/copilot/internal/app/selectors"
	"github.com/dalemusser/copilot/internal/domain/models"
	"github.com/dalemusser/copilot/internal/testutil"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var today = models.NewDate(2019, 10, 15)

type scenario struct {
	f      *testutil.Fixtures
	h      *participation.Handler
	team   models.Team
	userID string
}

// newScenario caches a team with two classrooms of 5 students each. The
// user is the contact of "Alpha" only. Two Alpha students and one Beta
// student have finished the survey.
func newScenario(t *testing.T) scenario {
	t.Helper()
	f := testutil.NewFixtures(t)
	team := f.CreateTeam("Hawks", 10)
	cycle := f.CreateCycle(team.UID, 1, today.AddDays(-5), today.AddDays(5))
	user := f.CreateUser("Una", "una@example.com", models.UserTypeUser, team.UID)

	alpha := f.CreateClassroom(team.UID, "Alpha", user.UID, 5)
	beta := f.CreateClassroom(team.UID, "Beta", "User_other", 5)
	a1 := f.CreateParticipant(team.UID, "S-A1", alpha.UID)
	a2 := f.CreateParticipant(team.UID, "S-A2", alpha.UID)
	f.CreateParticipant(team.UID, "S-A3", alpha.UID)
	b1 := f.CreateParticipant(team.UID, "S-B1", beta.UID)

	f.SetCompletion(cycle.UID, alpha.UID,
		models.CompletionRow{ParticipantID: a1.UID, Value: "100"},
		models.CompletionRow{ParticipantID: a2.UID, Value: "100"})
	f.SetCompletion(cycle.UID, beta.UID,
		models.CompletionRow{ParticipantID: b1.UID, Value: "100"})

	d := dispatch.New(f.Cache(), zap.NewNop())
	teams := &shared.Teams{D: d, Clients: testutil.OfflineClients{}, Log: zap.NewNop(), Today: func() models.Date { return today }}
	return scenario{
		f:      f,
		h:      participation.NewHandler(teams, selectors.New(), zap.NewNop()),
		team:   team,
		userID: user.UID,
	}
}

func (s scenario) request(target string) *http.Request {
	req := testutil.NewAuthenticatedRequest("GET", target, testutil.CaptainUser(s.userID))
	return testutil.WithChiURLParam(req, "teamID", s.team.UID)
}

type body struct {
	Scope         string `json:"scope"`
	Participation struct {
		Percent    int  `json:"percent"`
		Complete80 bool `json:"complete80"`
	} `json:"participation"`
	Rows []rows.ParticipationRow `json:"rows"`
}

func TestServeParticipation_Scopes(t *testing.T) {
	s := newScenario(t)

	tests := []struct {
		query       string
		wantScope   string
		wantPercent int
		wantRows    int
		wantYes     int
	}{
		{"", "all", 30, 4, 3},
		{"?scope=all", "all", 30, 4, 3},
		{"?scope=mine", "mine", 40, 3, 2},
		{"?scope=bogus", "all", 30, 4, 3},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.h.ServeParticipation(rec, s.request("/teams/"+s.team.UID+"/participation"+tc.query))

			if rec.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
			}
			var b body
			if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
				t.Fatalf("failed to parse response: %v", err)
			}
			if b.Scope != tc.wantScope || b.Participation.Percent != tc.wantPercent {
				t.Errorf("got scope %q percent %d, want %q %d", b.Scope, b.Participation.Percent, tc.wantScope, tc.wantPercent)
			}
			if b.Participation.Complete80 {
				t.Error("complete80 should be false")
			}
			if len(b.Rows) != tc.wantRows {
				t.Fatalf("rows: got %d, want %d", len(b.Rows), tc.wantRows)
			}
			yes := 0
			for _, r := range b.Rows {
				if r.Complete == rows.CompleteYes {
					yes++
				}
			}
			if yes != tc.wantYes {
				t.Errorf("complete rows: got %d, want %d", yes, tc.wantYes)
			}
		})
	}
}

func TestServeParticipation_NoCycle(t *testing.T) {
	f := testutil.NewFixtures(t)
	team := f.CreateTeam("Owls", 10)
	d := dispatch.New(f.Cache(), zap.NewNop())
	teams := &shared.Teams{D: d, Clients: testutil.OfflineClients{}, Log: zap.NewNop(), Today: func() models.Date { return today }}
	h := participation.NewHandler(teams, selectors.New(), zap.NewNop())

	req := testutil.NewAuthenticatedRequest("GET", "/teams/"+team.UID+"/participation", testutil.SuperAdminUser())
	req = testutil.WithChiURLParam(req, "teamID", team.UID)
	rec := httptest.NewRecorder()
	h.ServeParticipation(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"rows":[]`) || strings.Contains(rec.Body.String(), `"cycle"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestServeXLSX(t *testing.T) {
	s := newScenario(t)

	rec := httptest.NewRecorder()
	s.h.ServeXLSX(rec, s.request("/teams/"+s.team.UID+"/participation.xlsx?scope=mine"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type: got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Hawks_participation_mine.xlsx") {
		t.Errorf("Content-Disposition: got %q", cd)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheetRows, err := f.GetRows(rows.RosterSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	// title, header, three Alpha students
	if len(sheetRows) != 5 {
		t.Fatalf("sheet rows: got %d, want 5", len(sheetRows))
	}
	if !strings.HasPrefix(sheetRows[0][0], "Hawks participation") {
		t.Errorf("title: got %q", sheetRows[0][0])
	}
	for _, r := range sheetRows[2:] {
		if r[1] != "Alpha" {
			t.Errorf("row %v outside scope", r)
		}
	}
}
