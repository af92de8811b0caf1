package invitations_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/copilot/internal/app/clients"
	"github.com/dalemusser/copilot/internal/app/clients/neptune"
	"github.com/dalemusser/copilot/internal/app/clients/triton"
	"github.com/dalemusser/copilot/internal/app/dispatch"
	"github.com/dalemusser/copilot/internal/app/features/invitations"
	"github.com/dalemusser/copilot/internal/app/features/shared"
	"github.com/dalemusser/copilot/internal/domain/models"
	"github.com/dalemusser/copilot/internal/testutil"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// fakeNeptune answers the Neptune endpoints the handler uses. Anything
// else, including Triton team loads, is a 404.
type fakeNeptune struct {
	mu       sync.Mutex
	known    map[string]bool
	invites  []neptune.Invitation
	noHeader bool
}

func (f *fakeNeptune) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/participation_codes/"):
		code := strings.TrimPrefix(r.URL.Path, "/api/participation_codes/")
		if !f.noHeader {
			w.Header().Set("Authorization", "Bearer scoped-"+code)
		}
		w.Write([]byte(`{"code":"` + code + `","organization_id":"Organization_1","portal_type":"student"}`))
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/accounts/"):
		if f.known[strings.TrimPrefix(r.URL.Path, "/api/accounts/")] {
			w.Write([]byte(`{}`))
			return
		}
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	case r.Method == http.MethodPost && r.URL.Path == "/api/invitations":
		b, _ := io.ReadAll(r.Body)
		var inv neptune.Invitation
		json.Unmarshal(b, &inv)
		f.invites = append(f.invites, inv)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	default:
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}
}

type memSink struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (s *memSink) Put(_ context.Context, name, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[name] = token
	return nil
}

type staticClients struct{ set *clients.Set }

func (s staticClients) For(string) (*clients.Set, error) { return s.set, nil }

func newHandler(t *testing.T, f *testutil.Fixtures, up *fakeNeptune, sink *memSink) *invitations.Handler {
	t.Helper()
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"})
	tc, err := triton.New(srv.URL, ts, time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("triton.New: %v", err)
	}
	nc, err := neptune.New(neptune.Config{BaseURL: srv.URL, Session: ts, Scoped: ts, Sink: sink, Timeout: time.Second}, zap.NewNop())
	if err != nil {
		t.Fatalf("neptune.New: %v", err)
	}
	cs := staticClients{set: &clients.Set{UserID: "User_me", Triton: tc, Neptune: nc}}
	teams := shared.NewTeams(dispatch.New(f.Cache(), zap.NewNop()), cs, zap.NewNop())
	return invitations.NewHandler(teams, zap.NewNop())
}

func TestServeCode_StoresScopedToken(t *testing.T) {
	f := testutil.NewFixtures(t)
	sink := &memSink{tokens: map[string]string{}}
	h := newHandler(t, f, &fakeNeptune{}, sink)

	req := testutil.NewAuthenticatedRequest("GET", "/participation-codes/abc123", testutil.CaptainUser("User_me"))
	req = testutil.WithChiURLParam(req, "code", "abc123")
	rec := httptest.NewRecorder()
	h.ServeCode(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"portal_type":"student"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
	if sink.tokens[neptune.ScopedTokenName] != "scoped-abc123" {
		t.Errorf("scoped token not stored: %v", sink.tokens)
	}
}

func TestServeCode_MissingScopedTokenStillAnswers(t *testing.T) {
	f := testutil.NewFixtures(t)
	sink := &memSink{tokens: map[string]string{}}
	h := newHandler(t, f, &fakeNeptune{noHeader: true}, sink)

	req := testutil.NewAuthenticatedRequest("GET", "/participation-codes/abc123", testutil.CaptainUser("User_me"))
	req = testutil.WithChiURLParam(req, "code", "abc123")
	rec := httptest.NewRecorder()
	h.ServeCode(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if len(sink.tokens) != 0 {
		t.Errorf("expected no stored token, got %v", sink.tokens)
	}
}

func inviteRequest(teamID, body string, user testutil.TestUser) *http.Request {
	req := testutil.WithUser(testutil.NewJSONRequest("POST", "/teams/"+teamID+"/invitations", body), user)
	return testutil.WithChiURLParam(req, "teamID", teamID)
}

func TestHandleInvite(t *testing.T) {
	f := testutil.NewFixtures(t)
	team := f.CreateTeam("Hawks", 10)
	me := f.CreateUser("Una", "una@example.com", models.UserTypeUser, team.UID)

	up := &fakeNeptune{known: map[string]bool{"old@example.com": true}}
	h := newHandler(t, f, up, &memSink{tokens: map[string]string{}})

	tests := []struct {
		email string
		sent  bool
	}{
		{"new@example.com", true},
		{"old@example.com", false},
	}
	for _, tc := range tests {
		rec := httptest.NewRecorder()
		h.HandleInvite(rec, inviteRequest(team.UID, `{"email":"`+tc.email+`","message":"join us"}`, testutil.CaptainUser(me.UID)))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected status %d, got %d: %s", tc.email, http.StatusOK, rec.Code, rec.Body.String())
		}
		var out struct {
			AccountExists bool `json:"account_exists"`
			Sent          bool `json:"sent"`
		}
		json.Unmarshal(rec.Body.Bytes(), &out)
		if out.Sent != tc.sent || out.AccountExists == tc.sent {
			t.Errorf("%s: got %+v", tc.email, out)
		}
	}

	if len(up.invites) != 1 {
		t.Fatalf("expected one invitation, got %d", len(up.invites))
	}
	inv := up.invites[0]
	if inv.Email != "new@example.com" || inv.TeamID != team.UID || inv.InviterID != me.UID || inv.Message != "join us" {
		t.Errorf("unexpected invitation %+v", inv)
	}
}

func TestHandleInvite_Rejects(t *testing.T) {
	f := testutil.NewFixtures(t)
	team := f.CreateTeam("Hawks", 10)
	me := f.CreateUser("Una", "una@example.com", models.UserTypeUser, team.UID)
	stranger := f.CreateUser("Sal", "sal@example.com", models.UserTypeUser)
	h := newHandler(t, f, &fakeNeptune{}, &memSink{tokens: map[string]string{}})

	tests := []struct {
		name   string
		body   string
		user   string
		status int
	}{
		{"bad email", `{"email":"nope"}`, me.UID, http.StatusBadRequest},
		{"no email", `{}`, me.UID, http.StatusBadRequest},
		{"not json", `{`, me.UID, http.StatusBadRequest},
		{"not on team", `{"email":"new@example.com"}`, stranger.UID, http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandleInvite(rec, inviteRequest(team.UID, tc.body, testutil.CaptainUser(tc.user)))
			if rec.Code != tc.status {
				t.Errorf("expected status %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}
