package triton_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/dalemusser/copilot/internal/app/clients/triton"
	"github.com/dalemusser/copilot/internal/app/system/apierr"
	"github.com/dalemusser/copilot/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

func newClient(t *testing.T, h http.Handler) *triton.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := triton.New(srv.URL, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"}), time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestQuery_BareAndEnvelope(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/cycles", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("team_id") != "Team_1" {
			t.Errorf("team_id: got %q", r.URL.Query().Get("team_id"))
		}
		w.Write([]byte(`[{"uid":"Cycle_1","team_id":"Team_1","ordinal":1,"start_date":"2019-09-01","end_date":"2019-09-30"}]`))
	})
	mux.HandleFunc("/api/teams", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Link", `<http://triton.test/api/teams?page=2>; rel="next"`)
		w.Write([]byte(`{"teams":[{"uid":"Team_1","name":"Hawks"}],"links":{}}`))
	})
	c := newClient(t, mux)
	ctx := context.Background()

	cycles, err := triton.Query[models.Cycle](ctx, c, "cycles", url.Values{"team_id": {"Team_1"}})
	if err != nil {
		t.Fatalf("Query cycles: %v", err)
	}
	if len(cycles.Items) != 1 || cycles.Items[0].StartDate != models.NewDate(2019, 9, 1) {
		t.Errorf("cycles: got %+v", cycles.Items)
	}

	teams, err := triton.Query[models.Team](ctx, c, "teams", nil)
	if err != nil {
		t.Fatalf("Query teams: %v", err)
	}
	if len(teams.Items) != 1 || teams.Items[0].Name != "Hawks" {
		t.Errorf("teams: got %+v", teams.Items)
	}
	if teams.Links.Next != "http://triton.test/api/teams?page=2" {
		t.Errorf("next link: got %q", teams.Links.Next)
	}
}

func TestQueryAll_FollowsNextLinks(t *testing.T) {
	pages := 0
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		page := r.URL.Query().Get("page")
		switch page {
		case "":
			w.Header().Set("Link", `<http://triton.test/api/teams?page=2>; rel="next"`)
			w.Write([]byte(`{"teams":[{"uid":"Team_1"}]}`))
		case "2":
			w.Write([]byte(`{"teams":[{"uid":"Team_2"}]}`))
		default:
			t.Errorf("unexpected page %q", page)
		}
	}))

	all, err := triton.QueryAll[models.Team](context.Background(), c, "teams", nil)
	if err != nil {
		t.Fatalf("QueryAll: %v", err)
	}
	if len(all) != 2 || all[1].UID != "Team_2" || pages != 2 {
		t.Errorf("got %+v after %d pages", all, pages)
	}
}

func TestGetAddUpdateRemove(t *testing.T) {
	var methods []string
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"uid":"Classroom_1","name":"Algebra"}`))
		case http.MethodPost, http.MethodPut:
			var in models.Classroom
			json.NewDecoder(r.Body).Decode(&in)
			if in.UID == "" {
				in.UID = "Classroom_new"
			}
			json.NewEncoder(w).Encode(map[string]any{"classrooms": in})
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	ctx := context.Background()

	got, err := triton.Get[models.Classroom](ctx, c, "classrooms", "Classroom_1")
	if err != nil || got.Name != "Algebra" {
		t.Fatalf("Get: %+v %v", got, err)
	}
	added, err := triton.Add(ctx, c, "classrooms", models.Classroom{Name: "Biology"})
	if err != nil || added.UID != "Classroom_new" {
		t.Fatalf("Add: %+v %v", added, err)
	}
	updated, err := triton.Update(ctx, c, "classrooms", models.Classroom{UID: "Classroom_1", Name: "Geometry"})
	if err != nil || updated.Name != "Geometry" {
		t.Fatalf("Update: %+v %v", updated, err)
	}
	if err := triton.Remove(ctx, c, "classrooms", "Classroom_1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	want := []string{
		"GET /api/classrooms/Classroom_1",
		"POST /api/classrooms",
		"PUT /api/classrooms/Classroom_1",
		"DELETE /api/classrooms/Classroom_1",
	}
	if fmt.Sprint(methods) != fmt.Sprint(want) {
		t.Errorf("calls: got %v, want %v", methods, want)
	}
}

func TestUpdate_ConflictPropagates(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"conflict"}`))
	}))

	_, err := triton.Update(context.Background(), c, "responses", models.Response{UID: "Response_1"})
	if !apierr.IsConflict(err) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("login must not send a bearer token")
		}
		var creds triton.Credentials
		json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Authorization", "Bearer session-token")
		w.Write([]byte(`{"uid":"User_1","email":"una@example.com","user_type":"user","owned_teams":["Team_1"]}`))
	}))
	ctx := context.Background()

	token, user, err := c.Login(ctx, triton.Credentials{Email: "una@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token != "session-token" || user.UID != "User_1" || !user.OwnsTeam("Team_1") {
		t.Errorf("got %q %+v", token, user)
	}

	if _, _, err := c.Login(ctx, triton.Credentials{Email: "una@example.com", Password: "wrong"}); !apierr.IsUnauthorized(err) {
		t.Errorf("bad password: got %v", err)
	}
}

func TestLogin_NoToken(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"uid":"User_1"}`))
	}))
	if _, _, err := c.Login(context.Background(), triton.Credentials{}); err != triton.ErrNoToken {
		t.Errorf("got %v, want ErrNoToken", err)
	}
}
