package dispatch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/copilot/internal/app/clients"
	"github.com/dalemusser/copilot/internal/app/clients/neptune"
	"github.com/dalemusser/copilot/internal/app/clients/triton"
	"github.com/dalemusser/copilot/internal/app/dispatch"
	"github.com/dalemusser/copilot/internal/app/entitycache"
	"github.com/dalemusser/copilot/internal/app/system/apierr"
	"github.com/dalemusser/copilot/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type recorder struct {
	mu      sync.Mutex
	actions []dispatch.Action
}

func (r *recorder) listen(a dispatch.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a)
}

func (r *recorder) phases() []dispatch.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]dispatch.Phase, len(r.actions))
	for i, a := range r.actions {
		out[i] = a.Phase
	}
	return out
}

func newSet(t *testing.T, tritonH, neptuneH http.Handler) *clients.Set {
	t.Helper()
	ts := httptest.NewServer(tritonH)
	t.Cleanup(ts.Close)
	tok := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"})
	tc, err := triton.New(ts.URL, tok, time.Second, zap.NewNop())
	if err != nil {
		t.Fatalf("triton.New: %v", err)
	}
	set := &clients.Set{UserID: "User_me", Triton: tc}
	if neptuneH != nil {
		ns := httptest.NewServer(neptuneH)
		t.Cleanup(ns.Close)
		nc, err := neptune.New(neptune.Config{BaseURL: ns.URL, Session: tok, Timeout: time.Second}, zap.NewNop())
		if err != nil {
			t.Fatalf("neptune.New: %v", err)
		}
		set.Neptune = nc
	}
	return set
}

func TestQuery_EmitsTripleAndCaches(t *testing.T) {
	set := newSet(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"classrooms":[{"uid":"Classroom_1","name":"A","team_id":"Team_1"}]}`))
	}), nil)
	d := dispatch.New(entitycache.New(zap.NewNop()), zap.NewNop())
	rec := &recorder{}
	d.Subscribe(rec.listen)

	items, err := dispatch.Query[models.Classroom](context.Background(), d, set.Triton, entitycache.KindClassroom, url.Values{"team_id": {"Team_1"}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items", len(items))
	}

	got, ok := d.Cache().State().Classrooms().Get("Classroom_1")
	if !ok || got != items[0] {
		t.Errorf("cached: got %+v %v, want %+v", got, ok, items[0])
	}
	if listed, ok := d.Cache().State().Classrooms().LastFetched(); !ok || len(listed) != 1 {
		t.Errorf("LastFetched: got %v %v", listed, ok)
	}

	phases := rec.phases()
	if len(phases) != 2 || phases[0] != dispatch.Request || phases[1] != dispatch.Success {
		t.Errorf("phases: got %v", phases)
	}
	if rec.actions[0].Seq != rec.actions[1].Seq || rec.actions[0].Seq == 0 {
		t.Errorf("sequence numbers: got %d and %d", rec.actions[0].Seq, rec.actions[1].Seq)
	}
}

func TestUpdate_ConflictIsFailureAndLeavesCache(t *testing.T) {
	set := newSet(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"modified elsewhere"}`))
	}), nil)
	cache := entitycache.New(zap.NewNop())
	orig := models.Response{UID: "Response_1", TeamID: "Team_1", Progress: 10}
	entitycache.Got(cache, entitycache.KindResponse, orig, 0)

	d := dispatch.New(cache, zap.NewNop())
	rec := &recorder{}
	d.Subscribe(rec.listen)

	edited := orig
	edited.Progress = 90
	_, err := dispatch.Update(context.Background(), d, set.Triton, entitycache.KindResponse, edited)
	if !apierr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}

	got, _ := cache.State().Responses().Get("Response_1")
	if got.Progress != 10 {
		t.Errorf("cache changed on failure: progress %d", got.Progress)
	}
	phases := rec.phases()
	if len(phases) != 2 || phases[1] != dispatch.Failure || rec.actions[1].Err == nil {
		t.Errorf("phases: got %v", phases)
	}
}

func TestAddAndRemove(t *testing.T) {
	set := newSet(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.Write([]byte(`{"uid":"Report_9","team_id":"Team_1","filename":"r.pdf"}`))
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	}), nil)
	d := dispatch.New(entitycache.New(zap.NewNop()), zap.NewNop())
	ctx := context.Background()

	added, err := dispatch.Add(ctx, d, set.Triton, entitycache.KindReport, models.Report{TeamID: "Team_1"})
	if err != nil || added.UID != "Report_9" {
		t.Fatalf("Add: %+v %v", added, err)
	}
	if _, ok := d.Cache().State().Reports().Get("Report_9"); !ok {
		t.Error("expected added report cached")
	}
	if err := dispatch.Remove(ctx, d, set.Triton, entitycache.KindReport, "Report_9"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := d.Cache().State().Reports().Get("Report_9"); ok {
		t.Error("expected report removed")
	}
}

func TestLoadTeamAndCompletion(t *testing.T) {
	today := models.Today()
	start := today.AddDays(-3).String()
	end := today.AddDays(3).String()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/teams/Team_1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"uid":"Team_1","name":"Hawks","program_id":"Program_1","participation_base":4}`))
	})
	mux.HandleFunc("/api/programs/Program_1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"uid":"Program_1","label":"triton","min_cycles":2,"max_cycles":-1}`))
	})
	mux.HandleFunc("/api/cycles", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"uid":"Cycle_1","team_id":"Team_1","ordinal":1,"start_date":"` + start + `","end_date":"` + end + `"}]`))
	})
	mux.HandleFunc("/api/classrooms", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"uid":"Classroom_1","team_id":"Team_1","num_students":2},{"uid":"Classroom_2","team_id":"Team_1","num_students":2}]`))
	})
	for _, plural := range []string{"participants", "reports", "responses", "users"} {
		mux.HandleFunc("/api/"+plural, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("team_id") != "Team_1" {
				t.Errorf("%s: missing team filter", plural)
			}
			w.Write([]byte(`[]`))
		})
	}

	var neptuneCalls sync.Map
	set := newSet(t, mux, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		room := r.URL.Query().Get("classroom_id")
		neptuneCalls.Store(room, r.URL.Query().Get("cycle_id"))
		if room == "Classroom_1" {
			w.Write([]byte(`[{"participant_id":"Participant_1","value":"100"}]`))
			return
		}
		w.Write([]byte(`[]`))
	}))

	d := dispatch.New(entitycache.New(zap.NewNop()), zap.NewNop())
	ctx := context.Background()

	team, err := dispatch.LoadTeam(ctx, d, set, "Team_1")
	if err != nil {
		t.Fatalf("LoadTeam: %v", err)
	}
	st := d.Cache().State()
	if team.Name != "Hawks" || st.Cycles().Len() != 1 || st.Classrooms().Len() != 2 {
		t.Errorf("cache after load: cycles=%d classrooms=%d", st.Cycles().Len(), st.Classrooms().Len())
	}
	if p, ok := st.Programs().Get("Program_1"); !ok || !p.Unlimited() {
		t.Errorf("program: got %+v %v", p, ok)
	}
	if d.TeamLoaders()["Team_1"] != "User_me" {
		t.Errorf("loaders: got %v", d.TeamLoaders())
	}
	if !d.TeamLoaded("Team_1") {
		t.Error("expected Team_1 loaded")
	}

	cycle, ok, err := dispatch.LoadCompletion(ctx, d, set.Neptune, "Team_1", today)
	if err != nil || !ok || cycle.UID != "Cycle_1" {
		t.Fatalf("LoadCompletion: %+v %v %v", cycle, ok, err)
	}
	if v, _ := neptuneCalls.Load("Classroom_2"); v != "Cycle_1" {
		t.Errorf("Classroom_2 completion call: got %v", v)
	}
	rows := d.Cache().State().Completion("Cycle_1", "Classroom_1")
	if len(rows) != 1 || !rows[0].Complete() {
		t.Errorf("completion rows: got %+v", rows)
	}
}

func TestLoadTeam_FailurePropagates(t *testing.T) {
	set := newSet(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}), nil)
	d := dispatch.New(entitycache.New(zap.NewNop()), zap.NewNop())

	if _, err := dispatch.LoadTeam(context.Background(), d, set, "Team_x"); !apierr.IsNotFound(err) {
		t.Errorf("got %v, want not found", err)
	}
}

func TestLoadTeam_PartialFailureIsNotLoaded(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/teams/Team_1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"uid":"Team_1","name":"Hawks"}`))
	})
	mux.HandleFunc("/api/participants", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "transient", http.StatusInternalServerError)
	})
	for _, plural := range []string{"cycles", "classrooms", "reports", "responses", "users"} {
		mux.HandleFunc("/api/"+plural, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		})
	}
	d := dispatch.New(entitycache.New(zap.NewNop()), zap.NewNop())

	if _, err := dispatch.LoadTeam(context.Background(), d, newSet(t, mux, nil), "Team_1"); err == nil {
		t.Fatal("expected participants failure")
	}
	if d.TeamLoaded("Team_1") {
		t.Error("a partial load must not count as loaded")
	}
	if d.TeamLoaders()["Team_1"] != "User_me" {
		t.Errorf("loader kept for refresh: got %v", d.TeamLoaders())
	}
}

func TestLoadCompletion_NoCycle(t *testing.T) {
	d := dispatch.New(entitycache.New(zap.NewNop()), zap.NewNop())
	_, ok, err := dispatch.LoadCompletion(context.Background(), d, nil, "Team_1", models.Today())
	if ok || err != nil {
		t.Errorf("got ok=%v err=%v, want no cycle", ok, err)
	}
}
