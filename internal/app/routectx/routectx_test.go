package routectx_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/copilot/internal/app/routectx"
	"github.com/go-chi/chi/v5"
)

func TestFromPath(t *testing.T) {
	tests := []struct {
		path string
		want routectx.Context
	}{
		{"/teams/Team_1", routectx.Context{TeamID: "Team_1"}},
		{"/teams/Team_1/cycles/abc/modules/survey", routectx.Context{
			TeamID: "Team_1", ParentLabel: "abc", ModuleLabel: "survey",
		}},
		{"/teams/Team_1/steps/setup", routectx.Context{TeamID: "Team_1", ParentLabel: "setup"}},
		{"/teams/Team_1/classrooms/Classroom_2?scope=mine", routectx.Context{
			TeamID: "Team_1", ClassroomID: "Classroom_2", Scope: "mine",
		}},
		{"/organizations/Organization_3/users/User_4", routectx.Context{
			OrganizationID: "Organization_3", UserID: "User_4",
		}},
		{"/programs/cset19", routectx.Context{ProgramLabel: "cset19"}},
		{"/home/teams/Team_1/reports", routectx.Context{TeamID: "Team_1"}},
		{"/teams", routectx.Context{}},
		{"", routectx.Context{}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := routectx.FromPath(tt.path); got != tt.want {
				t.Errorf("FromPath(%q):\n got %+v\nwant %+v", tt.path, got, tt.want)
			}
		})
	}
}

func TestMerge_PropsTakePrecedence(t *testing.T) {
	props := routectx.Context{TeamID: "Team_props"}
	path := routectx.Context{TeamID: "Team_path", ClassroomID: "Classroom_path"}
	got := routectx.Merge(props, path)
	if got.TeamID != "Team_props" {
		t.Errorf("TeamID: got %q, want %q", got.TeamID, "Team_props")
	}
	if got.ClassroomID != "Classroom_path" {
		t.Errorf("ClassroomID: got %q, want %q", got.ClassroomID, "Classroom_path")
	}
}

func TestFromRequest_UsesChiParams(t *testing.T) {
	r := httptest.NewRequest("GET", "/teams/Team_path/cycles/abc?scope=mine", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(routectx.ParamTeamID, "Team_param")
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	got := routectx.FromRequest(r)
	if got.TeamID != "Team_param" {
		t.Errorf("TeamID: got %q, want %q", got.TeamID, "Team_param")
	}
	if got.ParentLabel != "abc" {
		t.Errorf("ParentLabel: got %q, want %q", got.ParentLabel, "abc")
	}
	if got.Scope != "mine" {
		t.Errorf("Scope: got %q, want %q", got.Scope, "mine")
	}
}

func TestScopeOrDefault(t *testing.T) {
	if got := (routectx.Context{}).ScopeOrDefault(); got != routectx.ScopeAll {
		t.Errorf("empty scope: got %q", got)
	}
	if got := (routectx.Context{Scope: "mine"}).ScopeOrDefault(); got != routectx.ScopeMine {
		t.Errorf("mine: got %q", got)
	}
	if got := (routectx.Context{Scope: "bogus"}).ScopeOrDefault(); got != routectx.ScopeAll {
		t.Errorf("bogus: got %q", got)
	}
}
