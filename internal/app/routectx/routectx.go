// Package routectx extracts the scoping identifiers selectors are
// parameterized by (team, cycle/step, classroom, module, scope ...) from a
// navigation path, a request, or explicit values.
//
// Extraction never fails: a field that cannot be found is left empty.
package routectx

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Scope values for participation views.
const (
	ScopeAll  = "all"
	ScopeMine = "mine"
)

// Context is the set of identifiers taken from the current route.
type Context struct {
	TeamID         string
	ParentLabel    string // short cycle id or step label
	ClassroomID    string
	ModuleLabel    string
	Scope          string
	OrganizationID string
	UserID         string
	ProgramLabel   string
}

// chi URL parameter names used by the feature routers.
const (
	ParamTeamID         = "teamID"
	ParamParentLabel    = "parentLabel"
	ParamClassroomID    = "classroomID"
	ParamModuleLabel    = "moduleLabel"
	ParamOrganizationID = "organizationID"
	ParamUserID         = "userID"
	ParamProgramLabel   = "programLabel"
)

// FromPath reads identifiers from a navigation path such as
//
//	/teams/Team_1/cycles/abc/modules/survey?scope=mine
//
// Segments are read as name/value pairs; unknown names are skipped.
func FromPath(rawPath string) Context {
	var c Context
	p, rawQuery, _ := strings.Cut(rawPath, "?")
	if q, err := url.ParseQuery(rawQuery); err == nil {
		c.Scope = q.Get("scope")
	}

	segs := strings.FieldsFunc(p, func(r rune) bool { return r == '/' })
	for i := 0; i+1 < len(segs); i++ {
		val, err := url.PathUnescape(segs[i+1])
		if err != nil {
			val = segs[i+1]
		}
		switch segs[i] {
		case "teams":
			c.TeamID = val
		case "classrooms":
			c.ClassroomID = val
		case "cycles", "steps":
			c.ParentLabel = val
		case "modules":
			c.ModuleLabel = val
		case "organizations":
			c.OrganizationID = val
		case "users":
			c.UserID = val
		case "programs":
			c.ProgramLabel = val
		default:
			continue
		}
		i++
	}
	return c
}

// FromRequest prefers chi URL parameters and falls back to the path.
func FromRequest(r *http.Request) Context {
	fromPath := FromPath(r.URL.RequestURI())
	var params Context
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		params = Context{
			TeamID:         rctx.URLParam(ParamTeamID),
			ParentLabel:    rctx.URLParam(ParamParentLabel),
			ClassroomID:    rctx.URLParam(ParamClassroomID),
			ModuleLabel:    rctx.URLParam(ParamModuleLabel),
			OrganizationID: rctx.URLParam(ParamOrganizationID),
			UserID:         rctx.URLParam(ParamUserID),
			ProgramLabel:   rctx.URLParam(ParamProgramLabel),
		}
	}
	return Merge(params, fromPath)
}

// Merge fills every empty field of props from path. Explicit values win.
func Merge(props, path Context) Context {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	return Context{
		TeamID:         pick(props.TeamID, path.TeamID),
		ParentLabel:    pick(props.ParentLabel, path.ParentLabel),
		ClassroomID:    pick(props.ClassroomID, path.ClassroomID),
		ModuleLabel:    pick(props.ModuleLabel, path.ModuleLabel),
		Scope:          pick(props.Scope, path.Scope),
		OrganizationID: pick(props.OrganizationID, path.OrganizationID),
		UserID:         pick(props.UserID, path.UserID),
		ProgramLabel:   pick(props.ProgramLabel, path.ProgramLabel),
	}
}

// ScopeOrDefault returns the scope, or ScopeAll when it is not a known value.
func (c Context) ScopeOrDefault() string {
	if c.Scope == ScopeMine {
		return ScopeMine
	}
	return ScopeAll
}
