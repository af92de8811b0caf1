package testutil

import (
	"testing"

	"github.com/dalemusser/copilot/internal/app/entitycache"
	"github.com/dalemusser/copilot/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Fixtures seeds an entity cache with test records.
type Fixtures struct {
	cache *entitycache.Cache
	t     *testing.T
}

// NewFixtures creates a Fixtures instance around a fresh cache.
func NewFixtures(t *testing.T) *Fixtures {
	t.Helper()
	return &Fixtures{cache: entitycache.New(zap.NewNop()), t: t}
}

// Cache returns the underlying cache for direct access in tests.
func (f *Fixtures) Cache() *entitycache.Cache {
	return f.cache
}

// State returns the cache's current state.
func (f *Fixtures) State() *entitycache.State {
	return f.cache.State()
}

// NewUID returns a fresh uid with the given prefix.
func NewUID(prefix string) string {
	return models.LongUID(prefix, uuid.NewString()[:8])
}

// CreateTeam caches a team with the given name and participation base.
func (f *Fixtures) CreateTeam(name string, participationBase int) models.Team {
	f.t.Helper()
	team := models.Team{
		UID:               NewUID(models.PrefixTeam),
		Name:              name,
		ParticipationBase: participationBase,
	}
	entitycache.Got(f.cache, entitycache.KindTeam, team, 0)
	return team
}

// CreateProgram caches a program and links the team to it.
func (f *Fixtures) CreateProgram(team *models.Team, label string, minCycles, maxCycles int) models.Program {
	f.t.Helper()
	p := models.Program{
		UID:       NewUID(models.PrefixProgram),
		Label:     label,
		MinCycles: minCycles,
		MaxCycles: maxCycles,
	}
	entitycache.Got(f.cache, entitycache.KindProgram, p, 0)
	team.ProgramID = p.UID
	entitycache.Got(f.cache, entitycache.KindTeam, *team, 0)
	return p
}

// CreateCycle caches a cycle for the team. Zero dates stay unset.
func (f *Fixtures) CreateCycle(teamID string, ordinal int, start, end models.Date) models.Cycle {
	f.t.Helper()
	c := models.Cycle{
		UID:       NewUID(models.PrefixCycle),
		TeamID:    teamID,
		Ordinal:   ordinal,
		StartDate: start,
		EndDate:   end,
	}
	entitycache.Got(f.cache, entitycache.KindCycle, c, 0)
	return c
}

// SaveCycle replaces a cached cycle.
func (f *Fixtures) SaveCycle(c models.Cycle) {
	f.t.Helper()
	entitycache.Got(f.cache, entitycache.KindCycle, c, 0)
}

// CreateClassroom caches a classroom on the team.
func (f *Fixtures) CreateClassroom(teamID, name, contactID string, numStudents int) models.Classroom {
	f.t.Helper()
	c := models.Classroom{
		UID:         NewUID(models.PrefixClassroom),
		Name:        name,
		TeamID:      teamID,
		ContactID:   contactID,
		NumStudents: numStudents,
	}
	entitycache.Got(f.cache, entitycache.KindClassroom, c, 0)
	return c
}

// CreateParticipant caches a participant in the given classrooms.
func (f *Fixtures) CreateParticipant(teamID, studentID string, classroomIDs ...string) models.Participant {
	f.t.Helper()
	p := models.Participant{
		UID:          NewUID(models.PrefixParticipant),
		TeamID:       teamID,
		StudentID:    studentID,
		ClassroomIDs: classroomIDs,
	}
	entitycache.Got(f.cache, entitycache.KindParticipant, p, 0)
	return p
}

// CreateUser caches a user owning the given teams.
func (f *Fixtures) CreateUser(name, email, userType string, teamIDs ...string) models.User {
	f.t.Helper()
	u := models.User{
		UID:        NewUID(models.PrefixUser),
		Name:       name,
		Email:      email,
		UserType:   userType,
		OwnedTeams: teamIDs,
	}
	entitycache.Got(f.cache, entitycache.KindUser, u, 0)
	return u
}

// CreateReport caches a report. An empty classroomID makes it team-level.
func (f *Fixtures) CreateReport(teamID, classroomID, filename string) models.Report {
	f.t.Helper()
	parent := classroomID
	if parent == "" {
		parent = teamID
	}
	r := models.Report{
		UID:         NewUID(models.PrefixReport),
		ParentID:    parent,
		TeamID:      teamID,
		ClassroomID: classroomID,
		Filename:    filename,
		Link:        "/files/" + filename,
	}
	entitycache.Got(f.cache, entitycache.KindReport, r, 0)
	return r
}

// CreateResponse caches a response for owner.
func (f *Fixtures) CreateResponse(owner models.ResponseOwner, teamID, parentID, moduleLabel string, progress int) models.Response {
	f.t.Helper()
	r := models.Response{
		UID:         NewUID(models.PrefixResponse),
		Owner:       owner,
		TeamID:      teamID,
		ParentID:    parentID,
		ModuleLabel: moduleLabel,
		Progress:    progress,
		Body:        map[string]models.FieldValue{},
	}
	entitycache.Got(f.cache, entitycache.KindResponse, r, 0)
	return r
}

// SetCompletion caches completion rows for a cycle and classroom.
func (f *Fixtures) SetCompletion(cycleID, classroomID string, rows ...models.CompletionRow) {
	f.t.Helper()
	f.cache.SetCompletion(cycleID, classroomID, rows, 0)
}
