// internal/app/selectors/participation.go
package selectors

import (
	"math"

	"github.com/dalemusser/copilot/internal/app/routectx"
	"github.com/dalemusser/copilot/internal/domain/models"
)

// Complete80Threshold is the participation percent at which a cycle counts
// as well attended.
const Complete80Threshold = 80

// Participation is a percentage with its 80% flag.
type Participation struct {
	Percent    int  `json:"percent"`
	Complete80 bool `json:"complete80"`
}

// NewParticipation wraps a percent.
func NewParticipation(percent int) Participation {
	return Participation{Percent: percent, Complete80: Complete80(percent)}
}

// Complete80 reports whether percent reaches the 80% threshold.
func Complete80(percent int) bool { return percent >= Complete80Threshold }

func roundPercent(num, den int) int {
	if den == 0 {
		return 0
	}
	return int(math.Round(float64(num) / float64(den) * 100))
}

// ParticipationPercent uses the server's pre-aggregated completion count
// for the cycle against the team's participation base.
func ParticipationPercent(team models.Team, cycle models.Cycle) int {
	if team.ParticipationBase == 0 {
		return 0
	}
	return roundPercent(cycle.StudentsCompleted, team.ParticipationBase)
}

// ScopedClassrooms returns all classrooms for ScopeAll, or only those whose
// contact is userID for ScopeMine.
func ScopedClassrooms(classrooms []models.Classroom, scope, userID string) []models.Classroom {
	if scope != routectx.ScopeMine {
		return classrooms
	}
	var out []models.Classroom
	for _, c := range classrooms {
		if userID != "" && c.ContactID == userID {
			out = append(out, c)
		}
	}
	return out
}

// CompletionSource looks up completion rows; both *entitycache.State and
// *entitycache.CompletionTable serve.
type CompletionSource interface {
	Completion(cycleID, classroomID string) []models.CompletionRow
}

// ParticipationPercentDerived recomputes participation classroom by
// classroom: completed rows for the cycle across the given classrooms over
// their total number of students. Classrooms without cached rows count as
// zero completions.
func ParticipationPercentDerived(s CompletionSource, classrooms []models.Classroom, cycleID string) int {
	den := 0
	for _, c := range classrooms {
		den += c.NumStudents
	}
	if den == 0 {
		return 0
	}

	var rows []models.CompletionRow
	for _, c := range classrooms {
		rows = append(rows, s.Completion(cycleID, c.UID)...)
	}
	num := 0
	for _, r := range rows {
		if r.Complete() {
			num++
		}
	}
	return roundPercent(num, den)
}
