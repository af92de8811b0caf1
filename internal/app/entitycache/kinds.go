// internal/app/entitycache/kinds.go
package entitycache

import (
	"encoding/json"

	"github.com/dalemusser/copilot/internal/domain/models"
)

// Kind names an entity type held in the cache.
type Kind string

const (
	KindClassroom   Kind = "classroom"
	KindCycle       Kind = "cycle"
	KindTeam        Kind = "team"
	KindParticipant Kind = "participant"
	KindResponse    Kind = "response"
	KindReport      Kind = "report"
	KindUser        Kind = "user"
	KindProgram     Kind = "program"
)

type kindInfo struct {
	plural string
	empty  func() any
	load   func(s *State, k Kind, raw []json.RawMessage) error
}

var registry = map[Kind]kindInfo{
	KindClassroom:   {"classrooms", newTable[models.Classroom], importInto[models.Classroom]},
	KindCycle:       {"cycles", newTable[models.Cycle], importInto[models.Cycle]},
	KindTeam:        {"teams", newTable[models.Team], importInto[models.Team]},
	KindParticipant: {"participants", newTable[models.Participant], importInto[models.Participant]},
	KindResponse:    {"responses", newTable[models.Response], importInto[models.Response]},
	KindReport:      {"reports", newTable[models.Report], importInto[models.Report]},
	KindUser:        {"users", newTable[models.User], importInto[models.User]},
	KindProgram:     {"programs", newTable[models.Program], importInto[models.Program]},
}

// Kinds lists every cached kind in a stable order.
var Kinds = []Kind{
	KindClassroom, KindCycle, KindTeam, KindParticipant, KindResponse, KindReport,
	KindUser, KindProgram,
}

// Plural is the collection name used in REST paths and response envelopes.
func (k Kind) Plural() string { return registry[k].plural }
