// internal/domain/models/team.go
package models

// Team drives one program cohort. ParticipationBase is the number of survey
// completions that counts as 100% participation for a cycle.
type Team struct {
	UID               string   `json:"uid"`
	Name              string   `json:"name"`
	CaptainID         string   `json:"captain_id"`
	OrganizationIDs   []string `json:"organization_ids"`
	ProgramID         string   `json:"program_id"`
	ParticipationBase int      `json:"participation_base"`
	NumClassrooms     int      `json:"num_classrooms"`
	NumUsers          int      `json:"num_users"`
}

func (t Team) Key() string { return t.UID }

// IsCaptain reports whether userID captains this team.
func (t Team) IsCaptain(userID string) bool {
	return userID != "" && t.CaptainID == userID
}
