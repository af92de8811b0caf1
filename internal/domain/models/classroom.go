// internal/domain/models/classroom.go
package models

// Classroom is a roster of participants under one contact within a team.
type Classroom struct {
	UID         string `json:"uid"`
	Name        string `json:"name"`
	TeamID      string `json:"team_id"`
	ContactID   string `json:"contact_id"`
	NumStudents int    `json:"num_students"`
	Code        string `json:"code"`
}

func (c Classroom) Key() string     { return c.UID }
func (c Classroom) TeamKey() string { return c.TeamID }
