// internal/domain/models/participant.go
package models

import "slices"

// Participant is a student-level record. A participant may sit in several
// classrooms of the same team.
type Participant struct {
	UID          string   `json:"uid"`
	TeamID       string   `json:"team_id"`
	ClassroomIDs []string `json:"classroom_ids"`
	StudentID    string   `json:"student_id"`
}

func (p Participant) Key() string     { return p.UID }
func (p Participant) TeamKey() string { return p.TeamID }

// InClassroom reports whether the participant belongs to classroomID.
func (p Participant) InClassroom(classroomID string) bool {
	return slices.Contains(p.ClassroomIDs, classroomID)
}
