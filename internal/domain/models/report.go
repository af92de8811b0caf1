// internal/domain/models/report.go
package models

import "regexp"

// Report is a generated participation report. ParentID is either the team
// or the classroom; ClassroomID is empty for team-level reports.
type Report struct {
	UID         string `json:"uid"`
	ParentID    string `json:"parent_id"`
	TeamID      string `json:"team_id"`
	ClassroomID string `json:"classroom_id,omitempty"`
	Filename    string `json:"filename"`
	Link        string `json:"link"`
	Issued      Date   `json:"issue_date"`
}

func (r Report) Key() string     { return r.UID }
func (r Report) TeamKey() string { return r.TeamID }

// TeamLevel reports whether the report covers the whole team.
func (r Report) TeamLevel() bool { return r.ClassroomID == "" }

var filenameDate = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// IssueDate is the explicit issue date, or the first YYYY-MM-DD found in
// the filename. The zero Date means the report is undated.
func (r Report) IssueDate() Date {
	if !r.Issued.IsZero() {
		return r.Issued
	}
	m := filenameDate.FindString(r.Filename)
	if m == "" {
		return Date{}
	}
	d, err := ParseDate(m)
	if err != nil {
		return Date{}
	}
	return d
}
