// Package rows reshapes selector output into the flat rows a client
// renders: grouped report weeks and the participation roster.
package rows

import (
	"fmt"
	"sort"

	"github.com/dalemusser/copilot/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// Viewer identifies who is looking at reports. Admins see every
// classroom's reports; others only their own classrooms'.
type Viewer struct {
	UserID  string
	IsAdmin bool
}

// ReportRow is one displayable report. Name is the team's name for
// team-level reports and the classroom's name otherwise.
type ReportRow struct {
	models.Report
	Name string `json:"name"`
}

// ReportWeek holds the reports issued in one ISO week. Key is "2019-W07",
// or "" for reports without an issue date.
type ReportWeek struct {
	Key     string      `json:"key"`
	Reports []ReportRow `json:"reports"`
}

// WeekKey returns the ISO week key of d, or "" for the zero date.
func WeekKey(d models.Date) string {
	if d.IsZero() {
		return ""
	}
	y, w := d.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", y, w)
}

// GroupReports groups reports by issue week, newest week first with
// undated reports last. Classroom reports are kept only when the classroom
// is known and, for non-admins, when the viewer is its contact. Within a
// week team reports come before classroom reports, each ordered by name.
// A week holding exactly one team report and one classroom report shows
// only the classroom report. Weeks left empty are dropped.
func GroupReports(reports []models.Report, team models.Team, classrooms map[string]models.Classroom, viewer Viewer) []ReportWeek {
	byWeek := map[string][]ReportRow{}
	for _, r := range reports {
		row, ok := reportRow(r, team, classrooms, viewer)
		if !ok {
			continue
		}
		key := WeekKey(r.IssueDate())
		byWeek[key] = append(byWeek[key], row)
	}

	keys := make([]string, 0, len(byWeek))
	for k := range byWeek {
		keys = append(keys, k)
	}
	// ISO week keys sort lexically; "" goes last.
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == "" || keys[j] == "" {
			return keys[j] == ""
		}
		return keys[i] > keys[j]
	})

	out := make([]ReportWeek, 0, len(keys))
	for _, k := range keys {
		rows := orderWeek(byWeek[k])
		if len(rows) == 0 {
			continue
		}
		out = append(out, ReportWeek{Key: k, Reports: rows})
	}
	return out
}

func reportRow(r models.Report, team models.Team, classrooms map[string]models.Classroom, viewer Viewer) (ReportRow, bool) {
	if r.TeamLevel() {
		return ReportRow{Report: r, Name: team.Name}, true
	}
	c, ok := classrooms[r.ClassroomID]
	if !ok {
		return ReportRow{}, false
	}
	if !viewer.IsAdmin && (viewer.UserID == "" || c.ContactID != viewer.UserID) {
		return ReportRow{}, false
	}
	return ReportRow{Report: r, Name: c.Name}, true
}

func orderWeek(rows []ReportRow) []ReportRow {
	var teamRows, roomRows []ReportRow
	for _, r := range rows {
		if r.TeamLevel() {
			teamRows = append(teamRows, r)
		} else {
			roomRows = append(roomRows, r)
		}
	}
	byName(teamRows)
	byName(roomRows)

	if len(teamRows) == 1 && len(roomRows) == 1 {
		return roomRows
	}
	return append(teamRows, roomRows...)
}

func byName(rows []ReportRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := text.Fold(rows[i].Name), text.Fold(rows[j].Name)
		if a != b {
			return a < b
		}
		return rows[i].Filename < rows[j].Filename
	})
}
