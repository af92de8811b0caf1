// internal/domain/models/cycle.go
package models

// Cycle is a recurring, date-bounded period of a team's program in which a
// survey is administered. Ordinal is 1-based and unique within a team.
type Cycle struct {
	UID               string `json:"uid"`
	TeamID            string `json:"team_id"`
	Ordinal           int    `json:"ordinal"`
	StartDate         Date   `json:"start_date"`
	EndDate           Date   `json:"end_date"`
	ExtendedEndDate   Date   `json:"extended_end_date"`
	MeetingDate       Date   `json:"meeting_date"`
	ResolutionDate    Date   `json:"resolution_date"`
	StudentsCompleted int    `json:"students_completed"`
}

func (c Cycle) Key() string     { return c.UID }
func (c Cycle) TeamKey() string { return c.TeamID }

// EffectiveEndDate is ExtendedEndDate when set, otherwise EndDate.
func (c Cycle) EffectiveEndDate() Date {
	if !c.ExtendedEndDate.IsZero() {
		return c.ExtendedEndDate
	}
	return c.EndDate
}

// Dated reports whether both start and end dates are set.
func (c Cycle) Dated() bool {
	return !c.StartDate.IsZero() && !c.EndDate.IsZero()
}

// Contains reports whether day falls inside [StartDate, EffectiveEndDate],
// inclusive on both ends. Undated cycles contain no day.
func (c Cycle) Contains(day Date) bool {
	end := c.EffectiveEndDate()
	if c.StartDate.IsZero() || end.IsZero() {
		return false
	}
	return !day.Before(c.StartDate) && !day.After(end)
}
