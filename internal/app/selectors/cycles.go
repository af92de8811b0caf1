// internal/app/selectors/cycles.go
package selectors

import (
	"github.com/dalemusser/copilot/internal/app/entitycache"
	"github.com/dalemusser/copilot/internal/app/routectx"
	"github.com/dalemusser/copilot/internal/domain/models"
)

// ActiveCycle returns the cycle whose [start, effective end] contains today.
// Cycles are not supposed to overlap; if they do, the first in list order
// wins.
func ActiveCycle(cycles []models.Cycle, today models.Date) (models.Cycle, bool) {
	for _, c := range cycles {
		if c.Contains(today) {
			return c, true
		}
	}
	return models.Cycle{}, false
}

// CurrentCycle is the least strict notion of "this cycle": the active one,
// else the most recently ended one, else the next one to start.
func CurrentCycle(cycles []models.Cycle, today models.Date) (models.Cycle, bool) {
	if c, ok := ActiveCycle(cycles, today); ok {
		return c, true
	}

	var last models.Cycle
	found := false
	for _, c := range cycles {
		end := c.EffectiveEndDate()
		if end.IsZero() || end.After(today) {
			continue
		}
		if !found || end.After(last.EffectiveEndDate()) {
			last, found = c, true
		}
	}
	if found {
		return last, true
	}

	var next models.Cycle
	for _, c := range cycles {
		if c.StartDate.IsZero() || c.StartDate.Before(today) {
			continue
		}
		if !found || c.StartDate.Before(next.StartDate) {
			next, found = c, true
		}
	}
	return next, found
}

// VisibleCycle resolves the route's parent label as a short cycle id.
// It does not look at dates.
func VisibleCycle(s *entitycache.State, rc routectx.Context) (models.Cycle, bool) {
	if rc.ParentLabel == "" {
		return models.Cycle{}, false
	}
	return s.Cycles().Get(models.LongUID(models.PrefixCycle, rc.ParentLabel))
}

// scheduledOrdinals must all be fully dated before a team counts as
// scheduled.
var scheduledOrdinals = []int{1, 2, 3}

// Scheduled reports whether cycles 1, 2 and 3 all have start and end dates.
func Scheduled(cycles []models.Cycle) bool {
	if len(cycles) < len(scheduledOrdinals) {
		return false
	}
	for _, ord := range scheduledOrdinals {
		ok := false
		for _, c := range cycles {
			if c.Ordinal == ord && c.Dated() {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// ProgramComplete reports whether the team has run at least the program's
// minimum number of cycles and all of them have ended.
func ProgramComplete(p models.Program, cycles []models.Cycle, today models.Date) bool {
	if len(cycles) == 0 || len(cycles) < p.MinCycles {
		return false
	}
	for _, c := range cycles {
		end := c.EffectiveEndDate()
		if end.IsZero() || !end.Before(today) {
			return false
		}
	}
	return true
}

// CanAddCycle reports whether the program allows another cycle.
func CanAddCycle(p models.Program, cycles []models.Cycle) bool {
	return p.AllowsMoreCycles(len(cycles))
}
