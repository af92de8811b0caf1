package dispatch

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dalemusser/copilot/internal/app/clients"
	"github.com/dalemusser/copilot/internal/app/clients/neptune"
	"github.com/dalemusser/copilot/internal/app/entitycache"
	"github.com/dalemusser/copilot/internal/app/selectors"
	"github.com/dalemusser/copilot/internal/domain/models"
	"golang.org/x/sync/errgroup"
)

// completionFanout bounds concurrent Neptune calls per team.
const completionFanout = 4

// LoadTeam fetches a team and then, concurrently, everything hung off it:
// cycles, classrooms, participants, reports, responses, owning users and
// the team's program. The team counts as loaded only when every fetch
// succeeded; a partial load is retried by the next caller.
func LoadTeam(ctx context.Context, d *Dispatcher, cs *clients.Set, teamID string) (models.Team, error) {
	team, err := Get[models.Team](ctx, d, cs.Triton, entitycache.KindTeam, teamID)
	if err != nil {
		return models.Team{}, fmt.Errorf("load team %s: %w", teamID, err)
	}
	d.noteLoad(team.UID, cs.UserID, false)

	byTeam := url.Values{"team_id": {team.UID}}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := Query[models.Cycle](gctx, d, cs.Triton, entitycache.KindCycle, byTeam)
		return err
	})
	g.Go(func() error {
		_, err := Query[models.Classroom](gctx, d, cs.Triton, entitycache.KindClassroom, byTeam)
		return err
	})
	g.Go(func() error {
		_, err := Query[models.Participant](gctx, d, cs.Triton, entitycache.KindParticipant, byTeam)
		return err
	})
	g.Go(func() error {
		_, err := Query[models.Report](gctx, d, cs.Triton, entitycache.KindReport, byTeam)
		return err
	})
	g.Go(func() error {
		_, err := Query[models.Response](gctx, d, cs.Triton, entitycache.KindResponse, byTeam)
		return err
	})
	g.Go(func() error {
		_, err := Query[models.User](gctx, d, cs.Triton, entitycache.KindUser, byTeam)
		return err
	})
	if team.ProgramID != "" {
		g.Go(func() error {
			_, err := Get[models.Program](gctx, d, cs.Triton, entitycache.KindProgram, team.ProgramID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return team, fmt.Errorf("load team %s: %w", teamID, err)
	}
	d.noteLoad(team.UID, cs.UserID, true)
	d.cache.MarkTeamLoaded(team.UID)
	return team, nil
}

// LoadCompletion fetches Neptune completion rows of the team's current
// cycle for every cached classroom of the team. It returns the cycle used;
// ok is false when the team has no current cycle.
func LoadCompletion(ctx context.Context, d *Dispatcher, nc *neptune.Client, teamID string, today models.Date) (cycle models.Cycle, ok bool, err error) {
	st := d.cache.State()
	cycles := st.Cycles().Filter(func(c models.Cycle) bool { return c.TeamID == teamID })
	cycle, ok = selectors.CurrentCycle(cycles, today)
	if !ok {
		return models.Cycle{}, false, nil
	}
	rooms := st.Classrooms().Filter(func(c models.Classroom) bool { return c.TeamID == teamID })

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(completionFanout)
	for _, room := range rooms {
		g.Go(func() error {
			return d.call("completion", "completion", room.UID, func(seq uint64) (bool, error) {
				rows, err := nc.CompletionRows(gctx, cycle.UID, room.UID)
				if err != nil {
					return false, err
				}
				return d.cache.SetCompletion(cycle.UID, room.UID, rows, seq), nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return cycle, true, fmt.Errorf("load completion %s: %w", teamID, err)
	}
	return cycle, true, nil
}
