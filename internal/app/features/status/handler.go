// internal/app/features/status/handler.go
package status

import (
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/dalemusser/copilot/internal/app/dispatch"
	"github.com/dalemusser/copilot/internal/app/entitycache"
	"github.com/dalemusser/copilot/internal/app/features/shared"
	"github.com/dalemusser/copilot/internal/app/system/timeouts"
)

// Upstreams names the services the process talks to.
type Upstreams struct {
	Triton  string `json:"triton"`
	Neptune string `json:"neptune"`
}

// Handler serves the operator status report.
type Handler struct {
	D         *dispatch.Dispatcher
	Upstreams Upstreams
	Started   time.Time
	Now       func() time.Time
}

func NewHandler(d *dispatch.Dispatcher, up Upstreams) *Handler {
	return &Handler{D: d, Upstreams: up, Started: time.Now(), Now: time.Now}
}

type timeoutsView struct {
	Ping   string `json:"ping"`
	Short  string `json:"short"`
	Medium string `json:"medium"`
	Long   string `json:"long"`
}

type report struct {
	StartedAt   time.Time      `json:"started_at"`
	Uptime      string         `json:"uptime"`
	GoVersion   string         `json:"go_version"`
	Goroutines  int            `json:"goroutines"`
	Upstreams   Upstreams      `json:"upstreams"`
	Cached      map[string]int `json:"cached"`
	LoadedTeams []string       `json:"loaded_teams"`
	Partial     []string       `json:"partial_teams"`
	ListedKinds []string       `json:"listed_kinds"`
	Timeouts    timeoutsView   `json:"timeouts"`
}

// Serve handles GET /status.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	loaders := h.D.TeamLoaders()
	teams := make([]string, 0, len(loaders))
	partial := []string{}
	for id := range loaders {
		if h.D.TeamLoaded(id) {
			teams = append(teams, id)
		} else {
			partial = append(partial, id)
		}
	}
	sort.Strings(teams)
	sort.Strings(partial)

	st := h.D.Cache().State()
	listed := []string{}
	for _, k := range entitycache.Kinds {
		if st.HasList(k) {
			listed = append(listed, string(k))
		}
	}

	t := timeouts.Current()
	shared.WriteJSON(w, http.StatusOK, report{
		StartedAt:   h.Started.UTC(),
		Uptime:      h.Now().Sub(h.Started).Truncate(time.Second).String(),
		GoVersion:   runtime.Version(),
		Goroutines:  runtime.NumGoroutine(),
		Upstreams:   h.Upstreams,
		Cached:      st.Counts(),
		LoadedTeams: teams,
		Partial:     partial,
		ListedKinds: listed,
		Timeouts: timeoutsView{
			Ping:   t.Ping.String(),
			Short:  t.Short.String(),
			Medium: t.Medium.String(),
			Long:   t.Long.String(),
		},
	})
}
