// internal/domain/models/program.go
package models

// MetricConfig names a metric a program reports on.
type MetricConfig struct {
	UID     string `json:"uid"`
	Default bool   `json:"default"`
}

// Program configures a multi-stage program. A negative MaxCycles means
// there is no upper bound.
type Program struct {
	UID           string         `json:"uid"`
	Label         string         `json:"label"`
	Name          string         `json:"name"`
	MinCycles     int            `json:"min_cycles"`
	MaxCycles     int            `json:"max_cycles"`
	MetricConfigs []MetricConfig `json:"metrics"`
}

func (p Program) Key() string { return p.UID }

// Unlimited reports whether the program allows any number of cycles.
func (p Program) Unlimited() bool { return p.MaxCycles < 0 }

// AllowsMoreCycles reports whether a team with n cycles may add another.
func (p Program) AllowsMoreCycles(n int) bool {
	return p.Unlimited() || n < p.MaxCycles
}
