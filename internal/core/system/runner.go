package system

import "sort"

// Runner executes systems in phase order each tick. Registration order is
// preserved within a phase.
type Runner struct {
	systems []System
	sorted  bool
	tick    uint64
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// TickCount returns the number of completed ticks.
func (r *Runner) TickCount() uint64 { return r.tick }

func (r *Runner) Tick() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
	r.tick++
	for _, s := range r.systems {
		s.Update(r.tick)
	}
}
