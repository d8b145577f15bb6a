package schedule

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"operant/internal/model"
)

// Schedule states.
const (
	StateWaiting        = "waiting"
	StateArmed          = "armed"
	StateJustReinforced = "just_reinforced"
	KindRandomInterval  = "random_interval"
)

// RandomInterval models a random-interval (RI) reinforcement schedule in
// generation units. Reinforcement becomes available once an exponentially
// distributed interval has elapsed; the next qualifying response then
// consumes it. The schedule owns its timer and target; every other component
// sees it through Snapshot only.
type RandomInterval struct {
	mean           float64
	target         float64
	dist           distuv.Exponential
	state          string
	timeToArm      float64
	reinforcements int
}

// NewRandomInterval constructs a schedule with the given mean interval and
// initial target, drawing the first interval immediately. The seed derives
// the schedule's interval stream independently of the engine's other draws.
func NewRandomInterval(meanInterval, target float64, seed uint64) (*RandomInterval, error) {
	if meanInterval <= 0 {
		return nil, fmt.Errorf("mean interval must be > 0")
	}

	s := &RandomInterval{
		mean:   meanInterval,
		target: target,
		dist: distuv.Exponential{
			Rate: 1 / meanInterval,
			Src:  rand.NewSource(seed),
		},
		state: StateWaiting,
	}
	s.timeToArm = s.dist.Rand()
	return s, nil
}

// BeginGeneration advances the schedule by one generation unit. A transient
// just-reinforced state resolves back to waiting with a fresh interval before
// the timer elapses.
func (s *RandomInterval) BeginGeneration() {
	if s.state == StateJustReinforced {
		s.state = StateWaiting
		s.timeToArm = s.dist.Rand()
	}
	if s.state == StateArmed {
		return
	}

	s.timeToArm -= 1
	if s.timeToArm <= 0 {
		s.state = StateArmed
	}
}

// NotifyReinforced consumes an armed reinforcement. Calling it in any other
// state reports a state-machine violation.
func (s *RandomInterval) NotifyReinforced() error {
	if s.state != StateArmed {
		return fmt.Errorf("reinforcement delivered while schedule is %s", s.state)
	}
	s.state = StateJustReinforced
	s.reinforcements++
	return nil
}

// State reports the current schedule state.
func (s *RandomInterval) State() string {
	return s.state
}

// Target reports the currently reinforced phenotype value.
func (s *RandomInterval) Target() float64 {
	return s.target
}

// SetTarget replaces the reinforced phenotype value. Used by emitted-target
// runs where the target tracks a freshly emitted response each generation.
func (s *RandomInterval) SetTarget(v float64) {
	s.target = v
}

// Reinforcements reports the cumulative reinforcement count.
func (s *RandomInterval) Reinforcements() int {
	return s.reinforcements
}

// Snapshot returns a read-only view of the schedule for event records.
func (s *RandomInterval) Snapshot() model.ScheduleSnapshot {
	timeToArm := s.timeToArm
	if timeToArm < 0 {
		timeToArm = 0
	}
	return model.ScheduleSnapshot{
		Kind:           KindRandomInterval,
		State:          s.state,
		TimeToArm:      timeToArm,
		MeanInterval:   s.mean,
		Target:         s.target,
		Reinforcements: s.reinforcements,
	}
}
