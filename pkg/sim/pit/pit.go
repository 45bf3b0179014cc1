// Package pit implements the per-lap pit stop decision. The rules are
// evaluated in strict priority order, first match wins. The ordering is a
// policy choice and must stay stable for reproducible races.
package pit

import (
	"math/rand"

	"github.com/samber/lo"

	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
)

const (
	windowTolerance  = 2    // laps around a planned window
	windowWearPct    = 70.0 // minimum wear for a planned stop
	emergencyWearPct = 92.0
	overcutStintLaps = 18
	weatherRainLimit = 1.8
	scStintLaps      = 10
	scTakeChance     = 0.7

	// compound selection after a stop
	heavyRainLimit = 2.5
	lightRainLimit = 1.0
	sprintLapsLeft = 20
	mediumLapsLeft = 35
)

// strategy names with special window handling
const (
	StrategyUndercut = "Undercut"
	StrategyOvercut  = "Overcut"
)

type (
	// Plan is the pit window plan of one race, computed once at race start.
	Plan struct {
		Strategy model.StintStrategy
		Windows  []int // target lap numbers, one per planned stop
	}

	// Decision is the outcome of one per-lap evaluation.
	Decision struct {
		Pit      bool
		Reason   string
		Undercut bool
		Overcut  bool
	}

	// Input is the race situation the decision depends on.
	Input struct {
		Lap           int
		StintLapCount int
		Compound      model.Compound
		WearPct       float64
		CliffReached  bool
		RainIntensity float64
		Flag          model.FlagStatus
		PitStopCount  int
	}
)

// NewPlan computes the pit windows for the given strategy. Each window is
// perturbed independently so two races never share the exact plan unless
// they share the seed.
func NewPlan(rnd *rand.Rand, raceLaps int, strategy model.StintStrategy) *Plan {
	base := raceLaps / (strategy.Stops + 1)
	windows := make([]int, 0, strategy.Stops)
	for stop := 1; stop <= strategy.Stops; stop++ {
		windows = append(windows, base*stop+rnd.Intn(7)-3)
	}
	return &Plan{Strategy: strategy, Windows: windows}
}

// Decide evaluates the rule chain for one lap. It does not mutate anything;
// the caller executes the stop if Pit is set and the stop budget allows it.
//
//nolint:cyclop // the rule chain is intentionally one flat priority list
func (p *Plan) Decide(rnd *rand.Rand, in Input) Decision {
	inWindow := lo.SomeBy(p.Windows, func(w int) bool {
		return abs(in.Lap-w) <= windowTolerance
	})

	switch {
	case p.Strategy.Name == StrategyUndercut && len(p.Windows) > 0 &&
		in.Lap == p.Windows[0]:
		return Decision{Pit: true, Reason: "Undercut attempt", Undercut: true}

	case p.Strategy.Name == StrategyOvercut && lo.Contains(p.Windows, in.Lap) &&
		in.StintLapCount > overcutStintLaps:
		return Decision{Pit: true, Reason: "Overcut strategy", Overcut: true}

	case inWindow && in.WearPct > windowWearPct && in.PitStopCount < p.Strategy.Stops:
		return Decision{Pit: true, Reason: "Planned pit window"}

	case in.WearPct > emergencyWearPct || in.CliffReached:
		return Decision{Pit: true, Reason: "Emergency stop - tire degradation"}

	case in.RainIntensity > weatherRainLimit && !in.Compound.IsWetWeather():
		return Decision{Pit: true, Reason: "Weather change - wet tires"}

	case in.Flag == model.FlagSafetyCar && in.StintLapCount > scStintLaps &&
		in.PitStopCount < p.Strategy.Stops:
		if rnd.Float64() < scTakeChance {
			return Decision{Pit: true, Reason: "Safety car pit opportunity"}
		}
	}
	return Decision{}
}

// MayExecute reports whether a triggered stop is allowed to run.
// The stop budget is planned stops plus one emergency stop.
func (p *Plan) MayExecute(pitStopCount int) bool {
	return pitStopCount < p.Strategy.Stops+1
}

// NextCompound selects the compound fitted at a pit stop. Heavy rain forces
// the wet compound, light rain the intermediate. Otherwise the plan is
// followed until exhausted, then the choice depends on the laps remaining.
func (p *Plan) NextCompound(rainIntensity float64, stintNumber, lap, raceLaps int) model.Compound {
	switch {
	case rainIntensity > heavyRainLimit:
		return model.CompoundWet
	case rainIntensity > lightRainLimit:
		return model.CompoundIntermediate
	case stintNumber < len(p.Strategy.Stints):
		return p.Strategy.Stints[stintNumber].Compound
	}
	remaining := raceLaps - lap
	switch {
	case remaining < sprintLapsLeft:
		return model.CompoundSoft
	case remaining < mediumLapsLeft:
		return model.CompoundMedium
	default:
		return model.CompoundHard
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
