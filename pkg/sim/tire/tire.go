// Package tire implements the per-stint tire state machine: temperature
// convergence, wear accumulation and cliff detection.
package tire

import (
	"math"
	"math/rand"

	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/sim/compound"
)

const (
	minTemp = 40.0
	maxTemp = 112.0

	// operating window for full grip
	optimalTempLow  = 85.0
	optimalTempHigh = 95.0

	fittedTemp = 50.0 // temperature of a freshly fitted set
)

type (
	// State is the tire state of the active stint. Transitions to a new
	// stint happen only via FitNewSet (a pit stop).
	State struct {
		Compound      model.Compound
		StintLapCount int
		WearPct       float64
		TempC         float64
		CliffReached  bool
	}

	// StepInput carries the per-lap environment the tire model depends on.
	StepInput struct {
		Mode           model.StrategyMode
		TireManagement float64 // driver skill coefficient, ~0.82..0.95
		TrackTemp      float64
		FuelLoadKg     float64
		RainIntensity  float64
	}

	// StepResult holds the derived values consumed by the lap time model.
	StepResult struct {
		CliffPenalty float64 // seconds, proportional to wear beyond threshold
		ExpectedLife float64 // heuristic display value, not authoritative
		GripFactor   float64 // 1.0 in the optimal temperature window
	}
)

// NewState returns the state for a freshly fitted set of the given compound.
func NewState(c model.Compound) State {
	return State{Compound: c, TempC: fittedTemp}
}

// FitNewSet replaces the tire set during a pit stop. Wear and the cliff
// flag reset here and only here.
func (s *State) FitNewSet(c model.Compound) {
	s.Compound = c
	s.StintLapCount = 0
	s.WearPct = 0
	s.TempC = fittedTemp
	s.CliffReached = false
}

// Advance steps the tire model by one lap. Wear is monotonic non-decreasing
// within a stint and clamped at 100.
func (s *State) Advance(rnd *rand.Rand, in StepInput) StepResult {
	s.StintLapCount++
	spec := compound.Get(s.Compound)

	s.advanceTemperature(rnd, spec, in)
	s.advanceWear(in)

	var ret StepResult
	cliffWear := spec.CliffFraction * 100
	if s.WearPct > cliffWear {
		s.CliffReached = true
		ret.CliffPenalty = (s.WearPct - cliffWear) * 0.15
	} else {
		s.CliffReached = false
	}
	ret.ExpectedLife = math.Max(0,
		float64(spec.Life)-float64(s.StintLapCount)-s.WearPct/8)
	ret.GripFactor = gripFactor(s.TempC)
	return ret
}

func (s *State) advanceTemperature(rnd *rand.Rand, spec compound.Spec, in StepInput) {
	if s.StintLapCount <= spec.WarmupLaps {
		s.TempC = math.Min(90, fittedTemp+float64(s.StintLapCount)*15)
	} else {
		s.TempC = spec.TargetTemp + rnd.NormFloat64()*3
		if in.RainIntensity > 0 {
			s.TempC -= 5
		}
	}
	s.TempC = math.Min(maxTemp, math.Max(minTemp, s.TempC))
}

func (s *State) advanceWear(in StepInput) {
	wearRate := 1.0
	switch in.Mode {
	case model.ModeAggressive:
		wearRate = 1.35
	case model.ModeDefensive:
		wearRate = 0.75
	case model.ModeNeutral:
		wearRate = 1.0
	}
	mgmtFactor := 1.0 - (in.TireManagement-0.85)*0.5
	trackAbrasion := (in.TrackTemp - 40) / 25
	fuelWeight := (in.FuelLoadKg - 50) / 100

	progression := 0.65 + 0.18*math.Pow(float64(s.StintLapCount), 1.5)*wearRate*mgmtFactor
	progression *= 1 + trackAbrasion + fuelWeight + in.RainIntensity*0.15

	if progression > 0 {
		s.WearPct = math.Min(100, s.WearPct+progression)
	}
}

func gripFactor(tempC float64) float64 {
	switch {
	case tempC >= optimalTempLow && tempC <= optimalTempHigh:
		return 1.0
	case tempC > optimalTempHigh:
		return 0.97
	default:
		return 0.94
	}
}
