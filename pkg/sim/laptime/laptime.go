// Package laptime composes all per-lap effects into a single lap duration
// and derives the advisory signals (push signal, pace score, win probability).
package laptime

import (
	"math"
	"math/rand"

	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/sim/compound"
)

const (
	baseLapTime     = 89.0  // seconds for a perfect driver
	skillSpread     = 4.5   // added per point below full skill
	fuelSecPerKg    = 0.035 // lighter car is faster
	startFuelKg     = 110.0
	compoundSpread  = 6.0 // pace deficit scale vs Soft
	warmupPenalty   = 1.5 // per missing warmup lap
	wearSecPerPct   = 0.055
	tempGripPenalty = 2.5
	evolutionMax    = 0.8
	rainSecPerMm    = 5.5
	safetyCarDelay  = 28.0
	yellowDelay     = 12.0
	aggressiveGain  = -0.6
	defensiveCost   = 1.0
	drsGain         = 0.35
	noiseSigma      = 0.6
)

type Input struct {
	Lap            int
	Skill          float64
	TireManagement float64
	FuelLoadKg     float64
	Compound       model.Compound
	StintLapCount  int
	WearPct        float64
	CliffPenalty   float64
	GripFactor     float64
	TrackEvolution float64 // per-lap rate from the circuit spec
	RainIntensity  float64
	Flag           model.FlagStatus
	PitStop        bool
	PitLoss        float64
	Mode           model.StrategyMode
	DrsTrain       bool
}

// Compute returns the lap duration in seconds.
func Compute(rnd *rand.Rand, in Input) float64 {
	spec := compound.Get(in.Compound)

	base := baseLapTime + (1-in.Skill)*skillSpread
	fuelEffect := (startFuelKg - in.FuelLoadKg) * fuelSecPerKg

	compoundEffect := (1 - spec.Pace) * compoundSpread
	if in.StintLapCount <= spec.WarmupLaps {
		compoundEffect += warmupPenalty * float64(spec.WarmupLaps-in.StintLapCount+1)
	}

	wearEffect := in.WearPct*wearSecPerPct + in.CliffPenalty
	tempEffect := (1 - in.GripFactor) * tempGripPenalty
	evolutionBonus := math.Min(1.0, float64(in.Lap)*in.TrackEvolution) * evolutionMax
	weatherEffect := in.RainIntensity * rainSecPerMm

	var flagEffect float64
	switch in.Flag {
	case model.FlagSafetyCar:
		flagEffect = safetyCarDelay
	case model.FlagYellow:
		flagEffect = yellowDelay
	case model.FlagGreen:
		flagEffect = 0
	}

	var pitEffect float64
	if in.PitStop {
		pitEffect = in.PitLoss
	}

	var modeEffect float64
	switch in.Mode {
	case model.ModeAggressive:
		modeEffect = aggressiveGain
	case model.ModeDefensive:
		modeEffect = defensiveCost
	case model.ModeNeutral:
		modeEffect = 0
	}

	var drsBenefit float64
	if in.DrsTrain {
		drsBenefit = drsGain
	}
	tireSkillBonus := (in.TireManagement - 0.85) * 2.0

	return base - fuelEffect + compoundEffect + wearEffect + tempEffect -
		evolutionBonus + weatherEffect + flagEffect + pitEffect + modeEffect -
		drsBenefit - tireSkillBonus + rnd.NormFloat64()*noiseSigma
}
