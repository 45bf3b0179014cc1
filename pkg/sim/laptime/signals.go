package laptime

import (
	"math"
	"math/rand"

	"github.com/samber/lo"

	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/sim/compound"
)

// thresholds for the advisory signals
const (
	pushDeltaLimit      = -0.4
	pushWearLimit       = 65.0
	conserveWearLimit   = 75.0
	conserveFuelLimit   = 20.0
	degradeDeltaLimit   = 1.8
	degradeStintLaps    = 12
	paceWindow          = 5
	defensiveWearLimit  = 70.0
	frontRunnerPosition = 3
	safeGapSeconds      = 4.0
	freshTireWearLimit  = 50.0
)

// PushSignalFor derives the categorical per-lap recommendation.
// PUSH beats CONSERVE only while wear is low and the cliff has not hit.
func PushSignalFor(delta, wearPct, fuelKg float64, cliff bool) model.PushSignal {
	switch {
	case delta < pushDeltaLimit && wearPct < pushWearLimit && !cliff:
		return model.SignalPush
	case wearPct > conserveWearLimit || cliff || fuelKg < conserveFuelLimit:
		return model.SignalConserve
	default:
		return model.SignalMaintain
	}
}

// DegradationWarning reports a sharp pace loss on a long stint.
func DegradationWarning(delta float64, stintLapCount int, cliff bool) bool {
	return (delta > degradeDeltaLimit && stintLapCount > degradeStintLaps) || cliff
}

// AvgPace returns the mean of the most recent pace window.
func AvgPace(lapTimes []float64) float64 {
	if len(lapTimes) == 0 {
		return 0
	}
	recent := lapTimes[max(0, len(lapTimes)-paceWindow):]
	return lo.Sum(recent) / float64(len(recent))
}

// Momentum is the rate of pace change over the last pace window.
func Momentum(lapTimes []float64) float64 {
	if len(lapTimes) <= paceWindow {
		return 0
	}
	n := len(lapTimes)
	return (lapTimes[n-1] - lapTimes[n-1-paceWindow]) / float64(paceWindow)
}

// RacePaceScore is a composite 0..100-ish score used on the dashboard.
func RacePaceScore(lapTime, wearPct, rainIntensity, energyPct float64) float64 {
	return 100 - (lapTime-86)*2.2 - wearPct*0.35 - rainIntensity*4.5 + energyPct*0.1
}

// strategies with a pace advantage in the win probability heuristic
var favoredStrategies = []string{"Two-Stop", "Undercut"}

// WinProbability is a rough heuristic, clamped to [0,1]. Advisory only.
func WinProbability(fieldSize, position int, wearPct, skill, rainIntensity float64,
	strategyName string,
) float64 {
	positionFactor := float64(fieldSize-position+1) / float64(fieldSize)
	tireFactor := 1 - wearPct/120
	strategyFactor := 0.85
	if lo.Contains(favoredStrategies, strategyName) {
		strategyFactor = 0.9
	}
	p := positionFactor * tireFactor * strategyFactor * skill * (1 - rainIntensity/15)
	return math.Max(0, math.Min(1, p))
}

// RecommendedMode suggests a driving mode from the race situation. This is
// advisory and distinct from the classifier recommendation.
func RecommendedMode(wearPct, intervalGap float64, position int, cliff bool,
) model.StrategyMode {
	switch {
	case wearPct > defensiveWearLimit || cliff:
		return model.ModeDefensive
	case position <= frontRunnerPosition && intervalGap > safeGapSeconds &&
		wearPct < freshTireWearLimit:
		return model.ModeAggressive
	default:
		return model.ModeNeutral
	}
}

// PowerAnomaly scores the engine power deviation from its nominal value.
func PowerAnomaly(enginePower float64) float64 {
	return math.Abs(enginePower-95) / 10
}

// RacecraftAnomaly relates the current lap delta to the recent delta noise.
func RacecraftAnomaly(lapTimes []float64, delta float64) float64 {
	if len(lapTimes) <= 4 {
		return 0
	}
	n := len(lapTimes)
	recent := lapTimes[n-5:]
	deltas := make([]float64, 0, 4)
	for i := 1; i < len(recent); i++ {
		deltas = append(deltas, math.Abs(recent[i]-recent[i-1]))
	}
	return math.Abs(delta) / (lo.Sum(deltas)/float64(len(deltas)) + 0.15)
}

// Speed estimates the average lap speed in kph.
func Speed(rnd *rand.Rand, skill float64, c model.Compound, gripFactor,
	wearPct, rainIntensity float64, flag model.FlagStatus,
) float64 {
	base := 218 + skill*35
	flagMult := 1.0
	switch flag {
	case model.FlagSafetyCar:
		flagMult = 0.48
	case model.FlagYellow:
		flagMult = 0.68
	case model.FlagGreen:
	}
	return base*compound.Get(c).Pace*gripFactor*
		(1-wearPct/250)*(1-rainIntensity/12)*flagMult + rnd.NormFloat64()*6.5
}
