package laptime

import (
	"math"
	"math/rand"

	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
)

const (
	powerFloor = 45.0
	powerCap   = 100.0
)

// EnginePower estimates the deployed engine power in percent. The safety
// car suppresses power well below the green flag baseline.
func EnginePower(rnd *rand.Rand, skill float64, mode model.StrategyMode,
	flag model.FlagStatus, wearPct, energyPct float64,
) float64 {
	base := 93 + skill*7

	modeMult := 1.0
	switch mode {
	case model.ModeAggressive:
		modeMult = 1.06
	case model.ModeDefensive:
		modeMult = 0.94
	case model.ModeNeutral:
	}

	flagMult := 1.0
	switch flag {
	case model.FlagSafetyCar:
		flagMult = 0.55
	case model.FlagYellow:
		flagMult = 0.75
	case model.FlagGreen:
	}

	energyBoost := energyPct / 100 * 0.05
	power := base*modeMult*flagMult*(1-wearPct/400)*(1+energyBoost) +
		rnd.NormFloat64()*1.2
	return math.Min(powerCap, math.Max(powerFloor, power))
}

// Throttle derives the throttle application from the deployed power.
func Throttle(rnd *rand.Rand, enginePower float64) float64 {
	t := enginePower + rnd.NormFloat64()*3.5
	return math.Min(100, math.Max(0, t))
}
