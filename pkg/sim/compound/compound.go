// Package compound holds the table driven tire compound model.
package compound

import "github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"

// Spec describes the degradation profile of a tire compound.
type Spec struct {
	Life          int     // expected life in laps
	Pace          float64 // pace factor relative to Soft (1.0)
	WarmupLaps    int     // laps until optimal temperature
	CliffFraction float64 // wear fraction at which the performance cliff hits
	TargetTemp    float64 // optimal operating temperature in Celsius
}

var specs = map[model.Compound]Spec{
	model.CompoundSoft:         {Life: 20, Pace: 1.0, WarmupLaps: 1, CliffFraction: 0.85, TargetTemp: 90},
	model.CompoundMedium:       {Life: 32, Pace: 0.975, WarmupLaps: 2, CliffFraction: 0.80, TargetTemp: 90},
	model.CompoundHard:         {Life: 48, Pace: 0.945, WarmupLaps: 3, CliffFraction: 0.75, TargetTemp: 85},
	model.CompoundIntermediate: {Life: 28, Pace: 0.88, WarmupLaps: 2, CliffFraction: 0.82, TargetTemp: 85},
	model.CompoundWet:          {Life: 35, Pace: 0.82, WarmupLaps: 1, CliffFraction: 0.80, TargetTemp: 85},
}

// Get returns the spec for the given compound. Unknown compounds map to
// Medium so a corrupt input cannot crash the engine.
func Get(c model.Compound) Spec {
	if spec, ok := specs[c]; ok {
		return spec
	}
	return specs[model.CompoundMedium]
}
