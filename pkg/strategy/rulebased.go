package strategy

import "context"

// rule thresholds, matching the labeling used to train the real model
const (
	frontPosition    = 3
	freshWearPct     = 40.0
	shortStintLaps   = 10
	defensiveWearPct = 60.0
	slowLapSeconds   = 100.0
	criticalWearPct  = 75.0
)

type ruleBased struct{}

// NewRuleBased returns a deterministic classifier applying the same rules
// the training labels were derived from. It serves as the default
// implementation and as the fallback when no trained artifact is wired in.
func NewRuleBased() Predictor {
	return &ruleBased{}
}

func (rb *ruleBased) Predict(_ context.Context, features FeatureVector) (*Prediction, error) {
	if len(features) != NumFeatures {
		return nil, ErrFeatureMismatch
	}
	position := features[featPosition]
	lapTime := features[featLapTime]
	wear := features[featTireWear]
	stintLap := features[featStintLap]

	// unnormalized label scores; priors keep every label above zero
	agg, neu, def := 0.15, 0.5, 0.15
	if position <= frontPosition && wear < freshWearPct && stintLap < shortStintLaps {
		agg += 0.6
	}
	if wear > defensiveWearPct {
		def += 0.5
	}
	if lapTime > slowLapSeconds {
		def += 0.3
	}
	if wear > criticalWearPct {
		def += 0.2
	}

	total := agg + neu + def
	conf := map[string]float64{
		LabelAggressive: agg / total,
		LabelNeutral:    neu / total,
		LabelDefensive:  def / total,
	}

	recommended := LabelNeutral
	best := conf[LabelNeutral]
	for _, label := range []string{LabelAggressive, LabelDefensive} {
		if conf[label] > best {
			recommended = label
			best = conf[label]
		}
	}
	return &Prediction{Recommended: recommended, Confidence: conf}, nil
}
