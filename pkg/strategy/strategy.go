// Package strategy defines the narrow interface to the strategy classifier
// and the feature vector contract it consumes.
package strategy

import (
	"context"
	"errors"

	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
)

// classifier labels. These are distinct from model.StrategyMode: the label
// is the recommendation, the mode is what the driver is currently doing.
const (
	LabelAggressive = "AGGRESSIVE"
	LabelNeutral    = "NEUTRAL"
	LabelDefensive  = "DEFENSIVE"
)

// Labels lists the trained label set in its canonical order.
var Labels = []string{LabelAggressive, LabelDefensive, LabelNeutral}

// NumFeatures is the expected feature vector length.
const NumFeatures = 9

// FeatureNames documents the fixed feature order. The training pipeline
// and this emulator must agree on it.
var FeatureNames = []string{
	"lap_number",
	"position",
	"lap_time",
	"tyre_wear_pct",
	"stint_lap_count",
	"engine_power_pct",
	"speed_kph",
	"fuel_load_kg",
	"air_temperature_C",
}

// feature vector indices
const (
	featLapNumber = iota
	featPosition
	featLapTime
	featTireWear
	featStintLap
	featEnginePower
	featSpeed
	featFuelLoad
	featAirTemp
)

var ErrFeatureMismatch = errors.New("feature vector does not match expected shape")

type (
	FeatureVector []float64

	// Prediction carries the recommended label and the confidence per
	// label. The confidences sum to 1.
	Prediction struct {
		Recommended string
		Confidence  map[string]float64
	}

	// Predictor is the classifier abstraction. Implementations must not
	// mutate race state; a failed call is fatal to that prediction only.
	Predictor interface {
		Predict(ctx context.Context, features FeatureVector) (*Prediction, error)
	}
)

// FeaturesFromRecord builds the feature vector in the contract order.
func FeaturesFromRecord(rec *model.Record) FeatureVector {
	return FeatureVector{
		float64(rec.LapNumber),
		float64(rec.Position),
		rec.LapTime,
		rec.TireWearPct,
		float64(rec.StintLapCount),
		rec.EnginePower,
		rec.SpeedKph,
		rec.FuelLoadKg,
		rec.AirTempC,
	}
}

// NeutralFallback is the recommendation used when the classifier call
// fails. The lap must not be aborted because of a prediction failure.
func NeutralFallback() *Prediction {
	return &Prediction{
		Recommended: LabelNeutral,
		Confidence: map[string]float64{
			LabelAggressive: 0.25,
			LabelNeutral:    0.5,
			LabelDefensive:  0.25,
		},
	}
}
