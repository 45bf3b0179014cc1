//nolint:funlen // ok for tests
package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
)

func features(position, lapTime, wear, stintLap float64) FeatureVector {
	return FeatureVector{
		20, position, lapTime, wear, stintLap, 95, 230, 70, 28,
	}
}

func TestRuleBased_Predict(t *testing.T) {
	tests := []struct {
		name string
		in   FeatureVector
		want string
	}{
		{"front runner on fresh tires", features(2, 92, 20, 5), LabelAggressive},
		{"worn tires", features(2, 92, 70, 20), LabelDefensive},
		{"slow and critical", features(8, 104, 80, 25), LabelDefensive},
		{"midfield stable", features(8, 92, 30, 8), LabelNeutral},
	}
	p := NewRuleBased()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := p.Predict(context.Background(), tt.in)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, pred.Recommended)

			sum := 0.0
			for _, label := range Labels {
				assert.Greater(t, pred.Confidence[label], 0.0)
				sum += pred.Confidence[label]
			}
			assert.InDelta(t, 1.0, sum, 1e-9, "confidences must sum to 1")
		})
	}
}

func TestRuleBased_FeatureMismatch(t *testing.T) {
	p := NewRuleBased()
	_, err := p.Predict(context.Background(), FeatureVector{1, 2, 3})
	assert.ErrorIs(t, err, ErrFeatureMismatch)
}

func TestFeaturesFromRecord_ContractOrder(t *testing.T) {
	rec := &model.Record{
		LapNumber:     12,
		Position:      3,
		LapTime:       93.5,
		TireWearPct:   41.2,
		StintLapCount: 7,
		EnginePower:   97.1,
		SpeedKph:      231.4,
		FuelLoadKg:    68.3,
		AirTempC:      29.5,
	}
	got := FeaturesFromRecord(rec)
	assert.Len(t, got, NumFeatures)
	assert.Equal(t, FeatureVector{12, 3, 93.5, 41.2, 7, 97.1, 231.4, 68.3, 29.5}, got)
}

func TestNeutralFallback(t *testing.T) {
	pred := NeutralFallback()
	assert.Equal(t, LabelNeutral, pred.Recommended)
	assert.InDelta(t, 1.0,
		pred.Confidence[LabelAggressive]+
			pred.Confidence[LabelNeutral]+
			pred.Confidence[LabelDefensive], 1e-9)
}

func TestStaticPredictors(t *testing.T) {
	pred := &Prediction{Recommended: LabelAggressive}
	got, err := NewStatic(pred).Predict(context.Background(), features(1, 90, 10, 3))
	assert.NoError(t, err)
	assert.Same(t, pred, got)

	_, err = NewFailing(assert.AnError).Predict(context.Background(), nil)
	assert.ErrorIs(t, err, assert.AnError)
}
