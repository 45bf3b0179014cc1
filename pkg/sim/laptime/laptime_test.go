//nolint:funlen // ok for tests
package laptime

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
)

func baseInput() Input {
	return Input{
		Lap:            10,
		Skill:          0.9,
		TireManagement: 0.88,
		FuelLoadKg:     90,
		Compound:       model.CompoundMedium,
		StintLapCount:  8,
		WearPct:        30,
		GripFactor:     1.0,
		TrackEvolution: 0.02,
		Flag:           model.FlagGreen,
		Mode:           model.ModeNeutral,
	}
}

// compute with a fixed seed so the noise term is identical between variants
func computeSeeded(in Input) float64 {
	return Compute(rand.New(rand.NewSource(99)), in)
}

func TestCompute_FlagPenalties(t *testing.T) {
	green := computeSeeded(baseInput())

	in := baseInput()
	in.Flag = model.FlagYellow
	yellow := computeSeeded(in)

	in.Flag = model.FlagSafetyCar
	sc := computeSeeded(in)

	assert.InDelta(t, yellowDelay, yellow-green, 1e-9)
	assert.InDelta(t, safetyCarDelay, sc-green, 1e-9)
}

func TestCompute_PitStopAddsPitLoss(t *testing.T) {
	clean := computeSeeded(baseInput())

	in := baseInput()
	in.PitStop = true
	in.PitLoss = 22.5
	assert.InDelta(t, 22.5, computeSeeded(in)-clean, 1e-9)
}

func TestCompute_ModeEffects(t *testing.T) {
	neutral := computeSeeded(baseInput())

	in := baseInput()
	in.Mode = model.ModeAggressive
	assert.InDelta(t, aggressiveGain, computeSeeded(in)-neutral, 1e-9)

	in.Mode = model.ModeDefensive
	assert.InDelta(t, defensiveCost, computeSeeded(in)-neutral, 1e-9)
}

func TestCompute_WearSlowsLap(t *testing.T) {
	fresh := baseInput()
	fresh.WearPct = 5
	worn := baseInput()
	worn.WearPct = 85
	assert.Greater(t, computeSeeded(worn), computeSeeded(fresh))
}

func TestPushSignalFor(t *testing.T) {
	tests := []struct {
		name  string
		delta float64
		wear  float64
		fuel  float64
		cliff bool
		want  model.PushSignal
	}{
		{"improving on fresh tires", -0.6, 20, 80, false, model.SignalPush},
		{"worn tires conserve", 0.1, 80, 80, false, model.SignalConserve},
		{"low fuel conserve", 0.1, 40, 15, false, model.SignalConserve},
		{"cliff conserve even when fast", -0.6, 40, 80, true, model.SignalConserve},
		{"stable maintains", 0.1, 40, 80, false, model.SignalMaintain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want,
				PushSignalFor(tt.delta, tt.wear, tt.fuel, tt.cliff))
		})
	}
}

func TestDegradationWarning(t *testing.T) {
	assert.True(t, DegradationWarning(2.0, 15, false))
	assert.False(t, DegradationWarning(2.0, 5, false), "short stint, spike is noise")
	assert.False(t, DegradationWarning(0.5, 15, false))
	assert.True(t, DegradationWarning(0.0, 1, true), "cliff always warns")
}

func TestAvgPace_UsesRecentWindow(t *testing.T) {
	assert.Zero(t, AvgPace(nil))
	assert.InDelta(t, 90, AvgPace([]float64{90}), 1e-9)
	// only the last five laps count
	times := []float64{200, 200, 90, 90, 90, 90, 90}
	assert.InDelta(t, 90, AvgPace(times), 1e-9)
}

func TestMomentum(t *testing.T) {
	assert.Zero(t, Momentum([]float64{90, 91, 92}))
	times := []float64{90, 90, 90, 90, 90, 95}
	assert.InDelta(t, 1.0, Momentum(times), 1e-9)
}

func TestWinProbability_Clamped(t *testing.T) {
	p := WinProbability(10, 1, 0, 0.95, 0, "Two-Stop")
	assert.LessOrEqual(t, p, 1.0)
	assert.Greater(t, p, 0.5)

	p = WinProbability(10, 10, 100, 0.8, 4, "One-Stop")
	assert.GreaterOrEqual(t, p, 0.0)
	assert.Less(t, p, 0.1)

	assert.Greater(t,
		WinProbability(10, 3, 40, 0.9, 0, "Undercut"),
		WinProbability(10, 3, 40, 0.9, 0, "One-Stop"),
		"favored strategies get the higher factor")
}

func TestRecommendedMode(t *testing.T) {
	tests := []struct {
		name     string
		wear     float64
		gap      float64
		position int
		cliff    bool
		want     model.StrategyMode
	}{
		{"worn defensive", 75, 5, 1, false, model.ModeDefensive},
		{"cliff defensive", 30, 5, 1, true, model.ModeDefensive},
		{"front runner with margin", 30, 5, 2, false, model.ModeAggressive},
		{"front runner under pressure", 30, 1, 2, false, model.ModeNeutral},
		{"midfield neutral", 30, 5, 8, false, model.ModeNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want,
				RecommendedMode(tt.wear, tt.gap, tt.position, tt.cliff))
		})
	}
}

func TestEnginePower_Bounds(t *testing.T) {
	rnd := rand.New(rand.NewSource(12))
	for i := 0; i < 200; i++ {
		p := EnginePower(rnd, 0.95, model.ModeAggressive, model.FlagGreen, 0, 100)
		assert.LessOrEqual(t, p, 100.0)
		assert.GreaterOrEqual(t, p, 45.0)
	}
}

func TestEnginePower_SafetyCarSuppression(t *testing.T) {
	rnd := rand.New(rand.NewSource(13))
	for i := 0; i < 50; i++ {
		green := EnginePower(rnd, 0.9, model.ModeNeutral, model.FlagGreen, 20, 80)
		sc := EnginePower(rnd, 0.9, model.ModeNeutral, model.FlagSafetyCar, 20, 80)
		assert.Less(t, sc, green)
	}
}

func TestThrottle_Bounds(t *testing.T) {
	rnd := rand.New(rand.NewSource(14))
	for i := 0; i < 200; i++ {
		th := Throttle(rnd, 95)
		assert.GreaterOrEqual(t, th, 0.0)
		assert.LessOrEqual(t, th, 100.0)
	}
}
