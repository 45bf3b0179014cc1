//nolint:funlen // ok for tests
package pit

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
)

func twoStop() model.StintStrategy {
	return model.StintStrategy{
		Name:  "Two-Stop",
		Stops: 2,
		Stints: []model.PlannedStint{
			{Compound: model.CompoundSoft, Laps: 15},
			{Compound: model.CompoundMedium, Laps: 20},
			{Compound: model.CompoundHard, Laps: 23},
		},
	}
}

func TestNewPlan_WindowsNearEvenSpacing(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	p := NewPlan(rnd, 58, twoStop())
	assert.Len(t, p.Windows, 2)
	assert.InDelta(t, 19, p.Windows[0], 3)
	assert.InDelta(t, 38, p.Windows[1], 3)
}

func TestDecide_EmergencyBeatsWeather(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	p := NewPlan(rnd, 58, twoStop())
	// both the emergency and weather condition hold on the same lap
	d := p.Decide(rnd, Input{
		Lap:           30,
		StintLapCount: 8,
		Compound:      model.CompoundMedium,
		WearPct:       95,
		RainIntensity: 2.2,
	})
	assert.True(t, d.Pit)
	assert.Equal(t, "Emergency stop - tire degradation", d.Reason)
}

func TestDecide_CliffTriggersEmergency(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	p := NewPlan(rnd, 58, twoStop())
	// outside any planned window and with the stop budget for planned
	// stops spent, only the cliff condition holds
	d := p.Decide(rnd, Input{
		Lap:           30,
		StintLapCount: 12,
		Compound:      model.CompoundSoft,
		WearPct:       80,
		CliffReached:  true,
		PitStopCount:  2,
	})
	assert.True(t, d.Pit)
	assert.Equal(t, "Emergency stop - tire degradation", d.Reason)
}

func TestDecide_WeatherRequiresDryCompound(t *testing.T) {
	rnd := rand.New(rand.NewSource(4))
	p := NewPlan(rnd, 58, twoStop())

	d := p.Decide(rnd, Input{
		Lap:           25,
		Compound:      model.CompoundMedium,
		WearPct:       40,
		RainIntensity: 2.0,
	})
	assert.True(t, d.Pit)
	assert.Equal(t, "Weather change - wet tires", d.Reason)

	// already on a wet weather compound: no stop
	d = p.Decide(rnd, Input{
		Lap:           25,
		Compound:      model.CompoundIntermediate,
		WearPct:       40,
		RainIntensity: 2.0,
	})
	assert.False(t, d.Pit)
}

func TestDecide_PlannedWindowNeedsWear(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	p := NewPlan(rnd, 58, twoStop())

	d := p.Decide(rnd, Input{
		Lap:      p.Windows[0],
		Compound: model.CompoundSoft,
		WearPct:  50, // too fresh
	})
	assert.False(t, d.Pit)

	d = p.Decide(rnd, Input{
		Lap:      p.Windows[0],
		Compound: model.CompoundSoft,
		WearPct:  75,
	})
	assert.True(t, d.Pit)
	assert.Equal(t, "Planned pit window", d.Reason)
}

func TestDecide_UndercutOnFirstWindow(t *testing.T) {
	rnd := rand.New(rand.NewSource(6))
	strategy := twoStop()
	strategy.Name = StrategyUndercut
	p := NewPlan(rnd, 58, strategy)

	d := p.Decide(rnd, Input{
		Lap:      p.Windows[0],
		Compound: model.CompoundMedium,
		WearPct:  10,
	})
	assert.True(t, d.Pit)
	assert.True(t, d.Undercut)
	assert.Equal(t, "Undercut attempt", d.Reason)
}

func TestDecide_OvercutNeedsLongStint(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	strategy := twoStop()
	strategy.Name = StrategyOvercut
	p := NewPlan(rnd, 58, strategy)

	d := p.Decide(rnd, Input{
		Lap:           p.Windows[0],
		StintLapCount: 10,
		Compound:      model.CompoundMedium,
	})
	assert.False(t, d.Pit)

	d = p.Decide(rnd, Input{
		Lap:           p.Windows[0],
		StintLapCount: 20,
		Compound:      model.CompoundMedium,
	})
	assert.True(t, d.Pit)
	assert.True(t, d.Overcut)
}

func TestMayExecute_BudgetIsStopsPlusOne(t *testing.T) {
	rnd := rand.New(rand.NewSource(8))
	p := NewPlan(rnd, 58, twoStop())
	assert.True(t, p.MayExecute(0))
	assert.True(t, p.MayExecute(2))
	assert.False(t, p.MayExecute(3))
}

func TestNextCompound(t *testing.T) {
	rnd := rand.New(rand.NewSource(9))
	p := NewPlan(rnd, 58, twoStop())
	tests := []struct {
		name        string
		rain        float64
		stintNumber int
		lap         int
		want        model.Compound
	}{
		{"heavy rain forces wet", 3.0, 1, 20, model.CompoundWet},
		{"light rain forces inter", 1.5, 1, 20, model.CompoundIntermediate},
		{"plan second stint", 0, 1, 16, model.CompoundMedium},
		{"plan third stint", 0, 2, 36, model.CompoundHard},
		{"plan exhausted sprint", 0, 3, 45, model.CompoundSoft},
		{"plan exhausted medium", 0, 3, 30, model.CompoundMedium},
		{"plan exhausted long", 0, 3, 10, model.CompoundHard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.NextCompound(tt.rain, tt.stintNumber, tt.lap, 58))
		})
	}
}
