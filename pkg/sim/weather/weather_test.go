package weather

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
)

func TestAdvance_DeterministicForSeed(t *testing.T) {
	run := func() []model.WeatherState {
		p := NewProcess(rand.New(rand.NewSource(42)))
		ret := make([]model.WeatherState, 0, 58)
		for lap := 0; lap < 58; lap++ {
			ret = append(ret, p.Advance())
		}
		return ret
	}
	assert.Empty(t, cmp.Diff(run(), run()))
}

func TestAdvance_RainIntensityMatchesCondition(t *testing.T) {
	p := NewProcess(rand.New(rand.NewSource(7)))
	for lap := 0; lap < 500; lap++ {
		st := p.Advance()
		switch {
		case st.Condition == model.WeatherHeavyRain:
			assert.GreaterOrEqual(t, st.RainIntensity, 2.5)
			assert.LessOrEqual(t, st.RainIntensity, 5.0)
		case st.Condition.HasRain():
			assert.GreaterOrEqual(t, st.RainIntensity, 0.8)
			assert.LessOrEqual(t, st.RainIntensity, 2.0)
		default:
			assert.Zero(t, st.RainIntensity)
		}
	}
}

func TestAdvance_SeverityMovesOneStepAtMost(t *testing.T) {
	p := NewProcess(rand.New(rand.NewSource(11)))
	prevIdx := 0
	for lap := 0; lap < 500; lap++ {
		st := p.Advance()
		idx := indexOf(st.Condition)
		assert.GreaterOrEqual(t, idx, 0)
		assert.LessOrEqual(t, abs(idx-prevIdx), 1,
			"weather severity must change gradually")
		prevIdx = idx
	}
}

func TestWithInitialCondition(t *testing.T) {
	p := NewProcess(rand.New(rand.NewSource(1)),
		WithInitialCondition(model.WeatherHeavyRain))
	assert.Equal(t, model.WeatherHeavyRain, p.Current().Condition)
}

func indexOf(c model.WeatherCondition) int {
	for i, v := range model.WeatherConditions {
		if v == c {
			return i
		}
	}
	return -1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
