// Package weather implements the stochastic per-lap weather process.
package weather

import (
	"math/rand"
	"slices"

	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
)

const (
	transitionChance = 0.04 // per-lap chance to move one severity step
)

type (
	// Advancer produces the next weather state. The race loop only depends
	// on this so tests can force conditions.
	Advancer interface {
		Advance() model.WeatherState
	}
	Option  func(*Process)
	Process struct {
		rnd   *rand.Rand
		state model.WeatherState
	}
)

func WithInitialCondition(c model.WeatherCondition) Option {
	return func(p *Process) {
		p.state.Condition = c
	}
}

// NewProcess creates a weather process drawing from rnd.
// The process is purely a function of the previous condition and the random
// source, so a seeded rnd yields a reproducible sequence.
func NewProcess(rnd *rand.Rand, opts ...Option) *Process {
	ret := &Process{
		rnd: rnd,
		state: model.WeatherState{
			Condition: model.WeatherClear,
			AirTemp:   28 + rnd.Float64()*5,
		},
	}
	ret.state.TrackTemp = ret.state.AirTemp + 12 + rnd.Float64()*5
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Advance evolves the weather by one lap and returns the new state.
func (p *Process) Advance() model.WeatherState {
	if p.rnd.Float64() < transitionChance {
		idx := slices.Index(model.WeatherConditions, p.state.Condition)
		direction := -1
		if p.rnd.Float64() > 0.5 {
			direction = 1
		}
		next := min(len(model.WeatherConditions)-1, max(0, idx+direction))
		p.state.Condition = model.WeatherConditions[next]
	}

	switch {
	case p.state.Condition == model.WeatherHeavyRain:
		p.state.RainIntensity = 2.5 + p.rnd.Float64()*2.5
	case p.state.Condition.HasRain():
		p.state.RainIntensity = 0.8 + p.rnd.Float64()*1.2
	default:
		p.state.RainIntensity = 0.0
	}

	p.state.AirTemp = 26 + p.rnd.Float64()*7
	if p.state.Condition == model.WeatherClear {
		p.state.AirTemp += 2
	}
	if p.state.Condition.HasRain() {
		p.state.AirTemp -= 3
	}
	p.state.TrackTemp = p.state.AirTemp + 12 + p.rnd.Float64()*6
	if p.state.RainIntensity > 0 {
		p.state.TrackTemp -= 5
	}

	p.state.Humidity = 55 + p.state.RainIntensity*10 + p.rnd.Float64()*18
	p.state.WindSpeed = 1.5 + p.rnd.Float64()*7

	return p.state
}

// Current returns the state of the current lap without advancing.
func (p *Process) Current() model.WeatherState {
	return p.state
}
