// Package params holds the simulation parameters: driver roster, stint
// strategy catalog and circuit baselines. Defaults are compiled in and can
// be overridden by a yaml file.
package params

import (
	"fmt"
	"os"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
)

type Params struct {
	Season     int                   `yaml:"season"`
	Circuit    model.CircuitSpec     `yaml:"circuit"`
	Drivers    []model.DriverSpec    `yaml:"drivers"`
	Strategies []model.StintStrategy `yaml:"strategies"`
}

// Defaults returns the built-in parameter set (COTA style circuit with a
// ten driver field).
func Defaults() *Params {
	return &Params{
		Season: 2025,
		Circuit: model.CircuitSpec{
			Name:           "COTA",
			Laps:           58,
			PitLoss:        22.5,
			TrackEvolution: 0.02,
		},
		Drivers: []model.DriverSpec{
			{Name: "VER", Team: "Red Bull Racing", Skill: 0.95, TireManagement: 0.93, QualifyingPace: 0.96},
			{Name: "PER", Team: "Red Bull Racing", Skill: 0.88, TireManagement: 0.85, QualifyingPace: 0.89},
			{Name: "LEC", Team: "Ferrari", Skill: 0.92, TireManagement: 0.88, QualifyingPace: 0.94},
			{Name: "SAI", Team: "Ferrari", Skill: 0.87, TireManagement: 0.90, QualifyingPace: 0.88},
			{Name: "HAM", Team: "Mercedes", Skill: 0.93, TireManagement: 0.95, QualifyingPace: 0.92},
			{Name: "RUS", Team: "Mercedes", Skill: 0.89, TireManagement: 0.87, QualifyingPace: 0.90},
			{Name: "NOR", Team: "McLaren", Skill: 0.90, TireManagement: 0.89, QualifyingPace: 0.91},
			{Name: "PIA", Team: "McLaren", Skill: 0.86, TireManagement: 0.86, QualifyingPace: 0.87},
			{Name: "ALO", Team: "Aston Martin", Skill: 0.88, TireManagement: 0.94, QualifyingPace: 0.87},
			{Name: "STR", Team: "Aston Martin", Skill: 0.84, TireManagement: 0.82, QualifyingPace: 0.85},
		},
		Strategies: []model.StintStrategy{
			{Name: "One-Stop", Stops: 1, Stints: []model.PlannedStint{
				{Compound: model.CompoundMedium, Laps: 25},
				{Compound: model.CompoundHard, Laps: 33},
			}},
			{Name: "Two-Stop", Stops: 2, Stints: []model.PlannedStint{
				{Compound: model.CompoundSoft, Laps: 15},
				{Compound: model.CompoundMedium, Laps: 20},
				{Compound: model.CompoundHard, Laps: 23},
			}},
			{Name: "Aggressive-Two", Stops: 2, Stints: []model.PlannedStint{
				{Compound: model.CompoundSoft, Laps: 12},
				{Compound: model.CompoundSoft, Laps: 18},
				{Compound: model.CompoundMedium, Laps: 28},
			}},
			{Name: "Conservative-One", Stops: 1, Stints: []model.PlannedStint{
				{Compound: model.CompoundHard, Laps: 28},
				{Compound: model.CompoundMedium, Laps: 30},
			}},
			{Name: "Undercut", Stops: 2, Stints: []model.PlannedStint{
				{Compound: model.CompoundMedium, Laps: 14},
				{Compound: model.CompoundMedium, Laps: 22},
				{Compound: model.CompoundHard, Laps: 22},
			}},
			{Name: "Overcut", Stops: 2, Stints: []model.PlannedStint{
				{Compound: model.CompoundMedium, Laps: 20},
				{Compound: model.CompoundHard, Laps: 18},
				{Compound: model.CompoundHard, Laps: 20},
			}},
		},
	}
}

// Load reads a parameter file. Missing sections keep their defaults.
func Load(path string) (*Params, error) {
	ret := Defaults()
	if path == "" {
		return ret, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading params file: %w", err)
	}
	var fromFile Params
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("parsing params file %s: %w", path, err)
	}
	if fromFile.Season != 0 {
		ret.Season = fromFile.Season
	}
	if fromFile.Circuit.Laps != 0 {
		ret.Circuit = fromFile.Circuit
	}
	if len(fromFile.Drivers) > 0 {
		ret.Drivers = fromFile.Drivers
	}
	if len(fromFile.Strategies) > 0 {
		ret.Strategies = fromFile.Strategies
	}
	return ret, nil
}

// Driver looks up a roster entry by abbreviation.
func (p *Params) Driver(name string) (model.DriverSpec, bool) {
	return lo.Find(p.Drivers, func(d model.DriverSpec) bool {
		return d.Name == name
	})
}

// Strategy looks up a strategy template by name.
func (p *Params) Strategy(name string) (model.StintStrategy, bool) {
	return lo.Find(p.Strategies, func(s model.StintStrategy) bool {
		return s.Name == name
	})
}

// StrategyPoolFor returns the strategy names available to a driver starting
// at the given grid position. Front runners get the aggressive options.
func (p *Params) StrategyPoolFor(gridPosition int) []string {
	switch {
	case gridPosition <= 4:
		return []string{"Two-Stop", "Aggressive-Two", "Undercut", "Overcut"}
	case gridPosition <= 6:
		return []string{"Two-Stop", "One-Stop", "Undercut"}
	default:
		return []string{"One-Stop", "Conservative-One", "Two-Stop"}
	}
}
