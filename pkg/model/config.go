package model

type (
	// DriverSpec describes the driver running a race instance.
	DriverSpec struct {
		Name           string  `yaml:"name"`
		Team           string  `yaml:"team"`
		Skill          float64 `yaml:"skill"`
		TireManagement float64 `yaml:"tireManagement"`
		QualifyingPace float64 `yaml:"qualifyingPace"`
	}

	// PlannedStint is one entry of a stint strategy: the compound and the
	// number of laps it is planned to last.
	PlannedStint struct {
		Compound Compound `yaml:"compound"`
		Laps     int      `yaml:"laps"`
	}

	// StintStrategy is a named pit strategy template.
	StintStrategy struct {
		Name   string         `yaml:"name"`
		Stops  int            `yaml:"stops"`
		Stints []PlannedStint `yaml:"stints"`
	}

	// CircuitSpec holds the per-circuit constants.
	CircuitSpec struct {
		Name           string  `yaml:"name"`
		Laps           int     `yaml:"laps"`
		PitLoss        float64 `yaml:"pitLoss"`        // seconds lost by a pit stop
		TrackEvolution float64 `yaml:"trackEvolution"` // grip gain per lap
	}

	// RaceConfig is the immutable configuration of one race instance.
	RaceConfig struct {
		Circuit      CircuitSpec
		Driver       DriverSpec
		Strategy     StintStrategy
		Season       int
		GridPosition int
		FieldSize    int
	}
)
