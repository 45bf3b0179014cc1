package model

// WeatherState is the per-lap weather snapshot. It is produced by the
// weather process and read by the tire and lap time models of the same lap.
type WeatherState struct {
	Condition     WeatherCondition
	RainIntensity float64 // mm equivalent, 0 when no rain component
	AirTemp       float64 // Celsius
	TrackTemp     float64 // Celsius
	Humidity      float64 // percent
	WindSpeed     float64 // m/s
}

// DriverRaceState holds all mutable race state of a single driver.
// It is owned by exactly one race instance and mutated once per lap.
type DriverRaceState struct {
	LapNumber     int
	Position      int
	Compound      Compound
	StintLapCount int
	StintNumber   int
	TireWearPct   float64
	TireTempC     float64
	CliffReached  bool
	FuelLoadKg    float64
	EnergyPct     float64 // ERS style resource, 0..100
	EnginePower   float64
	Mode          StrategyMode
	PitStopCount  int
	Flag          FlagStatus
	IntervalGap   float64
	DrsTrain      bool

	// append-only, used for rolling pace statistics
	LapTimes []float64

	PositionsGained int
	UndercutWindow  bool
	OvercutWindow   bool
	IncidentOngoing bool
}
