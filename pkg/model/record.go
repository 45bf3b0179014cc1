package model

import "time"

// Record is the flat per-lap telemetry row. Column names and units are the
// contract shared with the classifier training pipeline, see ingest.Columns.
type Record struct {
	SessionKey    string
	LapNumber     int
	Timestamp     time.Time
	Season        int
	Driver        string
	Team          string
	Position      int
	IntervalGap   float64
	Mode          StrategyMode
	Recommended   StrategyMode
	RaceStrategy  string
	PitReason     string // set only on laps with a pit stop
	Compound      Compound
	StintNumber   int
	StintLapCount int
	TireWearPct   float64
	TireTempC     float64
	CliffReached  bool
	ExpectedLife  float64
	PitStop       bool
	PitStopCount  int
	Undercut      bool
	Overcut       bool
	LapTime       float64
	DeltaLapTime  float64
	AvgPaceWindow float64
	Momentum      float64
	EnginePower   float64
	ThrottlePct   float64
	EnergyPct     float64
	Drs           DrsStatus
	SpeedKph      float64
	FuelLoadKg    float64
	AirTempC      float64
	TrackTempC    float64
	RainfallMm    float64
	HumidityPct   float64
	WindSpeedMps  float64
	Weather       WeatherCondition
	Flag          FlagStatus
	IncidentCat   string
	IncidentMsg   string
	RacePaceScore float64
	WinProb       float64
	PowerAnomaly  float64
	CraftAnomaly  float64
	PushSignal    PushSignal
	DegWarning    bool
	TireMgmtSkill float64
}
