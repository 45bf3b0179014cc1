package model

import "time"

// Snapshot is the immutable dashboard payload emitted once per lap.
// Consumers access the typed sections directly; there is no key probing.
type (
	Snapshot struct {
		Timestamp time.Time              `json:"timestamp"`
		LapNumber int                    `json:"lap_number"`
		Driver    string                 `json:"driver"`
		Season    int                    `json:"season"`
		Strategy  StrategyRecommendation `json:"strategy_recommendation"`
		Weather   WeatherSection         `json:"weather"`
		Incidents IncidentSection        `json:"incidents"`
		LapTime   LapTimeSection         `json:"lap_time_analysis"`
		Engine    EngineSection          `json:"engine"`
		Position  PositionSection        `json:"position"`
		TireLife  TireLifeSection        `json:"tire_life"`
		Telemetry TelemetrySection       `json:"telemetry"`
	}

	StrategyRecommendation struct {
		Recommended string             `json:"recommended_strategy"`
		Confidence  map[string]float64 `json:"confidence_scores"`
	}

	WeatherSection struct {
		Condition  WeatherCondition `json:"condition"`
		RainfallMm float64          `json:"rainfall_mm"`
		AirTempC   float64          `json:"air_temperature_C"`
		IsRaining  bool             `json:"is_raining"`
	}

	IncidentSection struct {
		Flag        FlagStatus `json:"flag_status"`
		Message     string     `json:"incident_message,omitempty"`
		HasIncident bool       `json:"has_incident"`
	}

	LapTimeSection struct {
		CurrentLapTime float64 `json:"current_lap_time"`
		LapNumber      int     `json:"lap_number"`
		DeltaToPrev    float64 `json:"delta_to_previous"`
		DeltaStatus    string  `json:"delta_status"`
		Signal         string  `json:"signal"`
	}

	EngineSection struct {
		EnginePowerPct float64 `json:"engine_power_pct"`
		ThrottlePct    float64 `json:"throttle_pct"`
	}

	PositionSection struct {
		CurrentPosition int      `json:"current_position"`
		Compound        Compound `json:"tyre_compound"`
	}

	TireLifeSection struct {
		WearPct       float64 `json:"tyre_wear_pct"`
		StintLapCount int     `json:"stint_lap_count"`
		TempC         float64 `json:"tyre_temp_C"`
		LifeRemaining string  `json:"expected_life_remaining"`
		HealthStatus  string  `json:"tire_health_status"`
	}

	TelemetrySection struct {
		SpeedKph    float64   `json:"speed_kph"`
		Drs         DrsStatus `json:"drs_status"`
		FuelLoadKg  float64   `json:"fuel_load_kg"`
		IntervalGap float64   `json:"interval_gap"`
	}
)

// tire health classification thresholds
const (
	wearGood     = 30
	wearFair     = 60
	wearCritical = 80
)

// TireHealth maps a wear percentage to the display status and the expected
// remaining life bucket.
func TireHealth(wearPct float64) (status, lifeRemaining string) {
	switch {
	case wearPct < wearGood:
		return "GOOD", "High (20+ laps)"
	case wearPct < wearFair:
		return "FAIR", "Medium (10-20 laps)"
	case wearPct < wearCritical:
		return "DEGRADING", "Low (5-10 laps)"
	default:
		return "CRITICAL", "Critical (<5 laps)"
	}
}

// BuildSnapshot assembles the dashboard payload for a lap record.
// prev may be nil for the first lap.
func BuildSnapshot(rec, prev *Record, strategy StrategyRecommendation) *Snapshot {
	snap := &Snapshot{
		Timestamp: rec.Timestamp,
		LapNumber: rec.LapNumber,
		Driver:    rec.Driver,
		Season:    rec.Season,
		Strategy:  strategy,
		Weather: WeatherSection{
			Condition:  rec.Weather,
			RainfallMm: rec.RainfallMm,
			AirTempC:   rec.AirTempC,
			IsRaining:  rec.RainfallMm > 0,
		},
		Incidents: IncidentSection{
			Flag:        rec.Flag,
			Message:     rec.IncidentMsg,
			HasIncident: rec.Flag != FlagGreen,
		},
		Engine: EngineSection{
			EnginePowerPct: rec.EnginePower,
			ThrottlePct:    rec.ThrottlePct,
		},
		Position: PositionSection{
			CurrentPosition: rec.Position,
			Compound:        rec.Compound,
		},
		Telemetry: TelemetrySection{
			SpeedKph:    rec.SpeedKph,
			Drs:         rec.Drs,
			FuelLoadKg:  rec.FuelLoadKg,
			IntervalGap: rec.IntervalGap,
		},
	}
	health, life := TireHealth(rec.TireWearPct)
	snap.TireLife = TireLifeSection{
		WearPct:       rec.TireWearPct,
		StintLapCount: rec.StintLapCount,
		TempC:         rec.TireTempC,
		LifeRemaining: life,
		HealthStatus:  health,
	}
	snap.LapTime = buildLapTimeSection(rec, prev)
	return snap
}

func buildLapTimeSection(rec, prev *Record) LapTimeSection {
	ret := LapTimeSection{
		CurrentLapTime: rec.LapTime,
		LapNumber:      rec.LapNumber,
	}
	if prev == nil {
		ret.DeltaStatus = "baseline"
		ret.Signal = "MAINTAIN"
		return ret
	}
	delta := rec.LapTime - prev.LapTime
	ret.DeltaToPrev = delta
	if delta < 0 {
		ret.DeltaStatus = "improving"
	} else {
		ret.DeltaStatus = "degrading"
	}
	switch {
	case delta < -0.5:
		ret.Signal = "PUSH - Delta improving!"
	case delta > 2.0:
		ret.Signal = "WARNING - Degradation detected"
	default:
		ret.Signal = "MAINTAIN - Stable pace"
	}
	return ret
}
