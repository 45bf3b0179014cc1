// Package ingest reads and writes the flat per-lap telemetry table. The
// column names and units are the contract shared with the classifier
// training pipeline; both sides must honor them.
package ingest

// Columns is the canonical column order of the dataset.
var Columns = []string{
	"timestamp",
	"season",
	"driver",
	"lap_number",
	"position",
	"interval_gap",
	"strategy_mode",
	"tyre_compound",
	"stint_lap_count",
	"tyre_wear_pct",
	"tyre_temp_C",
	"pit_stop_flag",
	"lap_time",
	"engine_power_pct",
	"throttle_pct",
	"speed_kph",
	"fuel_load_kg",
	"weather_condition",
	"rainfall_mm",
	"air_temperature_C",
	"flag_status",
	"incident_message",
	"push_signal",
	"session_key",
	"team",
	"recommended_mode",
	"race_strategy",
	"strategic_reason",
	"stint_number",
	"tyre_cliff_reached",
	"expected_tyre_life",
	"pit_stop_count",
	"undercut_window",
	"overcut_window",
	"delta_lap_time",
	"average_pace_window",
	"momentum_indicator",
	"energy_management_pct",
	"drs_status",
	"track_temperature_C",
	"humidity_pct",
	"wind_speed_mps",
	"incident_category",
	"race_pace_score",
	"win_probability",
	"power_anomaly_score",
	"racecraft_anomaly_score",
	"degradation_warning",
	"tire_management_skill",
}

// requiredColumns must be present for a dataset to load at all. These are
// the classifier features plus the keys used for filtering.
var requiredColumns = []string{
	"timestamp",
	"season",
	"driver",
	"lap_number",
	"position",
	"lap_time",
	"tyre_wear_pct",
	"stint_lap_count",
	"engine_power_pct",
	"speed_kph",
	"fuel_load_kg",
	"air_temperature_C",
}
