package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cast"

	"github.com/pitwall-labs/f1-strategy-manager-go/log"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
)

var (
	// ErrMissingInput signals that the required historical data is absent.
	// Fatal to the affected race instance, never retried automatically.
	ErrMissingInput = errors.New("input data not found")
	// ErrMissingColumns signals a dataset violating the column contract.
	ErrMissingColumns = errors.New("dataset misses required columns")
)

type (
	// Dataset is a loaded telemetry table.
	Dataset struct {
		Records []*model.Record
		// CoercedValues counts malformed numeric fields that were coerced
		// to their zero value while loading.
		CoercedValues int
	}

	rowReader struct {
		byName  map[string]int
		row     []string
		coerced int
		l       *log.Logger
	}
)

// LoadDataset reads the telemetry table at path. Malformed numeric fields
// are coerced to zero and counted, never propagated as NaN.
func LoadDataset(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
		}
		return nil, err
	}
	defer f.Close()
	return readDataset(f)
}

func readDataset(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: empty input", ErrMissingInput)
	}

	byName := make(map[string]int, len(header))
	for idx, name := range header {
		byName[name] = idx
	}
	missing := lo.Filter(requiredColumns, func(name string, _ int) bool {
		_, ok := byName[name]
		return !ok
	})
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissingColumns, missing)
	}

	rr := &rowReader{byName: byName, l: log.Default().Named("ingest")}
	ret := &Dataset{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading dataset row: %w", err)
		}
		rr.row = row
		ret.Records = append(ret.Records, rr.record())
	}
	ret.CoercedValues = rr.coerced
	if ret.CoercedValues > 0 {
		rr.l.Warn("coerced malformed numeric values",
			log.Int("count", ret.CoercedValues))
	}
	return ret, nil
}

// FilterSeasonDriver returns the laps of one driver in one season, ordered
// by lap number (the emulation input).
func (d *Dataset) FilterSeasonDriver(season int, driver string) []*model.Record {
	ret := lo.Filter(d.Records, func(rec *model.Record, _ int) bool {
		return rec.Season == season && rec.Driver == driver
	})
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].LapNumber < ret[j].LapNumber
	})
	return ret
}

//nolint:funlen // plain column mapping
func (rr *rowReader) record() *model.Record {
	return &model.Record{
		Timestamp:     rr.timeVal("timestamp"),
		Season:        rr.intVal("season"),
		Driver:        rr.strVal("driver"),
		LapNumber:     rr.intVal("lap_number"),
		Position:      rr.intVal("position"),
		IntervalGap:   rr.floatVal("interval_gap"),
		Mode:          model.StrategyMode(rr.strVal("strategy_mode")),
		Compound:      model.Compound(rr.strVal("tyre_compound")),
		StintLapCount: rr.intVal("stint_lap_count"),
		TireWearPct:   rr.floatVal("tyre_wear_pct"),
		TireTempC:     rr.floatVal("tyre_temp_C"),
		PitStop:       rr.boolVal("pit_stop_flag"),
		LapTime:       rr.floatVal("lap_time"),
		EnginePower:   rr.floatVal("engine_power_pct"),
		ThrottlePct:   rr.floatVal("throttle_pct"),
		SpeedKph:      rr.floatVal("speed_kph"),
		FuelLoadKg:    rr.floatVal("fuel_load_kg"),
		Weather:       model.WeatherCondition(rr.strVal("weather_condition")),
		RainfallMm:    rr.floatVal("rainfall_mm"),
		AirTempC:      rr.floatVal("air_temperature_C"),
		Flag:          model.FlagStatus(rr.strVal("flag_status")),
		IncidentMsg:   rr.strVal("incident_message"),
		PushSignal:    model.PushSignal(rr.strVal("push_signal")),
		SessionKey:    rr.strVal("session_key"),
		Team:          rr.strVal("team"),
		Recommended:   model.StrategyMode(rr.strVal("recommended_mode")),
		RaceStrategy:  rr.strVal("race_strategy"),
		PitReason:     rr.strVal("strategic_reason"),
		StintNumber:   rr.intVal("stint_number"),
		CliffReached:  rr.boolVal("tyre_cliff_reached"),
		ExpectedLife:  rr.floatVal("expected_tyre_life"),
		PitStopCount:  rr.intVal("pit_stop_count"),
		Undercut:      rr.boolVal("undercut_window"),
		Overcut:       rr.boolVal("overcut_window"),
		DeltaLapTime:  rr.floatVal("delta_lap_time"),
		AvgPaceWindow: rr.floatVal("average_pace_window"),
		Momentum:      rr.floatVal("momentum_indicator"),
		EnergyPct:     rr.floatVal("energy_management_pct"),
		Drs:           model.DrsStatus(rr.strVal("drs_status")),
		TrackTempC:    rr.floatVal("track_temperature_C"),
		HumidityPct:   rr.floatVal("humidity_pct"),
		WindSpeedMps:  rr.floatVal("wind_speed_mps"),
		IncidentCat:   rr.strVal("incident_category"),
		RacePaceScore: rr.floatVal("race_pace_score"),
		WinProb:       rr.floatVal("win_probability"),
		PowerAnomaly:  rr.floatVal("power_anomaly_score"),
		CraftAnomaly:  rr.floatVal("racecraft_anomaly_score"),
		DegWarning:    rr.boolVal("degradation_warning"),
		TireMgmtSkill: rr.floatVal("tire_management_skill"),
	}
}

func (rr *rowReader) raw(name string) (string, bool) {
	idx, ok := rr.byName[name]
	if !ok || idx >= len(rr.row) {
		return "", false
	}
	return rr.row[idx], true
}

func (rr *rowReader) strVal(name string) string {
	v, _ := rr.raw(name)
	return v
}

func (rr *rowReader) floatVal(name string) float64 {
	v, ok := rr.raw(name)
	if !ok || v == "" {
		return 0
	}
	ret, err := cast.ToFloat64E(v)
	if err != nil {
		rr.coerced++
		return 0
	}
	return ret
}

func (rr *rowReader) intVal(name string) int {
	v, ok := rr.raw(name)
	if !ok || v == "" {
		return 0
	}
	ret, err := cast.ToIntE(v)
	if err != nil {
		rr.coerced++
		return 0
	}
	return ret
}

func (rr *rowReader) boolVal(name string) bool {
	v, ok := rr.raw(name)
	if !ok || v == "" {
		return false
	}
	ret, err := cast.ToBoolE(v)
	if err != nil {
		rr.coerced++
		return false
	}
	return ret
}

func (rr *rowReader) timeVal(name string) time.Time {
	v, ok := rr.raw(name)
	if !ok || v == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts
		}
	}
	rr.coerced++
	return time.Time{}
}
