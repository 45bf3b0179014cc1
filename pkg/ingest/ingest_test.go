//nolint:funlen // ok for tests
package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
)

func sampleRecord(lap int) *model.Record {
	return &model.Record{
		SessionKey:    "RACE_2025_COTA_1",
		LapNumber:     lap,
		Timestamp:     time.Date(2025, 10, 18, 14, 0, 0, 0, time.UTC),
		Season:        2025,
		Driver:        "VER",
		Team:          "Red Bull Racing",
		Position:      1,
		Mode:          model.ModeNeutral,
		Recommended:   model.ModeNeutral,
		RaceStrategy:  "Two-Stop",
		Compound:      model.CompoundSoft,
		StintLapCount: lap,
		TireWearPct:   12.3456,
		TireTempC:     91.27,
		LapTime:       92.3456789,
		EnginePower:   97.5,
		ThrottlePct:   96.1,
		SpeedKph:      231.77,
		FuelLoadKg:    104.2,
		AirTempC:      29.1,
		TrackTempC:    44.2,
		Weather:       model.WeatherClear,
		Flag:          model.FlagGreen,
		IncidentCat:   "None",
		PushSignal:    model.SignalMaintain,
		Drs:           model.DrsInactive,
		TireMgmtSkill: 0.93,
	}
}

func TestWriteRead_Roundtrip(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	assert.NilError(t, w.WriteHeader())
	assert.NilError(t, w.Write(sampleRecord(1)))
	assert.NilError(t, w.Write(sampleRecord(2)))
	assert.NilError(t, w.Flush())

	ds, err := readDataset(buf)
	assert.NilError(t, err)
	assert.Equal(t, 2, len(ds.Records))
	assert.Equal(t, 0, ds.CoercedValues)

	got := ds.Records[0]
	assert.Equal(t, "VER", got.Driver)
	assert.Equal(t, 1, got.LapNumber)
	assert.Equal(t, model.CompoundSoft, got.Compound)
	assert.Equal(t, model.FlagGreen, got.Flag)
	// floats survive with the written precision
	assert.Equal(t, 12.35, got.TireWearPct)
	assert.Equal(t, 92.346, got.LapTime)
	assert.Equal(t, false, got.PitStop)
	assert.Assert(t, got.Timestamp.Equal(time.Date(2025, 10, 18, 14, 0, 0, 0, time.UTC)))
}

func TestReadDataset_CoercesMalformedNumbers(t *testing.T) {
	header := strings.Join(Columns, ",")
	row := make([]string, len(Columns))
	byName := map[string]int{}
	for i, name := range Columns {
		byName[name] = i
		row[i] = ""
	}
	row[byName["timestamp"]] = "2025-10-18T14:00:00"
	row[byName["season"]] = "2025"
	row[byName["driver"]] = "VER"
	row[byName["lap_number"]] = "3"
	row[byName["position"]] = "1"
	row[byName["lap_time"]] = "not-a-number"
	row[byName["tyre_wear_pct"]] = "NaN-ish"
	row[byName["speed_kph"]] = "231.5"

	input := header + "\n" + strings.Join(row, ",") + "\n"
	ds, err := readDataset(strings.NewReader(input))
	assert.NilError(t, err)
	assert.Equal(t, 1, len(ds.Records))
	assert.Equal(t, 2, ds.CoercedValues, "malformed floats count as coerced")
	assert.Equal(t, 0.0, ds.Records[0].LapTime)
	assert.Equal(t, 231.5, ds.Records[0].SpeedKph)
}

func TestReadDataset_MissingColumns(t *testing.T) {
	input := "timestamp,season,driver\n2025-10-18T14:00:00,2025,VER\n"
	_, err := readDataset(strings.NewReader(input))
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestLoadDataset_MissingFile(t *testing.T) {
	_, err := LoadDataset(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestLoadDataset_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "laps.csv")
	f, err := os.Create(path)
	assert.NilError(t, err)
	w := NewWriter(f)
	assert.NilError(t, w.WriteHeader())
	assert.NilError(t, w.Write(sampleRecord(1)))
	assert.NilError(t, w.Flush())
	assert.NilError(t, f.Close())

	ds, err := LoadDataset(path)
	assert.NilError(t, err)
	assert.Equal(t, 1, len(ds.Records))
}

func TestFilterSeasonDriver_SortsByLap(t *testing.T) {
	ds := &Dataset{Records: []*model.Record{
		{Season: 2025, Driver: "VER", LapNumber: 3},
		{Season: 2025, Driver: "HAM", LapNumber: 1},
		{Season: 2025, Driver: "VER", LapNumber: 1},
		{Season: 2024, Driver: "VER", LapNumber: 2},
		{Season: 2025, Driver: "VER", LapNumber: 2},
	}}
	got := ds.FilterSeasonDriver(2025, "VER")
	assert.Equal(t, 3, len(got))
	for i, rec := range got {
		assert.Equal(t, i+1, rec.LapNumber)
		assert.Equal(t, "VER", rec.Driver)
	}
}
