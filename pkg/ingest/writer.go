package ingest

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
)

// Writer writes lap records in the canonical column order.
type Writer struct {
	cw *csv.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{cw: csv.NewWriter(w)}
}

// WriteHeader writes the column header row.
func (w *Writer) WriteHeader() error {
	return w.cw.Write(Columns)
}

// Write appends one lap record.
//
//nolint:funlen // plain column mapping
func (w *Writer) Write(rec *model.Record) error {
	return w.cw.Write([]string{
		rec.Timestamp.Format(time.RFC3339),
		strconv.Itoa(rec.Season),
		rec.Driver,
		strconv.Itoa(rec.LapNumber),
		strconv.Itoa(rec.Position),
		rounded(rec.IntervalGap, 3),
		string(rec.Mode),
		string(rec.Compound),
		strconv.Itoa(rec.StintLapCount),
		rounded(rec.TireWearPct, 2),
		rounded(rec.TireTempC, 1),
		boolField(rec.PitStop),
		rounded(rec.LapTime, 3),
		rounded(rec.EnginePower, 2),
		rounded(rec.ThrottlePct, 2),
		rounded(rec.SpeedKph, 1),
		rounded(rec.FuelLoadKg, 2),
		string(rec.Weather),
		rounded(rec.RainfallMm, 2),
		rounded(rec.AirTempC, 1),
		string(rec.Flag),
		rec.IncidentMsg,
		string(rec.PushSignal),
		rec.SessionKey,
		rec.Team,
		string(rec.Recommended),
		rec.RaceStrategy,
		rec.PitReason,
		strconv.Itoa(rec.StintNumber),
		boolField(rec.CliffReached),
		rounded(rec.ExpectedLife, 1),
		strconv.Itoa(rec.PitStopCount),
		boolField(rec.Undercut),
		boolField(rec.Overcut),
		rounded(rec.DeltaLapTime, 3),
		rounded(rec.AvgPaceWindow, 3),
		rounded(rec.Momentum, 4),
		rounded(rec.EnergyPct, 2),
		string(rec.Drs),
		rounded(rec.TrackTempC, 1),
		rounded(rec.HumidityPct, 1),
		rounded(rec.WindSpeedMps, 1),
		rec.IncidentCat,
		rounded(rec.RacePaceScore, 2),
		rounded(rec.WinProb, 4),
		rounded(rec.PowerAnomaly, 3),
		rounded(rec.CraftAnomaly, 3),
		boolField(rec.DegWarning),
		rounded(rec.TireMgmtSkill, 2),
	})
}

// Flush writes buffered rows to the underlying writer.
func (w *Writer) Flush() error {
	w.cw.Flush()
	return w.cw.Error()
}

// rounded formats with fixed precision so the written values match the
// units of the column contract exactly.
func rounded(v float64, places int32) string {
	return decimal.NewFromFloat(v).Round(places).String()
}

func boolField(v bool) string {
	if v {
		return "True"
	}
	return "False"
}
