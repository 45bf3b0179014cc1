// Package race implements the lap-by-lap race loop. One Instance owns all
// mutable state of a single driver's race; concurrent races are independent
// instances.
package race

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/pitwall-labs/f1-strategy-manager-go/log"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/sim/laptime"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/sim/pit"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/sim/tire"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/sim/weather"
)

var (
	// ErrRaceFinished signals that the final lap has been emitted. This is
	// a terminal condition, not a failure.
	ErrRaceFinished = errors.New("race finished")
	// ErrLapOutOfRange signals a lap request outside [1, total laps].
	ErrLapOutOfRange = errors.New("lap number out of range")
)

const (
	fuelFloorKg      = 8.0
	startFuelKg      = 110.0
	lapWallClock     = 93 * time.Second // spacing of snapshot timestamps
	incidentBaseRisk = 0.006
	flagIncidentRisk = 0.018
	flagClearChance  = 0.25
	modeDriftChance  = 0.12
)

var incidentCategories = []string{
	"Collision", "Mechanical", "Track Debris", "Off-track", "Tire Puncture",
}

type (
	Option func(*Instance)

	// FlagOverride lets tests force a flag status for given laps.
	FlagOverride func(lap int) (model.FlagStatus, bool)

	// Metadata is the read-only description of a race instance.
	Metadata struct {
		TotalLaps    int    `json:"total_laps"`
		CurrentLap   int    `json:"current_lap"`
		Driver       string `json:"driver"`
		Team         string `json:"team"`
		Circuit      string `json:"circuit"`
		Season       int    `json:"season"`
		RaceStrategy string `json:"race_strategy"`
		Finished     bool   `json:"finished"`
	}

	// Instance is one race. Advance is guarded by a mutex so at most one
	// advance is in flight; everything below it is a pure synchronous
	// computation over in-memory state.
	Instance struct {
		mu  sync.Mutex
		cfg model.RaceConfig
		l   *log.Logger

		seed            int64
		sessionStart    time.Time
		flagOverride    FlagOverride
		weatherProc     weather.Advancer
		weatherInjected bool

		rnd     *rand.Rand
		plan    *pit.Plan
		tires   tire.State
		state   *model.DriverRaceState
		prevLap float64
	}
)

func WithSeed(seed int64) Option {
	return func(i *Instance) {
		i.seed = seed
	}
}

func WithSessionStart(t time.Time) Option {
	return func(i *Instance) {
		i.sessionStart = t
	}
}

func WithFlagOverride(fn FlagOverride) Option {
	return func(i *Instance) {
		i.flagOverride = fn
	}
}

// WithWeather replaces the stochastic weather process, for tests that need
// forced conditions.
func WithWeather(adv weather.Advancer) Option {
	return func(i *Instance) {
		i.weatherProc = adv
		i.weatherInjected = true
	}
}

func NewInstance(cfg model.RaceConfig, opts ...Option) *Instance {
	ret := &Instance{
		cfg:          cfg,
		seed:         time.Now().UnixNano(),
		sessionStart: time.Date(2025, 10, 18, 14, 0, 0, 0, time.UTC),
		l:            log.Default().Named("sim.race"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.initState()
	return ret
}

// initState installs fresh seeded race state. Called at creation and on
// Reset, so a reset followed by replay reproduces the identical sequence.
func (i *Instance) initState() {
	i.rnd = rand.New(rand.NewSource(i.seed)) //nolint:gosec // reproducibility wanted
	if !i.weatherInjected {
		i.weatherProc = weather.NewProcess(i.rnd)
	}
	i.plan = pit.NewPlan(i.rnd, i.cfg.Circuit.Laps, i.cfg.Strategy)

	firstCompound := model.CompoundMedium
	if len(i.cfg.Strategy.Stints) > 0 {
		firstCompound = i.cfg.Strategy.Stints[0].Compound
	}
	i.tires = tire.NewState(firstCompound)

	i.prevLap = 90 + (1-i.cfg.Driver.Skill)*5 + i.rnd.Float64()*2
	i.state = &model.DriverRaceState{
		Position:   i.cfg.GridPosition,
		Compound:   firstCompound,
		FuelLoadKg: startFuelKg - i.rnd.Float64()*3,
		EnergyPct:  100,
		Mode:       model.ModeNeutral,
		Flag:       model.FlagGreen,
		LapTimes:   []float64{i.prevLap},
	}
}

// Reset atomically replaces the race state with fresh initial state.
func (i *Instance) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.initState()
}

// Metadata returns the race description and progress.
func (i *Instance) Metadata() Metadata {
	i.mu.Lock()
	defer i.mu.Unlock()
	return Metadata{
		TotalLaps:    i.cfg.Circuit.Laps,
		CurrentLap:   i.state.LapNumber,
		Driver:       i.cfg.Driver.Name,
		Team:         i.cfg.Driver.Team,
		Circuit:      i.cfg.Circuit.Name,
		Season:       i.cfg.Season,
		RaceStrategy: i.cfg.Strategy.Name,
		Finished:     i.state.LapNumber >= i.cfg.Circuit.Laps,
	}
}

// Advance steps the race by one lap and returns the lap record. Once the
// configured lap count is reached it returns ErrRaceFinished and leaves the
// state untouched.
//
//nolint:funlen // the step order of the race loop reads best as one pass
func (i *Instance) Advance(ctx context.Context) (*model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state.LapNumber >= i.cfg.Circuit.Laps {
		return nil, ErrRaceFinished
	}
	st := *i.state
	st.LapNumber = i.state.LapNumber + 1
	lap := st.LapNumber

	// weather first, everything downstream reads the same lap's state
	wx := i.weatherProc.Advance()
	i.advanceFlag(&st, lap)

	tireRes := i.tires.Advance(i.rnd, tire.StepInput{
		Mode:           st.Mode,
		TireManagement: i.cfg.Driver.TireManagement,
		TrackTemp:      wx.TrackTemp,
		FuelLoadKg:     st.FuelLoadKg,
		RainIntensity:  wx.RainIntensity,
	})

	decision := i.plan.Decide(i.rnd, pit.Input{
		Lap:           lap,
		StintLapCount: i.tires.StintLapCount,
		Compound:      i.tires.Compound,
		WearPct:       i.tires.WearPct,
		CliffReached:  i.tires.CliffReached,
		RainIntensity: wx.RainIntensity,
		Flag:          st.Flag,
		PitStopCount:  st.PitStopCount,
	})

	pitExecuted := false
	pitReason := ""
	// the cliff penalty of the worn set still applies to the in-lap
	cliffPenalty := tireRes.CliffPenalty
	if decision.Pit && i.plan.MayExecute(st.PitStopCount) {
		pitExecuted = true
		pitReason = decision.Reason
		st.PitStopCount++
		st.StintNumber++
		st.UndercutWindow = st.UndercutWindow || decision.Undercut
		st.OvercutWindow = st.OvercutWindow || decision.Overcut
		next := i.plan.NextCompound(wx.RainIntensity, st.StintNumber, lap, i.cfg.Circuit.Laps)
		i.tires.FitNewSet(next)
	}

	i.advanceFuelAndEnergy(&st)

	st.EnginePower = laptime.EnginePower(i.rnd, i.cfg.Driver.Skill, st.Mode,
		st.Flag, i.tires.WearPct, st.EnergyPct)
	throttle := laptime.Throttle(i.rnd, st.EnginePower)

	lapTime := laptime.Compute(i.rnd, laptime.Input{
		Lap:            lap,
		Skill:          i.cfg.Driver.Skill,
		TireManagement: i.cfg.Driver.TireManagement,
		FuelLoadKg:     st.FuelLoadKg,
		Compound:       i.tires.Compound,
		StintLapCount:  i.tires.StintLapCount,
		WearPct:        i.tires.WearPct,
		CliffPenalty:   cliffPenalty,
		GripFactor:     tireRes.GripFactor,
		TrackEvolution: i.cfg.Circuit.TrackEvolution,
		RainIntensity:  wx.RainIntensity,
		Flag:           st.Flag,
		PitStop:        pitExecuted,
		PitLoss:        i.cfg.Circuit.PitLoss,
		Mode:           st.Mode,
		DrsTrain:       st.DrsTrain,
	})
	delta := lapTime - i.prevLap
	st.LapTimes = append(st.LapTimes, lapTime)

	speed := laptime.Speed(i.rnd, i.cfg.Driver.Skill, i.tires.Compound,
		tireRes.GripFactor, i.tires.WearPct, wx.RainIntensity, st.Flag)

	i.advancePosition(&st, pitExecuted)
	i.advanceIntervalGap(&st)

	drs := model.DrsInactive
	if st.IntervalGap < 1.0 && st.Flag == model.FlagGreen && lap > 2 {
		drs = model.DrsActive
	}
	st.DrsTrain = st.IntervalGap < 1.0 && lap > 2

	incidentCat, incidentMsg := i.drawIncident(&st, wx)

	push := laptime.PushSignalFor(delta, i.tires.WearPct, st.FuelLoadKg,
		i.tires.CliffReached)
	recommended := laptime.RecommendedMode(i.tires.WearPct, st.IntervalGap,
		st.Position, i.tires.CliffReached)

	rec := &model.Record{
		SessionKey: fmt.Sprintf("RACE_%d_%s_%d",
			i.cfg.Season, i.cfg.Circuit.Name, lap),
		LapNumber: lap,
		Timestamp: i.sessionStart.
			Add(time.Duration(lap-1) * lapWallClock).
			Add(time.Duration(i.rnd.Intn(4000)) * time.Millisecond),
		Season:        i.cfg.Season,
		Driver:        i.cfg.Driver.Name,
		Team:          i.cfg.Driver.Team,
		Position:      st.Position,
		IntervalGap:   st.IntervalGap,
		Mode:          st.Mode,
		Recommended:   recommended,
		RaceStrategy:  i.cfg.Strategy.Name,
		PitReason:     pitReason,
		Compound:      i.tires.Compound,
		StintNumber:   st.StintNumber,
		StintLapCount: i.tires.StintLapCount,
		TireWearPct:   i.tires.WearPct,
		TireTempC:     i.tires.TempC,
		CliffReached:  i.tires.CliffReached,
		ExpectedLife:  tireRes.ExpectedLife,
		PitStop:       pitExecuted,
		PitStopCount:  st.PitStopCount,
		Undercut:      st.UndercutWindow,
		Overcut:       st.OvercutWindow,
		LapTime:       lapTime,
		DeltaLapTime:  delta,
		AvgPaceWindow: laptime.AvgPace(st.LapTimes),
		Momentum:      laptime.Momentum(st.LapTimes),
		EnginePower:   st.EnginePower,
		ThrottlePct:   throttle,
		EnergyPct:     st.EnergyPct,
		Drs:           drs,
		SpeedKph:      speed,
		FuelLoadKg:    st.FuelLoadKg,
		AirTempC:      wx.AirTemp,
		TrackTempC:    wx.TrackTemp,
		RainfallMm:    wx.RainIntensity,
		HumidityPct:   wx.Humidity,
		WindSpeedMps:  wx.WindSpeed,
		Weather:       wx.Condition,
		Flag:          st.Flag,
		IncidentCat:   incidentCat,
		IncidentMsg:   incidentMsg,
		RacePaceScore: laptime.RacePaceScore(lapTime, i.tires.WearPct,
			wx.RainIntensity, st.EnergyPct),
		WinProb: laptime.WinProbability(i.cfg.FieldSize, st.Position,
			i.tires.WearPct, i.cfg.Driver.Skill, wx.RainIntensity,
			i.cfg.Strategy.Name),
		PowerAnomaly:  laptime.PowerAnomaly(st.EnginePower),
		CraftAnomaly:  laptime.RacecraftAnomaly(st.LapTimes, delta),
		PushSignal:    push,
		DegWarning:    laptime.DegradationWarning(delta, i.tires.StintLapCount, i.tires.CliffReached),
		TireMgmtSkill: i.cfg.Driver.TireManagement,
	}

	i.driftMode(&st, recommended)
	if i.tires.StintLapCount > 5 {
		st.UndercutWindow = false
		st.OvercutWindow = false
	}

	// mirror the tire state and install the new lap state
	st.Compound = i.tires.Compound
	st.StintLapCount = i.tires.StintLapCount
	st.TireWearPct = i.tires.WearPct
	st.TireTempC = i.tires.TempC
	st.CliffReached = i.tires.CliffReached
	i.prevLap = lapTime
	i.state = &st

	return rec, nil
}

func (i *Instance) advanceFlag(st *model.DriverRaceState, lap int) {
	if i.flagOverride != nil {
		if flag, ok := i.flagOverride(lap); ok {
			st.Flag = flag
			st.IncidentOngoing = flag != model.FlagGreen
			return
		}
	}
	switch {
	case i.rnd.Float64() < flagIncidentRisk && !st.IncidentOngoing && lap > 5:
		if i.rnd.Float64() > 0.6 {
			st.Flag = model.FlagSafetyCar
		} else {
			st.Flag = model.FlagYellow
		}
		st.IncidentOngoing = true
	case st.IncidentOngoing && i.rnd.Float64() < flagClearChance:
		st.Flag = model.FlagGreen
		st.IncidentOngoing = false
	}
}

func (i *Instance) advanceFuelAndEnergy(st *model.DriverRaceState) {
	consumption := 1.65 + i.rnd.Float64()*0.25
	if st.Mode == model.ModeDefensive {
		consumption -= 0.15
	}
	st.FuelLoadKg = math.Max(fuelFloorKg, st.FuelLoadKg-consumption)

	if st.Mode == model.ModeAggressive {
		st.EnergyPct = math.Max(0, st.EnergyPct-(3+i.rnd.Float64()*3))
	} else {
		st.EnergyPct = math.Min(100, st.EnergyPct+(1+i.rnd.Float64()*2))
	}
}

func (i *Instance) advancePosition(st *model.DriverRaceState, pitExecuted bool) {
	switch {
	case pitExecuted:
		st.PositionsGained -= 1 + i.rnd.Intn(3)
	case st.UndercutWindow && i.tires.StintLapCount < 5:
		st.PositionsGained++
	case i.tires.CliffReached:
		st.PositionsGained--
	}
	pos := i.cfg.GridPosition - st.PositionsGained
	st.Position = max(1, min(i.cfg.FieldSize, pos))
}

func (i *Instance) advanceIntervalGap(st *model.DriverRaceState) {
	if st.Position == 1 {
		st.IntervalGap = 0
		return
	}
	gap := float64(st.Position-1) * 2.5
	if i.tires.WearPct > 30 {
		gap += (i.tires.WearPct - 30) * 0.08
	}
	gap += i.rnd.Float64()*3 - 1.5
	st.IntervalGap = math.Max(0, gap)
}

func (i *Instance) drawIncident(st *model.DriverRaceState, wx model.WeatherState,
) (category, message string) {
	risk := incidentBaseRisk
	if i.tires.CliffReached {
		risk += 0.004
	}
	if wx.RainIntensity > 1.5 {
		risk += 0.003
	}
	if i.rnd.Float64() >= risk {
		return "None", ""
	}
	category = incidentCategories[i.rnd.Intn(len(incidentCategories))]
	message = fmt.Sprintf("%s - %s at Turn %d",
		i.cfg.Driver.Name, category, 1+i.rnd.Intn(16))
	i.l.Debug("incident",
		log.Int("lap", st.LapNumber),
		log.String("category", category))
	return category, message
}

// driftMode occasionally changes the driving mode based on the situation.
func (i *Instance) driftMode(st *model.DriverRaceState, recommended model.StrategyMode) {
	if i.rnd.Float64() >= modeDriftChance {
		return
	}
	switch {
	case i.tires.WearPct > 65:
		st.Mode = model.ModeDefensive
	case st.Position <= 3 && !i.tires.CliffReached:
		st.Mode = model.ModeAggressive
	default:
		st.Mode = recommended
	}
}
