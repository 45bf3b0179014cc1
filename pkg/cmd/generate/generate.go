// Package generate produces a synthetic telemetry dataset: the whole
// driver field is raced lap by lap and every lap record is written to
// the output table.
package generate

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pitwall-labs/f1-strategy-manager-go/log"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/config"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/ingest"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/sim/params"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/sim/race"
)

var (
	output  string
	seed    int64
	laps    int
	season  int
	drivers []string
)

func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "generates a race telemetry dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return generateDataset(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&output,
		"output",
		"o",
		"race_telemetry.csv",
		"output file for the telemetry table")
	cmd.Flags().Int64Var(&seed,
		"seed",
		0,
		"seed for reproducible datasets (0 picks a random seed)")
	cmd.Flags().IntVar(&laps,
		"laps",
		0,
		"number of laps to race (0 uses the circuit default)")
	cmd.Flags().IntVar(&season,
		"season",
		0,
		"season attribute of the produced records (0 uses the params default)")
	cmd.Flags().StringSliceVar(&drivers,
		"drivers",
		[]string{},
		"restrict the field to these drivers (default: full roster)")
	cmd.Flags().StringVar(&config.ParamsFile,
		"params-file",
		"",
		"simulation parameter file (yaml)")
	return cmd
}

//nolint:funlen // by design
func generateDataset(ctx context.Context) error {
	logger := log.Default().Named("generate")
	simParams, err := params.Load(config.ParamsFile)
	if err != nil {
		return err
	}
	if laps > 0 {
		simParams.Circuit.Laps = laps
	}
	if season > 0 {
		simParams.Season = season
	}
	field := selectField(simParams)
	if len(field) == 0 {
		return errors.New("no drivers selected")
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Info("generating dataset",
		log.String("circuit", simParams.Circuit.Name),
		log.Int("laps", simParams.Circuit.Laps),
		log.Int("drivers", len(field)),
		log.Int64("seed", seed))

	results := make([][]*model.Record, len(field))
	g, gCtx := errgroup.WithContext(ctx)
	for idx, driver := range field {
		g.Go(func() error {
			records, rErr := raceDriver(gCtx, simParams, driver, idx)
			if rErr != nil {
				return rErr
			}
			results[idx] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return writeDataset(logger, lo.Flatten(results))
}

// selectField returns the requested drivers in qualifying order; grid
// position is the index in the returned slice plus one.
func selectField(simParams *params.Params) []model.DriverSpec {
	field := simParams.Drivers
	if len(drivers) > 0 {
		field = lo.Filter(field, func(d model.DriverSpec, _ int) bool {
			return lo.Contains(drivers, d.Name)
		})
	}
	ret := make([]model.DriverSpec, len(field))
	copy(ret, field)
	sort.SliceStable(ret, func(i, j int) bool {
		return ret[i].QualifyingPace > ret[j].QualifyingPace
	})
	return ret
}

//nolint:whitespace // can't make both editor and linter happy
func raceDriver(
	ctx context.Context,
	simParams *params.Params,
	driver model.DriverSpec,
	gridIdx int,
) ([]*model.Record, error) {
	driverSeed := seed + int64(gridIdx)
	//nolint:gosec // reproducibility wanted
	rnd := rand.New(rand.NewSource(driverSeed))
	pool := simParams.StrategyPoolFor(gridIdx + 1)
	stintStrategy, _ := simParams.Strategy(pool[rnd.Intn(len(pool))])

	instance := race.NewInstance(model.RaceConfig{
		Circuit:      simParams.Circuit,
		Driver:       driver,
		Strategy:     stintStrategy,
		Season:       simParams.Season,
		GridPosition: gridIdx + 1,
		FieldSize:    len(simParams.Drivers),
	}, race.WithSeed(driverSeed))

	ret := make([]*model.Record, 0, simParams.Circuit.Laps)
	for {
		rec, err := instance.Advance(ctx)
		if errors.Is(err, race.ErrRaceFinished) {
			return ret, nil
		}
		if err != nil {
			return nil, err
		}
		ret = append(ret, rec)
	}
}

func writeDataset(logger *log.Logger, records []*model.Record) error {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].LapNumber != records[j].LapNumber {
			return records[i].LapNumber < records[j].LapNumber
		}
		return records[i].Position < records[j].Position
	})

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()
	w := ingest.NewWriter(f)
	if err := w.WriteHeader(); err != nil {
		return err
	}
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	pitStops := lo.CountBy(records, func(rec *model.Record) bool { return rec.PitStop })
	incidents := lo.CountBy(records, func(rec *model.Record) bool { return rec.IncidentMsg != "" })
	logger.Info("dataset written",
		log.String("output", output),
		log.Int("rows", len(records)),
		log.Int("pitStops", pitStops),
		log.Int("incidents", incidents))
	return nil
}
