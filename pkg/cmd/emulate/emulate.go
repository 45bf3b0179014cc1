// Package emulate replays recorded telemetry of one driver lap by lap,
// runs the strategy classifier on every lap and exports the resulting
// dashboard snapshots.
package emulate

import (
	"context"
	"fmt"
	"os"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/pitwall-labs/f1-strategy-manager-go/log"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/ingest"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/strategy"
)

var (
	input   string
	output  string
	season  int
	driver  string
	printIt bool
)

func NewEmulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emulate",
		Short: "replays recorded telemetry and emits dashboard snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return emulateRace(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&input,
		"input",
		"i",
		"race_telemetry.csv",
		"telemetry table to replay")
	cmd.Flags().StringVarP(&output,
		"output",
		"o",
		"emulation.json",
		"output file for the snapshot export")
	cmd.Flags().IntVar(&season,
		"season",
		2025,
		"season to replay")
	cmd.Flags().StringVar(&driver,
		"driver",
		"VER",
		"driver to replay")
	cmd.Flags().BoolVar(&printIt,
		"print",
		false,
		"print each snapshot on debug level while replaying")
	return cmd
}

func emulateRace(ctx context.Context) error {
	logger := log.Default().Named("emulate")
	dataset, err := ingest.LoadDataset(input)
	if err != nil {
		return err
	}
	records := dataset.FilterSeasonDriver(season, driver)
	if len(records) == 0 {
		return fmt.Errorf("no laps found for driver %s in season %d", driver, season)
	}
	logger.Info("replaying race",
		log.String("driver", driver),
		log.Int("season", season),
		log.Int("laps", len(records)))

	predictor := strategy.NewRuleBased()
	snapshots := make([]*model.Snapshot, 0, len(records))
	var prev *model.Record
	for _, rec := range records {
		snap := model.BuildSnapshot(rec, prev, recommend(ctx, logger, predictor, rec))
		if printIt {
			logger.Debug("snapshot",
				log.Int("lap", snap.LapNumber),
				log.Any("data", snap))
		}
		snapshots = append(snapshots, snap)
		prev = rec
	}

	data, err := oj.Marshal(snapshots)
	if err != nil {
		return err
	}
	//nolint:gosec // export file, no secrets
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return err
	}
	logger.Info("emulation written",
		log.String("output", output),
		log.Int("snapshots", len(snapshots)))
	return nil
}

// recommend degrades to the neutral fallback when the classifier fails.
//
//nolint:whitespace // can't make both editor and linter happy
func recommend(
	ctx context.Context,
	logger *log.Logger,
	predictor strategy.Predictor,
	rec *model.Record,
) model.StrategyRecommendation {
	pred, err := predictor.Predict(ctx, strategy.FeaturesFromRecord(rec))
	if err != nil {
		logger.Warn("predictor failed, using fallback",
			log.Int("lap", rec.LapNumber),
			log.ErrorField(err))
		pred = strategy.NeutralFallback()
	}
	return model.StrategyRecommendation{
		Recommended: pred.Recommended,
		Confidence:  pred.Confidence,
	}
}
