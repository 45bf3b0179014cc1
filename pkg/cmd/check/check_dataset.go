package check

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/pitwall-labs/f1-strategy-manager-go/log"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/ingest"
	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/model"
)

func NewCheckDatasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset file",
		Short: "verifies the integrity of a telemetry dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkDataset(args[0])
		},
	}
	return cmd
}

//nolint:funlen,cyclop // validation reads best as one pass
func checkDataset(path string) error {
	logger := log.Default().Named("check")
	dataset, err := ingest.LoadDataset(path)
	if err != nil {
		return err
	}

	issues := 0
	report := func(msg string, fields ...log.Field) {
		issues++
		logger.Warn(msg, fields...)
	}

	lastLap := map[string]int{}
	for i, rec := range dataset.Records {
		if rec.TireWearPct < 0 || rec.TireWearPct > 100 {
			report("tire wear out of range",
				log.Int("row", i), log.Float64("wear", rec.TireWearPct))
		}
		if rec.LapTime <= 0 {
			report("non-positive lap time",
				log.Int("row", i), log.Float64("lapTime", rec.LapTime))
		}
		if rec.Position < 1 {
			report("invalid position",
				log.Int("row", i), log.Int("position", rec.Position))
		}
		if rec.Flag == "" {
			report("missing flag status", log.Int("row", i))
		}
		key := fmt.Sprintf("%d-%s", rec.Season, rec.Driver)
		if prev, ok := lastLap[key]; ok && rec.LapNumber <= prev {
			report("lap numbers not monotonic",
				log.Int("row", i),
				log.String("driver", rec.Driver),
				log.Int("lap", rec.LapNumber),
				log.Int("prevLap", prev))
		}
		lastLap[key] = rec.LapNumber
	}

	seasons := lo.Uniq(lo.Map(dataset.Records, func(rec *model.Record, _ int) int {
		return rec.Season
	}))
	drivers := lo.Uniq(lo.Map(dataset.Records, func(rec *model.Record, _ int) string {
		return rec.Driver
	}))

	logger.Info("dataset checked",
		log.String("file", path),
		log.Int("rows", len(dataset.Records)),
		log.Int("seasons", len(seasons)),
		log.Int("drivers", len(drivers)),
		log.Int("coercedValues", dataset.CoercedValues),
		log.Int("issues", issues))
	if issues > 0 {
		return errors.New("dataset has integrity issues")
	}
	return nil
}
