package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/verdant-group/impact-cli/internal/aggregate"
	"github.com/verdant-group/impact-cli/internal/device"
	"github.com/verdant-group/impact-cli/internal/model"
	"github.com/verdant-group/impact-cli/internal/store"
)

var (
	batchFile     string
	batchCriteria []string
	batchDuration float64
	batchLimit    int
)

// batchEntry is one named server spec in a batch file.
type batchEntry struct {
	Name string      `yaml:"name"`
	Spec device.Spec `yaml:"spec"`
}

// batchOutcome pairs an entry with its result for the JSON report.
type batchOutcome struct {
	Name   string              `json:"name"`
	Result *model.ImpactResult `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Compute impacts for a batch of servers",
	Long:  "Reads a YAML file holding a list of named server specs and computes each concurrently. Individual failures do not abort the batch.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		entries, err := loadBatchFile(batchFile)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		req, err := buildRequest(batchCriteria, batchDuration, 1, false)
		if err != nil {
			return err
		}

		outcomes, err := processBatch(ctx, initEngine(), st, entries, batchLimit, cfg.Batch.MaxConcurrent, req)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcomes)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "path to a YAML batch file (required)")
	batchCmd.Flags().StringSliceVar(&batchCriteria, "criteria", nil, "impact criteria (default from config)")
	batchCmd.Flags().Float64Var(&batchDuration, "duration", 0, "lifetime hours (default from config)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of entries to process (0 = all)")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

func loadBatchFile(path string) ([]batchEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read batch file")
	}
	var entries []batchEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, eris.Wrap(err, "parse batch file")
	}
	return entries, nil
}

// processBatch applies limit, then computes entries concurrently.
// Individual failures are recorded, not propagated.
func processBatch(ctx context.Context, eng *engine, st store.Store, entries []batchEntry, limit, concurrency int, req aggregate.Request) ([]batchOutcome, error) {
	if len(entries) == 0 {
		zap.L().Info("batch file holds no entries")
		return nil, nil
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("entries", len(entries)),
		zap.Int("concurrency", concurrency),
	)

	outcomes := make([]batchOutcome, len(entries))
	var succeeded, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, entry := range entries {
		g.Go(func() error {
			log := zap.L().With(zap.String("entry", entry.Name))

			result, err := computeDevice(gctx, eng, st, "server", entry.Spec, req)
			if err != nil {
				failed.Add(1)
				log.Error("computation failed", zap.Error(err))
				outcomes[i] = batchOutcome{Name: entry.Name, Error: err.Error()}
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			outcomes[i] = batchOutcome{Name: entry.Name, Result: result}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return outcomes, nil
}
