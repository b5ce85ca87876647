package main

import (
	"context"
	"fmt"
	"log"

	"github.com/mmendiet/anyeval"
	"github.com/mmendiet/anyeval/gymenv"
	"github.com/mmendiet/anyeval/monitor"
	"github.com/spf13/cobra"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anynet/anyrnn"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec32"
	"github.com/unixpickle/anyvec/anyvec64"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a saved policy with a pool of workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runEval(cmd.Context(), cfg)
	},
}

func init() {
	flags := evalCmd.Flags()
	flags.IntVarP(&flagConfig.NumEval, "num-eval", "n", flagConfig.NumEval,
		"number of episodes to wait for")
	flags.IntVar(&flagConfig.Workers, "workers", flagConfig.Workers, "number of workers")
	flags.DurationVar(&flagConfig.StartDelay, "start-delay", flagConfig.StartDelay,
		"pause between worker starts")
	flags.DurationVar(&flagConfig.JoinTimeout, "join-timeout", flagConfig.JoinTimeout,
		"longest wait for workers to finish")
	flags.BoolVar(&flagConfig.OTel, "otel", false, "print results as OpenTelemetry gauges")
}

func runEval(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	creator := creatorFor(cfg)
	pred, err := loadPredictor(cfg.ModelPath)
	if err != nil {
		return err
	}
	preds, err := anyeval.Replicate(pred, cfg.Workers)
	if err != nil {
		return err
	}

	sinks := monitor.Multi{&monitor.Log{}}
	if cfg.HistoryDB != "" {
		db := monitor.NewSQLite(cfg.HistoryDB)
		if err := db.Init(ctx); err != nil {
			return err
		}
		defer db.Close()
		sinks = append(sinks, db)
	}
	var reader *sdkmetric.ManualReader
	if cfg.OTel {
		reader = sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer provider.Shutdown(context.Background())
		sinks = append(sinks, monitor.NewOTel(provider.Meter("anyeval"), "anyeval."))
	}

	e := &anyeval.Evaluator{
		Predictors:  preds,
		MakeEnv:     envFactory(creator, cfg, false),
		NumEval:     cfg.NumEval,
		Epsilon:     cfg.Epsilon,
		StartDelay:  cfg.StartDelay,
		JoinTimeout: cfg.JoinTimeout,
		Logger:      anyeval.NewStandardLogger(cfg.Verbose),
	}
	res, err := e.Evaluate(ctx)
	if res == nil {
		return err
	}
	log.Printf("Average Score: %f; Max Score: %f", res.Mean, res.Max)
	if putErr := sinks.PutScalar(ctx, monitor.MeanScore, res.Mean); putErr != nil {
		return putErr
	}
	if putErr := sinks.PutScalar(ctx, monitor.MaxScore, res.Max); putErr != nil {
		return putErr
	}
	if reader != nil {
		if err := printGauges(ctx, reader); err != nil {
			return err
		}
	}
	return err
}

// creatorFor returns the creator matching the model's
// numeric type.
func creatorFor(cfg *Config) anyvec.Creator {
	if cfg.Precision == "float64" {
		return anyvec64.DefaultCreator{}
	}
	return anyvec32.CurrentCreator()
}

// envFactory creates gym environments, limiting their
// length if requested.
func envFactory(c anyvec.Creator, cfg *Config, render bool) anyeval.EnvFactory {
	client := gymenv.NewClient(cfg.GymURL)
	makeGym := gymenv.Factory(c, client, cfg.EnvID, render)
	if cfg.MaxSteps == 0 {
		return makeGym
	}
	return func() (anyeval.Env, error) {
		env, err := makeGym()
		if err != nil {
			return nil, err
		}
		return &anyeval.MaxStepsEnv{Env: env, MaxSteps: cfg.MaxSteps}, nil
	}
}

// loadPredictor reads a saved anyrnn.Block or anynet.Layer.
func loadPredictor(path string) (pred anyeval.Predictor, err error) {
	defer essentials.AddCtxTo("load model", &err)
	var block anyrnn.Block
	if err := serializer.LoadAny(path, &block); err == nil {
		return &anyeval.BlockPredictor{Block: block}, nil
	}
	var layer anynet.Layer
	if err := serializer.LoadAny(path, &layer); err != nil {
		return nil, err
	}
	return &anyeval.LayerPredictor{Layer: layer}, nil
}

func printGauges(ctx context.Context, reader *sdkmetric.ManualReader) error {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return err
	}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			gauge, ok := m.Data.(metricdata.Gauge[float64])
			if !ok {
				continue
			}
			for _, dp := range gauge.DataPoints {
				fmt.Printf("%s %f\n", m.Name, dp.Value)
			}
		}
	}
	return nil
}
