package main

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/mmendiet/anyeval"
	"github.com/mmendiet/anyeval/monitor"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play [episodes]",
	Short: "Play episodes one after another, logging each score",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		n := 1
		if len(args) == 1 {
			n, err = strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("episode count must be a positive integer: %s", args[0])
			}
		}
		return runPlay(cmd.Context(), cfg, n)
	},
}

func runPlay(ctx context.Context, cfg *Config, n int) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	pred, err := loadPredictor(cfg.ModelPath)
	if err != nil {
		return err
	}
	env, err := envFactory(creatorFor(cfg), cfg, cfg.Render)()
	if err != nil {
		return err
	}
	if closer, ok := env.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	log.Println("Start Playing ...")
	player := &anyeval.Player{
		Env:       env,
		Predictor: pred,
		Epsilon:   cfg.Epsilon,
		Render:    cfg.Render,
	}
	scores, err := anyeval.PlayEpisodes(ctx, player, n, anyeval.NewStandardLogger(cfg.Verbose))
	if len(scores) == 0 {
		return err
	}
	var stats anyeval.StatCounter
	for _, s := range scores {
		stats.Feed(s)
	}
	log.Printf("Average Score: %f; Max Score: %f", stats.Average(), stats.Max)
	if cfg.HistoryDB != "" {
		db := monitor.NewSQLite(cfg.HistoryDB)
		if initErr := db.Init(ctx); initErr != nil {
			return initErr
		}
		defer db.Close()
		if putErr := db.PutScalar(ctx, monitor.MeanScore, stats.Average()); putErr != nil {
			return putErr
		}
	}
	return err
}
