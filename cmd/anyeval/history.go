package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/mmendiet/anyeval/monitor"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [scalar]",
	Short: "Show past evaluation results from the history database",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		name := monitor.MeanScore
		if len(args) == 1 {
			name = args[0]
		}
		return runHistory(cmd.Context(), cmd.OutOrStdout(), cfg.HistoryDB, name, historyLimit)
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of entries (0 for all)")
}

func runHistory(ctx context.Context, w io.Writer, path, name string, limit int) error {
	if path == "" {
		return errors.New("history_db is required")
	}
	db := monitor.NewSQLite(path)
	if err := db.Init(ctx); err != nil {
		return err
	}
	defer db.Close()

	points, err := db.Scalars(ctx, name, limit)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		fmt.Fprintf(w, "no %s entries\n", name)
		return nil
	}
	for _, p := range points {
		fmt.Fprintf(w, "%s  %-8s  %s=%f\n", humanize.Time(p.Time), p.RunID[:8], p.Name,
			p.Value)
	}
	return nil
}
