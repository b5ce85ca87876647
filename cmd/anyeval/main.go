// Command anyeval evaluates saved policies on environments
// served by a gym-http-api server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configPath string
	flagConfig = DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:           "anyeval",
	Short:         "Evaluate reinforcement learning policies",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&flagConfig.GymURL, "gym-url", flagConfig.GymURL, "gym-http-api server")
	flags.StringVar(&flagConfig.EnvID, "env", "", "environment ID, such as CartPole-v0")
	flags.StringVar(&flagConfig.ModelPath, "model", "", "saved policy file")
	flags.StringVar(&flagConfig.Precision, "precision", flagConfig.Precision,
		"numeric type of the model (float32|float64)")
	flags.Float64Var(&flagConfig.Epsilon, "epsilon", flagConfig.Epsilon,
		"probability of a random action")
	flags.IntVar(&flagConfig.MaxSteps, "max-steps", 0, "episode step limit (0 for none)")
	flags.BoolVar(&flagConfig.Render, "render", false, "render the environment")
	flags.StringVar(&flagConfig.HistoryDB, "history-db", "", "SQLite file for results")
	flags.BoolVarP(&flagConfig.Verbose, "verbose", "v", false, "log every episode score")

	rootCmd.AddCommand(evalCmd, playCmd, historyCmd)
}

// loadConfig reads the config file and applies every flag
// which was set explicitly.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	overrides := map[string]func(){
		"gym-url":      func() { cfg.GymURL = flagConfig.GymURL },
		"env":          func() { cfg.EnvID = flagConfig.EnvID },
		"model":        func() { cfg.ModelPath = flagConfig.ModelPath },
		"precision":    func() { cfg.Precision = flagConfig.Precision },
		"epsilon":      func() { cfg.Epsilon = flagConfig.Epsilon },
		"max-steps":    func() { cfg.MaxSteps = flagConfig.MaxSteps },
		"render":       func() { cfg.Render = flagConfig.Render },
		"history-db":   func() { cfg.HistoryDB = flagConfig.HistoryDB },
		"verbose":      func() { cfg.Verbose = flagConfig.Verbose },
		"num-eval":     func() { cfg.NumEval = flagConfig.NumEval },
		"workers":      func() { cfg.Workers = flagConfig.Workers },
		"start-delay":  func() { cfg.StartDelay = flagConfig.StartDelay },
		"join-timeout": func() { cfg.JoinTimeout = flagConfig.JoinTimeout },
		"otel":         func() { cfg.OTel = flagConfig.OTel },
	}
	for name, apply := range overrides {
		if flags.Changed(name) {
			apply()
		}
	}
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "anyeval:", err)
		stop()
		os.Exit(1)
	}
}
