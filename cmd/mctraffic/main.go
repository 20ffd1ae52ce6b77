package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/iti/mctraffic"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree; output of every subcommand goes to out
func newRootCmd(out io.Writer) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("MCTRAFFIC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:           "mctraffic",
		Short:         "Markov-chain traffic flow simulation over a fixed road network",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(v.GetString("log-level"), v.GetString("log-format"))
		},
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().String("config", "", "Network description file (.yaml or .json); built-in reference network if empty")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	_ = v.BindPFlags(rootCmd.PersistentFlags())

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the hourly schedule and report the transient bottleneck",
		RunE: func(cmd *cobra.Command, args []string) error {
			md, err := loadModel(v.GetString("config"))
			if err != nil {
				return err
			}
			return runBatch(cmd.OutOrStdout(), md, v.GetInt("horizon"), v.GetBool("events"), v.GetString("trace"))
		},
	}
	runCmd.Flags().Int("horizon", 24, "Number of hourly steps")
	runCmd.Flags().Bool("events", false, "Drive the run from the discrete-event manager")
	runCmd.Flags().String("trace", "", "Write a run trace to this file (.yaml or .json)")
	_ = v.BindPFlags(runCmd.Flags())

	steadyCmd := &cobra.Command{
		Use:   "steady",
		Short: "Report the structural bottleneck from the fundamental matrix",
		RunE: func(cmd *cobra.Command, args []string) error {
			md, err := loadModel(v.GetString("config"))
			if err != nil {
				return err
			}
			printSteadyState(cmd.OutOrStdout(), md.Net, mctraffic.AnalyzeSteadyState(md.Net))
			return nil
		},
	}

	stepCmd := &cobra.Command{
		Use:   "step",
		Short: "Step the network from the zero state with chosen source volumes",
		RunE: func(cmd *cobra.Command, args []string) error {
			md, err := loadModel(v.GetString("config"))
			if err != nil {
				return err
			}
			volumes, err := parseVolumes(v.GetString("volumes"))
			if err != nil {
				return err
			}
			return runSteps(cmd.OutOrStdout(), md, volumes, v.GetInt("count"), v.GetBool("rush"))
		},
	}
	stepCmd.Flags().String("volumes", "", "Comma separated volume per source node; scheduled inflow if empty")
	stepCmd.Flags().Int("count", 1, "Number of steps to take")
	stepCmd.Flags().Bool("rush", false, "Use the rush hour preset volumes")
	_ = v.BindPFlags(stepCmd.Flags())

	matrixCmd := &cobra.Command{
		Use:   "matrix",
		Short: "Print the transition matrix",
		RunE: func(cmd *cobra.Command, args []string) error {
			md, err := loadModel(v.GetString("config"))
			if err != nil {
				return err
			}
			printMatrix(cmd.OutOrStdout(), md.Net)
			return nil
		},
	}

	mcCmd := &cobra.Command{
		Use:   "mc",
		Short: "Estimate expected visit counts by random walks",
		RunE: func(cmd *cobra.Command, args []string) error {
			md, err := loadModel(v.GetString("config"))
			if err != nil {
				return err
			}
			return runWalks(cmd.OutOrStdout(), md, v.GetInt("walks"))
		},
	}
	mcCmd.Flags().Int("walks", 10000, "Random walks per transient start node")
	_ = v.BindPFlags(mcCmd.Flags())

	rootCmd.AddCommand(runCmd, steadyCmd, stepCmd, matrixCmd, mcCmd)
	return rootCmd
}

// setupLogging installs the slog handler for both the CLI and the library
func setupLogging(level, format string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text", "":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("log format %q, want text or json", format)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	mctraffic.SetLogger(logger)
	return nil
}

// loadModel builds the model described in path, or the reference model when path is empty
func loadModel(path string) (*mctraffic.Model, error) {
	if path == "" {
		return mctraffic.BuildFromDesc(mctraffic.DefaultNetworkDesc())
	}
	md, err := mctraffic.BuildModelFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("building network from %s: %w", path, err)
	}
	slog.Info("network loaded", "file", path, "name", md.Name, "nodes", md.Net.Len())
	return md, nil
}

func parseVolumes(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	volumes := make([]float64, len(fields))
	for k, f := range fields {
		val, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("volume %q: %w", f, err)
		}
		if val < 0 {
			return nil, fmt.Errorf("volume %q is negative", f)
		}
		volumes[k] = val
	}
	return volumes, nil
}
