package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aldokuritsu/powminer/internal/config"
	"github.com/aldokuritsu/powminer/internal/crypto"
	logpkg "github.com/aldokuritsu/powminer/internal/logger"
	"github.com/aldokuritsu/powminer/internal/report"
	minerpkg "github.com/aldokuritsu/powminer/pkg/miner"
	"github.com/aldokuritsu/powminer/pkg/types"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the CLI. All output goes to stdout and stderr.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cfg := config.NewConfig()
	reporter := &report.Reporter{Out: stdout, Err: stderr}

	rootCmd := &cobra.Command{
		Use:   "powminer <data> <pattern> [difficulty]",
		Short: "Minimal sha256 proof-of-work miner",
		Long: `Searches for a nonce such that sha256(data ++ timestamp ++ nonce),
rendered as lowercase hex, starts with <pattern> repeated [difficulty] times.
The timestamp is the current Unix time, resampled on every attempt.
A match found after the expiration threshold is rejected.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.RangeArgs(2, 3)(cmd, args); err != nil {
				reporter.Failure(err)
				return err
			}
			return nil
		},
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := resolve(cmd, cfg, args)
			if err != nil {
				reporter.Failure(err)
				return err
			}
			cmd.SilenceUsage = true
			reporter.Format = cfg.Format

			logger, closeLog, err := setupLogging(cfg, stderr)
			if err != nil {
				reporter.Failure(err)
				return err
			}
			defer closeLog()

			if err := runMiner(cfg, logger, reporter); err != nil {
				reporter.Failure(err)
				return err
			}
			return nil
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		reporter.Failure(err)
		return err
	})

	// Flags go before <data>; everything after it is positional, so a
	// difficulty of "-1" reaches ParseDifficulty instead of the flag parser.
	rootCmd.Flags().SetInterspersed(false)

	rootCmd.Flags().IntVarP(&cfg.Workers, "workers", "w", config.DefaultWorkers, "Number of worker goroutines (1 = sequential search)")
	rootCmd.Flags().DurationVarP(&cfg.Expiration, "expiration", "e", config.DefaultExpiration, "Reject matches found after this long")
	rootCmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Verbose output")
	rootCmd.Flags().StringVarP(&cfg.LogFile, "log-file", "l", "", "Log file for progress tracking (default: stderr)")
	rootCmd.Flags().IntVarP(&cfg.LogInterval, "log-interval", "i", config.DefaultLogInterval, "Logging interval in seconds")
	rootCmd.Flags().StringVarP(&cfg.Format, "format", "f", config.FormatText, "Report format: text or json")
	rootCmd.Flags().StringVarP(&cfg.ConfigFile, "config", "c", "", "TOML configuration file")

	return rootCmd
}

// resolve applies the config file and positional arguments, then validates.
func resolve(cmd *cobra.Command, cfg *config.Config, args []string) error {
	if cfg.ConfigFile != "" {
		if err := cfg.LoadFile(cfg.ConfigFile, func(name string) bool {
			return cmd.Flags().Changed(name)
		}); err != nil {
			return err
		}
	}
	if err := cfg.SetArgs(args); err != nil {
		return err
	}
	return cfg.Validate()
}

func runMiner(cfg *config.Config, logger *logpkg.Logger, reporter *report.Reporter) error {
	req := cfg.Request()
	logger = logger.WithTag(crypto.Fingerprint(req.Data, req.Pattern, req.Difficulty))

	logger.Infof("Starting miner with %d workers...", cfg.Workers)
	logger.Infof("Target: %s", cfg.TargetDescription())
	if !cfg.PatternIsHex() && req.Difficulty > 0 {
		logger.Errorf("Pattern %q contains non-hex characters and can never match", req.Pattern)
	}

	miner := minerpkg.NewMiner(cfg, logger)

	// Set up signal handling for Ctrl+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	type outcome struct {
		res *types.Result
		err error
	}
	resultChan := make(chan outcome, 1)
	go func() {
		res, err := miner.Mine(req)
		resultChan <- outcome{res, err}
	}()

	var out outcome
	select {
	case out = <-resultChan:
	case <-sigChan:
		logger.Infof("Received interrupt signal. Stopping miners...")
		miner.Stop()
		out = <-resultChan
	}

	if out.err != nil {
		if errors.Is(out.err, minerpkg.ErrStopped) {
			logger.Infof("Mining stopped by user after %d attempts.", miner.Attempts())
		}
		return out.err
	}

	logger.Infof("Found match with nonce %d after %d attempts", out.res.Nonce, out.res.Attempts)
	if err := reporter.Success(req, out.res); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// setupLogging returns the run logger and a func that releases its output
func setupLogging(cfg *config.Config, stderr io.Writer) (*logpkg.Logger, func(), error) {
	var logger *logpkg.Logger
	closeFn := func() {}

	if cfg.LogFile != "" {
		// Log to file
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger = logpkg.NewWriter(file)
		logger.SetFlags(log.LstdFlags | log.Lmicroseconds)
		closeFn = func() { _ = file.Close() }
	} else if cfg.Verbose {
		logger = logpkg.NewWriter(stderr)
		logger.SetFlags(log.LstdFlags)
	} else {
		// stdout carries the report; keep it clean
		logger = logpkg.Discard()
	}

	logger.SetVerbose(cfg.Verbose)
	return logger, closeFn, nil
}
