// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command amxbench measures GEMM and inner-product throughput of the scalar,
// 16-lane SIMD and AMX execution paths and prints one table per phase.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/LynnColeArt/amxbench"
	"github.com/LynnColeArt/amxbench/ffu/amx"
	"github.com/LynnColeArt/amxbench/ffu/blas"
)

type options struct {
	dim        int
	topk       int
	batch      int
	datasets   int
	queries    int
	iterations int
	seed       uint64
	debug      bool
	suites     []string
	modes      []string
	report     string
	compact    string
	exactTail  bool
	verify     bool
	logDir     string

	chainIterations int
	memWords        int
	cacheRows       int
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	version, _ := amxbench.Version()
	if version == "" {
		version = "(devel)"
	}
	cmd := &cobra.Command{
		Use:          "amxbench",
		Short:        "Intel AMX / SIMD / scalar matmul throughput benchmark",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, newLogger(opts.debug))
		},
	}

	f := cmd.Flags()
	intVar(f, &opts.dim, "dim", amxbench.DefaultDim, "vector dimension of the search phase")
	intVar(f, &opts.topk, "topk", amxbench.DefaultTopK, "hits kept per query in the search phase")
	intVar(f, &opts.batch, "batch", amxbench.DefaultBatch, "queries scored per pass in the search phase")
	intVar(f, &opts.datasets, "datasets", amxbench.DefaultDatasets, "dataset vectors in the search phase")
	intVar(f, &opts.queries, "queries", amxbench.DefaultQueries, "query vectors in the search phase")
	intVar(f, &opts.iterations, "iterations", amxbench.DefaultIterations, "timed invocations per configuration")
	uint64Var(f, &opts.seed, "seed", amxbench.DefaultSeed, "workload generator seed")
	intVar(f, &opts.chainIterations, "chain-iterations", amxbench.DefaultChainIterations, "add-chain passes per timed call in the peak suite")
	intVar(f, &opts.memWords, "mem-words", amxbench.DefaultMemWords, "int64 words filled and read in the memory suite")
	intVar(f, &opts.cacheRows, "cache-rows", amxbench.DefaultCacheRows, "64-byte rows walked by the cache loops of the memory suite")
	f.BoolVarP(&opts.debug, "debug", "d", false, "log every timed iteration")
	f.StringSliceVar(&opts.suites, "suite", []string{"square", "search"}, "phases to run: square, rect, search, peak, memory")
	f.StringSliceVar(&opts.modes, "modes", []string{"scalar", "simd", "amx"}, "execution paths to run")
	f.StringVar(&opts.report, "report", "last", "reported iteration: last, min or median")
	f.StringVar(&opts.compact, "compact", "bf16", "16-bit input format of the AMX path: bf16 or f16")
	f.BoolVar(&opts.exactTail, "exact-tail", false, "add the dim mod 16 tail in the SIMD kernel")
	f.BoolVar(&opts.verify, "verify", true, "cross-check the SIMD kernel against the scalar oracle")
	f.StringVar(&opts.logDir, "log-dir", "", "write a JSON session log to this directory")

	cmd.AddCommand(newSummaryCommand(), newCompareCommand())
	return cmd
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func buildConfig(opts *options) (amxbench.Config, []amxbench.Suite, error) {
	cfg := amxbench.DefaultConfig()
	cfg.Iterations = opts.iterations
	cfg.Seed = opts.seed
	cfg.Debug = opts.debug
	cfg.ExactTail = opts.exactTail
	cfg.Verify = opts.verify
	cfg.Search = amxbench.SearchParams{Batch: opts.batch, TopK: opts.topk}
	cfg.Loops = amxbench.LoopParams{
		ChainIterations: opts.chainIterations,
		MemWords:        opts.memWords,
		CacheRows:       opts.cacheRows,
	}

	var err error
	if cfg.Policy, err = amxbench.ParseReportPolicy(opts.report); err != nil {
		return cfg, nil, err
	}
	if cfg.Modes, err = amxbench.ParseModes(opts.modes); err != nil {
		return cfg, nil, err
	}
	if cfg.Compact, err = amxbench.ParseCompact(opts.compact); err != nil {
		return cfg, nil, err
	}
	cfg.MatMulOutput = cfg.Compact.DataType()
	cfg.InnerProductOutput = cfg.Compact.DataType()

	suites, err := amxbench.ParseSuites(opts.suites)
	return cfg, suites, err
}

func run(cmd *cobra.Command, opts *options, logger *slog.Logger) error {
	cfg, suites, err := buildConfig(opts)
	if err != nil {
		return err
	}

	engine := blas.NewEngine()
	adapter := amx.NewAdapter(engine, amx.WithLogger(logger))
	defer adapter.Close()
	logger.Info(amxbench.GetCPUInfo())
	logger.Info("accelerator", "name", adapter.Name(), "available", adapter.IsAvailable(), "engine", engine.Name())

	benchOpts := []amxbench.BenchmarkOption{amxbench.WithBenchmarkLogger(logger)}
	if opts.logDir != "" {
		session, err := amxbench.NewSessionLog(opts.logDir, "amxbench")
		if err != nil {
			return err
		}
		logger.Info("session log", "path", session.Path())
		benchOpts = append(benchOpts, amxbench.WithSessionLog(session))
	}

	bench := amxbench.NewBenchmark(cfg, cmd.OutOrStdout(), amxbench.NewKernels(cfg, adapter), benchOpts...)
	err = bench.RunSuites(suites, amxbench.Shape{N1: opts.queries, N2: opts.datasets, M: opts.dim})

	m := adapter.Metrics()
	logger.Info("accelerator metrics",
		"workloads", m.WorkloadCount,
		"bytes", m.BytesProcessed,
		"duration", m.TotalDuration,
		"errors", m.ErrorCount)
	return err
}

func newSummaryCommand() *cobra.Command {
	var logDir string
	cmd := &cobra.Command{
		Use:   "summary [session.json]",
		Short: "Summarize a session log (the latest one in --log-dir by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				latest, err := amxbench.LatestLogFile(logDir)
				if err != nil {
					return err
				}
				path = latest
			}
			return amxbench.PrintSessionSummary(cmd.OutOrStdout(), path)
		},
	}
	cmd.Flags().StringVar(&logDir, "log-dir", "benchmark_logs", "directory holding session logs")
	return cmd
}

func newCompareCommand() *cobra.Command {
	var regress float64
	cmd := &cobra.Command{
		Use:   "compare BASELINE CURRENT",
		Short: "Compare the durations of two session logs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseline, err := amxbench.ReadSessionLog(args[0])
			if err != nil {
				return fmt.Errorf("failed to load baseline: %w", err)
			}
			current, err := amxbench.ReadSessionLog(args[1])
			if err != nil {
				return fmt.Errorf("failed to load current session: %w", err)
			}

			comparisons := amxbench.CompareSessions(baseline, current, regress)
			amxbench.PrintComparisons(cmd.OutOrStdout(), comparisons)
			if amxbench.HasRegressions(comparisons) {
				return fmt.Errorf("performance regressions found")
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&regress, "perf-regress", 1.1, "regression threshold (1.1 = 10% slower)")
	return cmd
}
