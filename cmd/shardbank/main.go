package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/shardbank/shardbank/bank"
	"github.com/shardbank/shardbank/metrics"
	"github.com/shardbank/shardbank/runlog"
	"github.com/shardbank/shardbank/sim"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "shardbank",
		Short: "Sharded in-memory bank load engine",
	}
	root.AddCommand(newSimulateCmd())
	return root
}

func newSimulateCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Populate the bank and run weighted random load through every updater",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(v)
		},
	}

	flags := cmd.Flags()
	flags.Int("branches", bank.DefaultConfig().Branches, "number of branches")
	flags.Int("updaters", bank.DefaultConfig().UpdatersPerBranch, "updaters per branch")
	flags.Int("accounts", 10000, "initial accounts per branch")
	flags.Int("transactions", 1000000, "transactions generated per updater")
	flags.Int("runs", 1, "number of simulation runs")
	flags.Bool("save-logs", false, "append result lines to the run log")
	flags.String("log-file", runlog.DefaultFile, "run log path")
	flags.Bool("console", false, "mirror run logs to stderr")
	flags.String("metrics-addr", "", "Prometheus /metrics listen address (disabled when empty)")
	flags.String("config", "", "optional YAML config file")

	v.SetEnvPrefix("SHARDBANK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(flags)

	return cmd
}

func runSimulate(v *viper.Viper) error {
	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	logger, err := runlog.New(runlog.Options{
		Save:    v.GetBool("save-logs"),
		File:    v.GetString("log-file"),
		Console: v.GetBool("console"),
	})
	if err != nil {
		return fmt.Errorf("building run logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	m := metrics.New("shardbank", prometheus.DefaultRegisterer)

	bk, err := bank.New(bank.Config{
		Branches:          v.GetInt("branches"),
		UpdatersPerBranch: v.GetInt("updaters"),
	}, logger, m)
	if err != nil {
		return err
	}
	bk.StartUpdaters()

	if addr := v.GetString("metrics-addr"); addr != "" {
		srv := metrics.NewServer(addr, prometheus.DefaultGatherer)
		go func() {
			if err := srv.Start(); err != nil {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(ctx)
		}()
	}

	simulator := sim.New(bk, sim.Config{
		AccountsPerBranch:      v.GetInt("accounts"),
		TransactionsPerUpdater: v.GetInt("transactions"),
		SaveLogs:               v.GetBool("save-logs"),
	}, logger, m)

	simulator.InitializeAccounts()

	for run := 0; run < v.GetInt("runs"); run++ {
		elapsed, report, err := simulator.Simulate()
		if err != nil {
			return err
		}
		fmt.Printf("Simulation completed in %d ms\n\n%s\n", elapsed.Milliseconds(), report)
	}

	bk.ShutdownUpdaters()
	return nil
}
