package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shardbank/shardbank/bank"
	"github.com/shardbank/shardbank/runlog"
	"github.com/shardbank/shardbank/sim"
)

// LoadTestConfig holds configuration for the load test.
type LoadTestConfig struct {
	Branches     int
	Updaters     int
	Accounts     int
	Transactions int
	Runs         int
	SaveLogs     bool
	ReportFile   string
}

// RunResult holds the outcome of one simulation run.
type RunResult struct {
	Run          int     `json:"run"`
	ElapsedMs    int64   `json:"elapsed_ms"`
	Total        int     `json:"total"`
	Successful   int     `json:"successful"`
	Unsuccessful int     `json:"unsuccessful"`
	SuccessPct   float64 `json:"success_pct"`
	TxPerSec     float64 `json:"tx_per_sec"`
}

// LoadTestResult aggregates all runs.
type LoadTestResult struct {
	Runs         []RunResult   `json:"runs"`
	MinElapsed   time.Duration `json:"-"`
	MaxElapsed   time.Duration `json:"-"`
	TotalElapsed time.Duration `json:"-"`
}

func main() {
	config := parseFlags()

	fmt.Println("=== shardbank load test ===")
	fmt.Printf("Branches: %d x %d updaters\n", config.Branches, config.Updaters)
	fmt.Printf("Accounts per branch: %d\n", config.Accounts)
	fmt.Printf("Transactions per updater: %d\n", config.Transactions)
	fmt.Printf("Runs: %d\n", config.Runs)
	fmt.Println()

	result, err := runLoadTest(config)
	if err != nil {
		log.Fatalf("load test failed: %v", err)
	}

	printResults(result)

	if config.ReportFile != "" {
		saveReport(config, result)
	}
}

func parseFlags() LoadTestConfig {
	config := LoadTestConfig{}

	flag.IntVar(&config.Branches, "branches", 10, "Number of branches")
	flag.IntVar(&config.Updaters, "updaters", 10, "Updaters per branch")
	flag.IntVar(&config.Accounts, "accounts", 10000, "Initial accounts per branch")
	flag.IntVar(&config.Transactions, "n", 100000, "Transactions per updater per run")
	flag.IntVar(&config.Runs, "runs", 3, "Number of successive simulation runs")
	flag.BoolVar(&config.SaveLogs, "logs", false, "Save result lines to the run log")
	flag.StringVar(&config.ReportFile, "o", "", "Output report file (JSON)")

	flag.Parse()

	return config
}

func runLoadTest(config LoadTestConfig) (*LoadTestResult, error) {
	logger, err := runlog.New(runlog.Options{Save: config.SaveLogs})
	if err != nil {
		return nil, err
	}
	defer func() { _ = logger.Sync() }()

	bk, err := bank.New(bank.Config{
		Branches:          config.Branches,
		UpdatersPerBranch: config.Updaters,
	}, logger, nil)
	if err != nil {
		return nil, err
	}
	bk.StartUpdaters()
	defer bk.ShutdownUpdaters()

	simulator := sim.New(bk, sim.Config{
		AccountsPerBranch:      config.Accounts,
		TransactionsPerUpdater: config.Transactions,
		SaveLogs:               config.SaveLogs,
	}, logger, nil)

	simulator.InitializeAccounts()

	result := &LoadTestResult{MinElapsed: time.Duration(1<<63 - 1)}
	for run := 1; run <= config.Runs; run++ {
		elapsed, report, err := simulator.Simulate()
		if err != nil {
			return nil, err
		}

		result.Runs = append(result.Runs, RunResult{
			Run:          run,
			ElapsedMs:    elapsed.Milliseconds(),
			Total:        report.Total,
			Successful:   report.Successful,
			Unsuccessful: report.Unsuccessful,
			SuccessPct:   report.SuccessPercent(),
			TxPerSec:     report.Throughput(),
		})
		result.TotalElapsed += elapsed
		if elapsed < result.MinElapsed {
			result.MinElapsed = elapsed
		}
		if elapsed > result.MaxElapsed {
			result.MaxElapsed = elapsed
		}

		fmt.Printf("run %d: %d tx in %v (%.0f tx/s, %.2f%% success)\n",
			run, report.Total, elapsed.Round(time.Millisecond),
			report.Throughput(), report.SuccessPercent())
	}

	return result, nil
}

func printResults(result *LoadTestResult) {
	fmt.Println()
	fmt.Println("=== Results ===")

	var totalTx, totalFailed int
	for _, r := range result.Runs {
		totalTx += r.Total
		totalFailed += r.Unsuccessful
	}

	fmt.Printf("Runs:            %d\n", len(result.Runs))
	fmt.Printf("Total tx:        %d\n", totalTx)
	fmt.Printf("Failed tx:       %d\n", totalFailed)
	fmt.Printf("Total duration:  %v\n", result.TotalElapsed.Round(time.Millisecond))
	fmt.Printf("Min run:         %v\n", result.MinElapsed.Round(time.Millisecond))
	fmt.Printf("Max run:         %v\n", result.MaxElapsed.Round(time.Millisecond))
	if result.TotalElapsed > 0 {
		fmt.Printf("Throughput:      %.0f tx/s\n", float64(totalTx)/result.TotalElapsed.Seconds())
	}
}

func saveReport(config LoadTestConfig, result *LoadTestResult) {
	report := map[string]interface{}{
		"config": map[string]interface{}{
			"branches":     config.Branches,
			"updaters":     config.Updaters,
			"accounts":     config.Accounts,
			"transactions": config.Transactions,
			"runs":         config.Runs,
		},
		"results":   result.Runs,
		"timestamp": time.Now().Format(time.RFC3339),
	}

	data, _ := json.MarshalIndent(report, "", "  ")
	if err := os.WriteFile(config.ReportFile, data, 0644); err != nil {
		log.Printf("Failed to write report: %v", err)
	} else {
		fmt.Printf("Report saved to: %s\n", config.ReportFile)
	}
}
