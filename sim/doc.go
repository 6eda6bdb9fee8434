// Package sim drives synthetic load against a bank.
// This package implements:
// - Random account population per branch
// - One weighted query generator goroutine per updater
// - Drain, shutdown and restart of every updater pool between runs
// - Aggregate success/failure reporting
package sim
