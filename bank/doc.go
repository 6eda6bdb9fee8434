// Package bank implements the sharded in-memory bank core.
// This package implements:
// - Accounts with serialized balance mutations
// - Branch stores with concurrent account tables and monotonic id allocation
// - The bank router with cross-branch transfer compensation
// - Updater workers consuming bounded FIFO query queues
package bank
