// Package daemon coordinates the long-running reelpost process.
//
// It wires configuration, queue storage, the workflow manager, and the
// sheet poller into a single lifecycle with flock-based locking to prevent
// multiple instances. The daemon exposes queue maintenance helpers and
// manual post ingestion for IPC callers.
//
// Keep orchestration logic here: individual pipeline stages live in their
// own packages while the daemon focuses on startup, shutdown, and high
// level coordination.
package daemon
