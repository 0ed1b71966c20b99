// Package window implements the windowed incremental collection loader: it
// lets a virtualized list present an arbitrarily large remote collection by
// fetching only the pages that are (or are about to be) visible.
//
// It is structured into small files by concern:
//
//   - types.go: Handle, Slot, PageRequest/Page and the PageFetcher contract.
//   - store.go: Store, the sparse order-preserving slot array.
//   - tracker.go: Tracker, the in-flight fetch set used for dedup.
//   - scheduler.go: Scheduler, Debouncer and Immediate.
//   - loader.go: Loader, the orchestration state machine.
//   - config.go: Config and package defaults; New applies defaults.
//   - errors.go: error types and helpers (IsInvalidRange, IsClosed).
//   - events.go: lifecycle events and publishers.
//   - metrics.go: Prometheus collectors.
//
// A Loader is owned by exactly one consumer and windows over exactly one
// collection at a time. Switching collection discards every slot and every
// pending fetch; responses that arrive for the old collection are dropped.
package window
