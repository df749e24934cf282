// Package lockman mediates which named actions may run concurrently within
// caller-defined boundaries, according to pluggable strategies. Callers ask
// the engine "may I acquire this lock?" before running an operation via
// Coordinator.Acquire (or the CanLock/Lock/Unlock verbs directly); the
// engine answers with a Verdict and records enough state that later queries
// honor the guarantees already made.
//
// The engine spawns no goroutines and performs no I/O: every operation is a
// synchronous critical section over an internal mutex. Concrete policies
// live under strategies/.
package lockman
