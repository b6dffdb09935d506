// Package provisioning provides the observability shared by all orchestration
// packages.
//
// # Logging
//
// Observer carries printf-style progress lines and structured events.
// ConsoleObserver writes them through zerolog, as console output on a terminal
// and as JSON lines otherwise. RecordingObserver keeps them in memory for tests.
//
// # Metrics
//
// Metrics counts polls, provider events and purged items and records wait
// durations in a private Prometheus registry. A nil *Metrics records nothing.
package provisioning
