// Package services implements the driving port interfaces.
// Services contain the core search logic and orchestrate
// calls to driven ports (extractors and the audit log).
//
// The SearchEngine owns one run at a time. A run walks the tree with a
// BlockScheduler, which lists directories inside TimeoutGuard units and
// hands files to a WorkerPool; a Watchdog recreates the pool when work
// stalls.
package services
