// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - ContentExtractor: Extension-dispatched text extraction
//   - Extractor: Text extraction for one family of formats
//   - AuditLog: Append-only record of skipped files
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - CommandRunner: Runs optional external decoders. Without it, PDF and
//     legacy office formats register as absent.
//   - ConfigStore: Persisted settings. Without it, defaults apply.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
