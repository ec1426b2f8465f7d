// Package audit provides implementations of driven.AuditLog.
//
// Adapters:
//   - FileLog: appends one tab-separated line per skipped entry
//   - MemoryLog: keeps entries in memory for tests and summaries
//   - Discard: drops every entry
package audit
