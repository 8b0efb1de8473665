// Package logging provides concrete implementations of the ndlsync.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: writes to stderr (or any io.Writer) with [VERBOSE]/[ERROR] prefixes
//   - FileLogger: persists the load run log (upload_log.txt) and mirrors to another logger
//   - NullLogger: discards all messages
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
