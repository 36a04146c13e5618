// Package logging assembles structured slog loggers for replaykit.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so decoders and the library
// indexer tag log lines with the replay being processed and the scan that
// picked it up. Output goes to stderr by default so command output written
// to stdout stays machine readable. The package also provides a no-op
// logger for tests and for library code that is handed a nil logger.
package logging
