// Package logs reads back the replaykit log file for the "replaykit logs"
// command: the last lines of the file, then optionally new lines as they
// are appended.
package logs
