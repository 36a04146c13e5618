// Package preflight checks the filesystem paths and external programs
// replaykit depends on. The "replaykit doctor" command renders the results.
//
// Checks are gated by configuration: the external decoder binary is only
// required when decoder.mode is "external".
package preflight
