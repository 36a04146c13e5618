// Package main hosts the replaykit CLI.
//
// The Cobra command tree decodes single replays (operators, decode, info),
// reads match folders (stats, export), maintains the replay library (index,
// library) and scaffolds configuration (config, doctor). Configuration
// loading, decoder selection and logger setup live in commandContext so
// subcommands only wire flags to internal packages.
//
// Logs go to stderr; stdout carries command output only, so "replaykit
// decode" can stand in as the external decoder of another replaykit.
package main
