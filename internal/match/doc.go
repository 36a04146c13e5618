// Package match reads a folder of round replays as one match.
//
// The game writes every round of a match into its own .rec file inside a
// match folder. Reader lists those files in name order, decodes them with a
// bounded worker pool and aggregates per-player statistics across rounds.
package match
