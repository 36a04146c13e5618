// Package services defines shared utilities consumed by the decoders, the
// match reader and the replay library indexer.
//
// Key responsibilities:
//   - Context helpers that stamp scan IDs, replay paths, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper, and Kind, which reduces
//     any failure to a short label for summaries and the library.
package services
