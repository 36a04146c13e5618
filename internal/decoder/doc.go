// Package decoder selects how replay bytes become a replay.Replay.
//
// Native decodes in-process with the recfile package. External streams the
// replay to a configured executable on stdin and parses the JSON document
// it writes to stdout. Both satisfy Decoder, so the CLI, match reader and
// library indexer do not care which one is configured.
package decoder
