// Package recfile decodes Rainbow Six Siege ".rec" replay containers.
//
// A container starts either with the ASCII magic "dissect" followed by a
// clear-text header and a series of zstd frames (Y8S4 and later), or is
// compressed as a whole with zstd. The header is a list of length-prefixed
// key/value strings; the body is a stream of packets located by byte
// markers. Packets are dispatched in offset order to readers that build the
// roster, track operator swaps, the round timer, the kill feed and defuser
// activity. A round-end pass then settles the winner.
//
// Decoding is a pure function of the input bytes. Failures are reported as
// *DecodeError values wrapping ErrMalformedContainer, ErrUnsupportedVersion
// or ErrTruncatedInput so callers can tell corrupt input from replays
// recorded by a game build outside MinSeason..MaxSeason.
package recfile
