// Package library keeps a SQLite index of decoded rounds.
//
// The Store records one row per round file, keyed by the SHA-256 digest of
// its bytes, plus one row per player with the operator and headline
// statistics of that round. The Indexer walks a directory tree, skips files
// whose digest is already known and decodes the rest with a bounded worker
// pool. A file lock next to the database keeps two indexers from writing the
// same library at once.
//
// The schema is versioned in schema.go. There are no migrations; a library
// built by an older release is cleared and re-indexed.
package library
