// Package replay defines the decoded form of a Rainbow Six Siege match
// replay: header metadata, the player roster with each player's operator,
// and the timestamped match feedback recorded during the round.
//
// Enumerations (match types, game modes, maps, operators, feedback types)
// carry their numeric in-game identifiers and marshal to JSON as
// {"name": ..., "id": ...} objects so downstream tooling can rely on either
// field. Unknown identifiers survive a JSON round trip unchanged.
//
// The package also computes per-round statistics (opening kills, trades,
// 1vX clutches) from a decoded Replay. Values are plain data; nothing here
// performs I/O.
package replay
