// Package repositories implements SQLite persistence for delivery history.
//
// One row is written per terminal acquisition outcome. Rows carry an atomic
// per-table sequence number for stable, human-readable ordering independent
// of UUIDs; [NextSequence] increments the counter with a single
// UPDATE ... RETURNING statement.
//
// History is a supplement to the in-memory pipeline: nothing in the request
// path reads from it, and the bot runs fine with persistence disabled.
package repositories
