// Package models defines domain entities for the audio delivery pipeline.
//
// The package contains two categories of types:
//
// 1. Pipeline values passed between components:
//   - [CandidateItem] : one playable video produced by the resolver, immutable once built
//
// 2. Persistent entities backed by the history database:
//   - [Delivery] : the terminal outcome of one acquisition request
//
// Persistent entities implement the Model interface providing ID generation,
// timestamps and validation. The Repository[T] interface defines standard
// CRUD operations for database access.
package models
