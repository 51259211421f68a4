// Package app implements the application layer: comment ingestion.
//
// Submission runs a strict score, persist, publish, respond sequence.
// A comment is never published before it is durably persisted, and neither
// scoring nor broadcast failures can fail a valid submission.
package app
