// Package broadcast implements the comments topic hub using the actor pattern.
//
// The Hub owns a single named topic. Publishing fans a persisted comment out
// to every currently registered WebSocket subscriber; subscribers joining
// later never receive it (no buffering or replay). A single goroutine plus
// a command channel serializes registration and publication (no mutexes);
// per-connection write goroutines keep one slow client from blocking the rest.
package broadcast
