// Package viewer implements the receiving side of the comment stream. A
// Session maintains a websocket subscription to the broadcast endpoint and
// feeds incoming comments into a Display, which tracks which comments are
// currently visible and expires each one after a fixed duration.
package viewer
