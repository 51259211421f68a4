// Package database provides PostgreSQL connectivity and the comment store.
//
// The store's only write operation is Create: identity and creation
// timestamp are assigned by the database, never by callers.
package database
