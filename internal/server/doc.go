// Package server exposes the HTTP surface: the comment submission and
// listing API, the websocket stream endpoint, health checks, and metrics.
// Handlers stay thin and delegate all comment operations to the application
// service; errors bubble up to the structured error middleware.
package server
