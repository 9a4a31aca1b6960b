// Package gateway is the client-facing edge of a scene process: it
// authenticates WebSocket tickets, keeps the per-character connection table,
// and bridges inbound requests onto the group runner loop.
package gateway
