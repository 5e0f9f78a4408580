// Package wsapi is the WebSocket collaborator named in spec §6: it bridges
// a Session's Streaming Broker to JSON-framed WebSocket messages, for both
// attach-to-existing-session and one-shot-session connections.
package wsapi
