// Package httpapi is the HTTP collaborator named in spec §6: thin JSON
// adapters over the Session Store and Execution Engine. It owns no session
// state of its own.
package httpapi
