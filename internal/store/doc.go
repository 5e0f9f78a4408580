// Package store implements the Session Store (spec §4.5): a keyed registry
// of live Sessions with monotonic identifier assignment, create/get/list/
// delete lifecycle operations, and a background reaper that removes
// sessions idle past their TTL or whose child process has already exited.
package store
