// Package client implements the sync client runtime.
//
// It keeps a local SQLite replica of one server folder and drives the
// reconciliation loop: open a session, request the change list for the
// replica's stored token, apply the events to the local copy, and
// persist the new token. The transport is abstracted behind
// [adapter.ServerAdapter].
package client
