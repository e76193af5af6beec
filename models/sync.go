// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "encoding/json"

// Filter is the opaque restriction document attached to a filtered sync
// request. The engine never interprets it; it is handed as-is to the
// restriction evaluator.
type Filter = json.RawMessage

// SyncRequest is the JSON body of POST /api/sync/changes.
type SyncRequest struct {
	// FolderSourceKey addresses the folder to synchronize.
	FolderSourceKey SourceKey `json:"folder_source_key"`

	// ChangeID is the state token returned by the previous sync, or 0
	// for a first sync.
	ChangeID uint64 `json:"change_id"`

	// Flags tunes row inclusion, see SyncFlags.
	Flags SyncFlags `json:"flags"`

	// Filter restricts the synchronized view when non-nil.
	Filter Filter `json:"filter,omitempty"`
}

// SyncResponse is the JSON body returned by POST /api/sync/changes.
type SyncResponse struct {
	// ChangeID is the new state token; strictly greater than the
	// requested token whenever that token came from a prior response.
	ChangeID uint64 `json:"change_id"`

	// Events is the ordered list of changes the client must apply.
	Events []ChangeEvent `json:"events"`

	// Length duplicates len(Events) for quick client-side checks.
	Length int `json:"length"`
}

// SessionRequest is the JSON body of POST /api/session.
type SessionRequest struct {
	// ClientID is the sync client requesting a session token.
	ClientID uint64 `json:"client_id"`

	// GroupID optionally joins the session to a session group; sessions
	// of one group belong to the same client installation. 0 means "no
	// group".
	GroupID uint64 `json:"group_id,omitempty"`
}

// SessionResponse carries the signed session token and the registry id
// of the created session.
type SessionResponse struct {
	Token     string `json:"token"`
	SessionID uint64 `json:"session_id"`
}

// SubscribeRequest is the JSON body of the subscription endpoints.
type SubscribeRequest struct {
	// SourceKey is the folder or message to watch.
	SourceKey SourceKey `json:"source_key"`
}

// VersionResponse is returned by GET /api/version.
type VersionResponse struct {
	Version string `json:"version"`
}
