// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// Message is the current-hierarchy state of one message: the minimal set
// of properties the sync engine and the restriction evaluator consult.
// Bodies and the full property model live elsewhere and are not part of
// the sync protocol.
type Message struct {
	SourceKey       SourceKey `json:"source_key"`
	ParentSourceKey SourceKey `json:"parent_source_key"`

	// Flags is the message flag word; see MsgFlagAssociated and
	// MsgFlagDeleted for the bits the engine interprets.
	Flags uint32 `json:"flags"`

	// Category is a free-form classification property, the field the
	// built-in restriction evaluator can filter on.
	Category string `json:"category"`
}
