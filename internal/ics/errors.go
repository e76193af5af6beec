// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package ics

import "errors"

// Error taxonomy of a sync call. A request either returns the full event
// list with a valid new token or fails entirely; no partial responses.
var (
	// ErrStorage wraps a read/write failure against the change log or
	// snapshot tables. Safe to retry: finalization writes are keyed by
	// the new token, never in-place.
	ErrStorage = errors.New("sync storage failure")

	// ErrCorruptData is returned when a scanned row is missing an
	// expected column such as the sourcekey. Not retried automatically.
	ErrCorruptData = errors.New("corrupt change row")

	// ErrFilterEval wraps a restriction evaluator failure other than
	// "target not found". Aborts the whole call.
	ErrFilterEval = errors.New("restriction evaluation failure")
)
