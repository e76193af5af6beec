// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package ics implements incremental change synchronization: given a
// folder and the opaque state token a client presents, it computes the
// minimal ordered set of add/modify/delete/flag events that brings the
// client's replica back in sync, and a new strictly-greater token.
//
// The engine composes two kinds of delegates per request. A query creator
// decides what to read — either the tail of the append-only change log
// (cheap, only valid for unfiltered incremental syncs) or a full scan of
// the folder's current state. A message processor decides what each row
// means for this particular client: first syncs, plain incremental syncs,
// filter transitions, and continuations of a previously filtered view all
// reconcile differently. The pairing is chosen once per request from the
// client's sync history and never changes mid-scan.
package ics
