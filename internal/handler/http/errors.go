// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// Sentinel errors produced while parsing the "Authorization" HTTP header.
// The auth middleware maps all of them to 401 before a sync handler runs;
// callers match them with [errors.Is].
var (
	// ErrEmptyAuthorizationHeader is returned when the incoming request
	// carries no "Authorization" header at all.
	ErrEmptyAuthorizationHeader = errors.New("empty `Authorization` header")

	// ErrInvalidAuthorizationHeader is returned when the header is present
	// but cannot be split into at least two space-separated parts, meaning
	// the token value is missing entirely.
	ErrInvalidAuthorizationHeader = errors.New("invalid `Authorization` header")

	// ErrEmptyToken is returned when the header contains the expected scheme
	// prefix but the token value itself is an empty string.
	ErrEmptyToken = errors.New("empty token in `Authorization` header")
)
