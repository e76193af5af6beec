// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "errors"

var (
	// ErrNoDatabaseDSN is returned when no database connection string
	// was provided by any configuration source.
	ErrNoDatabaseDSN = errors.New("no database DSN configured")

	// ErrBadServerGUID is returned when the configured server identity
	// GUID cannot be parsed.
	ErrBadServerGUID = errors.New("server GUID is not a valid UUID")
)
