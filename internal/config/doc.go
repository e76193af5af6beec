// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package config loads the server configuration from environment
// variables, command-line flags, and an optional JSON file, merging the
// sources in that priority order and validating the result.
package config
