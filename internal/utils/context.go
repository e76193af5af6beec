// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package utils provides general-purpose helpers used across the
// server: type-safe context keys, HTTP response writing, JWT token
// generation and validation, and trace id generation.
package utils

import (
	"context"
)

// contextKey is a private type for context keys. Using a dedicated type
// instead of a plain string prevents key collisions with other packages
// that may use string-based keys in the context.
type contextKey string

// String returns the string representation of the context key.
// Implements the fmt.Stringer interface.
func (c contextKey) String() string {
	return string(c)
}

// ClientIDCtxKey is the key used to store the authenticated sync client
// identifier in the context.
//
// Example of writing a value to the context:
//
//	ctx := context.WithValue(ctx, utils.ClientIDCtxKey, uint64(42))
var ClientIDCtxKey = contextKey("clientID")

// GetClientIDFromContext retrieves the sync client identifier from the
// context.
//
// Returns the client id and an ok flag:
//   - ok == true  — value is found and has the correct uint64 type
//   - ok == false — value is missing or has an unexpected type
func GetClientIDFromContext(ctx context.Context) (uint64, bool) {
	clientID, ok := ctx.Value(ClientIDCtxKey).(uint64)
	return clientID, ok
}
