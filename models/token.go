// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Token wraps a session JWT. It embeds [jwt.Token] for signing and
// parsing and [jwt.RegisteredClaims] for standard claim access; the
// subject claim carries the sync client id.
type Token struct {
	// Token is the underlying JWT used for signing and claim
	// inspection. Only the compact string form leaves the server.
	*jwt.Token `json:"-"`

	// RegisteredClaims provides the standard JWT claim set.
	jwt.RegisteredClaims

	// SignedString is the compact JWS representation of the token.
	SignedString string `json:"-"`

	// ClientID is the sync client identifier extracted from the "sub"
	// claim; a server-side cache, never serialized.
	ClientID uint64 `json:"-"`
}

// GetClientID extracts the sync client id from the token's subject
// claim.
func (t *Token) GetClientID() (uint64, error) {
	subject, err := t.GetSubject()
	if err != nil {
		return 0, fmt.Errorf("error extracting client id from token: %w", err)
	}

	clientID, err := strconv.ParseUint(subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("error converting client id from token to uint64: %w", err)
	}

	return clientID, nil
}

// String returns the compact JWS serialization of the token. It
// implements [fmt.Stringer].
func (t *Token) String() string {
	return t.SignedString
}
