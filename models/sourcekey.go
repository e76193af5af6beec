// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"

	"github.com/google/uuid"
)

// SourceKey is the opaque, globally unique, ordered identifier of a folder
// or message. Unlike the internal numeric hierarchy id it is stable across
// moves and copies, so the sync protocol addresses objects exclusively by
// SourceKey.
//
// Server-generated keys are 22 bytes: the 16-byte server GUID followed by a
// 6-byte little-endian monotonic counter. Keys received from other servers
// may have a different length; comparison is always plain lexicographic
// byte comparison, so mixed-origin keys still order deterministically.
type SourceKey []byte

// sourceKeyCounterSize is the number of counter bytes appended to the
// server GUID in a generated SourceKey.
const sourceKeyCounterSize = 6

// SentinelSourceKey is the single-zero-byte placeholder stored in a client
// snapshot to record "the filtered view matched nothing". It distinguishes
// an empty filtered snapshot from the absence of any snapshot (which means
// no filter was ever applied).
var SentinelSourceKey = SourceKey{0x00}

// NewSourceKey builds a SourceKey from the server GUID and a monotonic
// counter value. Only the low 48 bits of the counter are used.
func NewSourceKey(serverGUID uuid.UUID, counter uint64) SourceKey {
	key := make(SourceKey, len(serverGUID)+sourceKeyCounterSize)
	copy(key, serverGUID[:])

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], counter)
	copy(key[len(serverGUID):], buf[:sourceKeyCounterSize])

	return key
}

// SourceKeyFromHex decodes a SourceKey from its hexadecimal wire form.
func SourceKeyFromHex(s string) (SourceKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}

	return SourceKey(raw), nil
}

// String returns the hexadecimal representation used in logs and on the
// wire.
func (k SourceKey) String() string {
	return hex.EncodeToString(k)
}

// IsZero reports whether the key is empty.
func (k SourceKey) IsZero() bool {
	return len(k) == 0
}

// IsSentinel reports whether the key is the empty-snapshot placeholder.
func (k SourceKey) IsSentinel() bool {
	return len(k) == 1 && k[0] == 0x00
}

// Equal reports byte-wise equality with other.
func (k SourceKey) Equal(other SourceKey) bool {
	return bytes.Equal(k, other)
}

// Compare orders two keys lexicographically, returning -1, 0 or 1.
func (k SourceKey) Compare(other SourceKey) int {
	return bytes.Compare(k, other)
}

// Clone returns an independent copy of the key. Repositories clone keys
// scanned from a database cursor before the backing buffer is reused.
func (k SourceKey) Clone() SourceKey {
	if k == nil {
		return nil
	}

	out := make(SourceKey, len(k))
	copy(out, k)
	return out
}

// MarshalText implements encoding.TextMarshaler so SourceKeys serialize as
// hex strings inside JSON payloads.
func (k SourceKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *SourceKey) UnmarshalText(text []byte) error {
	raw, err := hex.DecodeString(string(text))
	if err != nil {
		return err
	}

	*k = raw
	return nil
}
