// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/models"
)

// ErrRestrictionTarget is returned by the evaluator when the object a
// filter should be checked against does not exist in the hierarchy. The
// sync engine treats this as "does not match" rather than a failure.
var ErrRestrictionTarget = errors.New("restriction target not found")

// restrictionDocument is the concrete shape of the opaque filter this
// evaluator understands: a single property comparison.
type restrictionDocument struct {
	Tag   string `json:"tag"`
	Op    string `json:"op"`
	Value string `json:"value"`
}

// RestrictionEvaluator answers "does object X match filter F" for a
// single object by loading the object's current properties. It is the
// storage-side implementation of the engine's RestrictionMatcher
// capability.
type RestrictionEvaluator struct {
	messages MessageRepository
	logger   *logger.Logger
}

// NewRestrictionEvaluator constructs an evaluator over the given message
// repository.
func NewRestrictionEvaluator(messages MessageRepository, log *logger.Logger) *RestrictionEvaluator {
	log.Debug().Msg("RestrictionEvaluator created")
	return &RestrictionEvaluator{
		messages: messages,
		logger:   log,
	}
}

// Matches evaluates the filter document against the message identified by
// sourceKey. Returns ErrRestrictionTarget when the message is gone.
func (e *RestrictionEvaluator) Matches(ctx context.Context, sourceKey models.SourceKey, filter models.Filter) (bool, error) {
	log := logger.FromContext(ctx)

	var doc restrictionDocument
	if err := json.Unmarshal(filter, &doc); err != nil {
		log.Err(err).
			Str("func", "RestrictionEvaluator.Matches").
			Msg("failed to decode restriction document")
		return false, fmt.Errorf("invalid restriction document: %w", err)
	}

	msg, err := e.messages.GetMessage(ctx, sourceKey)
	if errors.Is(err, ErrMessageNotFound) {
		return false, ErrRestrictionTarget
	}
	if err != nil {
		return false, err
	}

	switch doc.Tag {
	case "category":
		return compareString(msg.Category, doc.Op, doc.Value)
	default:
		return false, fmt.Errorf("unsupported restriction tag %q", doc.Tag)
	}
}

func compareString(have, op, want string) (bool, error) {
	switch op {
	case "", "eq":
		return have == want, nil
	case "ne":
		return have != want, nil
	default:
		return false, fmt.Errorf("unsupported restriction op %q", op)
	}
}
