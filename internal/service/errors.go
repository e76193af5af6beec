// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import "errors"

var (
	ErrInvalidDataProvided = errors.New("invalid data provided")

	ErrTokenIsExpired = errors.New("token is expired")

	ErrValidationNoFolder      = errors.New("no folder sourcekey was given")
	ErrValidationNoSourceKey   = errors.New("no message sourcekey was given")
	ErrValidationNoClientID    = errors.New("no client id was given")
	ErrValidationBadFilter     = errors.New("malformed filter document")
	ErrValidationEmptyCategory = errors.New("no message category was given")
)
