// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-groupware-sync/internal/config"
	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/internal/utils"
	"github.com/MKhiriev/go-groupware-sync/models"
	"github.com/golang-jwt/jwt/v5"
)

// identityService mints and verifies the HMAC-signed session tokens the
// HTTP layer authenticates with.
type identityService struct {
	cfg    config.App
	logger *logger.Logger
}

// NewIdentityService constructs an IdentityService with the server's
// signing configuration.
func NewIdentityService(cfg config.App, log *logger.Logger) IdentityService {
	return &identityService{
		cfg:    cfg,
		logger: log,
	}
}

// IssueToken implements IdentityService.
func (s *identityService) IssueToken(ctx context.Context, clientID uint64) (models.Token, error) {
	log := logger.FromContext(ctx)

	if clientID == 0 {
		return models.Token{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, ErrValidationNoClientID)
	}

	token, err := utils.GenerateJWTToken(s.cfg.TokenIssuer, clientID, s.cfg.TokenDuration, s.cfg.TokenSignKey)
	if err != nil {
		log.Err(err).
			Str("func", "identityService.IssueToken").
			Uint64("client", clientID).
			Msg("failed to sign session token")
		return models.Token{}, err
	}

	return token, nil
}

// ValidateToken implements IdentityService.
func (s *identityService) ValidateToken(tokenString string) (models.Token, error) {
	token, err := utils.ValidateAndParseJWTToken(tokenString, s.cfg.TokenSignKey, s.cfg.TokenIssuer)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Token{}, ErrTokenIsExpired
		}
		return models.Token{}, err
	}

	return token, nil
}
