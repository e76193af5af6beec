// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/go-groupware-sync/internal/config"
	"github.com/MKhiriev/go-groupware-sync/internal/dispatch"
	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/internal/service"
	"github.com/MKhiriev/go-groupware-sync/internal/session"
	"github.com/MKhiriev/go-groupware-sync/internal/utils"
	"github.com/MKhiriev/go-groupware-sync/models"
)

// ---- Mock: SyncService ----

type mockSyncService struct {
	getChangesFn func(ctx context.Context, clientID uint64, req models.SyncRequest) (models.SyncResponse, error)
}

func (m *mockSyncService) GetChanges(ctx context.Context, clientID uint64, req models.SyncRequest) (models.SyncResponse, error) {
	if m.getChangesFn != nil {
		return m.getChangesFn(ctx, clientID, req)
	}
	return models.SyncResponse{}, nil
}

// ---- Mock: IdentityService ----

type mockIdentityService struct {
	issueTokenFn    func(ctx context.Context, clientID uint64) (models.Token, error)
	validateTokenFn func(tokenString string) (models.Token, error)
}

func (m *mockIdentityService) IssueToken(ctx context.Context, clientID uint64) (models.Token, error) {
	if m.issueTokenFn != nil {
		return m.issueTokenFn(ctx, clientID)
	}
	return models.Token{SignedString: "stub-token", ClientID: clientID}, nil
}

func (m *mockIdentityService) ValidateToken(tokenString string) (models.Token, error) {
	if m.validateTokenFn != nil {
		return m.validateTokenFn(tokenString)
	}
	return models.Token{}, errors.New("unexpected ValidateToken call")
}

// ---- Mock: MessageService ----

type mockMessageService struct {
	createFn   func(ctx context.Context, clientID uint64, folder models.SourceKey, flags uint32, category string) (models.Message, error)
	modifyFn   func(ctx context.Context, clientID uint64, msg models.Message) error
	setFlagsFn func(ctx context.Context, clientID uint64, sourceKey models.SourceKey, flags uint32) error
	deleteFn   func(ctx context.Context, clientID uint64, sourceKey models.SourceKey, soft bool) error
}

func (m *mockMessageService) CreateMessage(ctx context.Context, clientID uint64, folder models.SourceKey, flags uint32, category string) (models.Message, error) {
	if m.createFn != nil {
		return m.createFn(ctx, clientID, folder, flags, category)
	}
	return models.Message{}, nil
}

func (m *mockMessageService) ModifyMessage(ctx context.Context, clientID uint64, msg models.Message) error {
	if m.modifyFn != nil {
		return m.modifyFn(ctx, clientID, msg)
	}
	return nil
}

func (m *mockMessageService) SetMessageFlags(ctx context.Context, clientID uint64, sourceKey models.SourceKey, flags uint32) error {
	if m.setFlagsFn != nil {
		return m.setFlagsFn(ctx, clientID, sourceKey, flags)
	}
	return nil
}

func (m *mockMessageService) DeleteMessage(ctx context.Context, clientID uint64, sourceKey models.SourceKey, soft bool) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, clientID, sourceKey, soft)
	}
	return nil
}

// ---- Helpers ----

func newTestDispatcher(t *testing.T) *dispatch.Dispatcher {
	t.Helper()

	d := dispatch.NewDispatcher(config.Dispatch{
		Workers:          2,
		WatchdogMaxAge:   time.Second,
		WatchdogInterval: time.Second,
	}, logger.Nop())

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = d.Shutdown(ctx)
	})

	return d
}

func newTestHandler(t *testing.T, services *service.Services) *Handler {
	t.Helper()

	if services == nil {
		services = &service.Services{}
	}
	if services.SyncService == nil {
		services.SyncService = &mockSyncService{}
	}
	if services.IdentityService == nil {
		services.IdentityService = &mockIdentityService{}
	}
	if services.MessageService == nil {
		services.MessageService = &mockMessageService{}
	}

	return NewHandler(services, session.NewManager(logger.Nop()), newTestDispatcher(t), "test-version", logger.Nop())
}

func withClientID(ctx context.Context, clientID uint64) context.Context {
	return context.WithValue(ctx, utils.ClientIDCtxKey, clientID)
}

// withURLParam injects a chi URL parameter so handlers can be called
// directly without going through the router.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
