// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package session tracks live sync sessions, their grouping, and their
// change subscriptions. Sessions are addressed by id, never by pointer:
// a handler acquires a session for the duration of one request and the
// registry refuses to tear a session down while it is acquired.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MKhiriev/go-groupware-sync/internal/logger"
	"github.com/MKhiriev/go-groupware-sync/models"
)

var (
	// ErrSessionNotFound is returned for an unknown or removed session id.
	ErrSessionNotFound = errors.New("session not found")
)

// notifyBuffer is the per-session capacity for pending change
// notifications; events beyond it are dropped, the client resyncs.
const notifyBuffer = 64

// Session is the registry's record of one live sync session.
type Session struct {
	ID       uint64
	ClientID uint64
	GroupID  uint64

	created time.Time
	lastUse time.Time

	// acquisitions counts in-flight request handlers holding the
	// session; removal waits for it to reach zero.
	acquisitions int
	removing     bool

	notify chan models.ChangeEvent
}

// Events exposes the session's pending change notifications.
func (s *Session) Events() <-chan models.ChangeEvent {
	return s.notify
}

// Manager is the session registry. One instance serves the whole
// server.
type Manager struct {
	mu   sync.RWMutex
	cond *sync.Cond

	sessions map[uint64]*Session
	nextID   uint64

	// groups maps a session group id to its member session ids; all
	// members belong to the same client installation and share
	// notifications.
	groups map[uint64]map[uint64]struct{}

	// folderSubs and objectSubs map a sourcekey (raw bytes) to the
	// session ids subscribed to it.
	folderSubs map[string]map[uint64]struct{}
	objectSubs map[string]map[uint64]struct{}

	logger *logger.Logger
}

// NewManager constructs an empty registry.
func NewManager(log *logger.Logger) *Manager {
	m := &Manager{
		sessions:   make(map[uint64]*Session),
		groups:     make(map[uint64]map[uint64]struct{}),
		folderSubs: make(map[string]map[uint64]struct{}),
		objectSubs: make(map[string]map[uint64]struct{}),
		logger:     log,
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// CreateSession registers a new session for clientID in the given group
// and returns its id. Group 0 means "no group".
func (m *Manager) CreateSession(clientID, groupID uint64) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	now := time.Now()
	m.sessions[id] = &Session{
		ID:       id,
		ClientID: clientID,
		GroupID:  groupID,
		created:  now,
		lastUse:  now,
		notify:   make(chan models.ChangeEvent, notifyBuffer),
	}

	if groupID != 0 {
		members, ok := m.groups[groupID]
		if !ok {
			members = make(map[uint64]struct{})
			m.groups[groupID] = members
		}
		members[id] = struct{}{}
	}

	m.logger.Debug().
		Str("func", "Manager.CreateSession").
		Uint64("session", id).
		Uint64("client", clientID).
		Msg("session created")

	return id
}

// Acquire pins the session for the duration of one request. The
// returned release function must be called exactly once; removal of an
// acquired session blocks until every holder has released it.
func (m *Manager) Acquire(id uint64) (*Session, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || s.removing {
		return nil, nil, ErrSessionNotFound
	}

	s.acquisitions++
	s.lastUse = time.Now()

	release := func() {
		m.mu.Lock()
		s.acquisitions--
		if s.acquisitions == 0 {
			m.cond.Broadcast()
		}
		m.mu.Unlock()
	}

	return s, release, nil
}

// RemoveSession tears the session down, waiting for in-flight holders
// to release it first.
func (m *Manager) RemoveSession(id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || s.removing {
		return ErrSessionNotFound
	}

	s.removing = true
	for s.acquisitions > 0 {
		m.cond.Wait()
	}

	delete(m.sessions, id)
	if s.GroupID != 0 {
		if members, ok := m.groups[s.GroupID]; ok {
			delete(members, id)
			if len(members) == 0 {
				delete(m.groups, s.GroupID)
			}
		}
	}
	m.dropSubscriptionsLocked(m.folderSubs, id)
	m.dropSubscriptionsLocked(m.objectSubs, id)
	close(s.notify)

	m.logger.Debug().
		Str("func", "Manager.RemoveSession").
		Uint64("session", id).
		Msg("session removed")

	return nil
}

// SessionCount reports the number of live sessions.
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SubscribeFolder registers the session for change events in a folder.
func (m *Manager) SubscribeFolder(id uint64, folder models.SourceKey) error {
	return m.subscribe(m.folderSubs, id, folder)
}

// UnsubscribeFolder drops a folder subscription.
func (m *Manager) UnsubscribeFolder(id uint64, folder models.SourceKey) {
	m.unsubscribe(m.folderSubs, id, folder)
}

// SubscribeObject registers the session for change events of a single
// message.
func (m *Manager) SubscribeObject(id uint64, object models.SourceKey) error {
	return m.subscribe(m.objectSubs, id, object)
}

// UnsubscribeObject drops an object subscription.
func (m *Manager) UnsubscribeObject(id uint64, object models.SourceKey) {
	m.unsubscribe(m.objectSubs, id, object)
}

func (m *Manager) subscribe(subs map[string]map[uint64]struct{}, id uint64, key models.SourceKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || s.removing {
		return ErrSessionNotFound
	}

	set, ok := subs[string(key)]
	if !ok {
		set = make(map[uint64]struct{})
		subs[string(key)] = set
	}
	set[id] = struct{}{}
	return nil
}

func (m *Manager) unsubscribe(subs map[string]map[uint64]struct{}, id uint64, key models.SourceKey) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if set, ok := subs[string(key)]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(subs, string(key))
		}
	}
}

func (m *Manager) dropSubscriptionsLocked(subs map[string]map[uint64]struct{}, id uint64) {
	for key, set := range subs {
		delete(set, id)
		if len(set) == 0 {
			delete(subs, key)
		}
	}
}

// NotifyChange fans a change event out to every session subscribed to
// the event's folder or message, except sessions of the originating
// client. Slow consumers lose events; their next sync catches them up.
func (m *Manager) NotifyChange(ctx context.Context, originClientID uint64, event models.ChangeEvent) {
	log := logger.FromContext(ctx)

	m.mu.RLock()
	defer m.mu.RUnlock()

	targets := make(map[uint64]struct{})
	for id := range m.folderSubs[string(event.ParentSourceKey)] {
		targets[id] = struct{}{}
	}
	for id := range m.objectSubs[string(event.SourceKey)] {
		targets[id] = struct{}{}
	}

	for id := range targets {
		s, ok := m.sessions[id]
		if !ok || s.removing || s.ClientID == originClientID {
			continue
		}

		select {
		case s.notify <- event:
		default:
			log.Warn().
				Str("func", "Manager.NotifyChange").
				Uint64("session", id).
				Msg("notification buffer full, event dropped")
		}
	}
}
