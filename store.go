/*
Copyright 2025 Grand Hotel Checkin Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package checkin

import (
	"sync"
	"time"

	"github.com/grandhotel/checkin/verification"
)

// CheckInSession is the caller-facing snapshot of one active check-in.
type CheckInSession struct {
	ID            string                 `json:"id"`
	SessionID     string                 `json:"session_id"`
	EnvironmentID string                 `json:"environment_id"`
	QRCodeURL     string                 `json:"qr_code_url"`
	ExpiresAt     time.Time              `json:"expires_at,omitempty"`
	Status        verification.Status    `json:"status"`
	UserInfo      *verification.UserInfo `json:"user_info,omitempty"`
	LastError     string                 `json:"last_error,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

type storedSession struct {
	snapshot CheckInSession
	poller   *verification.Poller
}

// Store is the in-memory registry of active check-in sessions. Each entry
// owns exactly one poller; state never moves between entries.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*storedSession
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*storedSession)}
}

func (s *Store) Add(session CheckInSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = &storedSession{snapshot: session}
}

func (s *Store) AttachPoller(id string, poller *verification.Poller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored, ok := s.sessions[id]; ok {
		stored.poller = poller
	}
}

func (s *Store) Get(id string) (CheckInSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.sessions[id]
	if !ok {
		return CheckInSession{}, false
	}
	return stored.snapshot, true
}

// UpdateStatus records a status transition; UserInfo is only overwritten when
// the transition carries one.
func (s *Store) UpdateStatus(id string, status verification.Status, info *verification.UserInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[id]
	if !ok {
		return
	}
	stored.snapshot.Status = status
	stored.snapshot.LastError = ""
	if info != nil {
		stored.snapshot.UserInfo = info
	}
}

func (s *Store) SetLastError(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored, ok := s.sessions[id]; ok && err != nil {
		stored.snapshot.LastError = err.Error()
	}
}

// Remove drops the session and returns its poller so the caller can stop it
// outside the store lock.
func (s *Store) Remove(id string) (*verification.Poller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	delete(s.sessions, id)
	return stored.poller, true
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
