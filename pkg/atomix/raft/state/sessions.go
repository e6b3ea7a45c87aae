// Copyright 2019-present Open Networking Foundation.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package state

import (
	"sort"
	"sync"
	"time"

	raft "github.com/atomix/atomix-raft-node/pkg/atomix/raft/protocol"
)

// SessionState is the lifecycle state of a session
type SessionState int

const (
	// SessionOpen is an active session
	SessionOpen SessionState = iota
	// SessionUnstable is a session without a committed keep-alive within its timeout
	SessionUnstable
	// SessionExpired is a session expired by the leader
	SessionExpired
	// SessionClosed is a session closed by its client
	SessionClosed
)

// Result is a cached command response, replayed to deduplicate retransmissions
type Result struct {
	Output []byte
	Error  error
}

// Session is a client's logical connection to the state machine
type Session struct {
	// ID is the session identifier, assigned from the register entry's index
	ID raft.SessionID

	// ClientID is the client that registered the session
	ClientID raft.ClientID

	// Timeout is the session timeout
	Timeout time.Duration

	state           SessionState
	lastUpdated     int64
	commandSequence uint64
	requestSequence uint64
	eventIndex      raft.Index
	unregistering   bool
	results         map[uint64]*Result
	pendingRequests map[uint64]func()
	pendingQueries  map[uint64][]func()
	mu              sync.Mutex
}

func newSession(id raft.SessionID, client raft.ClientID, timeout time.Duration, timestamp int64) *Session {
	return &Session{
		ID:              id,
		ClientID:        client,
		Timeout:         timeout,
		state:           SessionOpen,
		lastUpdated:     timestamp,
		results:         make(map[uint64]*Result),
		pendingRequests: make(map[uint64]func()),
		pendingQueries:  make(map[uint64][]func()),
	}
}

// State returns the session's lifecycle state
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RequestSequence returns the highest request sequence received for the session
func (s *Session) RequestSequence() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestSequence
}

// CommandSequence returns the highest command sequence applied for the session
func (s *Session) CommandSequence() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commandSequence
}

// OrderRequest runs f immediately if the given sequence is next in order for
// the session, otherwise enqueues it to run once prior sequences have been
// received. Sequences at or below the request sequence run immediately; the
// state machine deduplicates them by replaying cached results.
func (s *Session) OrderRequest(sequence uint64, f func()) {
	s.mu.Lock()
	if sequence > s.requestSequence+1 {
		s.pendingRequests[sequence] = f
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	f()
}

// SetRequestSequence advances the request sequence and fires pending requests
// for sequences up to and including the next expected sequence (sequence+1)
// in ascending order
func (s *Session) SetRequestSequence(sequence uint64) {
	s.mu.Lock()
	if sequence <= s.requestSequence {
		s.mu.Unlock()
		return
	}
	s.requestSequence = sequence
	ready := s.takePendingRequests(sequence + 1)
	s.mu.Unlock()
	for _, f := range ready {
		f()
	}
}

// takePendingRequests removes and returns pending requests up to and including
// the given sequence, ordered by sequence. Must be called with the lock held.
func (s *Session) takePendingRequests(sequence uint64) []func() {
	if len(s.pendingRequests) == 0 {
		return nil
	}
	sequences := make([]uint64, 0, len(s.pendingRequests))
	for seq := range s.pendingRequests {
		if seq <= sequence {
			sequences = append(sequences, seq)
		}
	}
	sort.Slice(sequences, func(i, j int) bool {
		return sequences[i] < sequences[j]
	})
	ready := make([]func(), 0, len(sequences))
	for _, seq := range sequences {
		ready = append(ready, s.pendingRequests[seq])
		delete(s.pendingRequests, seq)
	}
	return ready
}

// OrderSequenceQuery runs f immediately if the session's command sequence has
// reached the given sequence, otherwise enqueues it until it has
func (s *Session) OrderSequenceQuery(sequence uint64, f func()) {
	s.mu.Lock()
	if sequence > s.commandSequence {
		s.pendingQueries[sequence] = append(s.pendingQueries[sequence], f)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	f()
}

// setCommandSequence advances the command sequence and fires pending sequence
// queries for sequences at or below it in ascending order
func (s *Session) setCommandSequence(sequence uint64) {
	s.mu.Lock()
	if sequence <= s.commandSequence {
		s.mu.Unlock()
		return
	}
	s.commandSequence = sequence
	var ready []func()
	if len(s.pendingQueries) > 0 {
		sequences := make([]uint64, 0, len(s.pendingQueries))
		for seq := range s.pendingQueries {
			if seq <= sequence {
				sequences = append(sequences, seq)
			}
		}
		sort.Slice(sequences, func(i, j int) bool {
			return sequences[i] < sequences[j]
		})
		for _, seq := range sequences {
			ready = append(ready, s.pendingQueries[seq]...)
			delete(s.pendingQueries, seq)
		}
	}
	s.mu.Unlock()
	for _, f := range ready {
		f()
	}
}

// getResult returns the cached result for the given command sequence
func (s *Session) getResult(sequence uint64) (*Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, ok := s.results[sequence]
	return result, ok
}

// cacheResult caches the result of the command at the given sequence
func (s *Session) cacheResult(sequence uint64, result *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[sequence] = result
}

// retireResults discards cached results the client has acknowledged receiving
func (s *Session) retireResults(commandSequence uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sequence := range s.results {
		if sequence <= commandSequence {
			delete(s.results, sequence)
		}
	}
}

// EventIndex returns the highest event index acknowledged by the client
func (s *Session) EventIndex() raft.Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventIndex
}

func (s *Session) setEventIndex(index raft.Index) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index > s.eventIndex {
		s.eventIndex = index
	}
}

// Unregistering returns true once the leader has appended an expiry unregister
// entry for the session
func (s *Session) Unregistering() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unregistering
}

// SetUnregistering latches the session as having an expiry unregister in flight
func (s *Session) SetUnregistering() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unregistering = true
}

func (s *Session) keepAlive(timestamp int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUpdated = timestamp
	if s.state == SessionUnstable {
		s.state = SessionOpen
	}
}

// suspect marks the session unstable if no keep-alive has been committed
// within the session timeout as of the given timestamp
func (s *Session) suspect(timestamp int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SessionOpen {
		return s.state == SessionUnstable
	}
	if timestamp-s.lastUpdated > int64(s.Timeout) {
		s.state = SessionUnstable
		return true
	}
	return false
}

func (s *Session) expire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionExpired || s.state == SessionClosed {
		return false
	}
	s.state = SessionExpired
	return true
}

func (s *Session) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionExpired || s.state == SessionClosed {
		return false
	}
	s.state = SessionClosed
	return true
}

// SessionManager tracks the sessions known to the state machine together with
// the transport bindings for connected clients. The address, connection, and
// client indexes are written by transport goroutines and must be concurrency
// safe; session internal state is guarded by the session's own lock.
type SessionManager struct {
	sessions    map[raft.SessionID]*Session
	clients     map[raft.ClientID]*Session
	addresses   sync.Map
	connections sync.Map

	expireListeners []func(*Session)
	closeListeners  []func(*Session)

	mu sync.RWMutex
}

// NewSessionManager returns an empty session manager
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[raft.SessionID]*Session),
		clients:  make(map[raft.ClientID]*Session),
	}
}

// GetSession returns the session with the given ID, or nil
func (m *SessionManager) GetSession(id raft.SessionID) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// GetClientSession returns the session registered by the given client, or nil
func (m *SessionManager) GetClientSession(client raft.ClientID) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clients[client]
}

// Sessions returns all sessions known to the state machine
func (m *SessionManager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

func (m *SessionManager) registerSession(session *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	m.clients[session.ClientID] = session
}

func (m *SessionManager) unregisterSession(session *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, session.ID)
	if m.clients[session.ClientID] == session {
		delete(m.clients, session.ClientID)
	}
}

// RegisterAddress records the server address a client is connected to
func (m *SessionManager) RegisterAddress(client raft.ClientID, address string) {
	m.addresses.Store(client, address)
}

// GetAddress returns the server address recorded for the given client
func (m *SessionManager) GetAddress(client raft.ClientID) (string, bool) {
	address, ok := m.addresses.Load(client)
	if !ok {
		return "", false
	}
	return address.(string), true
}

// RegisterConnection records a transport connection for a client
func (m *SessionManager) RegisterConnection(client raft.ClientID, connection interface{}) {
	m.connections.Store(client, connection)
}

// UnregisterConnection removes a client's transport connection
func (m *SessionManager) UnregisterConnection(client raft.ClientID) {
	m.connections.Delete(client)
}

// GetConnection returns the transport connection recorded for the given client
func (m *SessionManager) GetConnection(client raft.ClientID) (interface{}, bool) {
	return m.connections.Load(client)
}

// OnExpire registers a listener fired when a session is expired
func (m *SessionManager) OnExpire(listener func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireListeners = append(m.expireListeners, listener)
}

// OnClose registers a listener fired when a session is closed by its client
func (m *SessionManager) OnClose(listener func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeListeners = append(m.closeListeners, listener)
}

// suspectSessions marks sessions without a keep-alive within their timeout as
// unstable as of the given timestamp
func (m *SessionManager) suspectSessions(timestamp int64) {
	for _, session := range m.Sessions() {
		session.suspect(timestamp)
	}
}

func (m *SessionManager) expireSession(session *Session) {
	if session.expire() {
		m.unregisterSession(session)
		m.mu.RLock()
		listeners := append([]func(*Session){}, m.expireListeners...)
		m.mu.RUnlock()
		for _, listener := range listeners {
			listener(session)
		}
	}
}

func (m *SessionManager) closeSession(session *Session) {
	if session.close() {
		m.unregisterSession(session)
		m.mu.RLock()
		listeners := append([]func(*Session){}, m.closeListeners...)
		m.mu.RUnlock()
		for _, listener := range listeners {
			listener(session)
		}
	}
}
