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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	raft "github.com/atomix/atomix-raft-node/pkg/atomix/raft/protocol"
)

func TestSessionOrderRequest(t *testing.T) {
	session := newSession(raft.SessionID(1), "client", time.Minute, time.Now().UnixNano())

	var order []uint64
	run := func(sequence uint64) func() {
		return func() {
			order = append(order, sequence)
			session.SetRequestSequence(sequence)
		}
	}

	// A request ahead of the next expected sequence is enqueued, not run.
	session.OrderRequest(5, run(5))
	assert.Empty(t, order)

	// Requests run in order as earlier sequences arrive.
	session.OrderRequest(1, run(1))
	assert.Equal(t, []uint64{1}, order)
	session.OrderRequest(2, run(2))
	assert.Equal(t, []uint64{1, 2}, order)

	// Sequence 3 unblocks 5 only after 4 has been received.
	session.OrderRequest(4, run(4))
	assert.Equal(t, []uint64{1, 2}, order)
	session.OrderRequest(3, run(3))
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, order)
	assert.Equal(t, uint64(5), session.RequestSequence())
}

func TestSessionDuplicateRequest(t *testing.T) {
	session := newSession(raft.SessionID(1), "client", time.Minute, time.Now().UnixNano())

	ran := 0
	session.OrderRequest(1, func() {
		ran++
		session.SetRequestSequence(1)
	})
	assert.Equal(t, 1, ran)

	// Duplicates at or below the request sequence proceed immediately; the
	// state machine deduplicates by replaying the stored response.
	session.OrderRequest(1, func() {
		ran++
	})
	assert.Equal(t, 2, ran)
}

func TestSessionOrderSequenceQuery(t *testing.T) {
	session := newSession(raft.SessionID(1), "client", time.Minute, time.Now().UnixNano())

	var order []uint64
	query := func(sequence uint64) func() {
		return func() {
			order = append(order, sequence)
		}
	}

	session.OrderSequenceQuery(2, query(2))
	session.OrderSequenceQuery(1, query(1))
	assert.Empty(t, order)

	// Queries at or below the command sequence run immediately.
	session.OrderSequenceQuery(0, query(0))
	assert.Equal(t, []uint64{0}, order)

	// Advancing the command sequence drains gated queries in order.
	session.setCommandSequence(1)
	assert.Equal(t, []uint64{0, 1}, order)
	session.setCommandSequence(2)
	assert.Equal(t, []uint64{0, 1, 2}, order)
}

func TestSessionResults(t *testing.T) {
	session := newSession(raft.SessionID(1), "client", time.Minute, time.Now().UnixNano())

	_, ok := session.getResult(1)
	assert.False(t, ok)

	session.cacheResult(1, &Result{Output: []byte("one")})
	session.cacheResult(2, &Result{Output: []byte("two")})

	result, ok := session.getResult(1)
	assert.True(t, ok)
	assert.Equal(t, "one", string(result.Output))

	// Results acknowledged by the client are retired.
	session.retireResults(1)
	_, ok = session.getResult(1)
	assert.False(t, ok)
	_, ok = session.getResult(2)
	assert.True(t, ok)
}

func TestSessionSuspicion(t *testing.T) {
	start := time.Now().UnixNano()
	session := newSession(raft.SessionID(1), "client", time.Second, start)
	assert.Equal(t, SessionOpen, session.State())

	// No suspicion within the timeout.
	session.suspect(start + int64(500*time.Millisecond))
	assert.Equal(t, SessionOpen, session.State())

	// Suspicion past the timeout.
	session.suspect(start + int64(2*time.Second))
	assert.Equal(t, SessionUnstable, session.State())

	// A keep-alive returns the session to the open state.
	session.keepAlive(start + int64(3*time.Second))
	assert.Equal(t, SessionOpen, session.State())
}

func TestSessionManagerListeners(t *testing.T) {
	manager := NewSessionManager()
	session := newSession(raft.SessionID(1), "client", time.Second, time.Now().UnixNano())
	manager.registerSession(session)

	expired := 0
	closed := 0
	manager.OnExpire(func(*Session) {
		expired++
	})
	manager.OnClose(func(*Session) {
		closed++
	})

	assert.Equal(t, session, manager.GetSession(raft.SessionID(1)))
	assert.Equal(t, session, manager.GetClientSession("client"))

	manager.expireSession(session)
	assert.Equal(t, 1, expired)
	assert.Equal(t, SessionExpired, session.State())
	assert.Nil(t, manager.GetSession(raft.SessionID(1)))

	// Expiry fires listeners exactly once.
	manager.expireSession(session)
	assert.Equal(t, 1, expired)
	assert.Equal(t, 0, closed)
}

func TestSessionManagerBindings(t *testing.T) {
	manager := NewSessionManager()

	manager.RegisterAddress("client", "localhost:5001")
	address, ok := manager.GetAddress("client")
	assert.True(t, ok)
	assert.Equal(t, "localhost:5001", address)

	manager.RegisterConnection("client", "conn-1")
	conn, ok := manager.GetConnection("client")
	assert.True(t, ok)
	assert.Equal(t, "conn-1", conn)

	manager.UnregisterConnection("client")
	_, ok = manager.GetConnection("client")
	assert.False(t, ok)
}
