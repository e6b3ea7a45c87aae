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
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/store"
)

// valueService stores the last command input and returns it for queries
type valueService struct {
	value    []byte
	commands int
}

func (s *valueService) Command(input []byte) ([]byte, error) {
	s.commands++
	s.value = input
	return input, nil
}

func (s *valueService) Query(input []byte) ([]byte, error) {
	return s.value, nil
}

func (s *valueService) Snapshot() ([]byte, error) {
	return s.value, nil
}

func (s *valueService) Restore(data []byte) error {
	s.value = data
	return nil
}

func newTestManager(service Service) Manager {
	registry := NewRegistry()
	registry.Register("value", service)
	return NewManager(registry, store.NewMemorySnapshotStore())
}

func apply(m Manager, index raft.Index, entry *raft.LogEntry) Output {
	ch := make(chan Output, 1)
	m.Apply(&raft.IndexedEntry{Index: index, Entry: entry}, ch)
	return <-ch
}

func registerEntry(timestamp int64, timeout time.Duration) *raft.LogEntry {
	return &raft.LogEntry{
		Term:      1,
		Timestamp: timestamp,
		Register: &raft.RegisterEntry{
			ClientID: "client",
			Timeout:  int64(timeout / time.Millisecond),
		},
	}
}

func commandEntry(timestamp int64, sessionID raft.SessionID, sequence uint64, input string) *raft.LogEntry {
	return &raft.LogEntry{
		Term:      1,
		Timestamp: timestamp,
		Command: &raft.CommandEntry{
			SessionID: sessionID,
			Sequence:  sequence,
			Name:      "value",
			Input:     []byte(input),
		},
	}
}

func TestManagerRegisterAndCommand(t *testing.T) {
	service := &valueService{}
	manager := newTestManager(service)
	defer manager.Close()

	now := time.Now().UnixNano()
	output := apply(manager, 1, registerEntry(now, time.Minute))
	assert.NoError(t, output.Error)
	sessionID := output.Value.(raft.SessionID)
	assert.Equal(t, raft.SessionID(1), sessionID)

	output = apply(manager, 2, commandEntry(now, sessionID, 1, "Hello world!"))
	assert.NoError(t, output.Error)
	assert.Equal(t, "Hello world!", string(output.Value.([]byte)))
	assert.Equal(t, raft.Index(2), manager.LastApplied())

	session := manager.Sessions().GetSession(sessionID)
	assert.NotNil(t, session)
	assert.Equal(t, uint64(1), session.CommandSequence())
}

func TestManagerCommandDedup(t *testing.T) {
	service := &valueService{}
	manager := newTestManager(service)
	defer manager.Close()

	now := time.Now().UnixNano()
	output := apply(manager, 1, registerEntry(now, time.Minute))
	sessionID := output.Value.(raft.SessionID)

	first := apply(manager, 2, commandEntry(now, sessionID, 1, "Hello world!"))
	assert.NoError(t, first.Error)

	// Replaying a command with the same sequence yields the stored response
	// without re-invoking the service.
	second := apply(manager, 3, commandEntry(now, sessionID, 1, "Hello world!"))
	assert.NoError(t, second.Error)
	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, 1, service.commands)
}

func TestManagerUnknownSession(t *testing.T) {
	manager := newTestManager(&valueService{})
	defer manager.Close()

	now := time.Now().UnixNano()
	output := apply(manager, 1, commandEntry(now, raft.SessionID(42), 1, "nope"))
	assert.Equal(t, ErrUnknownSession, output.Error)
}

func TestManagerKeepAliveRetiresResults(t *testing.T) {
	manager := newTestManager(&valueService{})
	defer manager.Close()

	now := time.Now().UnixNano()
	output := apply(manager, 1, registerEntry(now, time.Minute))
	sessionID := output.Value.(raft.SessionID)

	apply(manager, 2, commandEntry(now, sessionID, 1, "one"))
	apply(manager, 3, commandEntry(now, sessionID, 2, "two"))

	session := manager.Sessions().GetSession(sessionID)
	_, ok := session.getResult(1)
	assert.True(t, ok)

	output = apply(manager, 4, &raft.LogEntry{
		Term:      1,
		Timestamp: now,
		KeepAlive: &raft.KeepAliveEntry{
			SessionID:       sessionID,
			CommandSequence: 1,
		},
	})
	assert.NoError(t, output.Error)

	_, ok = session.getResult(1)
	assert.False(t, ok)
	_, ok = session.getResult(2)
	assert.True(t, ok)
}

func TestManagerSessionExpiry(t *testing.T) {
	manager := newTestManager(&valueService{})
	defer manager.Close()

	expired := 0
	manager.Sessions().OnExpire(func(*Session) {
		expired++
	})

	start := time.Now().UnixNano()
	output := apply(manager, 1, registerEntry(start, time.Second))
	unstableID := output.Value.(raft.SessionID)

	output = apply(manager, 2, &raft.LogEntry{
		Term:      1,
		Timestamp: start,
		Register: &raft.RegisterEntry{
			ClientID: "other",
			Timeout:  int64(time.Minute / time.Millisecond),
		},
	})
	stableID := output.Value.(raft.SessionID)

	// A keep-alive committed past the first session's timeout marks it unstable.
	output = apply(manager, 3, &raft.LogEntry{
		Term:      1,
		Timestamp: start + int64(2*time.Second),
		KeepAlive: &raft.KeepAliveEntry{
			SessionID: stableID,
		},
	})
	assert.NoError(t, output.Error)

	unstable := manager.Sessions().GetSession(unstableID)
	assert.Equal(t, SessionUnstable, unstable.State())
	assert.Equal(t, 0, expired)

	// The leader's expiry unregister transitions the session to expired and
	// fires listeners exactly once.
	output = apply(manager, 4, &raft.LogEntry{
		Term:      1,
		Timestamp: start + int64(2*time.Second),
		Unregister: &raft.UnregisterEntry{
			SessionID: unstableID,
			Expired:   true,
		},
	})
	assert.NoError(t, output.Error)
	assert.Equal(t, SessionExpired, unstable.State())
	assert.Equal(t, 1, expired)
	assert.Nil(t, manager.Sessions().GetSession(unstableID))

	output = apply(manager, 5, &raft.LogEntry{
		Term:      1,
		Timestamp: start + int64(2*time.Second),
		Unregister: &raft.UnregisterEntry{
			SessionID: unstableID,
			Expired:   true,
		},
	})
	assert.Equal(t, ErrUnknownSession, output.Error)
	assert.Equal(t, 1, expired)
}

// failingService returns an application error for every command
type failingService struct{}

func (s *failingService) Command(input []byte) ([]byte, error) {
	return nil, NewOperationError("OUT_OF_RANGE", "value out of range")
}

func (s *failingService) Query(input []byte) ([]byte, error) {
	return nil, nil
}

func TestManagerApplicationError(t *testing.T) {
	manager := newTestManager(&failingService{})
	defer manager.Close()

	now := time.Now().UnixNano()
	output := apply(manager, 1, registerEntry(now, time.Minute))
	sessionID := output.Value.(raft.SessionID)

	output = apply(manager, 2, commandEntry(now, sessionID, 1, "boom"))
	assert.Error(t, output.Error)

	// Application errors are surfaced through one layer of apply composition.
	opErr, ok := AsOperationError(output.Error)
	assert.True(t, ok)
	assert.Equal(t, "OUT_OF_RANGE", opErr.Kind)
}

func TestManagerQueryIndexGating(t *testing.T) {
	service := &valueService{}
	manager := newTestManager(service)
	defer manager.Close()

	now := time.Now().UnixNano()
	output := apply(manager, 1, registerEntry(now, time.Minute))
	sessionID := output.Value.(raft.SessionID)

	// A query gated on an index the state machine has not reached waits for it.
	ch := make(chan Output, 1)
	manager.ApplyQuery(&raft.QueryEntry{
		SessionID: sessionID,
		Index:     2,
		Name:      "value",
	}, ch)

	select {
	case <-ch:
		t.Fatal("query applied before the state machine caught up")
	case <-time.After(100 * time.Millisecond):
	}

	apply(manager, 2, commandEntry(now, sessionID, 1, "Hello world!"))

	select {
	case output := <-ch:
		assert.NoError(t, output.Error)
		assert.Equal(t, "Hello world!", string(output.Value.([]byte)))
	case <-time.After(time.Second):
		t.Fatal("query not applied after the state machine caught up")
	}
}

func TestManagerCheckpointRestore(t *testing.T) {
	snapshots := store.NewMemorySnapshotStore()

	service := &valueService{}
	registry := NewRegistry()
	registry.Register("value", service)
	manager := NewManager(registry, snapshots)

	now := time.Now().UnixNano()
	output := apply(manager, 1, registerEntry(now, time.Minute))
	sessionID := output.Value.(raft.SessionID)
	apply(manager, 2, commandEntry(now, sessionID, 1, "Hello world!"))

	assert.NoError(t, manager.Checkpoint())
	assert.NoError(t, manager.Close())

	restoredService := &valueService{}
	restoredRegistry := NewRegistry()
	restoredRegistry.Register("value", restoredService)
	restored := NewManager(restoredRegistry, snapshots)
	defer restored.Close()

	assert.Equal(t, raft.Index(2), restored.LastApplied())
	assert.Equal(t, "Hello world!", string(restoredService.value))
}
