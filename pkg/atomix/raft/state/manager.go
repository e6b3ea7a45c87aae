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
	"errors"
	"io/ioutil"
	"sort"
	"sync/atomic"
	"time"

	"github.com/gogo/protobuf/proto"

	raft "github.com/atomix/atomix-raft-node/pkg/atomix/raft/protocol"
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/store"
)

// Output is the result of applying an entry or query to the state machine
type Output struct {
	Value interface{}
	Error error
}

// Succeeded returns true if the operation succeeded
func (o Output) Succeeded() bool {
	return o.Error == nil
}

// Manager applies committed log entries to the application services and owns
// the session state derived from them. Entries are applied on a single
// goroutine in index order.
type Manager interface {
	// Apply applies the entry at the given index, sending the result on ch
	Apply(entry *raft.IndexedEntry, ch chan<- Output)

	// ApplyQuery applies a query once the state machine has caught up to the
	// query's index, sending the result on ch
	ApplyQuery(query *raft.QueryEntry, ch chan<- Output)

	// Sessions returns the session manager
	Sessions() *SessionManager

	// LastApplied returns the index of the last applied entry
	LastApplied() raft.Index

	// Checkpoint writes a snapshot of the registered services to the snapshot store
	Checkpoint() error

	// Close stops the apply loop
	Close() error
}

// NewManager returns a state machine manager applying entries to the given services
func NewManager(registry *Registry, snapshots store.SnapshotStore) Manager {
	m := &manager{
		registry:  registry,
		snapshots: snapshots,
		sessions:  NewSessionManager(),
		tasks:     make(chan task, 64),
		stopped:   make(chan struct{}),
		queries:   make(map[raft.Index][]task),
	}
	m.restore()
	go m.run()
	return m
}

type task struct {
	entry *raft.IndexedEntry
	query *raft.QueryEntry
	ch    chan<- Output
}

type manager struct {
	registry    *Registry
	snapshots   store.SnapshotStore
	sessions    *SessionManager
	tasks       chan task
	stopped     chan struct{}
	queries     map[raft.Index][]task
	lastApplied uint64
}

func (m *manager) Apply(entry *raft.IndexedEntry, ch chan<- Output) {
	select {
	case m.tasks <- task{entry: entry, ch: ch}:
	case <-m.stopped:
		if ch != nil {
			ch <- Output{Error: errClosed}
		}
	}
}

func (m *manager) ApplyQuery(query *raft.QueryEntry, ch chan<- Output) {
	select {
	case m.tasks <- task{query: query, ch: ch}:
	case <-m.stopped:
		if ch != nil {
			ch <- Output{Error: errClosed}
		}
	}
}

func (m *manager) Sessions() *SessionManager {
	return m.sessions
}

func (m *manager) LastApplied() raft.Index {
	return raft.Index(atomic.LoadUint64(&m.lastApplied))
}

func (m *manager) Close() error {
	close(m.stopped)
	return nil
}

func (m *manager) run() {
	for {
		select {
		case t := <-m.tasks:
			if t.entry != nil {
				m.applyEntry(t)
			} else if t.query != nil {
				m.applyQuery(t)
			}
		case <-m.stopped:
			return
		}
	}
}

func (m *manager) applyEntry(t task) {
	value, err := m.execute(t.entry)
	if t.entry.Index > m.LastApplied() {
		atomic.StoreUint64(&m.lastApplied, uint64(t.entry.Index))
	}
	if t.ch != nil {
		t.ch <- Output{Value: value, Error: err}
	}
	m.drainQueries()
}

// drainQueries runs index-gated queries the state machine has caught up to
func (m *manager) drainQueries() {
	if len(m.queries) == 0 {
		return
	}
	lastApplied := m.LastApplied()
	indexes := make([]raft.Index, 0, len(m.queries))
	for index := range m.queries {
		if index <= lastApplied {
			indexes = append(indexes, index)
		}
	}
	sort.Slice(indexes, func(i, j int) bool {
		return indexes[i] < indexes[j]
	})
	for _, index := range indexes {
		tasks := m.queries[index]
		delete(m.queries, index)
		for _, t := range tasks {
			m.executeQuery(t)
		}
	}
}

func (m *manager) applyQuery(t task) {
	if t.query.Index > m.LastApplied() {
		m.queries[t.query.Index] = append(m.queries[t.query.Index], t)
		return
	}
	m.executeQuery(t)
}

func (m *manager) executeQuery(t task) {
	session := m.sessions.GetSession(t.query.SessionID)
	if session == nil {
		t.ch <- Output{Error: ErrUnknownSession}
		return
	}
	service := m.registry.GetService(t.query.Name)
	if service == nil {
		t.ch <- Output{Error: ErrUnknownService}
		return
	}
	output, err := service.Query(t.query.Input)
	if err != nil {
		err = &applyError{cause: err}
	}
	t.ch <- Output{Value: output, Error: err}
}

func (m *manager) execute(entry *raft.IndexedEntry) (interface{}, error) {
	e := entry.Entry
	switch {
	case e.Initialize != nil:
		m.sessions.suspectSessions(e.Timestamp)
		return nil, nil
	case e.Configuration != nil:
		m.sessions.suspectSessions(e.Timestamp)
		return nil, nil
	case e.Register != nil:
		return m.applyRegister(entry.Index, e.Timestamp, e.Register)
	case e.Connect != nil:
		m.sessions.RegisterAddress(e.Connect.ClientID, e.Connect.Address)
		return nil, nil
	case e.KeepAlive != nil:
		return m.applyKeepAlive(e.Timestamp, e.KeepAlive)
	case e.Command != nil:
		return m.applyCommand(e.Timestamp, e.Command)
	case e.Unregister != nil:
		return m.applyUnregister(e.Unregister)
	}
	return nil, nil
}

func (m *manager) applyRegister(index raft.Index, timestamp int64, register *raft.RegisterEntry) (interface{}, error) {
	session := newSession(raft.SessionID(index), register.ClientID, time.Duration(register.Timeout)*time.Millisecond, timestamp)
	m.sessions.registerSession(session)
	m.sessions.suspectSessions(timestamp)
	return session.ID, nil
}

func (m *manager) applyKeepAlive(timestamp int64, keepAlive *raft.KeepAliveEntry) (interface{}, error) {
	session := m.sessions.GetSession(keepAlive.SessionID)
	if session == nil {
		return nil, ErrUnknownSession
	}
	session.keepAlive(timestamp)
	session.retireResults(keepAlive.CommandSequence)
	session.setEventIndex(keepAlive.EventIndex)
	m.sessions.suspectSessions(timestamp)
	return nil, nil
}

func (m *manager) applyCommand(timestamp int64, command *raft.CommandEntry) (interface{}, error) {
	session := m.sessions.GetSession(command.SessionID)
	if session == nil {
		return nil, ErrUnknownSession
	}

	// Replay the cached result for a retransmitted command. A result missing
	// from the cache was already acknowledged by the client via keep-alive.
	if command.Sequence <= session.CommandSequence() {
		if result, ok := session.getResult(command.Sequence); ok {
			return result.Output, result.Error
		}
		return nil, nil
	}

	service := m.registry.GetService(command.Name)
	if service == nil {
		return nil, ErrUnknownService
	}

	output, err := service.Command(command.Input)
	if err != nil {
		err = &applyError{cause: err}
	}
	session.cacheResult(command.Sequence, &Result{Output: output, Error: err})
	session.keepAlive(timestamp)
	session.setCommandSequence(command.Sequence)
	return output, err
}

func (m *manager) applyUnregister(unregister *raft.UnregisterEntry) (interface{}, error) {
	session := m.sessions.GetSession(unregister.SessionID)
	if session == nil {
		return nil, ErrUnknownSession
	}
	if unregister.Expired {
		m.sessions.expireSession(session)
	} else {
		m.sessions.closeSession(session)
	}
	return nil, nil
}

// serviceSnapshot is the checkpoint of a single named service
type serviceSnapshot struct {
	Name string `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	Data []byte `protobuf:"bytes,2,opt,name=data,proto3" json:"data,omitempty"`
}

func (m *serviceSnapshot) Reset()         { *m = serviceSnapshot{} }
func (m *serviceSnapshot) String() string { return proto.CompactTextString(m) }
func (*serviceSnapshot) ProtoMessage()    {}

// managerSnapshot is the checkpoint of all registered services
type managerSnapshot struct {
	Index    uint64             `protobuf:"varint,1,opt,name=index,proto3" json:"index,omitempty"`
	Services []*serviceSnapshot `protobuf:"bytes,2,rep,name=services,proto3" json:"services,omitempty"`
}

func (m *managerSnapshot) Reset()         { *m = managerSnapshot{} }
func (m *managerSnapshot) String() string { return proto.CompactTextString(m) }
func (*managerSnapshot) ProtoMessage()    {}

func (m *manager) Checkpoint() error {
	snapshot := &managerSnapshot{
		Index: uint64(m.LastApplied()),
	}
	for _, name := range m.registry.names() {
		service, ok := m.registry.GetService(name).(SnapshottableService)
		if !ok {
			continue
		}
		data, err := service.Snapshot()
		if err != nil {
			return err
		}
		snapshot.Services = append(snapshot.Services, &serviceSnapshot{
			Name: name,
			Data: data,
		})
	}

	bytes, err := proto.Marshal(snapshot)
	if err != nil {
		return err
	}

	writer := m.snapshots.NewSnapshot(m.LastApplied(), time.Now()).Writer()
	defer writer.Close()
	_, err = writer.Write(bytes)
	return err
}

func (m *manager) restore() {
	current := m.snapshots.CurrentSnapshot()
	if current == nil {
		return
	}

	reader := current.Reader()
	defer reader.Close()
	bytes, err := ioutil.ReadAll(reader)
	if err != nil {
		return
	}

	snapshot := &managerSnapshot{}
	if err := proto.Unmarshal(bytes, snapshot); err != nil {
		return
	}

	for _, ss := range snapshot.Services {
		if service, ok := m.registry.GetService(ss.Name).(SnapshottableService); ok {
			_ = service.Restore(ss.Data)
		}
	}
	atomic.StoreUint64(&m.lastApplied, snapshot.Index)
}

var errClosed = errors.New("state machine closed")
