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

package store

import (
	"bytes"
	"io"
	"sync"
	"time"

	raft "github.com/atomix/atomix-raft-node/pkg/atomix/raft/protocol"
)

// SnapshotStore stores state machine checkpoints
type SnapshotStore interface {
	// NewSnapshot creates a new snapshot at the given index
	NewSnapshot(index raft.Index, timestamp time.Time) Snapshot

	// CurrentSnapshot returns the most recent snapshot, or nil
	CurrentSnapshot() Snapshot
}

// Snapshot is a single state machine checkpoint
type Snapshot interface {
	// Index is the highest log index reflected in the snapshot
	Index() raft.Index

	// Timestamp is the time at which the snapshot was taken
	Timestamp() time.Time

	// Reader returns a reader over the snapshot bytes
	Reader() io.ReadCloser

	// Writer returns a writer for the snapshot bytes
	Writer() io.WriteCloser
}

// NewMemorySnapshotStore returns a snapshot store holding snapshots in memory
func NewMemorySnapshotStore() SnapshotStore {
	return &memorySnapshotStore{
		snapshots: make(map[raft.Index]Snapshot),
	}
}

type memorySnapshotStore struct {
	snapshots       map[raft.Index]Snapshot
	currentSnapshot Snapshot
	mu              sync.Mutex
}

func (s *memorySnapshotStore) NewSnapshot(index raft.Index, timestamp time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := &memorySnapshot{
		index:     index,
		timestamp: timestamp,
	}
	s.snapshots[index] = snapshot
	s.currentSnapshot = snapshot
	return snapshot
}

func (s *memorySnapshotStore) CurrentSnapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentSnapshot
}

type memorySnapshot struct {
	index     raft.Index
	timestamp time.Time
	bytes     []byte
}

func (s *memorySnapshot) Index() raft.Index {
	return s.index
}

func (s *memorySnapshot) Timestamp() time.Time {
	return s.timestamp
}

func (s *memorySnapshot) Reader() io.ReadCloser {
	return &memoryReader{
		reader: bytes.NewReader(s.bytes),
	}
}

func (s *memorySnapshot) Writer() io.WriteCloser {
	return &memoryWriter{
		snapshot: s,
	}
}

type memoryReader struct {
	reader io.Reader
}

func (r *memoryReader) Read(p []byte) (n int, err error) {
	return r.reader.Read(p)
}

func (r *memoryReader) Close() error {
	return nil
}

type memoryWriter struct {
	snapshot *memorySnapshot
}

func (w *memoryWriter) Write(p []byte) (n int, err error) {
	w.snapshot.bytes = append(w.snapshot.bytes, p...)
	return len(p), nil
}

func (w *memoryWriter) Close() error {
	return nil
}
