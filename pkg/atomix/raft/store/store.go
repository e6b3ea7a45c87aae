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
	raft "github.com/atomix/atomix-raft-node/pkg/atomix/raft/protocol"
)

// Store aggregates the stores backing a Raft server
type Store interface {
	// Log returns the Raft log
	Log() Log

	// Writer returns the log writer
	Writer() LogWriter

	// OpenReader opens a new log reader positioned at the given index
	OpenReader(index raft.Index) LogReader

	// Metadata returns the metadata store
	Metadata() raft.MetadataStore

	// Snapshot returns the snapshot store
	Snapshot() SnapshotStore
}

// NewMemoryStore returns a store backed entirely by memory
func NewMemoryStore() Store {
	return &memoryStore{
		log:      NewMemoryLog(),
		metadata: NewMemoryMetadataStore(),
		snapshot: NewMemorySnapshotStore(),
	}
}

type memoryStore struct {
	log      Log
	metadata raft.MetadataStore
	snapshot SnapshotStore
}

func (s *memoryStore) Log() Log {
	return s.log
}

func (s *memoryStore) Writer() LogWriter {
	return s.log.Writer()
}

func (s *memoryStore) OpenReader(index raft.Index) LogReader {
	return s.log.OpenReader(index)
}

func (s *memoryStore) Metadata() raft.MetadataStore {
	return s.metadata
}

func (s *memoryStore) Snapshot() SnapshotStore {
	return s.snapshot
}
