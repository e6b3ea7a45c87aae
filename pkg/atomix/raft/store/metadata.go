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
	"sync"

	raft "github.com/atomix/atomix-raft-node/pkg/atomix/raft/protocol"
)

// NewMemoryMetadataStore returns a metadata store holding term and vote in memory
func NewMemoryMetadataStore() raft.MetadataStore {
	return &memoryMetadataStore{}
}

// memoryMetadataStore implements MetadataStore in memory
type memoryMetadataStore struct {
	term *raft.Term
	vote *raft.MemberID
	mu   sync.RWMutex
}

func (s *memoryMetadataStore) StoreTerm(term raft.Term) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.term = &term
}

func (s *memoryMetadataStore) LoadTerm() *raft.Term {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.term
}

func (s *memoryMetadataStore) StoreVote(vote *raft.MemberID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vote = vote
}

func (s *memoryMetadataStore) LoadVote() *raft.MemberID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vote
}
