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

package protocol

import (
	"testing"
	"time"

	"github.com/golang/protobuf/ptypes"
	"github.com/stretchr/testify/assert"
)

func TestConfigDefaults(t *testing.T) {
	config := &Config{}
	assert.Equal(t, 5*time.Second, config.GetElectionTimeoutOrDefault())
	assert.Equal(t, 2500*time.Millisecond, config.GetHeartbeatIntervalOrDefault())
	assert.Equal(t, 30*time.Second, config.GetSessionTimeoutOrDefault())
}

func TestConfigOverrides(t *testing.T) {
	config := &Config{
		ElectionTimeout:   ptypes.DurationProto(2 * time.Second),
		HeartbeatInterval: ptypes.DurationProto(250 * time.Millisecond),
		SessionTimeout:    ptypes.DurationProto(10 * time.Second),
	}
	assert.Equal(t, 2*time.Second, config.GetElectionTimeoutOrDefault())
	assert.Equal(t, 250*time.Millisecond, config.GetHeartbeatIntervalOrDefault())
	assert.Equal(t, 10*time.Second, config.GetSessionTimeoutOrDefault())
}

func TestRaftState(t *testing.T) {
	members := []*RaftMember{
		{
			MemberID: "foo",
			Type:     MemberType_ACTIVE,
			Address:  "localhost:5001",
		},
		{
			MemberID: "bar",
			Type:     MemberType_ACTIVE,
			Address:  "localhost:5002",
		},
	}
	metadata := &memoryMetadata{}
	raft := NewRaft("foo", NewConfiguration(members), &Config{}, metadata)

	assert.Equal(t, MemberID("foo"), raft.Member())
	assert.Equal(t, []MemberID{"bar", "foo"}, raft.Members())
	assert.NotNil(t, raft.GetMember("bar"))
	assert.Nil(t, raft.GetMember("qux"))

	address, ok := raft.Locate("bar")
	assert.True(t, ok)
	assert.Equal(t, "localhost:5002", address)

	// Setting a greater term clears the leader and the vote.
	raft.WriteLock()
	raft.SetLeader("foo")
	raft.SetLastVotedFor("foo")
	raft.SetTerm(2)
	assert.Equal(t, Term(2), raft.Term())
	assert.Equal(t, MemberID(""), raft.Leader())
	assert.Nil(t, raft.LastVotedFor())
	raft.WriteUnlock()

	// The term and vote are persisted to the metadata store.
	raft.WriteLock()
	raft.SetLastVotedFor("bar")
	raft.WriteUnlock()
	assert.Equal(t, Term(2), *metadata.LoadTerm())
	assert.Equal(t, MemberID("bar"), *metadata.LoadVote())

	// The commit index is monotonic.
	raft.WriteLock()
	raft.SetCommitIndex(10)
	raft.SetCommitIndex(5)
	raft.WriteUnlock()
	raft.ReadLock()
	assert.Equal(t, Index(10), raft.CommitIndex())
	raft.ReadUnlock()
}

// memoryMetadata is a MetadataStore for tests
type memoryMetadata struct {
	term *Term
	vote *MemberID
}

func (m *memoryMetadata) StoreTerm(term Term) {
	m.term = &term
}

func (m *memoryMetadata) LoadTerm() *Term {
	return m.term
}

func (m *memoryMetadata) StoreVote(vote *MemberID) {
	m.vote = vote
}

func (m *memoryMetadata) LoadVote() *MemberID {
	return m.vote
}
