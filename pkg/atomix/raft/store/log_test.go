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
	"io/ioutil"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	raft "github.com/atomix/atomix-raft-node/pkg/atomix/raft/protocol"
)

func entry(term raft.Term) *raft.LogEntry {
	return &raft.LogEntry{
		Term:       term,
		Timestamp:  time.Now().UnixNano(),
		Initialize: &raft.InitializeEntry{},
	}
}

func TestMemoryLog(t *testing.T) {
	log := NewMemoryLog()
	writer := log.Writer()

	assert.Equal(t, raft.Index(0), writer.LastIndex())
	assert.Nil(t, writer.LastEntry())

	indexed := writer.Append(entry(1))
	assert.Equal(t, raft.Index(1), indexed.Index)
	assert.Equal(t, raft.Index(1), writer.LastIndex())

	writer.Append(entry(1))
	writer.Append(entry(2))
	assert.Equal(t, raft.Index(3), writer.LastIndex())
	assert.Equal(t, raft.Term(2), writer.LastEntry().Entry.Term)

	reader := log.OpenReader(0)
	assert.Equal(t, raft.Index(3), reader.LastIndex())
	assert.Equal(t, raft.Index(1), reader.NextIndex())

	first := reader.NextEntry()
	assert.NotNil(t, first)
	assert.Equal(t, raft.Index(1), first.Index)
	assert.Equal(t, raft.Index(1), reader.CurrentIndex())

	second := reader.NextEntry()
	assert.Equal(t, raft.Index(2), second.Index)

	reader.Reset(1)
	assert.Equal(t, raft.Index(1), reader.NextEntry().Index)

	// Truncating removes entries after the given index.
	writer.Truncate(1)
	assert.Equal(t, raft.Index(1), writer.LastIndex())
	reader.Reset(2)
	assert.Nil(t, reader.NextEntry())

	// Appending after a truncate reuses the truncated indexes.
	indexed = writer.Append(entry(3))
	assert.Equal(t, raft.Index(2), indexed.Index)
}

func TestMemoryMetadataStore(t *testing.T) {
	metadata := NewMemoryMetadataStore()
	assert.Nil(t, metadata.LoadTerm())
	assert.Nil(t, metadata.LoadVote())

	metadata.StoreTerm(raft.Term(1))
	term := metadata.LoadTerm()
	assert.NotNil(t, term)
	assert.Equal(t, raft.Term(1), *term)

	vote := raft.MemberID("foo")
	metadata.StoreVote(&vote)
	assert.Equal(t, raft.MemberID("foo"), *metadata.LoadVote())

	metadata.StoreVote(nil)
	assert.Nil(t, metadata.LoadVote())
}

func TestMemorySnapshotStore(t *testing.T) {
	snapshots := NewMemorySnapshotStore()
	assert.Nil(t, snapshots.CurrentSnapshot())

	timestamp := time.Now()
	snapshot := snapshots.NewSnapshot(raft.Index(10), timestamp)
	assert.Equal(t, raft.Index(10), snapshot.Index())
	assert.Equal(t, timestamp, snapshot.Timestamp())

	writer := snapshot.Writer()
	_, err := writer.Write([]byte("Hello world!"))
	assert.NoError(t, err)
	assert.NoError(t, writer.Close())

	current := snapshots.CurrentSnapshot()
	assert.NotNil(t, current)
	assert.Equal(t, raft.Index(10), current.Index())

	reader := current.Reader()
	bytes, err := ioutil.ReadAll(reader)
	assert.NoError(t, err)
	assert.NoError(t, reader.Close())
	assert.Equal(t, "Hello world!", string(bytes))
}
