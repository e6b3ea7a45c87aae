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

package roles

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	protocol "github.com/atomix/atomix-raft-node/pkg/atomix/raft/protocol"
)

func TestAppenderCommitGatedOnInitialize(t *testing.T) {
	// With the peers unreachable, nothing can reach a quorum: the commit index
	// must remain below the Initialize entry's index.
	c := buildTestLeader(t, 2*time.Second)
	c.setFailing(true)
	c.start()

	time.Sleep(300 * time.Millisecond)
	c.raft.ReadLock()
	commitIndex := c.raft.CommitIndex()
	c.raft.ReadUnlock()
	assert.Equal(t, protocol.Index(0), commitIndex)
	assert.True(t, c.leader.initializing())

	// Once the peers recover, the Initialize entry reaches a quorum and the
	// commit index advances.
	c.setFailing(false)
	c.awaitReady(t)
	c.raft.ReadLock()
	assert.True(t, c.raft.CommitIndex() >= 2)
	c.raft.ReadUnlock()
	c.stop()
}

func TestAppenderIndexTracksAppends(t *testing.T) {
	c := newTestLeader(t, 30*time.Second)
	defer c.stop()
	c.awaitReady(t)

	// The appender's index tracks the highest entry appended by this leader.
	assert.Equal(t, c.store.Writer().LastIndex(), c.leader.appender.index())

	sessionID := c.register(t)
	assert.Equal(t, c.store.Writer().LastIndex(), c.leader.appender.index())

	_, err := c.leader.Command(context.Background(), &protocol.CommandRequest{
		SessionID: sessionID,
		Sequence:  1,
		Name:      "value",
		Input:     []byte("x"),
	})
	assert.NoError(t, err)
	assert.Equal(t, c.store.Writer().LastIndex(), c.leader.appender.index())
}

func TestAppenderHeartbeatQuorum(t *testing.T) {
	c := newTestLeader(t, 30*time.Second)
	defer c.stop()
	c.awaitReady(t)

	// A heartbeat completes once a majority of the cluster acknowledges it.
	assert.NoError(t, c.leader.appender.heartbeat())
}
