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
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/golang/protobuf/ptypes"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"

	protocol "github.com/atomix/atomix-raft-node/pkg/atomix/raft/protocol"
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/protocol/mock"
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/state"
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

// testLeader is a leader over a three-member cluster whose peers are mocked to
// acknowledge replication until failing is set
type testLeader struct {
	raft    protocol.Raft
	state   state.Manager
	store   store.Store
	service *valueService
	leader  *LeaderRole
	failing int32
}

func (c *testLeader) setFailing(failing bool) {
	if failing {
		atomic.StoreInt32(&c.failing, 1)
	} else {
		atomic.StoreInt32(&c.failing, 0)
	}
}

func newTestLeader(t *testing.T, electionTimeout time.Duration) *testLeader {
	c := buildTestLeader(t, electionTimeout)
	c.start()
	return c
}

func buildTestLeader(t *testing.T, electionTimeout time.Duration) *testLeader {
	ctrl := gomock.NewController(t)
	c := &testLeader{
		service: &valueService{},
	}

	peer := mock.NewMockRaftServiceClient(ctrl)
	peer.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, request *protocol.AppendRequest, opts ...grpc.CallOption) (*protocol.AppendResponse, error) {
			if atomic.LoadInt32(&c.failing) == 1 {
				return nil, errors.New("connection refused")
			}
			return &protocol.AppendResponse{
				Status:       protocol.ResponseStatus_OK,
				Term:         request.Term,
				Succeeded:    true,
				LastLogIndex: request.PrevLogIndex + protocol.Index(len(request.Entries)),
			}, nil
		}).AnyTimes()
	peer.EXPECT().Poll(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, request *protocol.PollRequest, opts ...grpc.CallOption) (*protocol.PollResponse, error) {
			return &protocol.PollResponse{
				Status:   protocol.ResponseStatus_OK,
				Term:     request.Term,
				Accepted: false,
			}, nil
		}).AnyTimes()
	peer.EXPECT().Vote(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, request *protocol.VoteRequest, opts ...grpc.CallOption) (*protocol.VoteResponse, error) {
			return &protocol.VoteResponse{
				Status: protocol.ResponseStatus_OK,
				Term:   request.Term,
				Voted:  false,
			}, nil
		}).AnyTimes()

	client := mock.NewMockClient(ctrl)
	client.EXPECT().Connect(gomock.Any()).Return(peer, nil).AnyTimes()
	client.EXPECT().Reset(gomock.Any()).AnyTimes()
	client.EXPECT().Close().Return(nil).AnyTimes()

	members := []*protocol.RaftMember{
		{
			MemberID: "foo",
			Type:     protocol.MemberType_ACTIVE,
			Status:   protocol.MemberStatus_AVAILABLE,
			Address:  "localhost:5001",
		},
		{
			MemberID: "bar",
			Type:     protocol.MemberType_ACTIVE,
			Status:   protocol.MemberStatus_AVAILABLE,
			Address:  "localhost:5002",
		},
		{
			MemberID: "baz",
			Type:     protocol.MemberType_ACTIVE,
			Status:   protocol.MemberStatus_AVAILABLE,
			Address:  "localhost:5003",
		},
	}
	configuration := protocol.NewConfiguration(members)
	config := &protocol.Config{
		ElectionTimeout: ptypes.DurationProto(electionTimeout),
	}

	stores := store.NewMemoryStore()
	registry := state.NewRegistry()
	registry.Register("value", c.service)
	sm := state.NewManager(registry, stores.Snapshot())
	r := protocol.NewRaft("foo", configuration, config, stores.Metadata(), protocol.WithClient(client))

	r.WriteLock()
	r.SetTerm(1)
	r.WriteUnlock()

	leader := newLeaderRole(r, sm, stores).(*LeaderRole)
	c.raft = r
	c.state = sm
	c.store = stores
	c.leader = leader
	return c
}

func (c *testLeader) start() {
	c.raft.SetRole(c.leader)
}

func (c *testLeader) awaitReady(t *testing.T) {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if !c.leader.initializing() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for the leader to initialize")
}

func (c *testLeader) register(t *testing.T) protocol.SessionID {
	response, err := c.leader.Register(context.Background(), &protocol.RegisterRequest{
		ClientID: "client",
	})
	assert.NoError(t, err)
	assert.Equal(t, protocol.ResponseStatus_OK, response.Status)
	return response.SessionID
}

func (c *testLeader) stop() {
	c.raft.SetRole(nil)
	_ = c.state.Close()
}

func TestLeaderInitialize(t *testing.T) {
	c := newTestLeader(t, 30*time.Second)
	defer c.stop()
	c.awaitReady(t)

	// The leader appends an Initialize entry followed by a Configuration
	// entry with the current membership, and both commit.
	reader := c.store.OpenReader(1)
	first := reader.NextEntry()
	assert.NotNil(t, first)
	assert.NotNil(t, first.Entry.Initialize)
	second := reader.NextEntry()
	assert.NotNil(t, second)
	assert.NotNil(t, second.Entry.Configuration)
	assert.Len(t, second.Entry.Configuration.Members, 3)

	c.raft.ReadLock()
	assert.True(t, c.raft.CommitIndex() >= 2)
	assert.Equal(t, protocol.MemberID("foo"), c.raft.Leader())
	c.raft.ReadUnlock()
}

func TestLeaderJoin(t *testing.T) {
	c := newTestLeader(t, 30*time.Second)
	defer c.stop()
	c.awaitReady(t)

	response, err := c.leader.Join(context.Background(), &protocol.JoinRequest{
		Member: &protocol.RaftMember{
			MemberID: "qux",
			Address:  "localhost:5004",
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, protocol.ResponseStatus_OK, response.Status)
	assert.Len(t, response.Members, 4)

	// New members join in a promotable, non-voting state.
	c.raft.ReadLock()
	joined := c.raft.GetMember("qux")
	c.raft.ReadUnlock()
	assert.NotNil(t, joined)
	assert.Equal(t, protocol.MemberType_PROMOTABLE, joined.Type)

	// Joining a known member is idempotent.
	response, err = c.leader.Join(context.Background(), &protocol.JoinRequest{
		Member: &protocol.RaftMember{
			MemberID: "bar",
			Address:  "localhost:5002",
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, protocol.ResponseStatus_OK, response.Status)
	assert.Len(t, response.Members, 4)
}

func TestLeaderConcurrentConfigurationRejected(t *testing.T) {
	c := newTestLeader(t, 30*time.Second)
	defer c.stop()
	c.awaitReady(t)

	// Latch an outstanding configuration change.
	c.leader.configMu.Lock()
	c.leader.configuring = 99
	c.leader.configMu.Unlock()

	lastIndex := c.store.Writer().LastIndex()
	response, err := c.leader.Join(context.Background(), &protocol.JoinRequest{
		Member: &protocol.RaftMember{
			MemberID: "qux",
			Address:  "localhost:5004",
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, protocol.ResponseStatus_ERROR, response.Status)
	assert.Equal(t, protocol.RaftError_CONFIGURATION, response.Error)

	// No entry may be appended for a rejected change.
	assert.Equal(t, lastIndex, c.store.Writer().LastIndex())

	c.leader.configMu.Lock()
	c.leader.configuring = 0
	c.leader.configMu.Unlock()
}

func TestLeaderRejectsPollAndVote(t *testing.T) {
	c := newTestLeader(t, 30*time.Second)
	defer c.stop()
	c.awaitReady(t)

	c.raft.ReadLock()
	term := c.raft.Term()
	c.raft.ReadUnlock()

	poll, err := c.leader.Poll(context.Background(), &protocol.PollRequest{
		Term:      term,
		Candidate: "bar",
	})
	assert.NoError(t, err)
	assert.False(t, poll.Accepted)
	assert.Equal(t, term, poll.Term)

	vote, err := c.leader.Vote(context.Background(), &protocol.VoteRequest{
		Term:      term,
		Candidate: "bar",
	})
	assert.NoError(t, err)
	assert.False(t, vote.Voted)
	assert.Equal(t, term, vote.Term)
}

func TestLeaderStepDownOnHigherTerm(t *testing.T) {
	c := newTestLeader(t, 30*time.Second)
	defer c.stop()
	c.awaitReady(t)

	c.raft.ReadLock()
	term := c.raft.Term()
	c.raft.ReadUnlock()

	// An append from a leader in a newer term forces a step down; the request
	// is re-dispatched to the follower role.
	response, err := c.leader.Append(context.Background(), &protocol.AppendRequest{
		Term:        term + 1,
		Leader:      "bar",
		CommitIndex: c.store.Writer().LastIndex(),
	})
	assert.NoError(t, err)
	assert.True(t, response.Succeeded)
	assert.Equal(t, term+1, response.Term)

	c.raft.ReadLock()
	assert.Equal(t, term+1, c.raft.Term())
	assert.Equal(t, protocol.MemberID("bar"), c.raft.Leader())
	c.raft.ReadUnlock()
}

func TestLeaderCommandSequencing(t *testing.T) {
	c := newTestLeader(t, 30*time.Second)
	defer c.stop()
	c.awaitReady(t)

	sessionID := c.register(t)

	// A command ahead of the session's request sequence is held.
	responses := make(chan uint64, 2)
	go func() {
		response, _ := c.leader.Command(context.Background(), &protocol.CommandRequest{
			SessionID: sessionID,
			Sequence:  2,
			Name:      "value",
			Input:     []byte("two"),
		})
		assert.Equal(t, protocol.ResponseStatus_OK, response.Status)
		responses <- 2
	}()

	select {
	case <-responses:
		t.Fatal("out-of-order command applied before prior sequences")
	case <-time.After(100 * time.Millisecond):
	}

	// The missing sequence unblocks the held command; replies are ordered.
	go func() {
		response, _ := c.leader.Command(context.Background(), &protocol.CommandRequest{
			SessionID: sessionID,
			Sequence:  1,
			Name:      "value",
			Input:     []byte("one"),
		})
		assert.Equal(t, protocol.ResponseStatus_OK, response.Status)
		responses <- 1
	}()

	first := awaitSequence(t, responses)
	second := awaitSequence(t, responses)
	assert.Equal(t, uint64(1), first)
	assert.Equal(t, uint64(2), second)
	assert.Equal(t, "two", string(c.service.value))
}

func awaitSequence(t *testing.T, ch <-chan uint64) uint64 {
	select {
	case sequence := <-ch:
		return sequence
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a command response")
		return 0
	}
}

func TestLeaderDuplicateCommand(t *testing.T) {
	c := newTestLeader(t, 30*time.Second)
	defer c.stop()
	c.awaitReady(t)

	sessionID := c.register(t)

	first, err := c.leader.Command(context.Background(), &protocol.CommandRequest{
		SessionID: sessionID,
		Sequence:  1,
		Name:      "value",
		Input:     []byte("Hello world!"),
	})
	assert.NoError(t, err)
	assert.Equal(t, protocol.ResponseStatus_OK, first.Status)

	// A retransmitted command replays the stored response without re-invoking
	// the service.
	second, err := c.leader.Command(context.Background(), &protocol.CommandRequest{
		SessionID: sessionID,
		Sequence:  1,
		Name:      "value",
		Input:     []byte("Hello world!"),
	})
	assert.NoError(t, err)
	assert.Equal(t, protocol.ResponseStatus_OK, second.Status)
	assert.Equal(t, first.Output, second.Output)
	assert.Equal(t, 1, c.service.commands)
}

func TestLeaderCommandUnknownSession(t *testing.T) {
	c := newTestLeader(t, 30*time.Second)
	defer c.stop()
	c.awaitReady(t)

	response, err := c.leader.Command(context.Background(), &protocol.CommandRequest{
		SessionID: 42,
		Sequence:  1,
		Name:      "value",
	})
	assert.NoError(t, err)
	assert.Equal(t, protocol.ResponseStatus_ERROR, response.Status)
	assert.Equal(t, protocol.RaftError_UNKNOWN_SESSION, response.Error)
}

func TestLeaderLinearizableQuery(t *testing.T) {
	c := newTestLeader(t, 30*time.Second)
	defer c.stop()
	c.awaitReady(t)

	sessionID := c.register(t)

	_, err := c.leader.Command(context.Background(), &protocol.CommandRequest{
		SessionID: sessionID,
		Sequence:  1,
		Name:      "value",
		Input:     []byte("Hello world!"),
	})
	assert.NoError(t, err)

	response, err := c.leader.Query(context.Background(), &protocol.QueryRequest{
		SessionID:   sessionID,
		Sequence:    1,
		Name:        "value",
		Consistency: protocol.ReadConsistency_LINEARIZABLE,
	})
	assert.NoError(t, err)
	assert.Equal(t, protocol.ResponseStatus_OK, response.Status)
	assert.Equal(t, "Hello world!", string(response.Output))
}

func TestLeaderSequentialQuery(t *testing.T) {
	c := newTestLeader(t, 30*time.Second)
	defer c.stop()
	c.awaitReady(t)

	sessionID := c.register(t)

	_, err := c.leader.Command(context.Background(), &protocol.CommandRequest{
		SessionID: sessionID,
		Sequence:  1,
		Name:      "value",
		Input:     []byte("Hello world!"),
	})
	assert.NoError(t, err)

	response, err := c.leader.Query(context.Background(), &protocol.QueryRequest{
		SessionID:   sessionID,
		Sequence:    1,
		Name:        "value",
		Consistency: protocol.ReadConsistency_SEQUENTIAL,
	})
	assert.NoError(t, err)
	assert.Equal(t, protocol.ResponseStatus_OK, response.Status)
	assert.Equal(t, "Hello world!", string(response.Output))
}

func TestLeaderQueryPartition(t *testing.T) {
	c := newTestLeader(t, 500*time.Millisecond)
	defer c.stop()
	c.awaitReady(t)

	sessionID := c.register(t)

	// With the peers unreachable, a linearizable query cannot verify a quorum
	// and the leader eventually steps down.
	c.setFailing(true)

	done := make(chan *protocol.QueryResponse, 1)
	go func() {
		response, _ := c.leader.Query(context.Background(), &protocol.QueryRequest{
			SessionID:   sessionID,
			Sequence:    1,
			Name:        "value",
			Consistency: protocol.ReadConsistency_LINEARIZABLE,
		})
		done <- response
	}()

	select {
	case response := <-done:
		assert.Equal(t, protocol.ResponseStatus_ERROR, response.Status)
		assert.Equal(t, protocol.RaftError_QUERY, response.Error)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for the query to fail")
	}
}

func TestLeaderSessionReaper(t *testing.T) {
	c := newTestLeader(t, 30*time.Second)
	defer c.stop()
	c.awaitReady(t)

	expired := int32(0)
	c.state.Sessions().OnExpire(func(*state.Session) {
		atomic.AddInt32(&expired, 1)
	})

	// Register a session with a short timeout and a stable session to advance
	// the state machine clock.
	response, err := c.leader.Register(context.Background(), &protocol.RegisterRequest{
		ClientID: "unstable",
		Timeout:  50,
	})
	assert.NoError(t, err)
	unstableID := response.SessionID

	stableID := c.register(t)

	// Let the unstable session's timeout elapse, then commit a keep-alive for
	// the stable session. Applying it marks the unstable session unstable, and
	// the reaper runs after the keep-alive response.
	time.Sleep(200 * time.Millisecond)
	keepAlive, err := c.leader.KeepAlive(context.Background(), &protocol.KeepAliveRequest{
		SessionID: stableID,
	})
	assert.NoError(t, err)
	assert.Equal(t, protocol.ResponseStatus_OK, keepAlive.Status)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if c.state.Sessions().GetSession(unstableID) == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Nil(t, c.state.Sessions().GetSession(unstableID))

	// Expiry fires listeners exactly once.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&expired))
}
