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

	raft "github.com/atomix/atomix-raft-node/pkg/atomix/raft/protocol"
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/state"
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/store"
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/util"
)

// NewPassiveRole returns a new passive role
func NewPassiveRole(raft raft.Raft, state state.Manager, store store.Store) raft.Role {
	log := util.NewRoleLogger(string(raft.Member()), string(RolePassive))
	return &PassiveRole{
		raftRole: newRaftRole(raft, state, store, log),
	}
}

// PassiveRole stores replicated entries and forwards client operations to the leader
type PassiveRole struct {
	*raftRole
}

// Name is the name of the role
func (r *PassiveRole) Name() string {
	return string(RolePassive)
}

// updateTermAndLeader updates the local term and leader from a request with a
// newer term. Must be called with the write lock held. Returns true if the
// term or leader changed.
func (r *PassiveRole) updateTermAndLeader(term raft.Term, leader raft.MemberID) bool {
	if term > r.raft.Term() || (term == r.raft.Term() && r.raft.Leader() == "" && leader != "") {
		r.raft.SetTerm(term)
		r.raft.SetLeader(leader)
		return true
	}
	return false
}

// Append handles an append request
func (r *PassiveRole) Append(ctx context.Context, request *raft.AppendRequest) (*raft.AppendResponse, error) {
	r.log.Request("AppendRequest", request)
	r.raft.WriteLock()
	r.updateTermAndLeader(request.Term, request.Leader)
	response := r.handleAppend(request)
	r.raft.WriteUnlock()
	return response, r.log.Response("AppendResponse", response, nil)
}

// handleAppend appends entries to the local log. Must be called with the write lock held.
func (r *PassiveRole) handleAppend(request *raft.AppendRequest) *raft.AppendResponse {
	// Reject requests from leaders in older terms.
	if request.Term < r.raft.Term() {
		return &raft.AppendResponse{
			Status:       raft.ResponseStatus_OK,
			Term:         r.raft.Term(),
			Succeeded:    false,
			LastLogIndex: r.store.Writer().LastIndex(),
		}
	}
	return r.appendEntries(request)
}

func (r *PassiveRole) appendEntries(request *raft.AppendRequest) *raft.AppendResponse {
	writer := r.store.Writer()

	// Verify the previous entry matches before accepting new entries. On a
	// mismatch, respond with a hint for the leader: the local last index when
	// the log is too short, otherwise the index before the conflicting entry.
	if request.PrevLogIndex != 0 {
		lastIndex := writer.LastIndex()
		if request.PrevLogIndex > lastIndex {
			return &raft.AppendResponse{
				Status:       raft.ResponseStatus_OK,
				Term:         r.raft.Term(),
				Succeeded:    false,
				LastLogIndex: lastIndex,
			}
		}
		reader := r.store.OpenReader(request.PrevLogIndex)
		prevEntry := reader.NextEntry()
		if prevEntry == nil || prevEntry.Entry.Term != request.PrevLogTerm {
			return &raft.AppendResponse{
				Status:       raft.ResponseStatus_OK,
				Term:         r.raft.Term(),
				Succeeded:    false,
				LastLogIndex: request.PrevLogIndex - 1,
			}
		}
	}

	// Append the entries, truncating the log where an existing entry conflicts.
	index := request.PrevLogIndex
	for _, entry := range request.Entries {
		index++
		if writer.LastIndex() >= index {
			reader := r.store.OpenReader(index)
			existing := reader.NextEntry()
			if existing != nil && existing.Entry.Term == entry.Term {
				continue
			}
			writer.Truncate(index - 1)
		}
		writer.Append(entry)
	}

	// Advance the local commit index and apply newly committed entries.
	commitIndex := request.CommitIndex
	if lastIndex := writer.LastIndex(); commitIndex > lastIndex {
		commitIndex = lastIndex
	}
	prevCommitIndex := r.raft.CommitIndex()
	if commitIndex > prevCommitIndex {
		r.raft.SetCommitIndex(commitIndex)
		r.applyCommitted(prevCommitIndex, commitIndex)
	}

	return &raft.AppendResponse{
		Status:       raft.ResponseStatus_OK,
		Term:         r.raft.Term(),
		Succeeded:    true,
		LastLogIndex: writer.LastIndex(),
	}
}

// applyCommitted applies entries in (from, to] to the state machine
func (r *PassiveRole) applyCommitted(from raft.Index, to raft.Index) {
	reader := r.store.OpenReader(from + 1)
	for entry := reader.NextEntry(); entry != nil && entry.Index <= to; entry = reader.NextEntry() {
		r.state.Apply(entry, nil)
	}
}

// Vote handles a vote request
func (r *PassiveRole) Vote(ctx context.Context, request *raft.VoteRequest) (*raft.VoteResponse, error) {
	r.log.Request("VoteRequest", request)
	r.raft.WriteLock()
	r.updateTermAndLeader(request.Term, "")
	response := &raft.VoteResponse{
		Status: raft.ResponseStatus_OK,
		Term:   r.raft.Term(),
		Voted:  false,
	}
	r.raft.WriteUnlock()
	return response, r.log.Response("VoteResponse", response, nil)
}

// Poll handles a poll request
func (r *PassiveRole) Poll(ctx context.Context, request *raft.PollRequest) (*raft.PollResponse, error) {
	r.log.Request("PollRequest", request)
	r.raft.WriteLock()
	r.updateTermAndLeader(request.Term, "")
	response := &raft.PollResponse{
		Status:   raft.ResponseStatus_OK,
		Term:     r.raft.Term(),
		Accepted: false,
	}
	r.raft.WriteUnlock()
	return response, r.log.Response("PollResponse", response, nil)
}

// forward returns a client for the known leader, or false if no leader is known
func (r *raftRole) forward() (raft.RaftServiceClient, bool) {
	r.raft.ReadLock()
	leader := r.raft.Leader()
	r.raft.ReadUnlock()
	if leader == "" {
		return nil, false
	}
	client, err := r.raft.Connect(leader)
	if err != nil {
		return nil, false
	}
	return client, true
}

// Command forwards a command request to the leader
func (r *PassiveRole) Command(ctx context.Context, request *raft.CommandRequest) (*raft.CommandResponse, error) {
	if client, ok := r.forward(); ok {
		return client.Command(ctx, request)
	}
	return &raft.CommandResponse{
		Status: raft.ResponseStatus_ERROR,
		Error:  raft.RaftError_NO_LEADER,
	}, nil
}

// Query forwards a query request to the leader
func (r *PassiveRole) Query(ctx context.Context, request *raft.QueryRequest) (*raft.QueryResponse, error) {
	if client, ok := r.forward(); ok {
		return client.Query(ctx, request)
	}
	return &raft.QueryResponse{
		Status: raft.ResponseStatus_ERROR,
		Error:  raft.RaftError_NO_LEADER,
	}, nil
}

// Register forwards a register request to the leader
func (r *PassiveRole) Register(ctx context.Context, request *raft.RegisterRequest) (*raft.RegisterResponse, error) {
	if client, ok := r.forward(); ok {
		return client.Register(ctx, request)
	}
	return &raft.RegisterResponse{
		Status: raft.ResponseStatus_ERROR,
		Error:  raft.RaftError_NO_LEADER,
	}, nil
}

// Connect forwards a connect request to the leader
func (r *PassiveRole) Connect(ctx context.Context, request *raft.ConnectRequest) (*raft.ConnectResponse, error) {
	if client, ok := r.forward(); ok {
		return client.Connect(ctx, request)
	}
	return &raft.ConnectResponse{
		Status: raft.ResponseStatus_ERROR,
		Error:  raft.RaftError_NO_LEADER,
	}, nil
}

// Accept forwards an accept request to the leader
func (r *PassiveRole) Accept(ctx context.Context, request *raft.AcceptRequest) (*raft.AcceptResponse, error) {
	if client, ok := r.forward(); ok {
		return client.Accept(ctx, request)
	}
	return &raft.AcceptResponse{
		Status: raft.ResponseStatus_ERROR,
		Error:  raft.RaftError_NO_LEADER,
	}, nil
}

// KeepAlive forwards a keep-alive request to the leader
func (r *PassiveRole) KeepAlive(ctx context.Context, request *raft.KeepAliveRequest) (*raft.KeepAliveResponse, error) {
	if client, ok := r.forward(); ok {
		return client.KeepAlive(ctx, request)
	}
	return &raft.KeepAliveResponse{
		Status: raft.ResponseStatus_ERROR,
		Error:  raft.RaftError_NO_LEADER,
	}, nil
}

// Unregister forwards an unregister request to the leader
func (r *PassiveRole) Unregister(ctx context.Context, request *raft.UnregisterRequest) (*raft.UnregisterResponse, error) {
	if client, ok := r.forward(); ok {
		return client.Unregister(ctx, request)
	}
	return &raft.UnregisterResponse{
		Status: raft.ResponseStatus_ERROR,
		Error:  raft.RaftError_NO_LEADER,
	}, nil
}

// Join forwards a join request to the leader
func (r *PassiveRole) Join(ctx context.Context, request *raft.JoinRequest) (*raft.JoinResponse, error) {
	if client, ok := r.forward(); ok {
		return client.Join(ctx, request)
	}
	return &raft.JoinResponse{
		Status: raft.ResponseStatus_ERROR,
		Error:  raft.RaftError_NO_LEADER,
	}, nil
}

// Leave forwards a leave request to the leader
func (r *PassiveRole) Leave(ctx context.Context, request *raft.LeaveRequest) (*raft.LeaveResponse, error) {
	if client, ok := r.forward(); ok {
		return client.Leave(ctx, request)
	}
	return &raft.LeaveResponse{
		Status: raft.ResponseStatus_ERROR,
		Error:  raft.RaftError_NO_LEADER,
	}, nil
}

// Reconfigure forwards a reconfigure request to the leader
func (r *PassiveRole) Reconfigure(ctx context.Context, request *raft.ReconfigureRequest) (*raft.ReconfigureResponse, error) {
	if client, ok := r.forward(); ok {
		return client.Reconfigure(ctx, request)
	}
	return &raft.ReconfigureResponse{
		Status: raft.ResponseStatus_ERROR,
		Error:  raft.RaftError_NO_LEADER,
	}, nil
}
