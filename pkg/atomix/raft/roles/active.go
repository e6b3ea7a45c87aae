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

// newActiveRole returns a new active role base
func newActiveRole(raft raft.Raft, state state.Manager, store store.Store, log util.Logger) *ActiveRole {
	return &ActiveRole{
		PassiveRole: &PassiveRole{
			raftRole: newRaftRole(raft, state, store, log),
		},
	}
}

// ActiveRole is the base for roles that vote in elections
type ActiveRole struct {
	*PassiveRole
}

// Append handles an append request
func (r *ActiveRole) Append(ctx context.Context, request *raft.AppendRequest) (*raft.AppendResponse, error) {
	r.log.Request("AppendRequest", request)
	r.raft.WriteLock()
	r.updateTermAndLeader(request.Term, request.Leader)
	response := r.handleAppend(request)
	r.raft.WriteUnlock()
	return response, r.log.Response("AppendResponse", response, nil)
}

// Poll handles a poll request
func (r *ActiveRole) Poll(ctx context.Context, request *raft.PollRequest) (*raft.PollResponse, error) {
	r.log.Request("PollRequest", request)
	r.raft.WriteLock()
	r.updateTermAndLeader(request.Term, "")
	response := r.handlePoll(request)
	r.raft.WriteUnlock()
	return response, r.log.Response("PollResponse", response, nil)
}

// handlePoll accepts a pre-vote if this member would grant a vote to the
// candidate. Must be called with the write lock held.
func (r *ActiveRole) handlePoll(request *raft.PollRequest) *raft.PollResponse {
	accepted := request.Term >= r.raft.Term() && r.isLogUpToDate(request.LastLogIndex, request.LastLogTerm)
	return &raft.PollResponse{
		Status:   raft.ResponseStatus_OK,
		Term:     r.raft.Term(),
		Accepted: accepted,
	}
}

// Vote handles a vote request
func (r *ActiveRole) Vote(ctx context.Context, request *raft.VoteRequest) (*raft.VoteResponse, error) {
	r.log.Request("VoteRequest", request)
	r.raft.WriteLock()
	r.updateTermAndLeader(request.Term, "")
	response, err := r.handleVote(ctx, request)
	r.raft.WriteUnlock()
	return response, r.log.Response("VoteResponse", response, err)
}

// handleVote grants or rejects a vote. Must be called with the write lock held.
func (r *ActiveRole) handleVote(ctx context.Context, request *raft.VoteRequest) (*raft.VoteResponse, error) {
	voted := false
	if request.Term < r.raft.Term() {
		// Reject candidates in older terms.
	} else if r.raft.Leader() != "" {
		// Reject the vote if a leader has already been recognized for this term.
	} else if r.raft.GetMember(request.Candidate) == nil {
		// Reject candidates that are not members of the cluster.
	} else if vote := r.raft.LastVotedFor(); vote != nil {
		// This member can vote at most once per term.
		voted = *vote == request.Candidate
	} else if r.isLogUpToDate(request.LastLogIndex, request.LastLogTerm) {
		r.raft.SetLastVotedFor(request.Candidate)
		voted = true
	}
	return &raft.VoteResponse{
		Status: raft.ResponseStatus_OK,
		Term:   r.raft.Term(),
		Voted:  voted,
	}, nil
}

// isLogUpToDate returns true if a candidate log with the given last index and
// term is at least as current as the local log
func (r *ActiveRole) isLogUpToDate(lastIndex raft.Index, lastTerm raft.Term) bool {
	localLast := r.store.Writer().LastEntry()
	if localLast == nil {
		return true
	}
	if lastTerm != localLast.Entry.Term {
		return lastTerm > localLast.Entry.Term
	}
	return lastIndex >= localLast.Index
}
