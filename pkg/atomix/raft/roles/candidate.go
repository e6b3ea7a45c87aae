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
	"math"

	raft "github.com/atomix/atomix-raft-node/pkg/atomix/raft/protocol"
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/state"
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/store"
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/util"
)

// newCandidateRole returns a new candidate role
func newCandidateRole(raft raft.Raft, state state.Manager, store store.Store) raft.Role {
	log := util.NewRoleLogger(string(raft.Member()), string(RoleCandidate))
	return &CandidateRole{
		ActiveRole: newActiveRole(raft, state, store, log),
	}
}

// CandidateRole implements a Raft candidate running an election
type CandidateRole struct {
	*ActiveRole
}

// Name is the name of the role
func (r *CandidateRole) Name() string {
	return string(RoleCandidate)
}

// Start starts the candidate
func (r *CandidateRole) Start() error {
	_ = r.ActiveRole.Start()
	r.sendVoteRequests()
	return nil
}

// sendVoteRequests starts an election for the next term
func (r *CandidateRole) sendVoteRequests() {
	// Increment the term and vote for ourselves before soliciting votes.
	r.raft.WriteLock()
	r.raft.SetTerm(r.raft.Term() + 1)
	r.raft.SetLastVotedFor(r.raft.Member())
	term := r.raft.Term()
	votingMembers := r.raft.Members()
	lastEntry := r.store.Writer().LastEntry()
	r.raft.WriteUnlock()

	var lastIndex raft.Index
	var lastTerm raft.Term
	if lastEntry != nil {
		lastIndex = lastEntry.Index
		lastTerm = lastEntry.Entry.Term
	}

	votes := make(chan bool, len(votingMembers))
	quorum := int(math.Floor(float64(len(votingMembers))/2.0) + 1)
	go func() {
		voteCount := 0
		rejectCount := 0
		for vote := range votes {
			r.raft.ReadLock()
			if !r.active {
				r.raft.ReadUnlock()
				return
			}
			if r.raft.Term() != term {
				// The term changed while the election was in progress; await a new role.
				r.raft.ReadUnlock()
				return
			}
			r.raft.ReadUnlock()
			if vote {
				voteCount++
				if voteCount == quorum {
					r.log.Debug("Won election with %d/%d votes; transitioning to leader", voteCount, len(votingMembers))
					r.raft.SetRole(newLeaderRole(r.raft, r.state, r.store))
					return
				}
			} else {
				rejectCount++
				if rejectCount == quorum {
					r.log.Debug("Lost election with %d/%d rejections; transitioning to follower", rejectCount, len(votingMembers))
					r.raft.SetRole(NewFollowerRole(r.raft, r.state, r.store))
					return
				}
			}
		}
	}()

	r.log.Debug("Requesting votes for term %d", term)

	for _, member := range votingMembers {
		if member == r.raft.Member() {
			votes <- true
			continue
		}

		go func(member raft.MemberID) {
			request := &raft.VoteRequest{
				Term:         term,
				Candidate:    r.raft.Member(),
				LastLogIndex: lastIndex,
				LastLogTerm:  lastTerm,
			}

			client, err := r.raft.Connect(member)
			if err != nil {
				votes <- false
				r.log.Warn("Vote request failed: %v", err)
				return
			}

			r.log.Send("VoteRequest", request)
			response, err := client.Vote(context.Background(), request)
			if err != nil {
				votes <- false
				r.log.Warn("Vote request failed: %v", err)
				return
			}
			r.log.Receive("VoteResponse", response)

			// If a member responds with a greater term, update the term and revert to follower.
			if response.Term > term {
				r.raft.WriteLock()
				if response.Term > r.raft.Term() {
					r.raft.SetTerm(response.Term)
				}
				r.raft.WriteUnlock()
				go r.raft.SetRole(NewFollowerRole(r.raft, r.state, r.store))
				return
			}
			votes <- response.Voted
		}(member)
	}
}

// Append handles an append request
func (r *CandidateRole) Append(ctx context.Context, request *raft.AppendRequest) (*raft.AppendResponse, error) {
	// A current leader ends this candidacy; revert to follower before handling the request.
	r.raft.WriteLock()
	if request.Term >= r.raft.Term() {
		r.updateTermAndLeader(request.Term, request.Leader)
		r.raft.WriteUnlock()
		go r.raft.SetRole(NewFollowerRole(r.raft, r.state, r.store))
	} else {
		r.raft.WriteUnlock()
	}
	return r.ActiveRole.Append(ctx, request)
}

// Vote handles a vote request
func (r *CandidateRole) Vote(ctx context.Context, request *raft.VoteRequest) (*raft.VoteResponse, error) {
	r.log.Request("VoteRequest", request)
	r.raft.WriteLock()
	if r.updateTermAndLeader(request.Term, "") {
		// A greater term ends this candidacy.
		r.raft.WriteUnlock()
		go r.raft.SetRole(NewFollowerRole(r.raft, r.state, r.store))
		r.raft.WriteLock()
	}
	response, err := r.handleVote(ctx, request)
	r.raft.WriteUnlock()
	return response, r.log.Response("VoteResponse", response, err)
}
