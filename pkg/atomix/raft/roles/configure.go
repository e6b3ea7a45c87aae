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
	"time"

	raft "github.com/atomix/atomix-raft-node/pkg/atomix/raft/protocol"
)

// configResult is the outcome of a configuration change
type configResult struct {
	configuration *raft.Configuration
	err           error
}

// configure appends a Configuration entry with the given members, applies the
// new configuration to the cluster view immediately, and returns a channel
// completed once the entry has been replicated. At most one configuration
// change may be in flight at a time; callers must hold configMu and have
// verified the configuring latch is clear.
func (r *LeaderRole) configure(members []*raft.RaftMember) <-chan configResult {
	term := r.term()
	entry := &raft.LogEntry{
		Term:      term,
		Timestamp: r.appender.time().UnixNano(),
		Configuration: &raft.ConfigurationEntry{
			Members: members,
		},
	}
	indexed, out := r.appendEntry(entry)

	// Latch the configuration change before replication begins.
	r.configuring = indexed.Index

	// The new configuration takes effect for replication targets at the moment
	// of appending.
	configuration := &raft.Configuration{
		Index:     indexed.Index,
		Term:      term,
		Timestamp: entry.Timestamp,
		Members:   members,
	}
	r.raft.WriteLock()
	r.raft.Configure(configuration)
	r.raft.WriteUnlock()
	r.appender.refresh()

	ch := make(chan configResult, 1)
	go func() {
		output := <-out
		r.configMu.Lock()
		r.configuring = 0
		r.configMu.Unlock()
		ch <- configResult{
			configuration: configuration,
			err:           output.Error,
		}
	}()
	return ch
}

// canConfigure returns true if a configuration change may begin: the leader
// must have committed its Initialize entry and no other configuration change
// may be in flight. Must be called with configMu held.
func (r *LeaderRole) canConfigure() bool {
	if r.configuring != 0 {
		return false
	}
	if r.initEntry == nil {
		return false
	}
	r.raft.ReadLock()
	defer r.raft.ReadUnlock()
	return r.raft.CommitIndex() >= r.initEntry.Index
}

// Join handles a join request
func (r *LeaderRole) Join(ctx context.Context, request *raft.JoinRequest) (*raft.JoinResponse, error) {
	r.log.Request("JoinRequest", request)

	r.configMu.Lock()
	if !r.canConfigure() {
		r.configMu.Unlock()
		response := &raft.JoinResponse{
			Status: raft.ResponseStatus_ERROR,
			Error:  raft.RaftError_CONFIGURATION,
		}
		return response, r.log.Response("JoinResponse", response, nil)
	}

	r.raft.ReadLock()
	configuration := r.raft.Configuration()
	existing := r.raft.GetMember(request.Member.MemberID)
	r.raft.ReadUnlock()

	// Joining an already known member is idempotent.
	if existing != nil {
		r.configMu.Unlock()
		response := &raft.JoinResponse{
			Status:    raft.ResponseStatus_OK,
			Index:     configuration.Index,
			Term:      configuration.Term,
			Timestamp: configuration.Timestamp,
			Members:   configuration.Members,
		}
		return response, r.log.Response("JoinResponse", response, nil)
	}

	// New members join in a promotable, non-voting state until caught up.
	member := &raft.RaftMember{
		MemberID:      request.Member.MemberID,
		Type:          raft.MemberType_PROMOTABLE,
		Status:        raft.MemberStatus_AVAILABLE,
		Address:       request.Member.Address,
		ClientAddress: request.Member.ClientAddress,
		Updated:       time.Now().UnixNano(),
	}
	members := append(copyMembers(configuration.Members), member)
	future := r.configure(members)
	r.configMu.Unlock()

	result := <-future
	var response *raft.JoinResponse
	if result.err != nil {
		response = &raft.JoinResponse{
			Status: raft.ResponseStatus_ERROR,
			Error:  raft.RaftError_INTERNAL,
		}
	} else {
		response = &raft.JoinResponse{
			Status:    raft.ResponseStatus_OK,
			Index:     result.configuration.Index,
			Term:      result.configuration.Term,
			Timestamp: result.configuration.Timestamp,
			Members:   result.configuration.Members,
		}
	}
	return response, r.log.Response("JoinResponse", response, nil)
}

// Leave handles a leave request
func (r *LeaderRole) Leave(ctx context.Context, request *raft.LeaveRequest) (*raft.LeaveResponse, error) {
	r.log.Request("LeaveRequest", request)

	r.configMu.Lock()
	if !r.canConfigure() {
		r.configMu.Unlock()
		response := &raft.LeaveResponse{
			Status: raft.ResponseStatus_ERROR,
			Error:  raft.RaftError_CONFIGURATION,
		}
		return response, r.log.Response("LeaveResponse", response, nil)
	}

	r.raft.ReadLock()
	configuration := r.raft.Configuration()
	existing := r.raft.GetMember(request.Member.MemberID)
	r.raft.ReadUnlock()

	// Leaving an unknown member is idempotent.
	if existing == nil {
		r.configMu.Unlock()
		response := &raft.LeaveResponse{
			Status:    raft.ResponseStatus_OK,
			Index:     configuration.Index,
			Term:      configuration.Term,
			Timestamp: configuration.Timestamp,
			Members:   configuration.Members,
		}
		return response, r.log.Response("LeaveResponse", response, nil)
	}

	members := make([]*raft.RaftMember, 0, len(configuration.Members)-1)
	for _, member := range configuration.Members {
		if member.MemberID != request.Member.MemberID {
			copied := *member
			members = append(members, &copied)
		}
	}
	future := r.configure(members)
	r.configMu.Unlock()

	result := <-future
	var response *raft.LeaveResponse
	if result.err != nil {
		response = &raft.LeaveResponse{
			Status: raft.ResponseStatus_ERROR,
			Error:  raft.RaftError_INTERNAL,
		}
	} else {
		response = &raft.LeaveResponse{
			Status:    raft.ResponseStatus_OK,
			Index:     result.configuration.Index,
			Term:      result.configuration.Term,
			Timestamp: result.configuration.Timestamp,
			Members:   result.configuration.Members,
		}
	}
	return response, r.log.Response("LeaveResponse", response, nil)
}

// Reconfigure handles a reconfigure request
func (r *LeaderRole) Reconfigure(ctx context.Context, request *raft.ReconfigureRequest) (*raft.ReconfigureResponse, error) {
	r.log.Request("ReconfigureRequest", request)

	r.configMu.Lock()
	if !r.canConfigure() {
		r.configMu.Unlock()
		response := &raft.ReconfigureResponse{
			Status: raft.ResponseStatus_ERROR,
			Error:  raft.RaftError_CONFIGURATION,
		}
		return response, r.log.Response("ReconfigureResponse", response, nil)
	}

	r.raft.ReadLock()
	configuration := r.raft.Configuration()
	existing := r.raft.GetMember(request.Member.MemberID)
	r.raft.ReadUnlock()

	if existing == nil {
		r.configMu.Unlock()
		response := &raft.ReconfigureResponse{
			Status: raft.ResponseStatus_ERROR,
			Error:  raft.RaftError_CONFIGURATION,
		}
		return response, r.log.Response("ReconfigureResponse", response, nil)
	}

	// Requests that change more than a member's type or status must reference
	// the current configuration; an unspecified (0) index is accepted.
	typeOrStatusOnly := (request.Member.Address == "" || request.Member.Address == existing.Address) &&
		(request.Member.ClientAddress == "" || request.Member.ClientAddress == existing.ClientAddress)
	if !typeOrStatusOnly {
		if (request.Index != 0 && request.Index != configuration.Index) || request.Term != configuration.Term {
			r.configMu.Unlock()
			response := &raft.ReconfigureResponse{
				Status: raft.ResponseStatus_ERROR,
				Error:  raft.RaftError_CONFIGURATION,
			}
			return response, r.log.Response("ReconfigureResponse", response, nil)
		}
	}

	members := copyMembers(configuration.Members)
	for _, member := range members {
		if member.MemberID == request.Member.MemberID {
			member.Type = request.Member.Type
			member.Status = request.Member.Status
			if request.Member.Address != "" {
				member.Address = request.Member.Address
			}
			if request.Member.ClientAddress != "" {
				member.ClientAddress = request.Member.ClientAddress
			}
			member.Updated = time.Now().UnixNano()
		}
	}
	future := r.configure(members)
	r.configMu.Unlock()

	result := <-future
	var response *raft.ReconfigureResponse
	if result.err != nil {
		response = &raft.ReconfigureResponse{
			Status: raft.ResponseStatus_ERROR,
			Error:  raft.RaftError_INTERNAL,
		}
	} else {
		response = &raft.ReconfigureResponse{
			Status:    raft.ResponseStatus_OK,
			Index:     result.configuration.Index,
			Term:      result.configuration.Term,
			Timestamp: result.configuration.Timestamp,
			Members:   result.configuration.Members,
		}
	}
	return response, r.log.Response("ReconfigureResponse", response, nil)
}

func copyMembers(members []*raft.RaftMember) []*raft.RaftMember {
	copied := make([]*raft.RaftMember, len(members))
	for i, member := range members {
		m := *member
		copied[i] = &m
	}
	return copied
}
