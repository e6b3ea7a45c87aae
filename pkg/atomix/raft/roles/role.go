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
	raft "github.com/atomix/atomix-raft-node/pkg/atomix/raft/protocol"
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/state"
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/store"
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/util"
)

// RoleType is the name of a role
type RoleType string

const (
	// RolePassive receives replicated entries but does not vote
	RolePassive RoleType = "passive"
	// RoleFollower awaits heartbeats from the leader
	RoleFollower RoleType = "follower"
	// RoleCandidate runs an election
	RoleCandidate RoleType = "candidate"
	// RoleLeader replicates entries and serves client operations
	RoleLeader RoleType = "leader"
)

// raftRole is the base for all role implementations
type raftRole struct {
	raft   raft.Raft
	state  state.Manager
	store  store.Store
	log    util.Logger
	active bool
}

func newRaftRole(raft raft.Raft, state state.Manager, store store.Store, log util.Logger) *raftRole {
	return &raftRole{
		raft:  raft,
		state: state,
		store: store,
		log:   log,
	}
}

// Start starts the role
func (r *raftRole) Start() error {
	r.raft.WriteLock()
	r.active = true
	r.raft.WriteUnlock()
	return nil
}

// Stop stops the role
func (r *raftRole) Stop() error {
	r.raft.WriteLock()
	r.active = false
	r.raft.WriteUnlock()
	return nil
}
