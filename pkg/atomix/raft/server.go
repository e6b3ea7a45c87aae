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

package raft

import (
	"errors"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"

	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/protocol"
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/roles"
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/state"
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/store"
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/util"
)

// Cluster is the bootstrap configuration of a Raft cluster
type Cluster struct {
	MemberID protocol.MemberID
	Members  map[protocol.MemberID]Member
}

// Member is the bootstrap configuration of a single cluster member
type Member struct {
	ID   protocol.MemberID
	Host string
	Port int
}

// Address returns the member's server address
func (m Member) Address() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

// NewRaftServer returns a new Raft server for the given cluster
func NewRaftServer(cluster Cluster, registry *state.Registry, config *protocol.Config) *RaftServer {
	members := make([]*protocol.RaftMember, 0, len(cluster.Members))
	for _, member := range cluster.Members {
		members = append(members, &protocol.RaftMember{
			MemberID:      member.ID,
			Type:          protocol.MemberType_ACTIVE,
			Status:        protocol.MemberStatus_AVAILABLE,
			Address:       member.Address(),
			ClientAddress: member.Address(),
		})
	}
	configuration := protocol.NewConfiguration(members)

	stores := store.NewMemoryStore()
	sm := state.NewManager(registry, stores.Snapshot())
	raft := protocol.NewRaft(cluster.MemberID, configuration, config, stores.Metadata())
	return &RaftServer{
		cluster: cluster,
		raft:    raft,
		state:   sm,
		store:   stores,
		log:     util.NewNodeLogger(string(cluster.MemberID)),
	}
}

// RaftServer hosts the Raft protocol service and the server's role lifecycle
type RaftServer struct {
	cluster Cluster
	raft    protocol.Raft
	state   state.Manager
	store   store.Store
	server  *grpc.Server
	log     util.Logger
}

// Start starts the server, serving protocol RPCs until the server is stopped
func (s *RaftServer) Start() error {
	member, ok := s.cluster.Members[s.cluster.MemberID]
	if !ok {
		return fmt.Errorf("unknown local member %s", s.cluster.MemberID)
	}

	listener, err := net.Listen("tcp", member.Address())
	if err != nil {
		return err
	}

	s.server = grpc.NewServer()
	protocol.RegisterRaftServiceServer(s.server, &protocol.Dispatcher{Raft: s.raft})

	// Start in the follower role once the server is accepting RPCs. Passive
	// members receive replicated entries but do not participate in elections.
	s.raft.ReadLock()
	local := s.raft.GetMember(s.cluster.MemberID)
	s.raft.ReadUnlock()
	if local != nil && local.Type == protocol.MemberType_PASSIVE {
		s.raft.SetRole(roles.NewPassiveRole(s.raft, s.state, s.store))
	} else {
		s.raft.SetRole(roles.NewFollowerRole(s.raft, s.state, s.store))
	}

	s.log.Info("Server started at %s", member.Address())
	return s.server.Serve(listener)
}

// waitForReady blocks until a leader has been elected
func (s *RaftServer) waitForReady() error {
	deadline := time.Now().Add(time.Minute)
	for time.Now().Before(deadline) {
		s.raft.ReadLock()
		leader := s.raft.Leader()
		s.raft.ReadUnlock()
		if leader != "" {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return errors.New("timed out waiting for a leader")
}

// WaitForReady blocks until a leader has been elected
func (s *RaftServer) WaitForReady() error {
	return s.waitForReady()
}

// Stop stops the server
func (s *RaftServer) Stop() error {
	if s.server != nil {
		s.server.Stop()
	}
	err := s.raft.Close()
	_ = s.state.Close()
	return err
}
