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
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang/protobuf/ptypes"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/protocol"
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/state"
)

// valueService stores the last command input and returns it for queries
type valueService struct {
	value []byte
}

func (s *valueService) Command(input []byte) ([]byte, error) {
	s.value = input
	return input, nil
}

func (s *valueService) Query(input []byte) ([]byte, error) {
	return s.value, nil
}

func TestRaftNode(t *testing.T) {
	cluster := Cluster{
		MemberID: "foo",
		Members: map[protocol.MemberID]Member{
			"foo": {
				ID:   "foo",
				Host: "localhost",
				Port: 5001,
			},
		},
	}

	server := newServer("foo", cluster)
	go func() {
		_ = server.Start()
	}()
	defer stopServer(server)
	assert.NoError(t, server.waitForReady())

	client := NewRaftClient(protocol.ReadConsistency_SEQUENTIAL)
	assert.NoError(t, client.Connect(cluster))
	defer client.Close()
	assert.NotEqual(t, protocol.SessionID(0), client.SessionID())

	output, err := client.Write(context.Background(), "value", []byte("Hello world!"))
	assert.NoError(t, err)
	assert.Equal(t, "Hello world!", string(output))

	output, err = client.Read(context.Background(), "value", nil)
	assert.NoError(t, err)
	assert.Equal(t, "Hello world!", string(output))

	assert.NoError(t, client.KeepAlive(context.Background()))
}

func TestRaftCluster(t *testing.T) {
	cluster := Cluster{
		MemberID: "foo",
		Members: map[protocol.MemberID]Member{
			"foo": {
				ID:   "foo",
				Host: "localhost",
				Port: 5011,
			},
			"bar": {
				ID:   "bar",
				Host: "localhost",
				Port: 5012,
			},
			"baz": {
				ID:   "baz",
				Host: "localhost",
				Port: 5013,
			},
		},
	}

	serverFoo := newServer("foo", cluster)
	serverBar := newServer("bar", cluster)
	serverBaz := newServer("baz", cluster)

	wg := &sync.WaitGroup{}
	wg.Add(3)
	go startServer(serverFoo, wg)
	go startServer(serverBar, wg)
	go startServer(serverBaz, wg)
	wg.Wait()

	defer stopServer(serverFoo)
	defer stopServer(serverBar)
	defer stopServer(serverBaz)

	client := NewRaftClient(protocol.ReadConsistency_LINEARIZABLE)
	assert.NoError(t, client.Connect(cluster))
	defer client.Close()

	output, err := client.Write(context.Background(), "value", []byte("Hello world!"))
	assert.NoError(t, err)
	assert.Equal(t, "Hello world!", string(output))

	output, err = client.Read(context.Background(), "value", nil)
	assert.NoError(t, err)
	assert.Equal(t, "Hello world!", string(output))
}

func newServer(memberID protocol.MemberID, cluster Cluster) *RaftServer {
	cluster.MemberID = memberID
	registry := state.NewRegistry()
	registry.Register("value", &valueService{})
	config := &protocol.Config{
		ElectionTimeout: ptypes.DurationProto(time.Second),
	}
	return NewRaftServer(cluster, registry, config)
}

func startServer(server *RaftServer, wg *sync.WaitGroup) {
	defer wg.Done()
	go func() {
		_ = server.Start()
	}()
	_ = server.waitForReady()
}

func stopServer(server *RaftServer) {
	_ = server.Stop()
}

func init() {
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}
