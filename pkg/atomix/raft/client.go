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
	"errors"
	"fmt"
	"sync/atomic"

	"google.golang.org/grpc"

	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/protocol"
)

// newClientID returns a unique client identifier
var clientCounter uint64

func newClientID() protocol.ClientID {
	return protocol.ClientID(fmt.Sprintf("client-%d", atomic.AddUint64(&clientCounter, 1)))
}

// NewRaftClient returns a new client for a Raft cluster, reading at the given
// consistency level
func NewRaftClient(consistency protocol.ReadConsistency) *RaftClient {
	return &RaftClient{
		clientID:    newClientID(),
		consistency: consistency,
	}
}

// RaftClient is a session-based client for a Raft cluster
type RaftClient struct {
	clientID    protocol.ClientID
	consistency protocol.ReadConsistency
	conn        *grpc.ClientConn
	client      protocol.RaftServiceClient
	sessionID   protocol.SessionID
	sequence    uint64
	lastIndex   protocol.Index
}

// Connect connects the client to any reachable member of the cluster and
// registers a session
func (c *RaftClient) Connect(cluster Cluster) error {
	var lastErr error
	for _, member := range cluster.Members {
		conn, err := grpc.Dial(member.Address(), grpc.WithInsecure())
		if err != nil {
			lastErr = err
			continue
		}
		c.conn = conn
		c.client = protocol.NewRaftServiceClient(conn)

		response, err := c.client.Register(context.Background(), &protocol.RegisterRequest{
			ClientID: c.clientID,
		})
		if err != nil {
			lastErr = err
			_ = conn.Close()
			continue
		}
		if response.Status != protocol.ResponseStatus_OK {
			lastErr = fmt.Errorf("failed to register session: %s", response.Error)
			_ = conn.Close()
			continue
		}
		c.sessionID = response.SessionID

		if _, err := c.client.Connect(context.Background(), &protocol.ConnectRequest{
			ClientID: c.clientID,
		}); err != nil {
			lastErr = err
			_ = conn.Close()
			continue
		}
		return nil
	}
	if lastErr != nil {
		return lastErr
	}
	return errors.New("no members to connect to")
}

// SessionID returns the client's session ID
func (c *RaftClient) SessionID() protocol.SessionID {
	return c.sessionID
}

// Write submits a command to the given service
func (c *RaftClient) Write(ctx context.Context, name string, input []byte) ([]byte, error) {
	sequence := atomic.AddUint64(&c.sequence, 1)
	response, err := c.client.Command(ctx, &protocol.CommandRequest{
		SessionID: c.sessionID,
		Sequence:  sequence,
		Name:      name,
		Input:     input,
	})
	if err != nil {
		return nil, err
	}
	if response.Status != protocol.ResponseStatus_OK {
		return nil, fmt.Errorf("command failed: %s: %s", response.Error, response.Message)
	}
	c.lastIndex = response.Index
	return response.Output, nil
}

// Read submits a query to the given service
func (c *RaftClient) Read(ctx context.Context, name string, input []byte) ([]byte, error) {
	response, err := c.client.Query(ctx, &protocol.QueryRequest{
		SessionID:   c.sessionID,
		Sequence:    atomic.LoadUint64(&c.sequence),
		Index:       c.lastIndex,
		Name:        name,
		Input:       input,
		Consistency: c.consistency,
	})
	if err != nil {
		return nil, err
	}
	if response.Status != protocol.ResponseStatus_OK {
		return nil, fmt.Errorf("query failed: %s: %s", response.Error, response.Message)
	}
	return response.Output, nil
}

// KeepAlive keeps the client's session alive
func (c *RaftClient) KeepAlive(ctx context.Context) error {
	response, err := c.client.KeepAlive(ctx, &protocol.KeepAliveRequest{
		SessionID:       c.sessionID,
		CommandSequence: atomic.LoadUint64(&c.sequence),
		EventIndex:      c.lastIndex,
	})
	if err != nil {
		return err
	}
	if response.Status != protocol.ResponseStatus_OK {
		return fmt.Errorf("keep-alive failed: %s", response.Error)
	}
	return nil
}

// Close unregisters the client's session and closes its connections
func (c *RaftClient) Close() error {
	if c.client != nil && c.sessionID != 0 {
		_, _ = c.client.Unregister(context.Background(), &protocol.UnregisterRequest{
			SessionID: c.sessionID,
		})
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
