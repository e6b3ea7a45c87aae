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

package protocol

import (
	"time"

	"github.com/gogo/protobuf/proto"
	"github.com/golang/protobuf/ptypes"
	"github.com/golang/protobuf/ptypes/duration"
)

const (
	defaultElectionTimeout = 5 * time.Second
	defaultSessionTimeout  = 30 * time.Second
)

// Config is the Raft protocol configuration
type Config struct {
	// ElectionTimeout is the duration after which a follower without leader contact starts an election
	ElectionTimeout *duration.Duration `protobuf:"bytes,1,opt,name=election_timeout,json=electionTimeout,proto3" json:"election_timeout,omitempty"`
	// HeartbeatInterval is the interval at which the leader broadcasts heartbeats
	HeartbeatInterval *duration.Duration `protobuf:"bytes,2,opt,name=heartbeat_interval,json=heartbeatInterval,proto3" json:"heartbeat_interval,omitempty"`
	// SessionTimeout is the timeout after which sessions without a committed keep-alive become unstable
	SessionTimeout *duration.Duration `protobuf:"bytes,3,opt,name=session_timeout,json=sessionTimeout,proto3" json:"session_timeout,omitempty"`
}

func (c *Config) Reset()         { *c = Config{} }
func (c *Config) String() string { return proto.CompactTextString(c) }
func (*Config) ProtoMessage()    {}

// GetElectionTimeoutOrDefault returns the configured election timeout if set, otherwise the default
func (c *Config) GetElectionTimeoutOrDefault() time.Duration {
	if c != nil && c.ElectionTimeout != nil {
		timeout, err := ptypes.Duration(c.ElectionTimeout)
		if err == nil {
			return timeout
		}
	}
	return defaultElectionTimeout
}

// GetHeartbeatIntervalOrDefault returns the configured heartbeat interval if set,
// otherwise half the election timeout
func (c *Config) GetHeartbeatIntervalOrDefault() time.Duration {
	if c != nil && c.HeartbeatInterval != nil {
		interval, err := ptypes.Duration(c.HeartbeatInterval)
		if err == nil {
			return interval
		}
	}
	return c.GetElectionTimeoutOrDefault() / 2
}

// GetSessionTimeoutOrDefault returns the configured session timeout if set, otherwise the default
func (c *Config) GetSessionTimeoutOrDefault() time.Duration {
	if c != nil && c.SessionTimeout != nil {
		timeout, err := ptypes.Duration(c.SessionTimeout)
		if err == nil {
			return timeout
		}
	}
	return defaultSessionTimeout
}
