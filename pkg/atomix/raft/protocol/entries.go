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
	"github.com/gogo/protobuf/proto"
)

// LogEntry is an entry in the Raft log. Exactly one of the variant fields is set.
// Query entries are transient handles and are never appended to the log.
type LogEntry struct {
	Term          Term                `protobuf:"varint,1,opt,name=term,proto3,casttype=Term" json:"term,omitempty"`
	Timestamp     int64               `protobuf:"varint,2,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	Initialize    *InitializeEntry    `protobuf:"bytes,3,opt,name=initialize,proto3" json:"initialize,omitempty"`
	Configuration *ConfigurationEntry `protobuf:"bytes,4,opt,name=configuration,proto3" json:"configuration,omitempty"`
	Command       *CommandEntry       `protobuf:"bytes,5,opt,name=command,proto3" json:"command,omitempty"`
	Query         *QueryEntry         `protobuf:"bytes,6,opt,name=query,proto3" json:"query,omitempty"`
	Register      *RegisterEntry      `protobuf:"bytes,7,opt,name=register,proto3" json:"register,omitempty"`
	Connect       *ConnectEntry       `protobuf:"bytes,8,opt,name=connect,proto3" json:"connect,omitempty"`
	KeepAlive     *KeepAliveEntry     `protobuf:"bytes,9,opt,name=keep_alive,json=keepAlive,proto3" json:"keep_alive,omitempty"`
	Unregister    *UnregisterEntry    `protobuf:"bytes,10,opt,name=unregister,proto3" json:"unregister,omitempty"`
}

func (m *LogEntry) Reset()         { *m = LogEntry{} }
func (m *LogEntry) String() string { return proto.CompactTextString(m) }
func (*LogEntry) ProtoMessage()    {}

// InitializeEntry is a no-op entry written by a leader immediately on taking leadership
type InitializeEntry struct {
}

func (m *InitializeEntry) Reset()         { *m = InitializeEntry{} }
func (m *InitializeEntry) String() string { return proto.CompactTextString(m) }
func (*InitializeEntry) ProtoMessage()    {}

// ConfigurationEntry carries a complete cluster membership list
type ConfigurationEntry struct {
	Members []*RaftMember `protobuf:"bytes,1,rep,name=members,proto3" json:"members,omitempty"`
}

func (m *ConfigurationEntry) Reset()         { *m = ConfigurationEntry{} }
func (m *ConfigurationEntry) String() string { return proto.CompactTextString(m) }
func (*ConfigurationEntry) ProtoMessage()    {}

// CommandEntry is a replicated state-machine command
type CommandEntry struct {
	SessionID SessionID `protobuf:"varint,1,opt,name=session_id,json=sessionId,proto3,casttype=SessionID" json:"session_id,omitempty"`
	Sequence  uint64    `protobuf:"varint,2,opt,name=sequence,proto3" json:"sequence,omitempty"`
	Name      string    `protobuf:"bytes,3,opt,name=name,proto3" json:"name,omitempty"`
	Input     []byte    `protobuf:"bytes,4,opt,name=input,proto3" json:"input,omitempty"`
}

func (m *CommandEntry) Reset()         { *m = CommandEntry{} }
func (m *CommandEntry) String() string { return proto.CompactTextString(m) }
func (*CommandEntry) ProtoMessage()    {}

// QueryEntry is an in-memory handle for a state-machine query
type QueryEntry struct {
	SessionID SessionID `protobuf:"varint,1,opt,name=session_id,json=sessionId,proto3,casttype=SessionID" json:"session_id,omitempty"`
	Sequence  uint64    `protobuf:"varint,2,opt,name=sequence,proto3" json:"sequence,omitempty"`
	Index     Index     `protobuf:"varint,3,opt,name=index,proto3,casttype=Index" json:"index,omitempty"`
	Name      string    `protobuf:"bytes,4,opt,name=name,proto3" json:"name,omitempty"`
	Input     []byte    `protobuf:"bytes,5,opt,name=input,proto3" json:"input,omitempty"`
}

func (m *QueryEntry) Reset()         { *m = QueryEntry{} }
func (m *QueryEntry) String() string { return proto.CompactTextString(m) }
func (*QueryEntry) ProtoMessage()    {}

// RegisterEntry opens a new client session
type RegisterEntry struct {
	ClientID ClientID `protobuf:"bytes,1,opt,name=client_id,json=clientId,proto3,casttype=ClientID" json:"client_id,omitempty"`
	// Timeout is the session timeout in milliseconds
	Timeout int64 `protobuf:"varint,2,opt,name=timeout,proto3" json:"timeout,omitempty"`
}

func (m *RegisterEntry) Reset()         { *m = RegisterEntry{} }
func (m *RegisterEntry) String() string { return proto.CompactTextString(m) }
func (*RegisterEntry) ProtoMessage()    {}

// ConnectEntry replicates a client's current server address
type ConnectEntry struct {
	ClientID ClientID `protobuf:"bytes,1,opt,name=client_id,json=clientId,proto3,casttype=ClientID" json:"client_id,omitempty"`
	Address  string   `protobuf:"bytes,2,opt,name=address,proto3" json:"address,omitempty"`
}

func (m *ConnectEntry) Reset()         { *m = ConnectEntry{} }
func (m *ConnectEntry) String() string { return proto.CompactTextString(m) }
func (*ConnectEntry) ProtoMessage()    {}

// KeepAliveEntry keeps a client session alive
type KeepAliveEntry struct {
	SessionID       SessionID `protobuf:"varint,1,opt,name=session_id,json=sessionId,proto3,casttype=SessionID" json:"session_id,omitempty"`
	CommandSequence uint64    `protobuf:"varint,2,opt,name=command_sequence,json=commandSequence,proto3" json:"command_sequence,omitempty"`
	EventIndex      Index     `protobuf:"varint,3,opt,name=event_index,json=eventIndex,proto3,casttype=Index" json:"event_index,omitempty"`
}

func (m *KeepAliveEntry) Reset()         { *m = KeepAliveEntry{} }
func (m *KeepAliveEntry) String() string { return proto.CompactTextString(m) }
func (*KeepAliveEntry) ProtoMessage()    {}

// UnregisterEntry closes a client session. Expired is set when the entry was
// authored by the leader's session reaper rather than the client.
type UnregisterEntry struct {
	SessionID SessionID `protobuf:"varint,1,opt,name=session_id,json=sessionId,proto3,casttype=SessionID" json:"session_id,omitempty"`
	Expired   bool      `protobuf:"varint,2,opt,name=expired,proto3" json:"expired,omitempty"`
}

func (m *UnregisterEntry) Reset()         { *m = UnregisterEntry{} }
func (m *UnregisterEntry) String() string { return proto.CompactTextString(m) }
func (*UnregisterEntry) ProtoMessage()    {}

// IndexedEntry is a log entry at a specific index
type IndexedEntry struct {
	Index Index
	Entry *LogEntry
}
