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

// ResponseStatus is the status of a protocol response
type ResponseStatus int32

const (
	// ResponseStatus_OK indicates a successful response
	ResponseStatus_OK ResponseStatus = 0
	// ResponseStatus_ERROR indicates a failed response
	ResponseStatus_ERROR ResponseStatus = 1
)

var ResponseStatus_name = map[int32]string{
	0: "OK",
	1: "ERROR",
}

func (x ResponseStatus) String() string {
	return proto.EnumName(ResponseStatus_name, int32(x))
}

// RaftError is an error kind carried by failed responses
type RaftError int32

const (
	// RaftError_NO_LEADER indicates the server is not the leader and knows of no leader
	RaftError_NO_LEADER RaftError = 0
	// RaftError_UNKNOWN_SESSION indicates the session is not known to the state machine
	RaftError_UNKNOWN_SESSION RaftError = 1
	// RaftError_CONFIGURATION indicates a stale or conflicting configuration change
	RaftError_CONFIGURATION RaftError = 2
	// RaftError_QUERY indicates a linearizable query's quorum check failed
	RaftError_QUERY RaftError = 3
	// RaftError_INTERNAL indicates a replication or unexpected apply failure
	RaftError_INTERNAL RaftError = 4
	// RaftError_APPLICATION indicates an error surfaced by the application state machine
	RaftError_APPLICATION RaftError = 5
)

var RaftError_name = map[int32]string{
	0: "NO_LEADER",
	1: "UNKNOWN_SESSION",
	2: "CONFIGURATION",
	3: "QUERY",
	4: "INTERNAL",
	5: "APPLICATION",
}

func (x RaftError) String() string {
	return proto.EnumName(RaftError_name, int32(x))
}

// ReadConsistency is the consistency level of a query
type ReadConsistency int32

const (
	// ReadConsistency_LINEARIZABLE verifies leadership with a quorum before servicing the query
	ReadConsistency_LINEARIZABLE ReadConsistency = 0
	// ReadConsistency_LINEARIZABLE_LEASE services the query under the leader's heartbeat lease
	ReadConsistency_LINEARIZABLE_LEASE ReadConsistency = 1
	// ReadConsistency_SEQUENTIAL services the query locally once the session has caught up
	ReadConsistency_SEQUENTIAL ReadConsistency = 2
)

var ReadConsistency_name = map[int32]string{
	0: "LINEARIZABLE",
	1: "LINEARIZABLE_LEASE",
	2: "SEQUENTIAL",
}

func (x ReadConsistency) String() string {
	return proto.EnumName(ReadConsistency_name, int32(x))
}

// MemberType is the replication role of a cluster member
type MemberType int32

const (
	// MemberType_INACTIVE members are not part of replication
	MemberType_INACTIVE MemberType = 0
	// MemberType_PASSIVE members receive committed entries but do not vote
	MemberType_PASSIVE MemberType = 1
	// MemberType_PROMOTABLE members are catching up before becoming active
	MemberType_PROMOTABLE MemberType = 2
	// MemberType_ACTIVE members vote and participate in commitment
	MemberType_ACTIVE MemberType = 3
)

var MemberType_name = map[int32]string{
	0: "INACTIVE",
	1: "PASSIVE",
	2: "PROMOTABLE",
	3: "ACTIVE",
}

func (x MemberType) String() string {
	return proto.EnumName(MemberType_name, int32(x))
}

// MemberStatus is the availability status of a cluster member
type MemberStatus int32

const (
	// MemberStatus_AVAILABLE indicates the member is reachable
	MemberStatus_AVAILABLE MemberStatus = 0
	// MemberStatus_UNAVAILABLE indicates the member has failed recent communication
	MemberStatus_UNAVAILABLE MemberStatus = 1
)

var MemberStatus_name = map[int32]string{
	0: "AVAILABLE",
	1: "UNAVAILABLE",
}

func (x MemberStatus) String() string {
	return proto.EnumName(MemberStatus_name, int32(x))
}

// RaftMember is a member of the Raft cluster
type RaftMember struct {
	MemberID MemberID     `protobuf:"bytes,1,opt,name=member_id,json=memberId,proto3,casttype=MemberID" json:"member_id,omitempty"`
	Type     MemberType   `protobuf:"varint,2,opt,name=type,proto3,enum=MemberType" json:"type,omitempty"`
	Status   MemberStatus `protobuf:"varint,3,opt,name=status,proto3,enum=MemberStatus" json:"status,omitempty"`
	// Address is the member's server-to-server address
	Address string `protobuf:"bytes,4,opt,name=address,proto3" json:"address,omitempty"`
	// ClientAddress is the member's client-facing address
	ClientAddress string `protobuf:"bytes,5,opt,name=client_address,json=clientAddress,proto3" json:"client_address,omitempty"`
	Updated       int64  `protobuf:"varint,6,opt,name=updated,proto3" json:"updated,omitempty"`
}

func (m *RaftMember) Reset()         { *m = RaftMember{} }
func (m *RaftMember) String() string { return proto.CompactTextString(m) }
func (*RaftMember) ProtoMessage()    {}

// Configuration is a complete cluster membership list
type Configuration struct {
	Index     Index         `protobuf:"varint,1,opt,name=index,proto3,casttype=Index" json:"index,omitempty"`
	Term      Term          `protobuf:"varint,2,opt,name=term,proto3,casttype=Term" json:"term,omitempty"`
	Timestamp int64         `protobuf:"varint,3,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	Members   []*RaftMember `protobuf:"bytes,4,rep,name=members,proto3" json:"members,omitempty"`
}

func (m *Configuration) Reset()         { *m = Configuration{} }
func (m *Configuration) String() string { return proto.CompactTextString(m) }
func (*Configuration) ProtoMessage()    {}

// Copy returns a deep copy of the configuration
func (m *Configuration) Copy() *Configuration {
	members := make([]*RaftMember, len(m.Members))
	for i, member := range m.Members {
		copied := *member
		members[i] = &copied
	}
	return &Configuration{
		Index:     m.Index,
		Term:      m.Term,
		Timestamp: m.Timestamp,
		Members:   members,
	}
}

// AppendRequest is a request to append entries to a member's log
type AppendRequest struct {
	Term         Term        `protobuf:"varint,1,opt,name=term,proto3,casttype=Term" json:"term,omitempty"`
	Leader       MemberID    `protobuf:"bytes,2,opt,name=leader,proto3,casttype=MemberID" json:"leader,omitempty"`
	PrevLogIndex Index       `protobuf:"varint,3,opt,name=prev_log_index,json=prevLogIndex,proto3,casttype=Index" json:"prev_log_index,omitempty"`
	PrevLogTerm  Term        `protobuf:"varint,4,opt,name=prev_log_term,json=prevLogTerm,proto3,casttype=Term" json:"prev_log_term,omitempty"`
	Entries      []*LogEntry `protobuf:"bytes,5,rep,name=entries,proto3" json:"entries,omitempty"`
	CommitIndex  Index       `protobuf:"varint,6,opt,name=commit_index,json=commitIndex,proto3,casttype=Index" json:"commit_index,omitempty"`
}

func (m *AppendRequest) Reset()         { *m = AppendRequest{} }
func (m *AppendRequest) String() string { return proto.CompactTextString(m) }
func (*AppendRequest) ProtoMessage()    {}

// AppendResponse is a response to an append request
type AppendResponse struct {
	Status       ResponseStatus `protobuf:"varint,1,opt,name=status,proto3,enum=ResponseStatus" json:"status,omitempty"`
	Error        RaftError      `protobuf:"varint,2,opt,name=error,proto3,enum=RaftError" json:"error,omitempty"`
	Term         Term           `protobuf:"varint,3,opt,name=term,proto3,casttype=Term" json:"term,omitempty"`
	Succeeded    bool           `protobuf:"varint,4,opt,name=succeeded,proto3" json:"succeeded,omitempty"`
	LastLogIndex Index          `protobuf:"varint,5,opt,name=last_log_index,json=lastLogIndex,proto3,casttype=Index" json:"last_log_index,omitempty"`
}

func (m *AppendResponse) Reset()         { *m = AppendResponse{} }
func (m *AppendResponse) String() string { return proto.CompactTextString(m) }
func (*AppendResponse) ProtoMessage()    {}

// VoteRequest is a request for a member's vote in an election
type VoteRequest struct {
	Term         Term     `protobuf:"varint,1,opt,name=term,proto3,casttype=Term" json:"term,omitempty"`
	Candidate    MemberID `protobuf:"bytes,2,opt,name=candidate,proto3,casttype=MemberID" json:"candidate,omitempty"`
	LastLogIndex Index    `protobuf:"varint,3,opt,name=last_log_index,json=lastLogIndex,proto3,casttype=Index" json:"last_log_index,omitempty"`
	LastLogTerm  Term     `protobuf:"varint,4,opt,name=last_log_term,json=lastLogTerm,proto3,casttype=Term" json:"last_log_term,omitempty"`
}

func (m *VoteRequest) Reset()         { *m = VoteRequest{} }
func (m *VoteRequest) String() string { return proto.CompactTextString(m) }
func (*VoteRequest) ProtoMessage()    {}

// VoteResponse is a response to a vote request
type VoteResponse struct {
	Status ResponseStatus `protobuf:"varint,1,opt,name=status,proto3,enum=ResponseStatus" json:"status,omitempty"`
	Term   Term           `protobuf:"varint,2,opt,name=term,proto3,casttype=Term" json:"term,omitempty"`
	Voted  bool           `protobuf:"varint,3,opt,name=voted,proto3" json:"voted,omitempty"`
}

func (m *VoteResponse) Reset()         { *m = VoteResponse{} }
func (m *VoteResponse) String() string { return proto.CompactTextString(m) }
func (*VoteResponse) ProtoMessage()    {}

// PollRequest is a pre-vote request sent before starting an election
type PollRequest struct {
	Term         Term     `protobuf:"varint,1,opt,name=term,proto3,casttype=Term" json:"term,omitempty"`
	Candidate    MemberID `protobuf:"bytes,2,opt,name=candidate,proto3,casttype=MemberID" json:"candidate,omitempty"`
	LastLogIndex Index    `protobuf:"varint,3,opt,name=last_log_index,json=lastLogIndex,proto3,casttype=Index" json:"last_log_index,omitempty"`
	LastLogTerm  Term     `protobuf:"varint,4,opt,name=last_log_term,json=lastLogTerm,proto3,casttype=Term" json:"last_log_term,omitempty"`
}

func (m *PollRequest) Reset()         { *m = PollRequest{} }
func (m *PollRequest) String() string { return proto.CompactTextString(m) }
func (*PollRequest) ProtoMessage()    {}

// PollResponse is a response to a poll request
type PollResponse struct {
	Status   ResponseStatus `protobuf:"varint,1,opt,name=status,proto3,enum=ResponseStatus" json:"status,omitempty"`
	Term     Term           `protobuf:"varint,2,opt,name=term,proto3,casttype=Term" json:"term,omitempty"`
	Accepted bool           `protobuf:"varint,3,opt,name=accepted,proto3" json:"accepted,omitempty"`
}

func (m *PollResponse) Reset()         { *m = PollResponse{} }
func (m *PollResponse) String() string { return proto.CompactTextString(m) }
func (*PollResponse) ProtoMessage()    {}

// CommandRequest is a client request to apply a command to the state machine
type CommandRequest struct {
	SessionID SessionID `protobuf:"varint,1,opt,name=session_id,json=sessionId,proto3,casttype=SessionID" json:"session_id,omitempty"`
	Sequence  uint64    `protobuf:"varint,2,opt,name=sequence,proto3" json:"sequence,omitempty"`
	Name      string    `protobuf:"bytes,3,opt,name=name,proto3" json:"name,omitempty"`
	Input     []byte    `protobuf:"bytes,4,opt,name=input,proto3" json:"input,omitempty"`
}

func (m *CommandRequest) Reset()         { *m = CommandRequest{} }
func (m *CommandRequest) String() string { return proto.CompactTextString(m) }
func (*CommandRequest) ProtoMessage()    {}

// CommandResponse is a response to a command request
type CommandResponse struct {
	Status  ResponseStatus `protobuf:"varint,1,opt,name=status,proto3,enum=ResponseStatus" json:"status,omitempty"`
	Error   RaftError      `protobuf:"varint,2,opt,name=error,proto3,enum=RaftError" json:"error,omitempty"`
	Message string         `protobuf:"bytes,3,opt,name=message,proto3" json:"message,omitempty"`
	Index   Index          `protobuf:"varint,4,opt,name=index,proto3,casttype=Index" json:"index,omitempty"`
	Output  []byte         `protobuf:"bytes,5,opt,name=output,proto3" json:"output,omitempty"`
}

func (m *CommandResponse) Reset()         { *m = CommandResponse{} }
func (m *CommandResponse) String() string { return proto.CompactTextString(m) }
func (*CommandResponse) ProtoMessage()    {}

// QueryRequest is a client request to read from the state machine
type QueryRequest struct {
	SessionID   SessionID       `protobuf:"varint,1,opt,name=session_id,json=sessionId,proto3,casttype=SessionID" json:"session_id,omitempty"`
	Sequence    uint64          `protobuf:"varint,2,opt,name=sequence,proto3" json:"sequence,omitempty"`
	Index       Index           `protobuf:"varint,3,opt,name=index,proto3,casttype=Index" json:"index,omitempty"`
	Name        string          `protobuf:"bytes,4,opt,name=name,proto3" json:"name,omitempty"`
	Input       []byte          `protobuf:"bytes,5,opt,name=input,proto3" json:"input,omitempty"`
	Consistency ReadConsistency `protobuf:"varint,6,opt,name=consistency,proto3,enum=ReadConsistency" json:"consistency,omitempty"`
}

func (m *QueryRequest) Reset()         { *m = QueryRequest{} }
func (m *QueryRequest) String() string { return proto.CompactTextString(m) }
func (*QueryRequest) ProtoMessage()    {}

// QueryResponse is a response to a query request
type QueryResponse struct {
	Status  ResponseStatus `protobuf:"varint,1,opt,name=status,proto3,enum=ResponseStatus" json:"status,omitempty"`
	Error   RaftError      `protobuf:"varint,2,opt,name=error,proto3,enum=RaftError" json:"error,omitempty"`
	Message string         `protobuf:"bytes,3,opt,name=message,proto3" json:"message,omitempty"`
	Index   Index          `protobuf:"varint,4,opt,name=index,proto3,casttype=Index" json:"index,omitempty"`
	Output  []byte         `protobuf:"bytes,5,opt,name=output,proto3" json:"output,omitempty"`
}

func (m *QueryResponse) Reset()         { *m = QueryResponse{} }
func (m *QueryResponse) String() string { return proto.CompactTextString(m) }
func (*QueryResponse) ProtoMessage()    {}

// RegisterRequest is a client request to open a new session
type RegisterRequest struct {
	ClientID ClientID `protobuf:"bytes,1,opt,name=client_id,json=clientId,proto3,casttype=ClientID" json:"client_id,omitempty"`
	// Timeout is the requested session timeout in milliseconds; 0 uses the server default
	Timeout int64 `protobuf:"varint,2,opt,name=timeout,proto3" json:"timeout,omitempty"`
}

func (m *RegisterRequest) Reset()         { *m = RegisterRequest{} }
func (m *RegisterRequest) String() string { return proto.CompactTextString(m) }
func (*RegisterRequest) ProtoMessage()    {}

// RegisterResponse is a response to a register request
type RegisterResponse struct {
	Status    ResponseStatus `protobuf:"varint,1,opt,name=status,proto3,enum=ResponseStatus" json:"status,omitempty"`
	Error     RaftError      `protobuf:"varint,2,opt,name=error,proto3,enum=RaftError" json:"error,omitempty"`
	Message   string         `protobuf:"bytes,7,opt,name=message,proto3" json:"message,omitempty"`
	SessionID SessionID      `protobuf:"varint,3,opt,name=session_id,json=sessionId,proto3,casttype=SessionID" json:"session_id,omitempty"`
	Timeout   int64          `protobuf:"varint,4,opt,name=timeout,proto3" json:"timeout,omitempty"`
	Leader    string         `protobuf:"bytes,5,opt,name=leader,proto3" json:"leader,omitempty"`
	Members   []string       `protobuf:"bytes,6,rep,name=members,proto3" json:"members,omitempty"`
}

func (m *RegisterResponse) Reset()         { *m = RegisterResponse{} }
func (m *RegisterResponse) String() string { return proto.CompactTextString(m) }
func (*RegisterResponse) ProtoMessage()    {}

// ConnectRequest is a client request to associate its connection with this server
type ConnectRequest struct {
	ClientID ClientID `protobuf:"bytes,1,opt,name=client_id,json=clientId,proto3,casttype=ClientID" json:"client_id,omitempty"`
}

func (m *ConnectRequest) Reset()         { *m = ConnectRequest{} }
func (m *ConnectRequest) String() string { return proto.CompactTextString(m) }
func (*ConnectRequest) ProtoMessage()    {}

// ConnectResponse is a response to a connect request
type ConnectResponse struct {
	Status  ResponseStatus `protobuf:"varint,1,opt,name=status,proto3,enum=ResponseStatus" json:"status,omitempty"`
	Error   RaftError      `protobuf:"varint,2,opt,name=error,proto3,enum=RaftError" json:"error,omitempty"`
	Leader  string         `protobuf:"bytes,3,opt,name=leader,proto3" json:"leader,omitempty"`
	Members []string       `protobuf:"bytes,4,rep,name=members,proto3" json:"members,omitempty"`
}

func (m *ConnectResponse) Reset()         { *m = ConnectResponse{} }
func (m *ConnectResponse) String() string { return proto.CompactTextString(m) }
func (*ConnectResponse) ProtoMessage()    {}

// AcceptRequest replicates a client's current server address
type AcceptRequest struct {
	ClientID ClientID `protobuf:"bytes,1,opt,name=client_id,json=clientId,proto3,casttype=ClientID" json:"client_id,omitempty"`
	Address  string   `protobuf:"bytes,2,opt,name=address,proto3" json:"address,omitempty"`
}

func (m *AcceptRequest) Reset()         { *m = AcceptRequest{} }
func (m *AcceptRequest) String() string { return proto.CompactTextString(m) }
func (*AcceptRequest) ProtoMessage()    {}

// AcceptResponse is a response to an accept request
type AcceptResponse struct {
	Status ResponseStatus `protobuf:"varint,1,opt,name=status,proto3,enum=ResponseStatus" json:"status,omitempty"`
	Error  RaftError      `protobuf:"varint,2,opt,name=error,proto3,enum=RaftError" json:"error,omitempty"`
}

func (m *AcceptResponse) Reset()         { *m = AcceptResponse{} }
func (m *AcceptResponse) String() string { return proto.CompactTextString(m) }
func (*AcceptResponse) ProtoMessage()    {}

// KeepAliveRequest is a client request to keep its session alive
type KeepAliveRequest struct {
	SessionID       SessionID `protobuf:"varint,1,opt,name=session_id,json=sessionId,proto3,casttype=SessionID" json:"session_id,omitempty"`
	CommandSequence uint64    `protobuf:"varint,2,opt,name=command_sequence,json=commandSequence,proto3" json:"command_sequence,omitempty"`
	EventIndex      Index     `protobuf:"varint,3,opt,name=event_index,json=eventIndex,proto3,casttype=Index" json:"event_index,omitempty"`
}

func (m *KeepAliveRequest) Reset()         { *m = KeepAliveRequest{} }
func (m *KeepAliveRequest) String() string { return proto.CompactTextString(m) }
func (*KeepAliveRequest) ProtoMessage()    {}

// KeepAliveResponse is a response to a keep-alive request
type KeepAliveResponse struct {
	Status  ResponseStatus `protobuf:"varint,1,opt,name=status,proto3,enum=ResponseStatus" json:"status,omitempty"`
	Error   RaftError      `protobuf:"varint,2,opt,name=error,proto3,enum=RaftError" json:"error,omitempty"`
	Leader  string         `protobuf:"bytes,3,opt,name=leader,proto3" json:"leader,omitempty"`
	Members []string       `protobuf:"bytes,4,rep,name=members,proto3" json:"members,omitempty"`
}

func (m *KeepAliveResponse) Reset()         { *m = KeepAliveResponse{} }
func (m *KeepAliveResponse) String() string { return proto.CompactTextString(m) }
func (*KeepAliveResponse) ProtoMessage()    {}

// UnregisterRequest is a client request to close its session
type UnregisterRequest struct {
	SessionID SessionID `protobuf:"varint,1,opt,name=session_id,json=sessionId,proto3,casttype=SessionID" json:"session_id,omitempty"`
}

func (m *UnregisterRequest) Reset()         { *m = UnregisterRequest{} }
func (m *UnregisterRequest) String() string { return proto.CompactTextString(m) }
func (*UnregisterRequest) ProtoMessage()    {}

// UnregisterResponse is a response to an unregister request
type UnregisterResponse struct {
	Status ResponseStatus `protobuf:"varint,1,opt,name=status,proto3,enum=ResponseStatus" json:"status,omitempty"`
	Error  RaftError      `protobuf:"varint,2,opt,name=error,proto3,enum=RaftError" json:"error,omitempty"`
}

func (m *UnregisterResponse) Reset()         { *m = UnregisterResponse{} }
func (m *UnregisterResponse) String() string { return proto.CompactTextString(m) }
func (*UnregisterResponse) ProtoMessage()    {}

// JoinRequest is a request to add a member to the cluster
type JoinRequest struct {
	Member *RaftMember `protobuf:"bytes,1,opt,name=member,proto3" json:"member,omitempty"`
}

func (m *JoinRequest) Reset()         { *m = JoinRequest{} }
func (m *JoinRequest) String() string { return proto.CompactTextString(m) }
func (*JoinRequest) ProtoMessage()    {}

// JoinResponse is a response to a join request
type JoinResponse struct {
	Status    ResponseStatus `protobuf:"varint,1,opt,name=status,proto3,enum=ResponseStatus" json:"status,omitempty"`
	Error     RaftError      `protobuf:"varint,2,opt,name=error,proto3,enum=RaftError" json:"error,omitempty"`
	Index     Index          `protobuf:"varint,3,opt,name=index,proto3,casttype=Index" json:"index,omitempty"`
	Term      Term           `protobuf:"varint,4,opt,name=term,proto3,casttype=Term" json:"term,omitempty"`
	Timestamp int64          `protobuf:"varint,5,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	Members   []*RaftMember  `protobuf:"bytes,6,rep,name=members,proto3" json:"members,omitempty"`
}

func (m *JoinResponse) Reset()         { *m = JoinResponse{} }
func (m *JoinResponse) String() string { return proto.CompactTextString(m) }
func (*JoinResponse) ProtoMessage()    {}

// LeaveRequest is a request to remove a member from the cluster
type LeaveRequest struct {
	Member *RaftMember `protobuf:"bytes,1,opt,name=member,proto3" json:"member,omitempty"`
}

func (m *LeaveRequest) Reset()         { *m = LeaveRequest{} }
func (m *LeaveRequest) String() string { return proto.CompactTextString(m) }
func (*LeaveRequest) ProtoMessage()    {}

// LeaveResponse is a response to a leave request
type LeaveResponse struct {
	Status    ResponseStatus `protobuf:"varint,1,opt,name=status,proto3,enum=ResponseStatus" json:"status,omitempty"`
	Error     RaftError      `protobuf:"varint,2,opt,name=error,proto3,enum=RaftError" json:"error,omitempty"`
	Index     Index          `protobuf:"varint,3,opt,name=index,proto3,casttype=Index" json:"index,omitempty"`
	Term      Term           `protobuf:"varint,4,opt,name=term,proto3,casttype=Term" json:"term,omitempty"`
	Timestamp int64          `protobuf:"varint,5,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	Members   []*RaftMember  `protobuf:"bytes,6,rep,name=members,proto3" json:"members,omitempty"`
}

func (m *LeaveResponse) Reset()         { *m = LeaveResponse{} }
func (m *LeaveResponse) String() string { return proto.CompactTextString(m) }
func (*LeaveResponse) ProtoMessage()    {}

// ReconfigureRequest is a request to change a member's type, status, or address
type ReconfigureRequest struct {
	Member *RaftMember `protobuf:"bytes,1,opt,name=member,proto3" json:"member,omitempty"`
	Index  Index       `protobuf:"varint,2,opt,name=index,proto3,casttype=Index" json:"index,omitempty"`
	Term   Term        `protobuf:"varint,3,opt,name=term,proto3,casttype=Term" json:"term,omitempty"`
}

func (m *ReconfigureRequest) Reset()         { *m = ReconfigureRequest{} }
func (m *ReconfigureRequest) String() string { return proto.CompactTextString(m) }
func (*ReconfigureRequest) ProtoMessage()    {}

// ReconfigureResponse is a response to a reconfigure request
type ReconfigureResponse struct {
	Status    ResponseStatus `protobuf:"varint,1,opt,name=status,proto3,enum=ResponseStatus" json:"status,omitempty"`
	Error     RaftError      `protobuf:"varint,2,opt,name=error,proto3,enum=RaftError" json:"error,omitempty"`
	Index     Index          `protobuf:"varint,3,opt,name=index,proto3,casttype=Index" json:"index,omitempty"`
	Term      Term           `protobuf:"varint,4,opt,name=term,proto3,casttype=Term" json:"term,omitempty"`
	Timestamp int64          `protobuf:"varint,5,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	Members   []*RaftMember  `protobuf:"bytes,6,rep,name=members,proto3" json:"members,omitempty"`
}

func (m *ReconfigureResponse) Reset()         { *m = ReconfigureResponse{} }
func (m *ReconfigureResponse) String() string { return proto.CompactTextString(m) }
func (*ReconfigureResponse) ProtoMessage()    {}
