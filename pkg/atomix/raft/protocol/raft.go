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
	"context"
	"sort"
	"sync"
	"time"
)

// Role is a Raft role handling the protocol RPCs
type Role interface {
	RaftServiceServer

	// Name is the name of the role
	Name() string

	// Start starts the role
	Start() error

	// Stop stops the role
	Stop() error
}

// Raft is the central state shared by all roles of a Raft server.
// Accessors must be called with the appropriate lock held; roles hold
// the read lock to observe state and the write lock to mutate it.
type Raft interface {
	Locator

	// Member returns the local member ID
	Member() MemberID

	// Members returns the IDs of all members in the current configuration
	Members() []MemberID

	// GetMember returns the member with the given ID, or nil
	GetMember(member MemberID) *RaftMember

	// Configuration returns the current cluster configuration
	Configuration() *Configuration

	// Configure replaces the cluster configuration
	Configure(configuration *Configuration)

	// Config returns the protocol configuration
	Config() *Config

	// Term returns the current term
	Term() Term

	// SetTerm sets the current term, clearing the leader and the vote
	SetTerm(term Term)

	// Leader returns the known leader for the current term
	Leader() MemberID

	// SetLeader sets the known leader for the current term
	SetLeader(leader MemberID)

	// LastVotedFor returns the candidate voted for in the current term, if any
	LastVotedFor() *MemberID

	// SetLastVotedFor records a vote for the current term
	SetLastVotedFor(candidate MemberID)

	// CommitIndex returns the local commit index
	CommitIndex() Index

	// SetCommitIndex sets the local commit index
	SetCommitIndex(index Index)

	// SetRole transitions the server to the given role, stopping the
	// previous role first. SetRole acquires the write lock internally;
	// callers holding a lock must invoke it from a new goroutine.
	SetRole(role Role)

	// Connect returns a protocol client for the given member
	Connect(member MemberID) (RaftServiceClient, error)

	// ResetConnection discards the connection to the given member
	ResetConnection(member MemberID)

	// ReadLock acquires the state read lock
	ReadLock()

	// ReadUnlock releases the state read lock
	ReadUnlock()

	// WriteLock acquires the state write lock
	WriteLock()

	// WriteUnlock releases the state write lock
	WriteUnlock()

	// Close closes the server state, stopping the current role
	Close() error
}

// Option is an option for constructing Raft state
type Option func(*raft)

// WithClient overrides the protocol client used to connect to other members
func WithClient(client Client) Option {
	return func(r *raft) {
		r.client = client
	}
}

// NewRaft returns new Raft state for the given cluster
func NewRaft(member MemberID, configuration *Configuration, config *Config, metadata MetadataStore, opts ...Option) Raft {
	raft := &raft{
		member:        member,
		configuration: configuration.Copy(),
		config:        config,
		metadata:      metadata,
	}
	if term := metadata.LoadTerm(); term != nil {
		raft.term = *term
	}
	raft.lastVotedFor = metadata.LoadVote()
	for _, opt := range opts {
		opt(raft)
	}
	if raft.client == nil {
		raft.client = NewClient(raft)
	}
	return raft
}

// raft is the implementation of the Raft state facade
type raft struct {
	member        MemberID
	configuration *Configuration
	config        *Config
	metadata      MetadataStore
	client        Client
	role          Role
	term          Term
	leader        MemberID
	lastVotedFor  *MemberID
	commitIndex   Index
	mu            sync.RWMutex
	roleMu        sync.Mutex
}

func (r *raft) Member() MemberID {
	return r.member
}

func (r *raft) Members() []MemberID {
	members := make([]MemberID, 0, len(r.configuration.Members))
	for _, member := range r.configuration.Members {
		members = append(members, member.MemberID)
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i] < members[j]
	})
	return members
}

func (r *raft) GetMember(id MemberID) *RaftMember {
	for _, member := range r.configuration.Members {
		if member.MemberID == id {
			return member
		}
	}
	return nil
}

func (r *raft) Configuration() *Configuration {
	return r.configuration
}

func (r *raft) Configure(configuration *Configuration) {
	r.configuration = configuration.Copy()
}

func (r *raft) Config() *Config {
	return r.config
}

func (r *raft) Term() Term {
	return r.term
}

func (r *raft) SetTerm(term Term) {
	if term > r.term {
		r.term = term
		r.leader = ""
		r.lastVotedFor = nil
		r.metadata.StoreTerm(term)
		r.metadata.StoreVote(nil)
	}
}

func (r *raft) Leader() MemberID {
	return r.leader
}

func (r *raft) SetLeader(leader MemberID) {
	r.leader = leader
}

func (r *raft) LastVotedFor() *MemberID {
	return r.lastVotedFor
}

func (r *raft) SetLastVotedFor(candidate MemberID) {
	vote := candidate
	r.lastVotedFor = &vote
	r.metadata.StoreVote(&vote)
}

func (r *raft) CommitIndex() Index {
	return r.commitIndex
}

func (r *raft) SetCommitIndex(index Index) {
	if index > r.commitIndex {
		r.commitIndex = index
	}
}

func (r *raft) SetRole(role Role) {
	r.roleMu.Lock()
	defer r.roleMu.Unlock()

	r.mu.Lock()
	previous := r.role
	r.mu.Unlock()

	if previous != nil {
		_ = previous.Stop()
	}

	r.mu.Lock()
	r.role = role
	r.mu.Unlock()

	if role != nil {
		_ = role.Start()
	}
}

// getRole returns the current role for RPC dispatch
func (r *raft) getRole() Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.role
}

func (r *raft) Locate(member MemberID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.configuration.Members {
		if m.MemberID == member {
			return m.Address, true
		}
	}
	return "", false
}

func (r *raft) Connect(member MemberID) (RaftServiceClient, error) {
	return r.client.Connect(member)
}

func (r *raft) ResetConnection(member MemberID) {
	r.client.Reset(member)
}

func (r *raft) ReadLock() {
	r.mu.RLock()
}

func (r *raft) ReadUnlock() {
	r.mu.RUnlock()
}

func (r *raft) WriteLock() {
	r.mu.Lock()
}

func (r *raft) WriteUnlock() {
	r.mu.Unlock()
}

func (r *raft) Close() error {
	r.SetRole(nil)
	return r.client.Close()
}

// Dispatcher dispatches protocol RPCs to the server's current role
type Dispatcher struct {
	Raft Raft
}

func (d *Dispatcher) role() Role {
	if raft, ok := d.Raft.(*raft); ok {
		return raft.getRole()
	}
	return nil
}

// Append dispatches an append request to the current role
func (d *Dispatcher) Append(ctx context.Context, request *AppendRequest) (*AppendResponse, error) {
	role := d.role()
	if role == nil {
		return nil, ErrNoRole
	}
	return role.Append(ctx, request)
}

// Vote dispatches a vote request to the current role
func (d *Dispatcher) Vote(ctx context.Context, request *VoteRequest) (*VoteResponse, error) {
	role := d.role()
	if role == nil {
		return nil, ErrNoRole
	}
	return role.Vote(ctx, request)
}

// Poll dispatches a poll request to the current role
func (d *Dispatcher) Poll(ctx context.Context, request *PollRequest) (*PollResponse, error) {
	role := d.role()
	if role == nil {
		return nil, ErrNoRole
	}
	return role.Poll(ctx, request)
}

// Command dispatches a command request to the current role
func (d *Dispatcher) Command(ctx context.Context, request *CommandRequest) (*CommandResponse, error) {
	role := d.role()
	if role == nil {
		return nil, ErrNoRole
	}
	return role.Command(ctx, request)
}

// Query dispatches a query request to the current role
func (d *Dispatcher) Query(ctx context.Context, request *QueryRequest) (*QueryResponse, error) {
	role := d.role()
	if role == nil {
		return nil, ErrNoRole
	}
	return role.Query(ctx, request)
}

// Register dispatches a register request to the current role
func (d *Dispatcher) Register(ctx context.Context, request *RegisterRequest) (*RegisterResponse, error) {
	role := d.role()
	if role == nil {
		return nil, ErrNoRole
	}
	return role.Register(ctx, request)
}

// Connect dispatches a connect request to the current role
func (d *Dispatcher) Connect(ctx context.Context, request *ConnectRequest) (*ConnectResponse, error) {
	role := d.role()
	if role == nil {
		return nil, ErrNoRole
	}
	return role.Connect(ctx, request)
}

// Accept dispatches an accept request to the current role
func (d *Dispatcher) Accept(ctx context.Context, request *AcceptRequest) (*AcceptResponse, error) {
	role := d.role()
	if role == nil {
		return nil, ErrNoRole
	}
	return role.Accept(ctx, request)
}

// KeepAlive dispatches a keep-alive request to the current role
func (d *Dispatcher) KeepAlive(ctx context.Context, request *KeepAliveRequest) (*KeepAliveResponse, error) {
	role := d.role()
	if role == nil {
		return nil, ErrNoRole
	}
	return role.KeepAlive(ctx, request)
}

// Unregister dispatches an unregister request to the current role
func (d *Dispatcher) Unregister(ctx context.Context, request *UnregisterRequest) (*UnregisterResponse, error) {
	role := d.role()
	if role == nil {
		return nil, ErrNoRole
	}
	return role.Unregister(ctx, request)
}

// Join dispatches a join request to the current role
func (d *Dispatcher) Join(ctx context.Context, request *JoinRequest) (*JoinResponse, error) {
	role := d.role()
	if role == nil {
		return nil, ErrNoRole
	}
	return role.Join(ctx, request)
}

// Leave dispatches a leave request to the current role
func (d *Dispatcher) Leave(ctx context.Context, request *LeaveRequest) (*LeaveResponse, error) {
	role := d.role()
	if role == nil {
		return nil, ErrNoRole
	}
	return role.Leave(ctx, request)
}

// Reconfigure dispatches a reconfigure request to the current role
func (d *Dispatcher) Reconfigure(ctx context.Context, request *ReconfigureRequest) (*ReconfigureResponse, error) {
	role := d.role()
	if role == nil {
		return nil, ErrNoRole
	}
	return role.Reconfigure(ctx, request)
}

// ErrNoRole is returned when an RPC arrives before the server has started a role
var ErrNoRole = &noRoleError{}

type noRoleError struct{}

func (e *noRoleError) Error() string {
	return "server has no active role"
}

// NewConfiguration returns an uncommitted configuration for the given members
func NewConfiguration(members []*RaftMember) *Configuration {
	return &Configuration{
		Timestamp: time.Now().UnixNano(),
		Members:   members,
	}
}
