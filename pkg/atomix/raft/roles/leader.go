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
	"sync"
	"time"

	raft "github.com/atomix/atomix-raft-node/pkg/atomix/raft/protocol"
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/state"
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/store"
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/util"
)

// newLeaderRole returns a new leader role
func newLeaderRole(r raft.Raft, sm state.Manager, s store.Store) raft.Role {
	log := util.NewRoleLogger(string(r.Member()), string(RoleLeader))
	leader := &LeaderRole{
		ActiveRole: newActiveRole(r, sm, s, log),
		tasks:      make(chan *applyTask, 1024),
		stopCh:     make(chan struct{}),
	}
	leader.appender = newAppender(r, sm, s, log)
	leader.reaper = newSessionReaper(leader)
	return leader
}

// applyTask carries an appended entry through replication and application
type applyTask struct {
	entry *raft.IndexedEntry
	ch    chan state.Output
}

// LeaderRole implements a Raft leader serving client operations
type LeaderRole struct {
	*ActiveRole
	appender    *raftAppender
	reaper      *sessionReaper
	tasks       chan *applyTask
	stopCh      chan struct{}
	stopOnce    sync.Once
	initEntry   *raft.IndexedEntry
	configuring raft.Index
	appendMu    sync.Mutex
	configMu    sync.Mutex
}

// Name is the name of the role
func (r *LeaderRole) Name() string {
	return string(RoleLeader)
}

// Start starts the leader
func (r *LeaderRole) Start() error {
	_ = r.ActiveRole.Start()

	r.raft.WriteLock()
	r.raft.SetLeader(r.raft.Member())
	r.raft.WriteUnlock()

	go r.appender.start()
	go r.processTasks()

	r.initialize()
	return nil
}

// Stop stops the leader
func (r *LeaderRole) Stop() error {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
	r.appender.stop()
	r.raft.WriteLock()
	if r.raft.Leader() == r.raft.Member() {
		r.raft.SetLeader("")
	}
	r.raft.WriteUnlock()
	return r.ActiveRole.Stop()
}

// initialize appends the Initialize entry for the new term followed by a
// Configuration entry with the current membership. The leader is initializing
// until the Initialize entry commits.
func (r *LeaderRole) initialize() {
	r.raft.ReadLock()
	term := r.raft.Term()
	members := r.raft.Configuration().Members
	r.raft.ReadUnlock()

	entry := &raft.LogEntry{
		Term:       term,
		Timestamp:  r.appender.time().UnixNano(),
		Initialize: &raft.InitializeEntry{},
	}
	indexed, ch := r.appendInitialEntry(entry)
	if indexed.Index != r.appender.index() {
		panic("initialize entry index does not match appender index")
	}

	r.configMu.Lock()
	r.initEntry = indexed
	future := r.configure(members)
	r.configMu.Unlock()

	go func() {
		output := <-ch
		if output.Error != nil {
			r.log.Debug("Failed to commit initialize entry: %v", output.Error)
			return
		}
		r.log.Info("Leader ready at index %d for term %d", indexed.Index, term)
	}()
	go func() {
		<-future
	}()
}

// initializing returns true until the leader's Initialize entry has committed
func (r *LeaderRole) initializing() bool {
	r.configMu.Lock()
	initEntry := r.initEntry
	r.configMu.Unlock()
	if initEntry == nil {
		return true
	}
	r.raft.ReadLock()
	defer r.raft.ReadUnlock()
	return r.raft.CommitIndex() < initEntry.Index
}

// awaitInitialized blocks until the leader's Initialize entry has committed
func (r *LeaderRole) awaitInitialized() error {
	if !r.initializing() {
		return nil
	}
	r.configMu.Lock()
	initEntry := r.initEntry
	r.configMu.Unlock()
	if initEntry == nil {
		return errStepDown
	}
	return r.appender.commit(initEntry)
}

// appendEntry appends the given entry to the log, records it with the
// appender, and enqueues it for replication and application. The lock ensures
// the apply pipeline observes entries in log order.
func (r *LeaderRole) appendEntry(entry *raft.LogEntry) (*raft.IndexedEntry, <-chan state.Output) {
	r.appendMu.Lock()
	defer r.appendMu.Unlock()
	return r.appendEntryLocked(entry, false)
}

// appendInitialEntry appends the leader's Initialize entry, recording its
// index with the appender before replication can begin so the commit index
// cannot advance ahead of it.
func (r *LeaderRole) appendInitialEntry(entry *raft.LogEntry) (*raft.IndexedEntry, <-chan state.Output) {
	r.appendMu.Lock()
	defer r.appendMu.Unlock()
	return r.appendEntryLocked(entry, true)
}

func (r *LeaderRole) appendEntryLocked(entry *raft.LogEntry, initial bool) (*raft.IndexedEntry, <-chan state.Output) {
	indexed := r.store.Writer().Append(entry)
	r.appender.entryAppended(indexed)
	if initial {
		r.appender.setInitIndex(indexed.Index)
	}
	ch := make(chan state.Output, 1)
	select {
	case r.tasks <- &applyTask{entry: indexed, ch: ch}:
	case <-r.stopCh:
		ch <- state.Output{Error: errStepDown}
	}
	return indexed, ch
}

// processTasks replicates and applies appended entries in log order
func (r *LeaderRole) processTasks() {
	for {
		select {
		case task := <-r.tasks:
			r.processTask(task)
		case <-r.stopCh:
			// Complete any remaining tasks with a step-down error.
			for {
				select {
				case task := <-r.tasks:
					task.ch <- state.Output{Error: errStepDown}
				default:
					return
				}
			}
		}
	}
}

func (r *LeaderRole) processTask(task *applyTask) {
	if err := r.appender.commit(task.entry); err != nil {
		task.ch <- state.Output{Error: err}
		return
	}
	out := make(chan state.Output, 1)
	r.state.Apply(task.entry, out)
	task.ch <- <-out
}

// term returns the current term
func (r *LeaderRole) term() raft.Term {
	r.raft.ReadLock()
	defer r.raft.ReadUnlock()
	return r.raft.Term()
}

// stepDown transitions the server to follower and returns the new role so the
// triggering request can be re-dispatched
func (r *LeaderRole) stepDown() raft.Role {
	follower := NewFollowerRole(r.raft, r.state, r.store)
	r.raft.SetRole(follower)
	return follower
}

// Append handles an append request
func (r *LeaderRole) Append(ctx context.Context, request *raft.AppendRequest) (*raft.AppendResponse, error) {
	r.log.Request("AppendRequest", request)
	r.raft.WriteLock()
	if request.Term > r.raft.Term() {
		r.updateTermAndLeader(request.Term, request.Leader)
		r.raft.WriteUnlock()
		return r.stepDown().Append(ctx, request)
	}
	if request.Term < r.raft.Term() {
		response := &raft.AppendResponse{
			Status:       raft.ResponseStatus_OK,
			Term:         r.raft.Term(),
			Succeeded:    false,
			LastLogIndex: r.store.Writer().LastIndex(),
		}
		r.raft.WriteUnlock()
		return response, r.log.Response("AppendResponse", response, nil)
	}

	// Two leaders in the same term should be impossible by election safety;
	// defensively recognize the other leader and step down.
	r.raft.SetLeader(request.Leader)
	r.raft.WriteUnlock()
	return r.stepDown().Append(ctx, request)
}

// Vote handles a vote request
func (r *LeaderRole) Vote(ctx context.Context, request *raft.VoteRequest) (*raft.VoteResponse, error) {
	r.log.Request("VoteRequest", request)
	r.raft.WriteLock()
	if request.Term > r.raft.Term() {
		r.updateTermAndLeader(request.Term, "")
		r.raft.WriteUnlock()
		return r.stepDown().Vote(ctx, request)
	}
	response := &raft.VoteResponse{
		Status: raft.ResponseStatus_OK,
		Term:   r.raft.Term(),
		Voted:  false,
	}
	r.raft.WriteUnlock()
	return response, r.log.Response("VoteResponse", response, nil)
}

// Poll handles a poll request
func (r *LeaderRole) Poll(ctx context.Context, request *raft.PollRequest) (*raft.PollResponse, error) {
	r.log.Request("PollRequest", request)
	r.raft.ReadLock()
	response := &raft.PollResponse{
		Status:   raft.ResponseStatus_OK,
		Term:     r.raft.Term(),
		Accepted: false,
	}
	r.raft.ReadUnlock()
	return response, r.log.Response("PollResponse", response, nil)
}

// Command handles a command request
func (r *LeaderRole) Command(ctx context.Context, request *raft.CommandRequest) (*raft.CommandResponse, error) {
	r.log.Request("CommandRequest", request)
	session := r.state.Sessions().GetSession(request.SessionID)
	if session == nil {
		response := &raft.CommandResponse{
			Status: raft.ResponseStatus_ERROR,
			Error:  raft.RaftError_UNKNOWN_SESSION,
		}
		return response, r.log.Response("CommandResponse", response, nil)
	}

	ch := make(chan *raft.CommandResponse, 1)
	session.OrderRequest(request.Sequence, func() {
		r.applyCommand(request, session, ch)
	})
	response := <-ch
	return response, r.log.Response("CommandResponse", response, nil)
}

// applyCommand appends a command entry and completes the response once the
// entry has been replicated and applied. The append and the request sequence
// update run synchronously so commands drain in client sequence order; the
// replication wait does not block the draining session.
func (r *LeaderRole) applyCommand(request *raft.CommandRequest, session *state.Session, ch chan<- *raft.CommandResponse) {
	entry := &raft.LogEntry{
		Term:      r.term(),
		Timestamp: r.appender.time().UnixNano(),
		Command: &raft.CommandEntry{
			SessionID: request.SessionID,
			Sequence:  request.Sequence,
			Name:      request.Name,
			Input:     request.Input,
		},
	}
	indexed, out := r.appendEntry(entry)
	session.SetRequestSequence(request.Sequence)

	go func() {
		output := <-out
		if output.Error != nil {
			ch <- &raft.CommandResponse{
				Status:  raft.ResponseStatus_ERROR,
				Error:   r.translateError(output.Error),
				Message: output.Error.Error(),
			}
			return
		}
		var value []byte
		if bytes, ok := output.Value.([]byte); ok {
			value = bytes
		}
		ch <- &raft.CommandResponse{
			Status: raft.ResponseStatus_OK,
			Index:  indexed.Index,
			Output: value,
		}
	}()
}

// Query handles a query request
func (r *LeaderRole) Query(ctx context.Context, request *raft.QueryRequest) (*raft.QueryResponse, error) {
	r.log.Request("QueryRequest", request)
	session := r.state.Sessions().GetSession(request.SessionID)
	if session == nil {
		response := &raft.QueryResponse{
			Status: raft.ResponseStatus_ERROR,
			Error:  raft.RaftError_UNKNOWN_SESSION,
		}
		return response, r.log.Response("QueryResponse", response, nil)
	}

	// The query entry is a transient handle; it is never appended to the log.
	query := &raft.QueryEntry{
		SessionID: request.SessionID,
		Sequence:  request.Sequence,
		Index:     request.Index,
		Name:      request.Name,
		Input:     request.Input,
	}

	ch := make(chan *raft.QueryResponse, 1)
	switch request.Consistency {
	case raft.ReadConsistency_SEQUENTIAL, raft.ReadConsistency_LINEARIZABLE_LEASE:
		// Lease validity is the appender's responsibility; the leader steps
		// down when majority contact falls behind twice the election timeout.
		go r.sequenceQuery(query, session, ch)
	default:
		go r.linearizableQuery(query, session, ch)
	}
	response := <-ch
	return response, r.log.Response("QueryResponse", response, nil)
}

// sequenceQuery gates a query on the session's command sequence and applies it
func (r *LeaderRole) sequenceQuery(query *raft.QueryEntry, session *state.Session, ch chan<- *raft.QueryResponse) {
	// Queries are not serviced until the leader's own Initialize entry has committed.
	if err := r.awaitInitialized(); err != nil {
		ch <- &raft.QueryResponse{
			Status: raft.ResponseStatus_ERROR,
			Error:  raft.RaftError_QUERY,
		}
		return
	}
	session.OrderSequenceQuery(query.Sequence, func() {
		out := make(chan state.Output, 1)
		r.state.ApplyQuery(query, out)
		go func() {
			ch <- r.queryResponse(<-out)
		}()
	})
}

// linearizableQuery verifies leadership with a quorum before servicing the query
func (r *LeaderRole) linearizableQuery(query *raft.QueryEntry, session *state.Session, ch chan<- *raft.QueryResponse) {
	if err := r.appender.heartbeat(); err != nil {
		ch <- &raft.QueryResponse{
			Status: raft.ResponseStatus_ERROR,
			Error:  raft.RaftError_QUERY,
		}
		return
	}
	r.sequenceQuery(query, session, ch)
}

func (r *LeaderRole) queryResponse(output state.Output) *raft.QueryResponse {
	if output.Error != nil {
		return &raft.QueryResponse{
			Status:  raft.ResponseStatus_ERROR,
			Error:   r.translateError(output.Error),
			Message: output.Error.Error(),
		}
	}
	var value []byte
	if bytes, ok := output.Value.([]byte); ok {
		value = bytes
	}
	return &raft.QueryResponse{
		Status: raft.ResponseStatus_OK,
		Index:  r.state.LastApplied(),
		Output: value,
	}
}

// Register handles a register request
func (r *LeaderRole) Register(ctx context.Context, request *raft.RegisterRequest) (*raft.RegisterResponse, error) {
	r.log.Request("RegisterRequest", request)
	timeout := request.Timeout
	if timeout == 0 {
		timeout = int64(r.raft.Config().GetSessionTimeoutOrDefault() / time.Millisecond)
	}
	entry := &raft.LogEntry{
		Term:      r.term(),
		Timestamp: r.appender.time().UnixNano(),
		Register: &raft.RegisterEntry{
			ClientID: request.ClientID,
			Timeout:  timeout,
		},
	}
	_, out := r.appendEntry(entry)
	output := <-out

	var response *raft.RegisterResponse
	if output.Error != nil {
		response = &raft.RegisterResponse{
			Status:  raft.ResponseStatus_ERROR,
			Error:   r.translateError(output.Error),
			Message: output.Error.Error(),
		}
	} else {
		response = &raft.RegisterResponse{
			Status:    raft.ResponseStatus_OK,
			SessionID: output.Value.(raft.SessionID),
			Timeout:   timeout,
			Leader:    r.leaderAddress(),
			Members:   r.clientAddresses(),
		}
	}
	r.reaper.reap()
	return response, r.log.Response("RegisterResponse", response, nil)
}

// Connect handles a connect request, binding the client's connection to this
// server and replicating the association cluster-wide
func (r *LeaderRole) Connect(ctx context.Context, request *raft.ConnectRequest) (*raft.ConnectResponse, error) {
	r.log.Request("ConnectRequest", request)

	// Bind the connection locally, then replicate the client's address. The
	// address is replicated even when no session is known for the client.
	r.state.Sessions().RegisterConnection(request.ClientID, r.raft.Member())
	accept := &raft.AcceptRequest{
		ClientID: request.ClientID,
		Address:  r.leaderAddress(),
	}
	acceptResponse, err := r.Accept(ctx, accept)
	if err != nil {
		return nil, err
	}

	response := &raft.ConnectResponse{
		Status:  acceptResponse.Status,
		Error:   acceptResponse.Error,
		Leader:  r.leaderAddress(),
		Members: r.clientAddresses(),
	}
	return response, r.log.Response("ConnectResponse", response, nil)
}

// Accept handles an accept request, replicating the client's current server address
func (r *LeaderRole) Accept(ctx context.Context, request *raft.AcceptRequest) (*raft.AcceptResponse, error) {
	r.log.Request("AcceptRequest", request)
	entry := &raft.LogEntry{
		Term:      r.term(),
		Timestamp: r.appender.time().UnixNano(),
		Connect: &raft.ConnectEntry{
			ClientID: request.ClientID,
			Address:  request.Address,
		},
	}

	// Update the in-memory client address index immediately.
	r.state.Sessions().RegisterAddress(request.ClientID, request.Address)

	_, out := r.appendEntry(entry)
	output := <-out

	var response *raft.AcceptResponse
	if output.Error != nil {
		response = &raft.AcceptResponse{
			Status: raft.ResponseStatus_ERROR,
			Error:  r.translateError(output.Error),
		}
	} else {
		response = &raft.AcceptResponse{
			Status: raft.ResponseStatus_OK,
		}
	}
	r.reaper.reap()
	return response, r.log.Response("AcceptResponse", response, nil)
}

// KeepAlive handles a keep-alive request
func (r *LeaderRole) KeepAlive(ctx context.Context, request *raft.KeepAliveRequest) (*raft.KeepAliveResponse, error) {
	r.log.Request("KeepAliveRequest", request)
	entry := &raft.LogEntry{
		Term:      r.term(),
		Timestamp: r.appender.time().UnixNano(),
		KeepAlive: &raft.KeepAliveEntry{
			SessionID:       request.SessionID,
			CommandSequence: request.CommandSequence,
			EventIndex:      request.EventIndex,
		},
	}
	_, out := r.appendEntry(entry)
	output := <-out

	var response *raft.KeepAliveResponse
	if output.Error != nil {
		response = &raft.KeepAliveResponse{
			Status: raft.ResponseStatus_ERROR,
			Error:  r.translateError(output.Error),
		}
	} else {
		response = &raft.KeepAliveResponse{
			Status:  raft.ResponseStatus_OK,
			Leader:  r.leaderAddress(),
			Members: r.clientAddresses(),
		}
	}
	r.reaper.reap()
	return response, r.log.Response("KeepAliveResponse", response, nil)
}

// Unregister handles an unregister request
func (r *LeaderRole) Unregister(ctx context.Context, request *raft.UnregisterRequest) (*raft.UnregisterResponse, error) {
	r.log.Request("UnregisterRequest", request)
	entry := &raft.LogEntry{
		Term:      r.term(),
		Timestamp: r.appender.time().UnixNano(),
		Unregister: &raft.UnregisterEntry{
			SessionID: request.SessionID,
			Expired:   false,
		},
	}
	_, out := r.appendEntry(entry)
	output := <-out

	var response *raft.UnregisterResponse
	if output.Error != nil {
		response = &raft.UnregisterResponse{
			Status: raft.ResponseStatus_ERROR,
			Error:  r.translateError(output.Error),
		}
	} else {
		response = &raft.UnregisterResponse{
			Status: raft.ResponseStatus_OK,
		}
	}
	r.reaper.reap()
	return response, r.log.Response("UnregisterResponse", response, nil)
}

// translateError maps a replication or apply failure to a protocol error kind
func (r *LeaderRole) translateError(err error) raft.RaftError {
	if err == state.ErrUnknownSession {
		return raft.RaftError_UNKNOWN_SESSION
	}
	if _, ok := state.AsOperationError(err); ok {
		return raft.RaftError_APPLICATION
	}
	return raft.RaftError_INTERNAL
}

// leaderAddress returns the leader's client-facing address
func (r *LeaderRole) leaderAddress() string {
	r.raft.ReadLock()
	defer r.raft.ReadUnlock()
	member := r.raft.GetMember(r.raft.Member())
	if member == nil {
		return ""
	}
	if member.ClientAddress != "" {
		return member.ClientAddress
	}
	return member.Address
}

// clientAddresses returns the client-facing addresses of all members
func (r *LeaderRole) clientAddresses() []string {
	r.raft.ReadLock()
	defer r.raft.ReadUnlock()
	addresses := make([]string, 0, len(r.raft.Configuration().Members))
	for _, member := range r.raft.Configuration().Members {
		if member.ClientAddress != "" {
			addresses = append(addresses, member.ClientAddress)
		} else {
			addresses = append(addresses, member.Address)
		}
	}
	return addresses
}
