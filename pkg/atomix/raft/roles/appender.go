package roles

import (
	"container/list"
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/gogo/protobuf/proto"

	raft "github.com/atomix/atomix-raft-node/pkg/atomix/raft/protocol"
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/state"
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/store"
	"github.com/atomix/atomix-raft-node/pkg/atomix/raft/util"
)

// errStepDown is returned for operations cancelled when the leader steps down
var errStepDown = errors.New("leader stepped down")

// newAppender returns a new appender for the given leader
func newAppender(r raft.Raft, sm state.Manager, s store.Store, log util.Logger) *raftAppender {
	commitCh := make(chan memberCommit)
	failCh := make(chan time.Time)
	members := make(map[raft.MemberID]*memberAppender)
	appender := &raftAppender{
		raft:             r,
		state:            sm,
		store:            s,
		log:              log,
		members:          members,
		commitIndexes:    make(map[raft.MemberID]raft.Index),
		commitTimes:      make(map[raft.MemberID]time.Time),
		heartbeatFutures: list.New(),
		commitChannels:   make(map[raft.Index][]chan raft.Index),
		registerCh:       make(chan commitWaiter),
		commitCh:         commitCh,
		failCh:           failCh,
		lastQuorumTime:   time.Now(),
		lastIndex:        s.Writer().LastIndex(),
		stopped:          make(chan bool),
		open:             true,
	}
	r.ReadLock()
	for _, member := range r.Configuration().Members {
		if member.MemberID != r.Member() {
			members[member.MemberID] = newMemberAppender(appender, member, commitCh, failCh)
		}
	}
	r.ReadUnlock()
	return appender
}

// raftAppender drives replication to the followers on behalf of the leader,
// tracking per-member match indexes to advance the quorum commit index and
// heartbeat times to prove leadership liveness
type raftAppender struct {
	raft             raft.Raft
	state            state.Manager
	store            store.Store
	log              util.Logger
	members          map[raft.MemberID]*memberAppender
	commitIndexes    map[raft.MemberID]raft.Index
	commitTimes      map[raft.MemberID]time.Time
	heartbeatFutures *list.List
	commitChannels   map[raft.Index][]chan raft.Index
	registerCh       chan commitWaiter
	commitCh         chan memberCommit
	failCh           chan time.Time
	stopped          chan bool
	lastQuorumTime   time.Time
	lastIndex        raft.Index
	initIndex        raft.Index
	open             bool
	mu               sync.Mutex
}

// commitWaiter awaits the commitment of a specific index
type commitWaiter struct {
	index raft.Index
	ch    chan raft.Index
}

// start starts the appender
func (a *raftAppender) start() {
	a.mu.Lock()
	for _, member := range a.members {
		go member.start()
	}
	a.mu.Unlock()
	a.processCommits()
}

// setInitIndex records the index of the leader's Initialize entry. The commit
// index is never advanced until the Initialize entry itself reaches a quorum,
// which prevents entries from prior terms committing ahead of it.
func (a *raftAppender) setInitIndex(index raft.Index) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.initIndex = index
}

// entryAppended records an entry appended to the leader's log
func (a *raftAppender) entryAppended(entry *raft.IndexedEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if entry.Index > a.lastIndex {
		a.lastIndex = entry.Index
	}
}

// index returns the highest log index appended by the leader in its term
func (a *raftAppender) index() raft.Index {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastIndex
}

// time returns the leader's clock, used to timestamp entries
func (a *raftAppender) time() time.Time {
	return time.Now()
}

// heartbeat verifies leadership with a quorum and returns once a majority of
// the cluster has acknowledged a heartbeat sent at or after the time of the call
func (a *raftAppender) heartbeat() error {
	// If there are no voting peers to verify with, the local member is the quorum.
	if len(a.votingPeers()) == 0 {
		return nil
	}

	a.mu.Lock()
	if !a.open {
		a.mu.Unlock()
		return errStepDown
	}

	ch := make(chan struct{})
	future := heartbeatFuture{
		ch:   ch,
		time: time.Now(),
	}
	a.heartbeatFutures.PushBack(future)
	members := make([]*memberAppender, 0, len(a.members))
	for _, member := range a.members {
		members = append(members, member)
	}
	a.mu.Unlock()

	for _, member := range members {
		member.notifyHeartbeat(future.time)
	}

	_, ok := <-ch
	if !ok {
		return errors.New("failed to verify quorum")
	}
	return nil
}

// commit replicates the given entry to the followers and returns once the
// commit index has reached the entry's index
func (a *raftAppender) commit(entry *raft.IndexedEntry) error {
	a.mu.Lock()
	if !a.open {
		a.mu.Unlock()
		return errStepDown
	}
	if entry.Index > a.lastIndex {
		a.lastIndex = entry.Index
	}
	members := make([]*memberAppender, 0, len(a.members))
	for _, member := range a.members {
		members = append(members, member)
	}
	a.mu.Unlock()

	// Register the commit waiter with the commit loop before replicating so
	// the commitment of the index cannot be missed.
	ch := make(chan raft.Index, 1)
	select {
	case a.registerCh <- commitWaiter{index: entry.Index, ch: ch}:
	case <-a.stopped:
		return errStepDown
	}

	for _, member := range members {
		member.notifyEntry(entry)
	}

	_, ok := <-ch
	if !ok {
		return errStepDown
	}
	return nil
}

// processCommits handles member commit events and updates the local commit index
func (a *raftAppender) processCommits() {
	for {
		select {
		case commit := <-a.commitCh:
			a.handleCommit(commit.member, commit.index, commit.time)
		case waiter := <-a.registerCh:
			a.registerWaiter(waiter)
		case failTime := <-a.failCh:
			a.failTime(failTime)
		case <-a.stopped:
			a.drainWaiters()
			return
		}
	}
}

func (a *raftAppender) registerWaiter(waiter commitWaiter) {
	// With no voting peers to replicate to, the entry is committed by the local append.
	if len(a.votingPeers()) == 0 {
		a.raft.WriteLock()
		a.raft.SetCommitIndex(waiter.index)
		a.raft.WriteUnlock()
		waiter.ch <- waiter.index
		close(waiter.ch)
		return
	}

	a.raft.ReadLock()
	commitIndex := a.raft.CommitIndex()
	a.raft.ReadUnlock()
	if commitIndex >= waiter.index {
		waiter.ch <- waiter.index
		close(waiter.ch)
		return
	}
	a.commitChannels[waiter.index] = append(a.commitChannels[waiter.index], waiter.ch)
}

func (a *raftAppender) drainWaiters() {
	for index, chs := range a.commitChannels {
		for _, ch := range chs {
			close(ch)
		}
		delete(a.commitChannels, index)
	}
	a.mu.Lock()
	for future := a.heartbeatFutures.Front(); future != nil; future = a.heartbeatFutures.Front() {
		close(future.Value.(heartbeatFuture).ch)
		a.heartbeatFutures.Remove(future)
	}
	a.mu.Unlock()
}

func (a *raftAppender) handleCommit(member *memberAppender, index raft.Index, time time.Time) {
	if !member.active {
		return
	}
	a.commitMemberIndex(member.member.MemberID, index)
	a.commitMemberTime(member.member.MemberID, time)
}

// votingPeers returns the IDs of the active members other than the local member
func (a *raftAppender) votingPeers() []raft.MemberID {
	a.raft.ReadLock()
	defer a.raft.ReadUnlock()
	peers := make([]raft.MemberID, 0)
	for _, member := range a.raft.Configuration().Members {
		if member.MemberID != a.raft.Member() && member.Type == raft.MemberType_ACTIVE {
			peers = append(peers, member.MemberID)
		}
	}
	return peers
}

func (a *raftAppender) commitMemberIndex(member raft.MemberID, index raft.Index) {
	prevIndex := a.commitIndexes[member]
	if index <= prevIndex {
		return
	}
	a.commitIndexes[member] = index

	// Compute the quorum commit index from the active peers' match indexes.
	peers := a.votingPeers()
	if len(peers) == 0 {
		return
	}
	indexes := make([]raft.Index, len(peers))
	for i, peer := range peers {
		indexes[i] = a.commitIndexes[peer]
	}
	sort.Slice(indexes, func(i, j int) bool {
		return indexes[i] < indexes[j]
	})
	commitIndex := indexes[len(indexes)/2]

	// The commit index cannot advance until the leader's own Initialize entry
	// has reached a quorum.
	a.mu.Lock()
	initIndex := a.initIndex
	a.mu.Unlock()
	if initIndex == 0 || commitIndex < initIndex {
		return
	}

	a.raft.WriteLock()
	prevCommitIndex := a.raft.CommitIndex()
	a.raft.SetCommitIndex(commitIndex)
	a.raft.WriteUnlock()

	for i := prevCommitIndex + 1; i <= commitIndex; i++ {
		chs, ok := a.commitChannels[i]
		if ok {
			for _, ch := range chs {
				ch <- i
				close(ch)
			}
			delete(a.commitChannels, i)
		}
	}
}

func (a *raftAppender) commitMemberTime(member raft.MemberID, t time.Time) {
	prevTime := a.commitTimes[member]
	if t.UnixNano() <= prevTime.UnixNano() {
		return
	}
	a.commitTimes[member] = t

	peers := a.votingPeers()
	if len(peers) == 0 {
		return
	}
	times := make([]int64, len(peers))
	for i, peer := range peers {
		times[i] = a.commitTimes[peer].UnixNano()
	}
	sort.Slice(times, func(i, j int) bool {
		return times[i] < times[j]
	})
	commitTime := times[len(times)/2]

	// Complete heartbeat futures requested before the quorum time.
	a.mu.Lock()
	for future := a.heartbeatFutures.Front(); future != nil && future.Value.(heartbeatFuture).time.UnixNano() < commitTime; future = a.heartbeatFutures.Front() {
		ch := future.Value.(heartbeatFuture).ch
		ch <- struct{}{}
		close(ch)
		a.heartbeatFutures.Remove(future)
	}
	if commitTime > a.lastQuorumTime.UnixNano() {
		a.lastQuorumTime = time.Unix(0, commitTime)
	}
	a.mu.Unlock()
}

// failTime steps the leader down if a majority of the cluster has been
// unreachable for longer than twice the election timeout
func (a *raftAppender) failTime(failTime time.Time) {
	a.mu.Lock()
	lastQuorumTime := a.lastQuorumTime
	a.mu.Unlock()
	if failTime.Sub(lastQuorumTime) > a.raft.Config().GetElectionTimeoutOrDefault()*2 {
		a.log.Warn("Suspected network partition; stepping down")
		a.raft.WriteLock()
		a.raft.SetLeader("")
		a.raft.WriteUnlock()
		go a.raft.SetRole(NewFollowerRole(a.raft, a.state, a.store))
	}
}

// refresh reconciles the member appenders with the current cluster configuration
func (a *raftAppender) refresh() {
	a.raft.ReadLock()
	configuration := a.raft.Configuration()
	local := a.raft.Member()
	a.raft.ReadUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.open {
		return
	}

	current := make(map[raft.MemberID]*raft.RaftMember)
	for _, member := range configuration.Members {
		if member.MemberID != local {
			current[member.MemberID] = member
		}
	}

	// Start appenders for new members.
	for id, member := range current {
		if _, ok := a.members[id]; !ok {
			appender := newMemberAppender(a, member, a.commitCh, a.failCh)
			a.members[id] = appender
			go appender.start()
		}
	}

	// Stop appenders for removed members. Their match indexes are left in
	// place; the quorum computation filters by the current configuration.
	for id, member := range a.members {
		if _, ok := current[id]; !ok {
			member.stop()
			delete(a.members, id)
		}
	}
}

// stop stops the appender, failing pending commits with a step-down error and
// pending heartbeats with a quorum verification error
func (a *raftAppender) stop() {
	a.mu.Lock()
	if !a.open {
		a.mu.Unlock()
		return
	}
	a.open = false
	for _, member := range a.members {
		member.stop()
	}
	a.mu.Unlock()
	a.stopped <- true
}

// heartbeatFuture is a heartbeat channel with a timestamp indicating when the heartbeat was requested
type heartbeatFuture struct {
	ch   chan struct{}
	time time.Time
}

// memberCommit is an event carrying the match index for a member
type memberCommit struct {
	member *memberAppender
	index  raft.Index
	time   time.Time
}

const (
	minBackoffFailureCount = 5
	maxHeartbeatWait       = 1 * time.Minute
	maxBatchSize           = 1024 * 1024
)

func newMemberAppender(appender *raftAppender, member *raft.RaftMember, commitCh chan<- memberCommit, failCh chan<- time.Time) *memberAppender {
	ticker := time.NewTicker(appender.raft.Config().GetHeartbeatIntervalOrDefault())
	reader := appender.store.OpenReader(0)
	var prevTerm raft.Term
	if lastEntry := appender.store.Writer().LastEntry(); lastEntry != nil {
		prevTerm = lastEntry.Entry.Term
	}
	return &memberAppender{
		appender:    appender,
		raft:        appender.raft,
		log:         appender.log,
		member:      member,
		nextIndex:   reader.LastIndex() + 1,
		prevTerm:    prevTerm,
		entryCh:     make(chan *raft.IndexedEntry, 64),
		appendCh:    make(chan raft.Index, 1),
		commitCh:    commitCh,
		failCh:      failCh,
		heartbeatCh: make(chan time.Time, 1),
		stopped:     make(chan bool),
		reader:      reader,
		tickTicker:  ticker,
		tickCh:      ticker.C,
		queue:       list.New(),
	}
}

// memberAppender handles replication to a single member
type memberAppender struct {
	appender         *raftAppender
	raft             raft.Raft
	log              util.Logger
	member           *raft.RaftMember
	active           bool
	prevTerm         raft.Term
	nextIndex        raft.Index
	matchIndex       raft.Index
	appending        bool
	failureCount     int
	firstFailureTime time.Time
	entryCh          chan *raft.IndexedEntry
	appendCh         chan raft.Index
	commitCh         chan<- memberCommit
	failCh           chan<- time.Time
	heartbeatCh      chan time.Time
	tickCh           <-chan time.Time
	tickTicker       *time.Ticker
	stopped          chan bool
	reader           store.LogReader
	queue            *list.List
	mu               sync.Mutex
}

// start starts sending append requests to the member
func (a *memberAppender) start() {
	a.mu.Lock()
	a.active = true
	a.mu.Unlock()
	a.processEvents()
}

// notifyEntry offers a newly appended entry to the member's replication queue
func (a *memberAppender) notifyEntry(entry *raft.IndexedEntry) {
	a.mu.Lock()
	if !a.active {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()
	select {
	case a.entryCh <- entry:
	case <-a.stopped:
	}
}

// notifyHeartbeat requests an immediate heartbeat to the member
func (a *memberAppender) notifyHeartbeat(t time.Time) {
	a.mu.Lock()
	if !a.active {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()
	select {
	case a.heartbeatCh <- t:
	default:
		// A heartbeat is already pending; it will cover this request.
	}
}

func (a *memberAppender) processEvents() {
	for {
		select {
		case entry := <-a.entryCh:
			if a.failureCount == 0 {
				a.queue.PushBack(entry)
			}
			if !a.appending {
				a.appending = true
				go a.append()
			}
		case nextIndex := <-a.appendCh:
			a.appending = false
			// After a failure, pace retries on the heartbeat tick rather than
			// immediately to avoid flooding an unreachable member.
			if a.failureCount == 0 && a.reader.LastIndex() >= nextIndex {
				a.appending = true
				go a.append()
			}
		case <-a.heartbeatCh:
			go a.sendAppendRequest(a.emptyAppendRequest())
		case <-a.tickCh:
			if !a.appending {
				a.appending = true
				go a.append()
			}
		case <-a.stopped:
			return
		}
	}
}

func (a *memberAppender) append() {
	if a.failureCount >= minBackoffFailureCount {
		// Back off on repeated failures to avoid flooding an unreachable member:
		// wait the squared failure count times the election timeout (at most
		// maxHeartbeatWait) since the first failure.
		timeSinceFailure := float64(time.Now().Sub(a.firstFailureTime))
		heartbeatWaitTime := math.Min(float64(a.failureCount)*float64(a.failureCount)*float64(a.raft.Config().GetElectionTimeoutOrDefault()), float64(maxHeartbeatWait))
		if timeSinceFailure > heartbeatWaitTime {
			a.sendAppendRequest(a.nextAppendRequest())
		} else {
			// Keep reporting the failure so partition detection is not
			// delayed by the backoff.
			select {
			case a.failCh <- time.Now():
			case <-a.stopped:
			}
			a.requeue()
		}
	} else {
		a.sendAppendRequest(a.nextAppendRequest())
	}
}

// stop stops sending append requests to the member
func (a *memberAppender) stop() {
	a.mu.Lock()
	if !a.active {
		a.mu.Unlock()
		return
	}
	a.active = false
	a.mu.Unlock()
	a.tickTicker.Stop()
	close(a.stopped)
}

func (a *memberAppender) succeed() {
	a.failureCount = 0
}

func (a *memberAppender) fail(time time.Time) {
	if a.failureCount == 0 {
		a.firstFailureTime = time
	}
	a.failureCount++
	select {
	case a.failCh <- time:
	case <-a.stopped:
	}
}

func (a *memberAppender) requeue() {
	select {
	case a.appendCh <- a.nextIndex:
	case <-a.stopped:
	}
}

func (a *memberAppender) nextAppendRequest() *raft.AppendRequest {
	// If the member failed to respond to recent communication send an empty
	// commit. This helps avoid doing expensive work until we can ascertain the
	// member is back up.
	a.raft.ReadLock()
	defer a.raft.ReadUnlock()
	if a.failureCount > 0 || a.reader.CurrentIndex() == a.reader.LastIndex() {
		return a.emptyAppendRequestLocked()
	}
	return a.entriesAppendRequest()
}

func (a *memberAppender) emptyAppendRequest() *raft.AppendRequest {
	a.raft.ReadLock()
	defer a.raft.ReadUnlock()
	return a.emptyAppendRequestLocked()
}

func (a *memberAppender) emptyAppendRequestLocked() *raft.AppendRequest {
	return &raft.AppendRequest{
		Term:         a.raft.Term(),
		Leader:       a.raft.Leader(),
		PrevLogIndex: a.nextIndex - 1,
		PrevLogTerm:  a.prevTerm,
		CommitIndex:  a.raft.CommitIndex(),
	}
}

func (a *memberAppender) entriesAppendRequest() *raft.AppendRequest {
	request := &raft.AppendRequest{
		Term:         a.raft.Term(),
		Leader:       a.raft.Leader(),
		PrevLogIndex: a.nextIndex - 1,
		PrevLogTerm:  a.prevTerm,
		CommitIndex:  a.raft.CommitIndex(),
	}

	entriesList := list.New()

	// Build a list of entries starting at the nextIndex, using the cache if possible.
	size := 0
	nextIndex := a.nextIndex
	for nextIndex <= a.reader.LastIndex() {
		// First, try to get the entry from the cache.
		entry := a.queue.Front()
		if entry != nil {
			indexed := entry.Value.(*raft.IndexedEntry)
			if indexed.Index == nextIndex {
				entriesList.PushBack(indexed.Entry)
				a.queue.Remove(entry)
				size += proto.Size(indexed.Entry)
				nextIndex++
				if size >= maxBatchSize {
					break
				}
				continue
			} else if indexed.Index < nextIndex {
				a.queue.Remove(entry)
				continue
			}
		}

		// If the entry was not in the cache, read it from the log reader.
		a.reader.Reset(nextIndex)
		indexed := a.reader.NextEntry()
		if indexed != nil {
			entriesList.PushBack(indexed.Entry)
			size += proto.Size(indexed.Entry)
			nextIndex++
			if size >= maxBatchSize {
				break
			}
		} else {
			break
		}
	}

	// Convert the linked list into a slice
	entries := make([]*raft.LogEntry, 0, entriesList.Len())
	entry := entriesList.Front()
	for entry != nil {
		entries = append(entries, entry.Value.(*raft.LogEntry))
		entry = entry.Next()
	}

	// Add the entries to the request builder and return the request.
	request.Entries = entries
	return request
}

func (a *memberAppender) sendAppendRequest(request *raft.AppendRequest) {
	// Start the append to the member.
	startTime := time.Now()

	client, err := a.raft.Connect(a.member.MemberID)
	if err != nil {
		a.fail(startTime)
		a.requeue()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.raft.Config().GetElectionTimeoutOrDefault())
	defer cancel()

	a.log.Send("AppendRequest", request)
	response, err := client.Append(ctx, request)

	if err == nil {
		a.log.Receive("AppendResponse", response)
		if response.Status == raft.ResponseStatus_OK {
			a.handleAppendResponse(request, response, startTime)
		} else {
			a.handleAppendFailure(request, response, startTime)
		}
	} else {
		a.log.Warn("AppendRequest to %s failed: %v", a.member.MemberID, err)
		a.handleAppendError(request, err, startTime)
	}
}

func (a *memberAppender) commit(time time.Time) {
	// Send a commit event to the parent appender.
	select {
	case a.commitCh <- memberCommit{
		member: a,
		index:  a.matchIndex,
		time:   time,
	}:
	case <-a.stopped:
	}
}

func (a *memberAppender) handleAppendResponse(request *raft.AppendRequest, response *raft.AppendResponse, startTime time.Time) {
	// Reset the member failure count to avoid empty heartbeats.
	a.succeed()

	// If replication succeeded then trigger commit futures.
	if response.Succeeded {
		// If the replica returned a valid match index then update the existing match index.
		a.matchIndex = response.LastLogIndex
		a.nextIndex = a.matchIndex + 1

		// If entries were sent to the follower, update the previous entry term to the term of the
		// last entry in the follower's log.
		if len(request.Entries) > 0 && response.LastLogIndex > request.PrevLogIndex {
			a.prevTerm = request.Entries[response.LastLogIndex-request.PrevLogIndex-1].Term
		}

		// Send a commit event to the parent appender.
		a.commit(startTime)

		// Notify the appender that the next index can be appended.
		a.requeue()
	} else {
		// If the request was rejected, use a double checked lock to compare the response term to the
		// server's term. If the term is greater than the local server's term, transition back to follower.
		a.raft.ReadLock()
		if response.Term > a.raft.Term() {
			a.raft.ReadUnlock()
			a.raft.WriteLock()
			if response.Term > a.raft.Term() {
				// If we've received a greater term, update the term and transition back to follower.
				a.raft.SetTerm(response.Term)
				a.raft.SetLeader("")
				a.raft.WriteUnlock()
				go a.raft.SetRole(NewFollowerRole(a.raft, a.appender.state, a.appender.store))
				return
			}
			a.raft.WriteUnlock()
			return
		}
		a.raft.ReadUnlock()

		// If the request was rejected, the follower should have provided the correct last index in their log.
		// This helps us converge on the matchIndex faster than by simply decrementing nextIndex one index at a time.
		if response.LastLogIndex < a.nextIndex-1 {
			a.matchIndex = response.LastLogIndex
			a.nextIndex = a.matchIndex + 1
			a.log.Trace("Reset next index for %s to %d", a.member.MemberID, a.nextIndex)
		} else if a.nextIndex > 1 {
			a.nextIndex--
		}
		a.resetPrevTerm()

		// Notify the appender that the next index can be appended.
		a.requeue()
	}
}

// resetPrevTerm loads the term of the entry preceding the next index
func (a *memberAppender) resetPrevTerm() {
	if a.nextIndex <= 1 {
		a.prevTerm = 0
		return
	}
	reader := a.appender.store.OpenReader(a.nextIndex - 1)
	if entry := reader.NextEntry(); entry != nil {
		a.prevTerm = entry.Entry.Term
	} else {
		a.prevTerm = 0
	}
}

func (a *memberAppender) handleAppendFailure(request *raft.AppendRequest, response *raft.AppendResponse, startTime time.Time) {
	a.fail(startTime)
	a.requeue()
}

func (a *memberAppender) handleAppendError(request *raft.AppendRequest, err error, startTime time.Time) {
	a.raft.ResetConnection(a.member.MemberID)
	a.fail(startTime)
	a.requeue()
}
