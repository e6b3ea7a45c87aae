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
)

// newSessionReaper returns a session reaper for the given leader
func newSessionReaper(leader *LeaderRole) *sessionReaper {
	return &sessionReaper{
		leader: leader,
	}
}

// sessionReaper expires sessions the state machine has marked unstable. Only
// the current leader expires sessions; a session becomes expired only once an
// Unregister entry authored by this leader has committed.
type sessionReaper struct {
	leader *LeaderRole
}

// reap appends an expiry Unregister entry for each unstable session that does
// not already have one in flight
func (r *sessionReaper) reap() {
	for _, session := range r.leader.state.Sessions().Sessions() {
		if session.State() == state.SessionUnstable && !session.Unregistering() {
			session.SetUnregistering()
			go r.expire(session)
		}
	}
}

func (r *sessionReaper) expire(session *state.Session) {
	r.leader.log.Debug("Expiring session %d for client %s", session.ID, session.ClientID)
	entry := &raft.LogEntry{
		Term:      r.leader.term(),
		Timestamp: r.leader.appender.time().UnixNano(),
		Unregister: &raft.UnregisterEntry{
			SessionID: session.ID,
			Expired:   true,
		},
	}
	_, out := r.leader.appendEntry(entry)
	output := <-out
	if output.Error != nil {
		r.leader.log.Warn("Failed to expire session %d: %v", session.ID, output.Error)
	}
}
