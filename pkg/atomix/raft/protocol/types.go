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

// Term is a Raft election term
type Term uint64

// Index is an index in the Raft log. Indexes are 1-based; 0 indicates no index.
type Index uint64

// MemberID is the identifier of a cluster member
type MemberID string

// SessionID is the identifier of a client session, assigned by the state machine
type SessionID uint64

// ClientID is the opaque identifier chosen by a client
type ClientID string

// MetadataStore persists the server's term and vote across role transitions
type MetadataStore interface {
	StoreTerm(term Term)
	LoadTerm() *Term
	StoreVote(vote *MemberID)
	LoadVote() *MemberID
}
