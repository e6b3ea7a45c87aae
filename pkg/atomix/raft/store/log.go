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

package store

import (
	"sync"

	raft "github.com/atomix/atomix-raft-node/pkg/atomix/raft/protocol"
)

// Log is the Raft log
type Log interface {
	// Writer returns the log writer
	Writer() LogWriter

	// OpenReader opens a new reader positioned at the given index
	OpenReader(index raft.Index) LogReader
}

// LogWriter appends entries to the log
type LogWriter interface {
	// LastIndex returns the index of the last entry in the log
	LastIndex() raft.Index

	// LastEntry returns the last entry in the log, or nil if the log is empty
	LastEntry() *raft.IndexedEntry

	// Append appends the given entry to the log and returns it with its index
	Append(entry *raft.LogEntry) *raft.IndexedEntry

	// Truncate removes all entries after the given index
	Truncate(index raft.Index)
}

// LogReader reads entries from the log
type LogReader interface {
	// FirstIndex returns the index of the first entry in the log
	FirstIndex() raft.Index

	// LastIndex returns the index of the last entry in the log
	LastIndex() raft.Index

	// CurrentIndex returns the index of the entry last returned by NextEntry
	CurrentIndex() raft.Index

	// CurrentEntry returns the entry last returned by NextEntry
	CurrentEntry() *raft.IndexedEntry

	// NextIndex returns the index of the next entry the reader will return
	NextIndex() raft.Index

	// NextEntry returns the next entry in the log, or nil if none remains
	NextEntry() *raft.IndexedEntry

	// Reset positions the reader so the next entry returned has the given index
	Reset(index raft.Index)
}

// NewMemoryLog returns a new in-memory log
func NewMemoryLog() Log {
	log := &memoryLog{
		entries:    make([]*raft.IndexedEntry, 0, 1024),
		firstIndex: 1,
	}
	log.writer = &memoryLogWriter{log: log}
	return log
}

type memoryLog struct {
	entries    []*raft.IndexedEntry
	firstIndex raft.Index
	writer     *memoryLogWriter
	mu         sync.RWMutex
}

func (l *memoryLog) Writer() LogWriter {
	return l.writer
}

func (l *memoryLog) OpenReader(index raft.Index) LogReader {
	reader := &memoryLogReader{log: l}
	reader.Reset(index)
	return reader
}

func (l *memoryLog) lastIndex() raft.Index {
	if len(l.entries) == 0 {
		return l.firstIndex - 1
	}
	return l.entries[len(l.entries)-1].Index
}

func (l *memoryLog) get(index raft.Index) *raft.IndexedEntry {
	if index < l.firstIndex || index > l.lastIndex() {
		return nil
	}
	return l.entries[index-l.firstIndex]
}

type memoryLogWriter struct {
	log *memoryLog
}

func (w *memoryLogWriter) LastIndex() raft.Index {
	w.log.mu.RLock()
	defer w.log.mu.RUnlock()
	return w.log.lastIndex()
}

func (w *memoryLogWriter) LastEntry() *raft.IndexedEntry {
	w.log.mu.RLock()
	defer w.log.mu.RUnlock()
	if len(w.log.entries) == 0 {
		return nil
	}
	return w.log.entries[len(w.log.entries)-1]
}

func (w *memoryLogWriter) Append(entry *raft.LogEntry) *raft.IndexedEntry {
	w.log.mu.Lock()
	defer w.log.mu.Unlock()
	indexed := &raft.IndexedEntry{
		Index: w.log.lastIndex() + 1,
		Entry: entry,
	}
	w.log.entries = append(w.log.entries, indexed)
	return indexed
}

func (w *memoryLogWriter) Truncate(index raft.Index) {
	w.log.mu.Lock()
	defer w.log.mu.Unlock()
	if index < w.log.lastIndex() {
		if index < w.log.firstIndex {
			w.log.entries = w.log.entries[:0]
		} else {
			w.log.entries = w.log.entries[:index-w.log.firstIndex+1]
		}
	}
}

type memoryLogReader struct {
	log     *memoryLog
	current *raft.IndexedEntry
	next    raft.Index
}

func (r *memoryLogReader) FirstIndex() raft.Index {
	r.log.mu.RLock()
	defer r.log.mu.RUnlock()
	return r.log.firstIndex
}

func (r *memoryLogReader) LastIndex() raft.Index {
	r.log.mu.RLock()
	defer r.log.mu.RUnlock()
	return r.log.lastIndex()
}

func (r *memoryLogReader) CurrentIndex() raft.Index {
	if r.current == nil {
		return r.next - 1
	}
	return r.current.Index
}

func (r *memoryLogReader) CurrentEntry() *raft.IndexedEntry {
	return r.current
}

func (r *memoryLogReader) NextIndex() raft.Index {
	return r.next
}

func (r *memoryLogReader) NextEntry() *raft.IndexedEntry {
	r.log.mu.RLock()
	defer r.log.mu.RUnlock()
	entry := r.log.get(r.next)
	if entry == nil {
		return nil
	}
	r.current = entry
	r.next = entry.Index + 1
	return entry
}

func (r *memoryLogReader) Reset(index raft.Index) {
	r.log.mu.RLock()
	defer r.log.mu.RUnlock()
	if index < r.log.firstIndex {
		index = r.log.firstIndex
	}
	r.current = nil
	r.next = index
}
