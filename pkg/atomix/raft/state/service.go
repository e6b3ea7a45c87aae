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

package state

import (
	"fmt"
	"sync"
)

// Service is an application state machine service. Commands mutate service
// state and must be deterministic; queries are read-only.
type Service interface {
	// Command applies a write operation to the service
	Command(input []byte) ([]byte, error)

	// Query applies a read operation to the service
	Query(input []byte) ([]byte, error)
}

// SnapshottableService is a Service that can checkpoint and restore its state
type SnapshottableService interface {
	Service

	// Snapshot returns an opaque checkpoint of the service state
	Snapshot() ([]byte, error)

	// Restore restores the service state from a checkpoint
	Restore(data []byte) error
}

// Registry is a registry of named application services
type Registry struct {
	services map[string]Service
	mu       sync.RWMutex
}

// NewRegistry returns an empty service registry
func NewRegistry() *Registry {
	return &Registry{
		services: make(map[string]Service),
	}
}

// Register registers a service under the given name
func (r *Registry) Register(name string, service Service) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[name] = service
}

// GetService returns the service registered under the given name, or nil
func (r *Registry) GetService(name string) Service {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.services[name]
}

// names returns the registered service names
func (r *Registry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	return names
}

// OperationError is an error surfaced by an application service. The kind is
// carried verbatim to clients.
type OperationError struct {
	Kind    string
	Message string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewOperationError returns an application error of the given kind
func NewOperationError(kind string, message string) error {
	return &OperationError{
		Kind:    kind,
		Message: message,
	}
}

// applyError wraps an application error raised during entry application
type applyError struct {
	cause error
}

func (e *applyError) Error() string {
	return fmt.Sprintf("failed to apply entry: %s", e.cause)
}

// AsOperationError unwraps one layer of apply composition and returns the
// underlying application error, if any
func AsOperationError(err error) (*OperationError, bool) {
	if err == nil {
		return nil, false
	}
	if opErr, ok := err.(*OperationError); ok {
		return opErr, true
	}
	if wrapped, ok := err.(*applyError); ok {
		if opErr, ok := wrapped.cause.(*OperationError); ok {
			return opErr, true
		}
	}
	return nil, false
}

// ErrUnknownSession is returned when an operation references a session the
// state machine does not know
var ErrUnknownSession = fmt.Errorf("unknown session")

// ErrUnknownService is returned when an operation references an unregistered service
var ErrUnknownService = fmt.Errorf("unknown service")
