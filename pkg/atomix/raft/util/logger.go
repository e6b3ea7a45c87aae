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

package util

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Logger provides logging for a Raft server
type Logger interface {
	// Trace logs a trace-level message
	Trace(message string, args ...interface{})

	// Debug logs a debug-level message
	Debug(message string, args ...interface{})

	// Info logs an info-level message
	Info(message string, args ...interface{})

	// Warn logs a warning
	Warn(message string, args ...interface{})

	// Error logs an error
	Error(message string, args ...interface{})

	// Request logs an incoming request
	Request(requestType string, request interface{})

	// Response logs an outgoing response and returns the given error
	Response(responseType string, response interface{}, err error) error

	// Send logs a request sent to another member
	Send(requestType string, request interface{})

	// Receive logs a response received from another member
	Receive(responseType string, response interface{})
}

// NewNodeLogger returns a logger scoped to a single member
func NewNodeLogger(member string) Logger {
	return &memberLogger{
		log: logrus.WithField("memberID", member),
	}
}

// NewRoleLogger returns a logger scoped to a member's role
func NewRoleLogger(member string, role string) Logger {
	return &memberLogger{
		log: logrus.WithField("memberID", member).WithField("role", role),
	}
}

// memberLogger is a Logger implementation backed by logrus
type memberLogger struct {
	log *logrus.Entry
}

func (l *memberLogger) Trace(message string, args ...interface{}) {
	l.log.Tracef(message, args...)
}

func (l *memberLogger) Debug(message string, args ...interface{}) {
	l.log.Debugf(message, args...)
}

func (l *memberLogger) Info(message string, args ...interface{}) {
	l.log.Infof(message, args...)
}

func (l *memberLogger) Warn(message string, args ...interface{}) {
	l.log.Warnf(message, args...)
}

func (l *memberLogger) Error(message string, args ...interface{}) {
	l.log.Errorf(message, args...)
}

func (l *memberLogger) Request(requestType string, request interface{}) {
	l.log.Tracef("Received %s %+v", requestType, request)
}

func (l *memberLogger) Response(responseType string, response interface{}, err error) error {
	if err != nil {
		l.log.Tracef("Sending %s %s", responseType, fmt.Sprint(err))
	} else {
		l.log.Tracef("Sending %s %+v", responseType, response)
	}
	return err
}

func (l *memberLogger) Send(requestType string, request interface{}) {
	l.log.Tracef("Sending %s %+v", requestType, request)
}

func (l *memberLogger) Receive(responseType string, response interface{}) {
	l.log.Tracef("Received %s %+v", responseType, response)
}
