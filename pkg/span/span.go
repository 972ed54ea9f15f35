// Copyright (c) Bas van Beek 2022.
// Copyright (c) Tetrate, Inc 2021.
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

// Package span provides the Span record of a single traced unit of work.
//
// A Span is mutable while active. Once Finish has been called its observable
// state is frozen: SetTag, SetError and OverwriteOperationName keep returning
// successfully but no longer change anything.
//
// Spans are NOT safe for concurrent use. Callers sharing a Span between
// goroutines need to provide their own locking.
package span

import (
	"reflect"
	"time"

	"github.com/spf13/cast"
	"github.com/zoobzio/clockz"

	"github.com/basvanbeek/ddspan/pkg/tags"
)

// Span represents a single unit of work in a trace.
type Span struct {
	operationName string
	context       SpanContext
	service       string
	resource      string
	spanType      string
	tags          map[string]interface{}

	error      bool
	errorMsg   string
	errorType  string
	errorStack string

	finished bool
	start    time.Time
	duration time.Duration

	clock    clockz.Clock
	recorder Recorder
}

// Option configures a Span at construction.
type Option func(*Span)

// WithClock sets the clock used for the span's start time and duration.
func WithClock(clock clockz.Clock) Option {
	return func(s *Span) {
		s.clock = clock
	}
}

// WithRecorder sets the Recorder receiving the span once it finishes.
func WithRecorder(r Recorder) Option {
	return func(s *Span) {
		s.recorder = r
	}
}

// WithSpanType sets the span type at construction.
func WithSpanType(spanType string) Option {
	return func(s *Span) {
		s.spanType = spanType
	}
}

// New creates an active Span.
func New(operationName string, ctx SpanContext, service, resource string, opts ...Option) *Span {
	s := &Span{
		operationName: operationName,
		context:       ctx,
		service:       service,
		resource:      resource,
		tags:          make(map[string]interface{}),
		clock:         clockz.RealClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.start = s.clock.Now()
	return s
}

// attribute maps a reserved tag key onto a dedicated Span field.
type attribute struct {
	get func(*Span) string
	set func(*Span, string)
}

var reserved = map[string]attribute{
	tags.ServiceName: {
		get: func(s *Span) string { return s.service },
		set: func(s *Span, v string) { s.service = v },
	},
	tags.ResourceName: {
		get: func(s *Span) string { return s.resource },
		set: func(s *Span, v string) { s.resource = v },
	},
	tags.SpanType: {
		get: func(s *Span) string { return s.spanType },
		set: func(s *Span, v string) { s.spanType = v },
	},
	tags.ErrorMsg: {
		get: func(s *Span) string { return s.errorMsg },
		set: func(s *Span, v string) { s.errorMsg = v },
	},
	tags.ErrorType: {
		get: func(s *Span) string { return s.errorType },
		set: func(s *Span, v string) { s.errorType = v },
	},
	tags.ErrorStack: {
		get: func(s *Span) string { return s.errorStack },
		set: func(s *Span, v string) { s.errorStack = v },
	},
}

// SetTag sets the tag key to value. The key must be a string, any other key
// type results in an *InvalidSpanArgument and leaves the span untouched.
// Reserved keys from package tags update their dedicated span attribute.
func (s *Span) SetTag(key, value interface{}) error {
	k, ok := tagKey(key)
	if !ok {
		return InvalidTagKey(key)
	}
	if s.finished {
		return nil
	}
	if attr, ok := reserved[k]; ok {
		attr.set(s, cast.ToString(value))
		return nil
	}
	s.tags[k] = value
	return nil
}

func tagKey(key interface{}) (string, bool) {
	if k, ok := key.(string); ok {
		return k, true
	}
	if key != nil && reflect.TypeOf(key).Kind() == reflect.String {
		return reflect.ValueOf(key).String(), true
	}
	return "", false
}

// GetTag returns the value of the tag key. Reserved keys read their dedicated
// attribute, an empty attribute reads as absent.
func (s *Span) GetTag(key string) (interface{}, bool) {
	if attr, ok := reserved[key]; ok {
		if v := attr.get(s); v != "" {
			return v, true
		}
		return nil, false
	}
	v, ok := s.tags[key]
	return v, ok
}

// Tags returns a copy of the generic tags. Reserved keys are not included.
func (s *Span) Tags() map[string]interface{} {
	res := make(map[string]interface{}, len(s.tags))
	for k, v := range s.tags {
		res[k] = v
	}
	return res
}

// OverwriteOperationName replaces the operation name of an active span.
func (s *Span) OverwriteOperationName(name string) {
	if s.finished {
		return
	}
	s.operationName = name
}

// OperationName returns the span's operation name.
func (s *Span) OperationName() string {
	return s.operationName
}

// Context returns the span's identity.
func (s *Span) Context() SpanContext {
	return s.context
}

// Service returns the service name.
func (s *Span) Service() string {
	return s.service
}

// Resource returns the resource name.
func (s *Span) Resource() string {
	return s.resource
}

// Type returns the span type.
func (s *Span) Type() string {
	return s.spanType
}

// HasError returns true if the span was flagged as errored.
func (s *Span) HasError() bool {
	return s.error
}

// StartTime returns the time the span was created.
func (s *Span) StartTime() time.Time {
	return s.start
}

// Duration returns the span's duration. It is zero until the span finishes.
func (s *Span) Duration() time.Duration {
	return s.duration
}

// IsFinished returns true once Finish has been called.
func (s *Span) IsFinished() bool {
	return s.finished
}

// Finish freezes the span and hands it to the configured Recorder. Safe to
// call multiple times, subsequent calls are no-ops.
func (s *Span) Finish() {
	if s.finished {
		return
	}
	s.finished = true
	s.duration = s.clock.Now().Sub(s.start)

	if s.recorder != nil {
		s.recorder.Record(s.Snapshot())
	}
}
