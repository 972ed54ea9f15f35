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

package span

import "time"

// Snapshot is a read-only copy of a Span's state.
type Snapshot struct {
	OperationName string
	Context       SpanContext
	Service       string
	Resource      string
	Type          string
	Tags          map[string]interface{}
	Error         bool
	ErrorMsg      string
	ErrorType     string
	ErrorStack    string
	Start         time.Time
	Duration      time.Duration
	Finished      bool
}

// Recorder receives spans as they finish.
type Recorder interface {
	Record(Snapshot)
}

// RecorderFunc allows a plain function to be used as a Recorder.
type RecorderFunc func(Snapshot)

// Record implements Recorder.
func (f RecorderFunc) Record(s Snapshot) {
	f(s)
}

// Snapshot returns a copy of the span's current state.
func (s *Span) Snapshot() Snapshot {
	return Snapshot{
		OperationName: s.operationName,
		Context:       s.context,
		Service:       s.service,
		Resource:      s.resource,
		Type:          s.spanType,
		Tags:          s.Tags(),
		Error:         s.error,
		ErrorMsg:      s.errorMsg,
		ErrorType:     s.errorType,
		ErrorStack:    s.errorStack,
		Start:         s.start,
		Duration:      s.duration,
		Finished:      s.finished,
	}
}
