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

import (
	"context"

	"github.com/openzipkin/zipkin-go/idgenerator"
	"github.com/openzipkin/zipkin-go/model"
)

var ids = idgenerator.NewRandom64()

// SpanContext holds the identity of a Span. It is assigned once at Span
// construction and never changes afterwards.
type SpanContext struct {
	TraceID  model.TraceID
	SpanID   model.ID
	ParentID *model.ID
}

// NewRootContext creates the identity for the first span of a new trace.
func NewRootContext() SpanContext {
	traceID := ids.TraceID()
	return SpanContext{
		TraceID: traceID,
		SpanID:  ids.SpanID(traceID),
	}
}

// NewChildContext creates the identity of a span that is a direct child of
// the span identified by parent.
func NewChildContext(parent SpanContext) SpanContext {
	parentID := parent.SpanID
	return SpanContext{
		TraceID:  parent.TraceID,
		SpanID:   ids.SpanID(parent.TraceID),
		ParentID: &parentID,
	}
}

// IsRoot returns true if the context has no parent.
func (c SpanContext) IsRoot() bool {
	return c.ParentID == nil
}

type spanKey struct{}

// ContextWithSpan returns a copy of ctx holding s.
func ContextWithSpan(ctx context.Context, s *Span) context.Context {
	return context.WithValue(ctx, spanKey{}, s)
}

// FromContext retrieves the Span stored in ctx. If not found, returns nil.
func FromContext(ctx context.Context) *Span {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(spanKey{}).(*Span)
	return s
}
