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

// Package tags holds the well-known span tag keys.
package tags

// Reserved tag keys. Setting one of these on a span updates a dedicated span
// attribute instead of the generic tag map.
const (
	// ServiceName defines the Service name for this Span.
	ServiceName = "service.name"
	// ResourceName defines the Resource name for the Span.
	ResourceName = "resource.name"
	// SpanType defines the Span type (web, db, cache).
	SpanType = "span.type"
	// ErrorMsg defines the error message.
	ErrorMsg = "error.msg"
	// ErrorType defines the error class.
	ErrorType = "error.type"
	// ErrorStack defines the stack for the given error.
	ErrorStack = "error.stack"
)

// Common, non reserved, tag keys used by the HTTP instrumentation.
const (
	HTTPMethod     = "http.method"
	HTTPURL        = "http.url"
	HTTPStatusCode = "http.status_code"
)

// Span types.
const (
	SpanTypeWeb = "web"
)

// Reserved returns the closed set of reserved tag keys.
func Reserved() []string {
	return []string{ServiceName, ResourceName, SpanType, ErrorMsg, ErrorType, ErrorStack}
}
