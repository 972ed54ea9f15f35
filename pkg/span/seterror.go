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
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// SetError records value as the span's error state. The value is resolved in
// the following order:
//
//   - error: sets the error message, the error type and, for errors created
//     by github.com/pkg/errors, the error stack.
//   - string: sets the error message.
//   - fmt.Stringer: sets the error message to its String() result.
//   - anything else: the error flag is set to the truthiness of value.
//
// In the first three cases the error flag is set. The last case only touches
// the flag, previously recorded error tags are kept.
func (s *Span) SetError(value interface{}) {
	if s.finished {
		return
	}

	if err, ok := value.(error); ok && !isNil(value) {
		s.error = true
		s.errorMsg = err.Error()
		s.errorType = reflect.TypeOf(err).String()
		if st, ok := err.(stackTracer); ok {
			s.errorStack = fmt.Sprintf("%+v", st.StackTrace())
		}
		return
	}

	if msg, ok := asString(value); ok {
		s.error = true
		s.errorMsg = msg
		return
	}

	if str, ok := value.(fmt.Stringer); ok && !isNil(value) {
		s.error = true
		s.errorMsg = str.String()
		return
	}

	s.error = truthy(value)
}

func asString(v interface{}) (string, bool) {
	if str, ok := v.(string); ok {
		return str, true
	}
	if v != nil && reflect.TypeOf(v).Kind() == reflect.String {
		return reflect.ValueOf(v).String(), true
	}
	return "", false
}

// isNil catches typed nil pointers hidden in an interface.
func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// truthy coerces v into a boolean: zero numbers, false, nil and empty
// collections are false, everything else is true.
func truthy(v interface{}) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Complex64, reflect.Complex128:
		return rv.Complex() != 0
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	default:
		return true
	}
}
