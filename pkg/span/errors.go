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

	"github.com/basvanbeek/ddspan/pkg"
)

// ErrInvalidSpanArgument is matched by every *InvalidSpanArgument.
const ErrInvalidSpanArgument pkg.Error = "invalid span argument"

const invalidTagKeyFmt = "Invalid key type in given span tags. Expected string, got %s."

// InvalidSpanArgument is returned when a Span mutator receives an argument of
// an unexpected type.
type InvalidSpanArgument struct {
	// KeyType holds the runtime type name of the offending tag key.
	KeyType string
	msg     string
}

// InvalidTagKey creates the error returned by SetTag for a non-string key.
func InvalidTagKey(key interface{}) *InvalidSpanArgument {
	keyType := typeName(key)
	return &InvalidSpanArgument{
		KeyType: keyType,
		msg:     fmt.Sprintf(invalidTagKeyFmt, keyType),
	}
}

// Error implements error.
func (e *InvalidSpanArgument) Error() string {
	return e.msg
}

// Is allows errors.Is(err, ErrInvalidSpanArgument).
func (e *InvalidSpanArgument) Is(target error) bool {
	return target == ErrInvalidSpanArgument
}

// typeName returns a language neutral name for the dynamic type of v.
func typeName(v interface{}) string {
	if v == nil {
		return "NULL"
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "double"
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	case reflect.Slice, reflect.Array, reflect.Map:
		return "array"
	default:
		return "object"
	}
}
