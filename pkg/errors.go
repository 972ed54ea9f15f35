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

// Package pkg holds helpers shared by all packages of this module.
package pkg

import "errors"

// FlagErr is the format used to report an invalid flag value. The first verb
// holds the flag name, the second the underlying error.
const FlagErr = "invalid value for flag --%s: %w"

// ErrRequired is returned when a mandatory value was not provided.
const ErrRequired Error = "value is required"

// Error allows for constant error values.
type Error string

// Error implements error.
func (e Error) Error() string {
	return string(e)
}

// HasError returns true if target is found in the error chain of err. It
// follows fmt.Errorf %w wrapping, github.com/pkg/errors wrapping and
// multierror chains without this package importing either of them.
func HasError(err, target error) bool {
	if err == nil || target == nil {
		return err == target
	}
	return errors.Is(err, target)
}
