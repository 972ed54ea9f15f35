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


// Package logging provides a span recorder writing finished spans as
// structured log events.
package logging

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tetratelabs/multierror"
	"github.com/tetratelabs/run"

	"github.com/basvanbeek/ddspan/pkg"
	"github.com/basvanbeek/ddspan/pkg/observability"
	"github.com/basvanbeek/ddspan/pkg/span"
)

// flags
const (
	Level = "log-recorder-level"
)

const defaultLevel = "info"

// Service implements run.GroupService
type Service struct {
	Logger zerolog.Logger
	Level  string

	level  zerolog.Level
	closer chan error
}

// static compile time run interfaces validation
var (
	_ run.Config                    = (*Service)(nil)
	_ run.PreRunner                 = (*Service)(nil)
	_ run.Service                   = (*Service)(nil)
	_ observability.RecorderService = (*Service)(nil)
)

// Name implements run.Unit.
func (s *Service) Name() string {
	return observability.LogRecorder
}

// FlagSet implements run.Config
func (s *Service) FlagSet() *run.FlagSet {
	if s.Level == "" {
		s.Level = defaultLevel
	}

	flags := run.NewFlagSet("Log Recorder Config")

	flags.StringVar(
		&s.Level,
		Level,
		s.Level,
		`Log level used for finished spans, errored spans are logged at warn or above`)

	return flags
}

// Validate implements run.Config
func (s *Service) Validate() error {
	var mErr error

	if s.Level == "" {
		mErr = multierror.Append(mErr,
			fmt.Errorf(pkg.FlagErr, Level, pkg.ErrRequired))
	} else if _, err := zerolog.ParseLevel(s.Level); err != nil {
		mErr = multierror.Append(mErr,
			fmt.Errorf(pkg.FlagErr, Level, err))
	}

	return mErr
}

// PreRun implements run.PreRunner
func (s *Service) PreRun() (err error) {
	if s.Level == "" {
		s.Level = defaultLevel
	}
	if s.level, err = zerolog.ParseLevel(s.Level); err != nil {
		return err
	}
	s.closer = make(chan error)
	return nil
}

// Serve implements run.GroupService
func (s *Service) Serve() error {
	return <-s.closer
}

// GracefulStop implements run.GroupService
func (s *Service) GracefulStop() {
	close(s.closer)
}

// Record implements span.Recorder
func (s *Service) Record(snap span.Snapshot) {
	level := s.level
	if snap.Error && level < zerolog.WarnLevel {
		level = zerolog.WarnLevel
	}

	e := s.Logger.WithLevel(level).
		Str("trace_id", snap.Context.TraceID.String()).
		Str("span_id", snap.Context.SpanID.String()).
		Str("operation", snap.OperationName).
		Str("service", snap.Service).
		Str("resource", snap.Resource).
		Time("start", snap.Start).
		Dur("duration", snap.Duration).
		Bool("error", snap.Error)

	if snap.Context.ParentID != nil {
		e = e.Str("parent_id", snap.Context.ParentID.String())
	}
	if snap.Type != "" {
		e = e.Str("type", snap.Type)
	}
	if snap.ErrorMsg != "" {
		e = e.Str("error_msg", snap.ErrorMsg)
	}
	if snap.ErrorType != "" {
		e = e.Str("error_type", snap.ErrorType)
	}
	if len(snap.Tags) > 0 {
		e = e.Fields(map[string]interface{}{"tags": snap.Tags})
	}
	e.Msg("span finished")
}
