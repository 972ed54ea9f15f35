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

// Package skywalking provides a span recorder replaying finished spans into a
// Skywalking tracer.
package skywalking

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"

	"github.com/SkyAPM/go2sky"
	"github.com/SkyAPM/go2sky/reporter"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"github.com/tetratelabs/multierror"
	"github.com/tetratelabs/run"
	"github.com/tetratelabs/run/pkg/version"

	"github.com/basvanbeek/ddspan/pkg"
	"github.com/basvanbeek/ddspan/pkg/observability"
	"github.com/basvanbeek/ddspan/pkg/span"
	"github.com/basvanbeek/ddspan/pkg/tags"
)

// flags
const (
	ReporterEndpoint         = "skywalking-reporter-endpoint"
	LocalServicename         = "skywalking-local-servicename"
	LocalServiceInstanceName = "skywalking-local-serviceinstancename"
	SampleRate               = "skywalking-sample-rate"
)

const (
	// default configuration values
	defaultReporterAddr = "oap-skywalking:1180"
	defaultSampleRate   = 1.0
)

// Service implements run.GroupService
type Service struct {
	Servicename         string
	ServiceInstanceName string
	Address             string
	SampleRate          float64
	Logger              zerolog.Logger
	go2SkyTracer        *go2sky.Tracer

	Reporter     go2sky.Reporter
	ownsReporter bool
	closer       chan error
}

// static compile time run interfaces validation
var (
	_ run.Config                    = (*Service)(nil)
	_ run.PreRunner                 = (*Service)(nil)
	_ run.Service                   = (*Service)(nil)
	_ observability.RecorderService = (*Service)(nil)
)

// Name implements run.Unit.
func (s Service) Name() string {
	return observability.SkywalkingRecorder
}

// GroupName implements run.Namer so the Skywalking local endpoint service name
// defaults to the name of the run.Group if not set before calling Group's Run
// or RunConfig.
func (s *Service) GroupName(name string) {
	if s.Servicename == "" {
		s.Servicename = name
	}
}

// FlagSet implements run.Config
func (s *Service) FlagSet() *run.FlagSet {
	// set defaults if needed
	if s.Address == "" {
		s.Address = defaultReporterAddr
	}
	if s.Servicename == "" {
		s.Servicename = path.Base(os.Args[0])
	}

	if s.ServiceInstanceName == "" {
		s.ServiceInstanceName = s.Servicename
	}

	if s.SampleRate < 0 {
		s.SampleRate = 0.0
	} else if s.SampleRate == 0.0 {
		s.SampleRate = defaultSampleRate
	}

	// create our configuration flags
	flags := run.NewFlagSet("Skywalking Recorder Config")

	flags.StringVar(
		&s.Address,
		ReporterEndpoint,
		s.Address,
		`Address of the Skywalking OAP gRPC collector`)
	flags.StringVar(
		&s.Servicename,
		LocalServicename,
		s.Servicename,
		`Local ServiceName to report`)
	flags.StringVar(
		&s.ServiceInstanceName,
		LocalServiceInstanceName,
		s.ServiceInstanceName,
		`Local ServiceInstanceName to report`)
	flags.Float64Var(
		&s.SampleRate,
		SampleRate,
		s.SampleRate,
		`Set the Skywalking sample rate, between never (0.0) and always (1.0), `+
			`smallest increment: 0.01`)

	return flags
}

// Validate implements run.Config
func (s Service) Validate() error {
	var mErr error

	if s.Reporter == nil {
		if _, err := url.Parse(s.Address); err != nil {
			mErr = multierror.Append(mErr,
				fmt.Errorf(pkg.FlagErr, ReporterEndpoint, err))
		}
	}
	if s.Servicename == "" {
		mErr = multierror.Append(mErr,
			fmt.Errorf(pkg.FlagErr, LocalServicename, pkg.ErrRequired))
	}
	if s.ServiceInstanceName == "" {
		mErr = multierror.Append(mErr,
			fmt.Errorf(pkg.FlagErr, LocalServiceInstanceName, pkg.ErrRequired))
	}
	if s.SampleRate < 0 || s.SampleRate > 1 {
		mErr = multierror.Append(mErr,
			fmt.Errorf(pkg.FlagErr, SampleRate, errSampleRate))
	}

	return mErr
}

const errSampleRate pkg.Error = "expected sample rate between 0.0 and 1.0"

// PreRun implements run.PreRunner
func (s *Service) PreRun() error {
	var err error

	// configure our sampler
	sampler := go2sky.NewRandomSampler(s.SampleRate)

	rep := s.Reporter
	if rep == nil {
		// we create our own reporter
		s.ownsReporter = true
		if rep, err = reporter.NewGRPCReporter(s.Address, reporter.WithCheckInterval(0)); err != nil {
			return err
		}

	}

	// create our tracer
	s.go2SkyTracer, err = go2sky.NewTracer(s.Servicename, go2sky.WithInstance(s.ServiceInstanceName), go2sky.WithReporter(rep), go2sky.WithCustomSampler(sampler))

	if err != nil {
		if s.ownsReporter {
			// we handle the lifecycle of the reporter internally
			rep.Close()
		}
		return err
	}

	s.Reporter = rep
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
	if s.ownsReporter {
		// we handle the lifecycle of the reporter internally
		s.Reporter.Close()
	}
}

// Record implements span.Recorder. The span is replayed as a local span, so
// the reported timestamps are those of the replay.
func (s *Service) Record(snap span.Snapshot) {
	sp, _, err := s.go2SkyTracer.CreateLocalSpan(context.Background(), go2sky.WithOperationName(snap.OperationName))
	if err != nil {
		s.Logger.Warn().Err(err).Str("operation", snap.OperationName).Msg("unable to replay span")
		return
	}

	for k, v := range snap.Tags {
		sp.Tag(go2sky.Tag(k), cast.ToString(v))
	}
	tag(sp, tags.ServiceName, snap.Service)
	tag(sp, tags.ResourceName, snap.Resource)
	tag(sp, tags.SpanType, snap.Type)
	tag(sp, tags.ErrorType, snap.ErrorType)
	tag(sp, observability.VersionTag, version.Parse())

	if snap.Error {
		msgs := []string{snap.ErrorMsg}
		if snap.ErrorStack != "" {
			msgs = append(msgs, snap.ErrorStack)
		}
		sp.Error(snap.Start.Add(snap.Duration), msgs...)
	}
	sp.End()
}

func tag(sp go2sky.Span, key, value string) {
	if value != "" {
		sp.Tag(go2sky.Tag(key), value)
	}
}
