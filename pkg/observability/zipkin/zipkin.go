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

// Package zipkin provides a span recorder exporting finished spans to a
// Zipkin collector.
package zipkin

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/openzipkin/zipkin-go"
	"github.com/openzipkin/zipkin-go/model"
	"github.com/openzipkin/zipkin-go/reporter"
	zrpr "github.com/openzipkin/zipkin-go/reporter/http"
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
	ReporterEndpoint = "zipkin-reporter-endpoint"
	LocalServicename = "zipkin-local-servicename"
	LocalHostport    = "zipkin-local-hostport"
	SampleRate       = "zipkin-sample-rate"
)

const (
	// default configuration values
	defaultReporterAddr = "http://zipkin:9411/api/v2/spans"
	defaultSampleRate   = 1.0

	// tagError is the tag Zipkin uses to flag a failed span.
	tagError = "error"
)

// Service implements run.GroupService
type Service struct {
	Servicename   string
	LocalHostport string
	Address       string
	SampleRate    float64
	Reporter      reporter.Reporter

	endpoint     *model.Endpoint
	sampler      zipkin.Sampler
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
	return observability.ZipkinRecorder
}

// GroupName implements run.Namer so the Zipkin local endpoint service name
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
	if s.SampleRate < 0 {
		s.SampleRate = 0.0
	} else if s.SampleRate == 0.0 {
		s.SampleRate = defaultSampleRate
	}

	// create our configuration flags
	flags := run.NewFlagSet("Zipkin Recorder Config")

	flags.StringVar(
		&s.Address,
		ReporterEndpoint,
		s.Address,
		`Full address, including URI, of the Zipkin HTTP collector`)
	flags.StringVar(
		&s.Servicename,
		LocalServicename,
		s.Servicename,
		`Local ServiceName to report`)
	flags.StringVar(
		&s.LocalHostport,
		LocalHostport,
		s.LocalHostport,
		`Local ip:port to report`)
	flags.Float64Var(
		&s.SampleRate,
		SampleRate,
		s.SampleRate,
		`Set the Zipkin sample rate, between never (0.0) and always (1.0), `+
			`smallest increment: 0.0001`)

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
	if s.LocalHostport != "" {
		if _, _, err := net.SplitHostPort(s.LocalHostport); err != nil {
			mErr = multierror.Append(mErr,
				fmt.Errorf(pkg.FlagErr, LocalHostport, err))
		}
	}
	if _, err := zipkin.NewBoundarySampler(s.SampleRate, 0); err != nil {
		mErr = multierror.Append(mErr,
			fmt.Errorf(pkg.FlagErr, SampleRate, err))
	}

	return mErr
}

// PreRun implements run.PreRunner
func (s *Service) PreRun() error {
	var err error

	// configure our local endpoint
	if s.endpoint, err = zipkin.NewEndpoint(s.Servicename, s.LocalHostport); err != nil {
		return err
	}

	// configure our sampler
	salt := time.Now().UnixNano()
	if s.sampler, err = zipkin.NewBoundarySampler(s.SampleRate, salt); err != nil {
		return err
	}

	if s.Reporter == nil {
		// we create our own reporter
		s.ownsReporter = true
		s.Reporter = zrpr.NewReporter(s.Address)
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
	if s.ownsReporter {
		// we handle the lifecycle of the reporter internally
		_ = s.Reporter.Close() // nolint: errcheck
	}
}

// Record implements span.Recorder
func (s *Service) Record(snap span.Snapshot) {
	if s.sampler != nil && !s.sampler(snap.Context.TraceID.Low) {
		return
	}
	s.Reporter.Send(s.spanModel(snap))
}

func (s *Service) spanModel(snap span.Snapshot) model.SpanModel {
	sampled := true
	sm := model.SpanModel{
		SpanContext: model.SpanContext{
			TraceID:  snap.Context.TraceID,
			ID:       snap.Context.SpanID,
			ParentID: snap.Context.ParentID,
			Sampled:  &sampled,
		},
		Name:          snap.OperationName,
		Timestamp:     snap.Start,
		Duration:      snap.Duration,
		LocalEndpoint: s.endpoint,
		Tags:          make(map[string]string, len(snap.Tags)+6),
	}
	if snap.Type == tags.SpanTypeWeb {
		sm.Kind = model.Server
	}

	for k, v := range snap.Tags {
		sm.Tags[k] = cast.ToString(v)
	}
	setTag(sm.Tags, tags.ServiceName, snap.Service)
	setTag(sm.Tags, tags.ResourceName, snap.Resource)
	setTag(sm.Tags, tags.SpanType, snap.Type)
	setTag(sm.Tags, tags.ErrorMsg, snap.ErrorMsg)
	setTag(sm.Tags, tags.ErrorType, snap.ErrorType)
	setTag(sm.Tags, tags.ErrorStack, snap.ErrorStack)
	sm.Tags[observability.VersionTag] = version.Parse()

	if snap.Error {
		sm.Tags[tagError] = snap.ErrorMsg
		if sm.Tags[tagError] == "" {
			sm.Tags[tagError] = "true"
		}
	}
	return sm
}

func setTag(m map[string]string, key, value string) {
	if value != "" {
		m[key] = value
	}
}
