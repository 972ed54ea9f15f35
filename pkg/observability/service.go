package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tetratelabs/multierror"
	"github.com/tetratelabs/run"

	"github.com/basvanbeek/ddspan/pkg"
	"github.com/basvanbeek/ddspan/pkg/span"
)

const (
	SpanRecorder = "span-recorder"

	ZipkinRecorder     = "zipkin"
	SkywalkingRecorder = "skywalking"
	LogRecorder        = "log"

	VersionTag = "version"
)

// Tracerer is an extension interface that observability Services can implement
// to provide tracing functionalities.
type Tracerer interface {
	Tracer() *Tracer
}

// Middlewareer is an extension interface that observability Services can implement
// to provide an instrumented middleware.
type Middlewareer interface {
	Middleware() func(http.Handler) http.Handler
}

// Instrumenter is the interface consumed by instrumented code.
type Instrumenter interface {
	Tracerer
	Contexter
	Middlewareer
}

// RecorderService is an interface a concrete span recorder needs to implement.
type RecorderService interface {
	span.Recorder
	run.Config
	run.PreRunner
	run.Service
}

// Service implements run.GroupService
type Service struct {
	ServiceName  string
	SpanRecorder string
	Recorders    []RecorderService

	delegate RecorderService
	tracer   *Tracer
}

// static compile time run interfaces validation
var (
	_ run.Config    = (*Service)(nil)
	_ run.PreRunner = (*Service)(nil)
	_ run.Service   = (*Service)(nil)
	_ Instrumenter  = (*Service)(nil)
	_ span.Recorder = (*Service)(nil)
)

func supportedRecorders() []string {
	return []string{ZipkinRecorder, SkywalkingRecorder, LogRecorder}
}

// Name implements run.Unit.
func (s *Service) Name() string {
	if s.delegate == nil {
		return "span-recorder"
	}
	return fmt.Sprintf("span-recorder[%s]", s.delegate.Name())
}

// GroupName implements run.Namer so spans are reported under the name of the
// run.Group if no service name was set.
func (s *Service) GroupName(name string) {
	if s.ServiceName == "" {
		s.ServiceName = name
	}
}

// FlagSet implements run.Config
func (s *Service) FlagSet() *run.FlagSet {
	if s.SpanRecorder == "" {
		s.SpanRecorder = LogRecorder
	}

	// create our configuration flags
	flags := run.NewFlagSet("Span recorder config")

	flags.StringVar(
		&s.SpanRecorder,
		SpanRecorder,
		s.SpanRecorder,
		fmt.Sprintf(`Name of the span recorder to use, one of %v`, supportedRecorders()))

	for _, recorder := range s.Recorders {
		flags.AddFlagSet(recorder.FlagSet().FlagSet)
	}
	return flags
}

// Validate implements run.Config
func (s *Service) Validate() error {
	var mErr error

	var foundSupportedRecorder bool
	for _, name := range supportedRecorders() {
		if name == s.SpanRecorder {
			foundSupportedRecorder = true
			break
		}
	}

	if !foundSupportedRecorder {
		mErr = multierror.Append(mErr,
			fmt.Errorf(pkg.FlagErr, SpanRecorder, fmt.Errorf("recorder must be one of %v", supportedRecorders())))
	}

	foundSupportedRecorder = false
	for _, recorder := range s.Recorders {
		if recorder.Name() == s.SpanRecorder {
			foundSupportedRecorder = true
			if err := recorder.Validate(); err != nil {
				mErr = multierror.Append(mErr, err)
			}
			break
		}
	}
	if !foundSupportedRecorder {
		mErr = multierror.Append(mErr, fmt.Errorf("recorder %s not provided", s.SpanRecorder))
	}
	return mErr
}

// PreRun implements run.PreRunner
func (s *Service) PreRun() error {
	for _, recorder := range s.Recorders {
		if recorder.Name() == s.SpanRecorder {
			s.delegate = recorder
			break
		}
	}
	if s.delegate == nil {
		return fmt.Errorf("recorder %s not provided", s.SpanRecorder)
	}
	s.tracer = &Tracer{
		ServiceName: s.ServiceName,
		Recorder:    s,
	}
	return s.delegate.PreRun()
}

// Serve implements run.GroupService
func (s *Service) Serve() error {
	return s.delegate.Serve()
}

// GracefulStop implements run.GroupService
func (s *Service) GracefulStop() {
	s.delegate.GracefulStop()
}

// Record implements span.Recorder
func (s *Service) Record(snap span.Snapshot) {
	s.delegate.Record(snap)
}

// Tracer implements observability.Tracerer
func (s *Service) Tracer() *Tracer {
	return s.tracer
}

// SpanFromContext implements observability.Contexter
func (s *Service) SpanFromContext(ctx context.Context) *span.Span {
	return span.FromContext(ctx)
}

// Middleware implements observability.Middlewareer
func (s *Service) Middleware() func(http.Handler) http.Handler {
	return NewMiddleware(s.tracer)
}
