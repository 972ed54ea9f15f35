package observability_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/tetratelabs/run"
	"github.com/zoobzio/clockz"

	"github.com/basvanbeek/ddspan/pkg"
	"github.com/basvanbeek/ddspan/pkg/observability"
	"github.com/basvanbeek/ddspan/pkg/span"
	"github.com/basvanbeek/ddspan/pkg/tags"
)

// memRecorder is an in-memory observability.RecorderService.
type memRecorder struct {
	name    string
	invalid bool

	mu    sync.Mutex
	spans []span.Snapshot
}

func (m *memRecorder) Name() string { return m.name }

func (m *memRecorder) FlagSet() *run.FlagSet { return run.NewFlagSet("memory") }

func (m *memRecorder) Validate() error {
	if m.invalid {
		return pkg.ErrRequired
	}
	return nil
}

func (m *memRecorder) PreRun() error { return nil }

func (m *memRecorder) Serve() error { return nil }

func (m *memRecorder) GracefulStop() {}

func (m *memRecorder) Record(s span.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spans = append(m.spans, s)
}

func (m *memRecorder) recorded() []span.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]span.Snapshot(nil), m.spans...)
}

func newService(t *testing.T, rec *memRecorder) *observability.Service {
	t.Helper()
	svc := &observability.Service{
		ServiceName:  "svc",
		SpanRecorder: rec.name,
		Recorders:    []observability.RecorderService{rec},
	}
	if err := svc.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if err := svc.PreRun(); err != nil {
		t.Fatalf("unexpected prerun error: %v", err)
	}
	return svc
}

func TestServiceValidate(t *testing.T) {
	tests := []struct {
		name     string
		recorder string
		provided *memRecorder
		target   error
	}{
		{"valid", observability.LogRecorder, &memRecorder{name: observability.LogRecorder}, nil},
		{"unsupported", "jaeger", &memRecorder{name: "jaeger"}, nil},
		{"not-provided", observability.ZipkinRecorder, &memRecorder{name: observability.LogRecorder}, nil},
		{"invalid-recorder", observability.LogRecorder, &memRecorder{name: observability.LogRecorder, invalid: true}, pkg.ErrRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &observability.Service{
				SpanRecorder: tt.recorder,
				Recorders:    []observability.RecorderService{tt.provided},
			}
			err := svc.Validate()
			if tt.name == "valid" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if tt.target != nil && !pkg.HasError(err, tt.target) {
				t.Errorf("expected %v in %v", tt.target, err)
			}
		})
	}
}

func TestServiceDefaultsToLogRecorder(t *testing.T) {
	svc := &observability.Service{}
	_ = svc.FlagSet()
	if svc.SpanRecorder != observability.LogRecorder {
		t.Errorf("expected default recorder %q, got %q", observability.LogRecorder, svc.SpanRecorder)
	}
	svc.GroupName("group")
	if svc.ServiceName != "group" {
		t.Errorf("expected service name from group, got %q", svc.ServiceName)
	}
}

func TestServiceRecordsThroughDelegate(t *testing.T) {
	rec := &memRecorder{name: observability.LogRecorder}
	svc := newService(t, rec)

	if svc.Name() != "span-recorder[log]" {
		t.Errorf("unexpected name %q", svc.Name())
	}

	s, ctx := svc.Tracer().StartSpanFromContext(context.Background(), "op", "res")
	if svc.SpanFromContext(ctx) != s {
		t.Error("expected span from context")
	}
	s.Finish()

	spans := rec.recorded()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Service != "svc" || spans[0].Resource != "res" || spans[0].OperationName != "op" {
		t.Errorf("unexpected span %+v", spans[0])
	}
}

func TestTracerChildSpans(t *testing.T) {
	clock := clockz.NewFakeClock()
	tracer := &observability.Tracer{ServiceName: "svc", Clock: clock}

	parent, ctx := tracer.StartSpanFromContext(context.Background(), "parent", "res")
	child, _ := tracer.StartSpanFromContext(ctx, "child", "res")

	if !parent.Context().IsRoot() {
		t.Error("expected root span")
	}
	if child.Context().TraceID != parent.Context().TraceID {
		t.Error("expected child to share the trace id")
	}
	if child.Context().ParentID == nil || *child.Context().ParentID != parent.Context().SpanID {
		t.Error("expected child to reference parent")
	}

	clock.Advance(time.Second)
	child.Finish()
	if child.Duration() != time.Second {
		t.Errorf("expected 1s, got %v", child.Duration())
	}
}

func TestMiddleware(t *testing.T) {
	rec := &memRecorder{name: observability.LogRecorder}
	svc := newService(t, rec)

	router := mux.NewRouter()
	router.Use(svc.Middleware())
	router.Path("/ok/{id}").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if span.FromContext(r.Context()) == nil {
			t.Error("expected request span in context")
		}
		_, _ = w.Write([]byte("ok"))
	})
	router.Path("/fail").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	router.Path("/handled").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		span.FromContext(r.Context()).SetError(errors.New("handled"))
		w.WriteHeader(http.StatusInternalServerError)
	})

	for _, path := range []string{"/ok/1", "/fail", "/handled"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	spans := rec.recorded()
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}

	tests := []struct {
		resource string
		status   int
		hasError bool
		errMsg   string
	}{
		{"GET /ok/{id}", http.StatusOK, false, ""},
		{"GET /fail", http.StatusBadGateway, true, "Bad Gateway"},
		{"GET /handled", http.StatusInternalServerError, true, "handled"},
	}
	for i, tt := range tests {
		s := spans[i]
		if s.OperationName != observability.OperationHTTPRequest {
			t.Errorf("expected operation %q, got %q", observability.OperationHTTPRequest, s.OperationName)
		}
		if s.Resource != tt.resource {
			t.Errorf("expected resource %q, got %q", tt.resource, s.Resource)
		}
		if s.Type != tags.SpanTypeWeb {
			t.Errorf("expected type %q, got %q", tags.SpanTypeWeb, s.Type)
		}
		if s.Tags[tags.HTTPStatusCode] != tt.status {
			t.Errorf("expected status %d, got %v", tt.status, s.Tags[tags.HTTPStatusCode])
		}
		if s.Error != tt.hasError || s.ErrorMsg != tt.errMsg {
			t.Errorf("expected error %t (%q), got %t (%q)", tt.hasError, tt.errMsg, s.Error, s.ErrorMsg)
		}
	}
}
