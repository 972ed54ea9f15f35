package observability

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/basvanbeek/ddspan/pkg/tags"
)

// OperationHTTPRequest is the operation name of server side request spans.
const OperationHTTPRequest = "http.request"

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.code == 0 {
		w.code = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.code == 0 {
		w.code = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// NewMiddleware returns a middleware creating a span for each request. The
// span is available to handlers through span.FromContext. When used with
// mux.Router.Use the resource holds the matched route template.
func NewMiddleware(t *Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ctx := t.StartSpanFromContext(r.Context(), OperationHTTPRequest, resourceName(r))
			defer s.Finish()

			_ = s.SetTag(tags.SpanType, tags.SpanTypeWeb)
			_ = s.SetTag(tags.HTTPMethod, r.Method)
			_ = s.SetTag(tags.HTTPURL, r.URL.String())

			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r.WithContext(ctx))

			if sw.code == 0 {
				sw.code = http.StatusOK
			}
			_ = s.SetTag(tags.HTTPStatusCode, sw.code)
			if sw.code >= http.StatusInternalServerError && !s.HasError() {
				s.SetError(http.StatusText(sw.code))
			}
		})
	}
}

func resourceName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return r.Method + " " + tpl
		}
	}
	return r.Method + " " + r.URL.Path
}
