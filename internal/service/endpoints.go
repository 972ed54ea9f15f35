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

package service

import (
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/basvanbeek/ddspan/pkg/span"
)

// setErrors allows one to set the percentage of error responses this service
// will generate on the main echoHandler.
func (ep *Endpoints) setErrors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	i, err := strconv.Atoi(mux.Vars(r)["percentage"])
	if err != nil || i < 0 || i > 100 {
		ep.writeResponse(ctx, w, response{
			Code:  http.StatusBadRequest,
			Error: errPercentage,
		})
		return
	}
	ep.mtx.Lock()
	ep.errors = int32(i)
	ep.mtx.Unlock()

	ep.writeResponse(ctx, w, response{
		Code:    http.StatusOK,
		Message: fmt.Sprintf("errors percentage set to: %d%%", i),
	})
}

// parseDuration accepts a Go duration string or a raw number of milliseconds.
func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		// not a duration string, let's see if it is a raw number...
		var i int
		if i, err = strconv.Atoi(s); err != nil {
			return 0, errDuration
		}
		d = time.Duration(i) * time.Millisecond
	}
	if d < 0 {
		return 0, errDuration
	}
	return d, nil
}

// setLatency allows one to set the latency in miliseconds this service will
// generate on the main echoHandler.
func (ep *Endpoints) setLatency(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	d, err := parseDuration(mux.Vars(r)["duration"])
	if err != nil {
		ep.writeResponse(ctx, w, response{
			Code:  http.StatusBadRequest,
			Error: errDuration,
		})
		return
	}

	ep.mtx.Lock()
	ep.duration = d
	ep.mtx.Unlock()

	ep.writeResponse(ctx, w, response{
		Code:    http.StatusOK,
		Message: fmt.Sprintf("duration set to: %s", d.String()),
	})
}

// crash records the provided message as the error of the request span and
// fails the request.
func (ep *Endpoints) crash(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	msg := mux.Vars(r)["message"]
	if s := span.FromContext(ctx); s != nil {
		s.SetError(msg)
	}
	ep.writeResponse(ctx, w, response{
		Code:    http.StatusInternalServerError,
		Message: "crash requested: " + msg,
	})
}

// rename overwrites the operation name of the request span.
func (ep *Endpoints) rename(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := strings.TrimSpace(mux.Vars(r)["name"])
	if name == "" {
		ep.writeResponse(ctx, w, response{
			Code:  http.StatusBadRequest,
			Error: errName,
		})
		return
	}
	if s := span.FromContext(ctx); s != nil {
		s.OverwriteOperationName(name)
	}
	ep.writeResponse(ctx, w, response{
		Code:    http.StatusOK,
		Message: fmt.Sprintf("operation name set to: %s", name),
	})
}

// emulateConcurrency instructs this service to run 8 fake heavy local methods.
// The methods will take the provided duration as their run time. The
// concurrency argument will instruct these methods to run serial, in parallel,
// or mixed serial and parallel. The methods are instrumented as local spans,
// children of the request span.
func (ep *Endpoints) emulateConcurrency(w http.ResponseWriter, r *http.Request) {
	var (
		ctx  = r.Context()
		vars = mux.Vars(r)
	)
	d, err := parseDuration(vars["duration"])
	if err != nil {
		ep.writeResponse(ctx, w, response{
			Code:  http.StatusBadRequest,
			Error: errDuration,
		})
		return
	}

	// we will be emulating 8 heavy internal functions
	var wg sync.WaitGroup

	proc := func(i int) {
		defer wg.Done()
		s, _ := ep.tracer.StartSpanFromContext(ctx, fmt.Sprintf("proc-%d", i), "local")
		defer s.Finish()

		_ = s.SetTag("duration", d.String())
		time.Sleep(d)
	}

	c := strings.ToLower(vars["concurrency"])
	switch c {
	case "serial", "mixed", "parallel":
	default:
		ep.writeResponse(ctx, w, response{
			Code:  http.StatusBadRequest,
			Error: errConcurrency,
		})
		return
	}

	wg.Add(8)
	for i := 0; i < 8; i++ {
		switch {
		case c == "parallel", c == "mixed" && i%2 == 0:
			go proc(i)
		default:
			proc(i)
		}
	}

	// wait until all goroutines are finished
	wg.Wait()

	ep.writeResponse(ctx, w, response{
		Code:    http.StatusOK,
		Message: "ran several local spans",
	})
}

// echoHandler returns the received request headers or fails with an error.
// The method will take at least as long as the set latency. Errors will occur
// with the set percentage in the service.
func (ep *Endpoints) echoHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	// retrieve our behavioral config
	ep.mtx.RLock()
	d := ep.duration
	e := ep.errors
	ep.mtx.RUnlock()

	// inject configured latency
	time.Sleep(d)

	if rand.Int31n(100) < e {
		// return error response...
		ep.writeResponse(ctx, w, response{
			Code:  http.StatusInternalServerError,
			Error: errInternal,
		})
		return
	}

	// emulate successful response, sending request headers received
	ep.writeResponse(ctx, w, response{
		Code:    http.StatusOK,
		Headers: r.Header,
	})
}
