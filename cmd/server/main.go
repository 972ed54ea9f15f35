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

package main

import (
	"errors"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tetratelabs/run"
	"github.com/tetratelabs/run/pkg/signal"

	"github.com/basvanbeek/ddspan/internal/service"
	pkghttp "github.com/basvanbeek/ddspan/pkg/http"
	pkgobs "github.com/basvanbeek/ddspan/pkg/observability"
	pkglogging "github.com/basvanbeek/ddspan/pkg/observability/logging"
	pkgskywalking "github.com/basvanbeek/ddspan/pkg/observability/skywalking"
	pkgzipkin "github.com/basvanbeek/ddspan/pkg/observability/zipkin"
)

const (
	defaultServiceName       = "demosvc"
	defaultHTTPListenAddress = ":8000"

	defaultZipkinAddress        = "http://zipkin.istio-system.svc.cluster.local:9411/api/v2/spans"
	defaultSkywalkingOAPAddress = "oap.default.svc.cluster.local:11800"
	defaultSampleRate           = 1.0
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// we take the serviceName from an environment variable as we need
	// this information to be available prior to run.Group bootstrap.
	serviceName := os.Getenv("SVCNAME")
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	serviceInstanceName := os.Getenv("HOSTNAME")
	if serviceInstanceName == "" {
		serviceInstanceName = serviceName
	}
	logger := log.With().Str("service", serviceName).Logger()

	g := run.Group{
		Name:     serviceName,
		HelpText: "HTTP service recording a span for every request",
	}

	// init with sensible defaults
	svcObs := &pkgobs.Service{
		ServiceName:  serviceName,
		SpanRecorder: pkgobs.LogRecorder,
		Recorders: []pkgobs.RecorderService{
			&pkglogging.Service{
				Logger: logger.With().Str("component", "spans").Logger(),
			},
			&pkgzipkin.Service{
				Servicename: serviceName,
				Address:     defaultZipkinAddress,
				SampleRate:  defaultSampleRate,
			},
			&pkgskywalking.Service{
				Servicename:         serviceName,
				ServiceInstanceName: serviceInstanceName,
				Address:             defaultSkywalkingOAPAddress,
				SampleRate:          defaultSampleRate,
				Logger:              logger,
			},
		},
	}

	svcEndpoints := &service.Endpoints{
		ServiceName:  serviceName,
		Instrumenter: svcObs,
		Logger:       logger,
	}
	svcHTTP := &pkghttp.Service{
		ListenAddress: defaultHTTPListenAddress,
		Logger:        logger,
	}
	g.Register(
		new(signal.Handler),
		svcObs,
		svcEndpoints,
		svcHTTP,
		run.NewPreRunner(serviceName, func() error {
			svcHTTP.Handler = svcEndpoints.Handler()
			return nil
		}),
	)

	if err := g.Run(); err != nil {
		if !errors.Is(err, run.ErrRequestedShutdown) {
			// We had an actual fatal error.
			logger.Error().Err(err).Msgf("%s exit", g.Name)
			os.Exit(-1)
		}
		logger.Info().Msgf("%s exit: %v", g.Name, err)
	}
}
