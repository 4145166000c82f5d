// Licensed to Elasticsearch B.V. under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Elasticsearch B.V. licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package api

import (
	"time"

	"github.com/elastic/usersvc-monitoring/metrics"
	"github.com/elastic/usersvc-monitoring/store"

	"go.uber.org/zap"
)

type Option func(*Server)

// WithAddress sets the listen address.
func WithAddress(addr string) Option {
	return func(s *Server) {
		s.srv.Addr = addr
	}
}

// WithLogger configures the zap logger used by the server.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRegistry sets the metrics registry the server records into and
// exposes.
func WithRegistry(reg *metrics.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithMetricsPath sets the path of the exposition endpoint.
func WithMetricsPath(path string) Option {
	return func(s *Server) {
		s.metricsPath = path
	}
}

// WithStore sets the users store.
func WithStore(users *store.Users) Option {
	return func(s *Server) {
		s.users = users
	}
}

// WithRequestTimeout sets the read and write timeouts.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.srv.ReadTimeout = timeout
		s.srv.WriteTimeout = timeout
	}
}

// WithShutdownTimeout bounds how long Shutdown waits for in-flight
// requests.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = timeout
	}
}
