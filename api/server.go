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

// Package api implements the HTTP server of the users service: the
// users CRUD routes, health and root endpoints, and the metrics
// exposition endpoint, all behind the instrumentation pipeline.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/elastic/usersvc-monitoring/metrics"
	"github.com/elastic/usersvc-monitoring/middleware"
	"github.com/elastic/usersvc-monitoring/store"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	// ServiceName and ServiceVersion identify the service in the
	// health and root endpoints.
	ServiceName    = "usersvc"
	ServiceVersion = "1.0.0"

	defaultAddr            = ":8080"
	defaultMetricsPath     = "/metrics"
	defaultRequestTimeout  = 15 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// Server is the HTTP server of the service.
type Server struct {
	logger          *zap.SugaredLogger
	registry        *metrics.Registry
	users           *store.Users
	metricsPath     string
	shutdownTimeout time.Duration
	router          *mux.Router
	srv             *http.Server
}

// NewServer returns a configured server. It does not start listening;
// call Start.
func NewServer(opts ...Option) (*Server, error) {
	s := Server{
		metricsPath:     defaultMetricsPath,
		shutdownTimeout: defaultShutdownTimeout,
		srv: &http.Server{
			Addr:           defaultAddr,
			ReadTimeout:    defaultRequestTimeout,
			WriteTimeout:   defaultRequestTimeout,
			MaxHeaderBytes: 1 << 20,
		},
	}

	for _, opt := range opts {
		opt(&s)
	}

	if s.logger == nil {
		return nil, errors.New("logger cannot be empty")
	}
	if s.registry == nil {
		return nil, errors.New("metrics registry cannot be empty")
	}
	if s.users == nil {
		s.users = store.NewUsers()
	}

	s.router = s.routes()

	// Instrumentation is the outermost stage so that requests which
	// never match a route are still observed.
	handler := middleware.Logging(s.logger)(s.router)
	s.srv.Handler = middleware.Metrics(s.registry, s.router, s.logger)(handler)

	return &s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle(s.metricsPath, metrics.Handler(s.registry, s.logger)).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	api.HandleFunc("/users", s.handleCreateUser).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}", s.handleGetUser).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", s.handleUpdateUser).Methods(http.MethodPut)
	api.HandleFunc("/users/{id}", s.handleDeleteUser).Methods(http.MethodDelete)
	return r
}

// Handler returns the fully assembled request pipeline. Exposed for
// tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Start begins serving in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on addr %s: %w", s.srv.Addr, err)
	}

	go func() {
		s.logger.Infof("%s listening on %s", ServiceName, ln.Addr())
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("received error from http.Serve(): %v", err)
		} else {
			s.logger.Debug("server closed")
		}
	}()
	return nil
}

// Shutdown shuts down the server gracefully, waiting at most the
// configured shutdown timeout for in-flight requests to drain.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	return s.srv.Shutdown(ctx)
}
