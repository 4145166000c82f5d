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

package app

import (
	"fmt"

	"github.com/elastic/usersvc-monitoring/api"
	"github.com/elastic/usersvc-monitoring/logger"
	"github.com/elastic/usersvc-monitoring/metrics"
	"github.com/elastic/usersvc-monitoring/middleware"

	"go.uber.org/zap"
)

// App is the main application.
type App struct {
	logger   *zap.SugaredLogger
	registry *metrics.Registry
	server   *api.Server
}

// New returns an App or an error if the creation failed.
func New(opts ...ConfigOption) (*App, error) {
	c := appConfig{}

	for _, opt := range opts {
		opt(&c)
	}

	app := &App{
		registry: metrics.NewRegistry(),
	}

	var err error

	if app.logger, err = buildLogger(c.logLevel); err != nil {
		return nil, err
	}

	// A conflicting series registration is a configuration error and
	// aborts startup.
	if err := middleware.RegisterRequestMetrics(app.registry); err != nil {
		return nil, fmt.Errorf("failed to register request metrics: %w", err)
	}

	serverOpts := []api.Option{
		api.WithLogger(app.logger),
		api.WithRegistry(app.registry),
	}
	if c.addr != "" {
		serverOpts = append(serverOpts, api.WithAddress(c.addr))
	}
	if c.metricsPath != "" {
		serverOpts = append(serverOpts, api.WithMetricsPath(c.metricsPath))
	}
	if c.shutdownTimeout > 0 {
		serverOpts = append(serverOpts, api.WithShutdownTimeout(c.shutdownTimeout))
	}

	app.server, err = api.NewServer(serverOpts...)
	if err != nil {
		return nil, err
	}

	return app, nil
}

// Registry exposes the app's metrics registry.
func (app *App) Registry() *metrics.Registry {
	return app.registry
}

func buildLogger(level string) (*zap.SugaredLogger, error) {
	if level == "" {
		level = "info"
	}

	l, err := logger.ParseLogLevel(level)
	if err != nil {
		return nil, err
	}

	return logger.New(logger.WithLevel(l))
}
