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

import "time"

type appConfig struct {
	addr            string
	logLevel        string
	metricsPath     string
	shutdownTimeout time.Duration
}

// ConfigOption is used to configure the application.
type ConfigOption func(*appConfig)

// WithAddress sets the HTTP listen address.
func WithAddress(addr string) ConfigOption {
	return func(c *appConfig) {
		c.addr = addr
	}
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) ConfigOption {
	return func(c *appConfig) {
		c.logLevel = level
	}
}

// WithMetricsPath sets the path the exposition endpoint is served on.
func WithMetricsPath(path string) ConfigOption {
	return func(c *appConfig) {
		c.metricsPath = path
	}
}

// WithShutdownTimeout bounds the graceful shutdown on exit.
func WithShutdownTimeout(timeout time.Duration) ConfigOption {
	return func(c *appConfig) {
		c.shutdownTimeout = timeout
	}
}
