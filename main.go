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

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/usersvc-monitoring/app"

	"github.com/joho/godotenv"
)

func main() {
	if err := mainWithError(); err != nil {
		log.Fatal(err)
	}
}

func mainWithError() error {
	// Global context
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// A .env file is optional and only used for local development.
	_ = godotenv.Load()

	appConfigs := []app.ConfigOption{
		app.WithLogLevel(os.Getenv("USERSVC_LOG_LEVEL")),
	}

	if addr := os.Getenv("USERSVC_ADDR"); addr != "" {
		appConfigs = append(appConfigs, app.WithAddress(addr))
	}

	if path := os.Getenv("USERSVC_METRICS_PATH"); path != "" {
		appConfigs = append(appConfigs, app.WithMetricsPath(path))
	}

	if raw := os.Getenv("USERSVC_SHUTDOWN_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("failed to parse USERSVC_SHUTDOWN_TIMEOUT: %w", err)
		}
		appConfigs = append(appConfigs, app.WithShutdownTimeout(timeout))
	}

	application, err := app.New(appConfigs...)
	if err != nil {
		return fmt.Errorf("failed to create the app: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("error while running: %v", err)
	}

	return nil
}
