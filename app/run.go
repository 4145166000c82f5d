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
	"context"
	"fmt"
)

// Run starts the HTTP server and blocks until ctx is cancelled, then
// shuts the server down gracefully.
func (app *App) Run(ctx context.Context) error {
	if err := app.server.Start(); err != nil {
		return fmt.Errorf("failed to start the server: %w", err)
	}

	<-ctx.Done()
	app.logger.Info("Received a signal, exiting...")

	if err := app.server.Shutdown(); err != nil {
		app.logger.Warnf("Error while shutting down the server: %v", err)
		return err
	}
	return nil
}
