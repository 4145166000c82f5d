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

// Package middleware provides the request pipeline stages of the
// service: metrics instrumentation and request logging.
package middleware

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/elastic/usersvc-monitoring/metrics"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Request series names. The label sets are fixed and low-cardinality:
// method, the matched route template and the final status code.
const (
	MetricRequestsTotal   = "http_requests_total"
	MetricRequestDuration = "http_request_duration_seconds"
	MetricActiveRequests  = "http_active_requests"
)

// RouteUnmatched is the reserved route label for requests that match
// no route. Arbitrary unmatched paths would otherwise create unbounded
// label cardinality.
const RouteUnmatched = "unmatched"

// StatusClientClosedRequest marks requests aborted by a client
// disconnect before a status was written.
const StatusClientClosedRequest = 499

// RegisterRequestMetrics declares the request series on reg. A
// conflicting registration is a configuration error and is returned
// to the caller to fail fast at startup.
func RegisterRequestMetrics(reg *metrics.Registry) error {
	if err := reg.Register(MetricRequestsTotal, metrics.KindCounter,
		"Total number of HTTP requests.", "method", "route", "status"); err != nil {
		return err
	}
	if err := reg.RegisterHistogram(MetricRequestDuration,
		"HTTP request duration in seconds.", metrics.DefBuckets, "method", "route"); err != nil {
		return err
	}
	return reg.Register(MetricActiveRequests, metrics.KindGauge,
		"Number of in-flight HTTP requests.", "route")
}

// Metrics instruments the full lifetime of every request: the
// in-flight gauge is incremented on entry and decremented on every
// exit path, and exactly one requests_total increment and one duration
// observation are recorded per request, whether the handler returns
// normally, panics, or the client disconnects.
//
// Metrics also acts as the panic boundary of the pipeline: a panicking
// handler is logged and converted into a 500 response.
//
// The router is consulted only to resolve the matched route template
// so that dynamic path segments never leak into label values.
func Metrics(reg *metrics.Registry, router *mux.Router, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := routeTemplate(router, r)
			start := time.Now()
			record(log, reg.Inc(MetricActiveRequests, route))

			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				status := rec.status
				if p := recover(); p != nil {
					log.Errorf("panic serving %s %s: %v\n%s", r.Method, r.URL.Path, p, debug.Stack())
					if !rec.wrote {
						http.Error(rec, "internal server error", http.StatusInternalServerError)
					}
					status = http.StatusInternalServerError
				} else if !rec.wrote {
					if r.Context().Err() != nil {
						status = StatusClientClosedRequest
					} else {
						status = http.StatusOK
					}
				}

				elapsed := time.Since(start).Seconds()
				record(log, reg.Dec(MetricActiveRequests, route))
				record(log, reg.Observe(MetricRequestDuration, elapsed, r.Method, route))
				record(log, reg.Inc(MetricRequestsTotal, r.Method, route, strconv.Itoa(status)))
			}()

			next.ServeHTTP(rec, r)
		})
	}
}

// routeTemplate resolves the route template the request will match,
// e.g. /api/v1/users/{id}, or RouteUnmatched when no route matches.
func routeTemplate(router *mux.Router, r *http.Request) string {
	if router == nil {
		return RouteUnmatched
	}
	var match mux.RouteMatch
	if router.Match(r, &match) && match.Route != nil {
		if tpl, err := match.Route.GetPathTemplate(); err == nil && tpl != "" {
			return tpl
		}
	}
	return RouteUnmatched
}

// record logs a failed registry write and drops it. Instrumentation is
// a best-effort side channel: it must never affect the response.
func record(log *zap.SugaredLogger, err error) {
	if err != nil {
		log.Warnf("failed to record request metric: %v", err)
	}
}
