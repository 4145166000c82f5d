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

package alerting_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/elastic/usersvc-monitoring/alerting"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadShippedRuleFile(t *testing.T) {
	f, err := alerting.LoadRuleFile(filepath.Join("..", "deploy", "prometheus", "alert_rules.yml"))
	require.NoError(t, err)

	rules := f.Rules()
	require.Len(t, rules, 3)

	byName := make(map[string]alerting.Rule, len(rules))
	for _, r := range rules {
		byName[r.Alert] = r
	}

	errorRate, ok := byName["HighErrorRate"]
	require.True(t, ok)
	assert.Equal(t, alerting.Duration(5*time.Minute), errorRate.For)
	assert.Equal(t, "critical", errorRate.Labels["severity"])
	// The 5xx ratio must be computable from requests_total alone.
	assert.Contains(t, errorRate.Expr, "http_requests_total")
	assert.NotEmpty(t, errorRate.Annotations["summary"])

	latency, ok := byName["HighRequestLatency"]
	require.True(t, ok)
	assert.Contains(t, latency.Expr, "http_request_duration_seconds_bucket")
}

func TestLoadRuleFileErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "no groups", content: `groups: []`},
		{name: "group without name", content: `
groups:
  - rules:
      - alert: A
        expr: up == 0
`},
		{name: "group without rules", content: `
groups:
  - name: g
    rules: []
`},
		{name: "rule without name", content: `
groups:
  - name: g
    rules:
      - expr: up == 0
`},
		{name: "rule without expr", content: `
groups:
  - name: g
    rules:
      - alert: A
`},
		{name: "duplicate rule names", content: `
groups:
  - name: g
    rules:
      - alert: A
        expr: up == 0
      - alert: A
        expr: up == 1
`},
		{name: "duplicate group names", content: `
groups:
  - name: g
    rules:
      - alert: A
        expr: up == 0
  - name: g
    rules:
      - alert: B
        expr: up == 0
`},
		{name: "bad for duration", content: `
groups:
  - name: g
    rules:
      - alert: A
        expr: up == 0
        for: soon
`},
		{name: "not yaml", content: `{{{`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := alerting.LoadRuleFile(writeTempFile(t, tc.content))
			require.Error(t, err)
		})
	}
}

func TestLoadRuleFileMissing(t *testing.T) {
	_, err := alerting.LoadRuleFile(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}
