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
	"testing"
	"time"

	"github.com/elastic/usersvc-monitoring/alerting"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRule(forDuration time.Duration) alerting.Rule {
	return alerting.Rule{
		Alert: "HighErrorRate",
		Expr:  `sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) > 0.05`,
		For:   alerting.Duration(forDuration),
		Labels: map[string]string{
			"severity": "critical",
		},
		Annotations: map[string]string{
			"summary": "High 5xx ratio",
		},
	}
}

func mustState(t *testing.T, tr *alerting.StateTracker, name string) alerting.State {
	t.Helper()
	s, err := tr.State(name)
	require.NoError(t, err)
	return s
}

func TestLifecyclePendingToFiringToResolved(t *testing.T) {
	tr := alerting.NewStateTracker([]alerting.Rule{testRule(5 * time.Minute)})
	t0 := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	// Condition turns true: pending, no alert yet.
	alert, err := tr.Eval("HighErrorRate", true, t0)
	require.NoError(t, err)
	assert.Nil(t, alert)
	assert.Equal(t, alerting.StatePending, mustState(t, tr, "HighErrorRate"))

	// Still within the hold period.
	alert, err = tr.Eval("HighErrorRate", true, t0.Add(4*time.Minute))
	require.NoError(t, err)
	assert.Nil(t, alert)
	assert.Equal(t, alerting.StatePending, mustState(t, tr, "HighErrorRate"))

	// Held continuously for the for-duration: fires.
	firedAt := t0.Add(5 * time.Minute)
	alert, err = tr.Eval("HighErrorRate", true, firedAt)
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.False(t, alert.Resolved())
	assert.Equal(t, firedAt, alert.StartsAt)
	assert.Equal(t, "HighErrorRate", alert.Labels["alertname"])
	assert.Equal(t, "critical", alert.Labels["severity"])
	assert.Equal(t, "High 5xx ratio", alert.Annotations["summary"])
	assert.Equal(t, alerting.StateFiring, mustState(t, tr, "HighErrorRate"))

	// Firing rule stays firing without re-notifying.
	alert, err = tr.Eval("HighErrorRate", true, firedAt.Add(time.Minute))
	require.NoError(t, err)
	assert.Nil(t, alert)

	// Condition reverts: resolved.
	resolvedAt := firedAt.Add(10 * time.Minute)
	alert, err = tr.Eval("HighErrorRate", false, resolvedAt)
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.True(t, alert.Resolved())
	assert.Equal(t, firedAt, alert.StartsAt)
	assert.Equal(t, resolvedAt, alert.EndsAt)
	assert.Equal(t, alerting.StateInactive, mustState(t, tr, "HighErrorRate"))
}

func TestLifecyclePendingRevertsSilently(t *testing.T) {
	tr := alerting.NewStateTracker([]alerting.Rule{testRule(5 * time.Minute)})
	t0 := time.Now()

	_, err := tr.Eval("HighErrorRate", true, t0)
	require.NoError(t, err)

	// Condition clears before the hold elapses: no alert ever fired,
	// so none is resolved.
	alert, err := tr.Eval("HighErrorRate", false, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Nil(t, alert)
	assert.Equal(t, alerting.StateInactive, mustState(t, tr, "HighErrorRate"))

	// The hold starts over on the next activation.
	alert, err = tr.Eval("HighErrorRate", true, t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Nil(t, alert)
	assert.Equal(t, alerting.StatePending, mustState(t, tr, "HighErrorRate"))
}

func TestLifecycleZeroForFiresImmediately(t *testing.T) {
	tr := alerting.NewStateTracker([]alerting.Rule{testRule(0)})
	now := time.Now()

	alert, err := tr.Eval("HighErrorRate", true, now)
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, now, alert.StartsAt)
	assert.Equal(t, alerting.StateFiring, mustState(t, tr, "HighErrorRate"))
}

func TestLifecycleUnknownRule(t *testing.T) {
	tr := alerting.NewStateTracker(nil)
	_, err := tr.Eval("nope", true, time.Now())
	require.Error(t, err)
	_, err = tr.State("nope")
	require.Error(t, err)
}

func TestReloadDiscardsState(t *testing.T) {
	tr := alerting.NewStateTracker([]alerting.Rule{testRule(0)})

	_, err := tr.Eval("HighErrorRate", true, time.Now())
	require.NoError(t, err)
	assert.Equal(t, alerting.StateFiring, mustState(t, tr, "HighErrorRate"))

	tr.Reload([]alerting.Rule{testRule(time.Minute)})
	assert.Equal(t, alerting.StateInactive, mustState(t, tr, "HighErrorRate"))
}
