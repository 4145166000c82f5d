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

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseDuration(t *testing.T) {
	testCases := []struct {
		in          string
		expected    time.Duration
		expectedErr bool
	}{
		{in: "30s", expected: 30 * time.Second},
		{in: "5m", expected: 5 * time.Minute},
		{in: "1h30m", expected: 90 * time.Minute},
		{in: "2d", expected: 48 * time.Hour},
		{in: "1w", expected: 7 * 24 * time.Hour},
		{in: "0s", expected: 0},
		{in: "", expectedErr: true},
		{in: "-5m", expectedErr: true},
		{in: "5 minutes", expectedErr: true},
		{in: "d", expectedErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			d, err := alerting.ParseDuration(tc.in)
			if tc.expectedErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				require.Equal(t, tc.expected, d)
			}
		})
	}
}

func TestDurationYAMLRoundTrip(t *testing.T) {
	var d alerting.Duration
	require.NoError(t, yaml.Unmarshal([]byte("5m"), &d))
	require.Equal(t, alerting.Duration(5*time.Minute), d)

	out, err := yaml.Marshal(d)
	require.NoError(t, err)

	var back alerting.Duration
	require.NoError(t, yaml.Unmarshal(out, &back))
	require.Equal(t, d, back)

	require.Error(t, yaml.Unmarshal([]byte("nonsense"), &d))
}
