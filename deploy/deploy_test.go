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

package deploy_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type composeService struct {
	Build       string            `yaml:"build"`
	Image       string            `yaml:"image"`
	Ports       []string          `yaml:"ports"`
	Environment map[string]string `yaml:"environment"`
	Volumes     []string          `yaml:"volumes"`
	DependsOn   []string          `yaml:"depends_on"`
}

type composeFile struct {
	Services map[string]composeService `yaml:"services"`
}

func loadCompose(t *testing.T) composeFile {
	t.Helper()
	raw, err := os.ReadFile("docker-compose.yml")
	require.NoError(t, err)

	var f composeFile
	require.NoError(t, yaml.Unmarshal(raw, &f))
	return f
}

func TestComposeServiceBuildContext(t *testing.T) {
	f := loadCompose(t)

	svc, ok := f.Services["usersvc"]
	require.True(t, ok, "compose file must define the usersvc service")
	require.NotEmpty(t, svc.Build)

	// The build context must carry a Dockerfile, or the stack cannot
	// be brought up from a fresh checkout.
	_, err := os.Stat(filepath.Join(svc.Build, "Dockerfile"))
	require.NoError(t, err)

	assert.Contains(t, svc.Ports, "8080:8080")
	assert.Equal(t, ":8080", svc.Environment["USERSVC_ADDR"])
}

func TestComposeMonitoringMounts(t *testing.T) {
	f := loadCompose(t)

	mounted := func(t *testing.T, svc composeService, configFile string) {
		t.Helper()
		require.Len(t, svc.Volumes, 1)
		hostDir, _, ok := splitVolume(svc.Volumes[0])
		require.True(t, ok, "volume %q is not host:container", svc.Volumes[0])
		_, err := os.Stat(filepath.Join(hostDir, configFile))
		require.NoError(t, err)
	}

	prom, ok := f.Services["prometheus"]
	require.True(t, ok)
	require.NotEmpty(t, prom.Image)
	mounted(t, prom, "prometheus.yml")
	mounted(t, prom, "alert_rules.yml")
	assert.Contains(t, prom.DependsOn, "usersvc")

	am, ok := f.Services["alertmanager"]
	require.True(t, ok)
	require.NotEmpty(t, am.Image)
	mounted(t, am, "alertmanager.yml")
}

func splitVolume(v string) (host, container string, ok bool) {
	for i := 0; i < len(v); i++ {
		if v[i] == ':' {
			return v[:i], v[i+1:], true
		}
	}
	return "", "", false
}
