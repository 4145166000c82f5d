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

package alerting

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// defaultScrapeInterval applies when neither the job nor the global
// section sets one.
const defaultScrapeInterval = Duration(time.Minute)

// ScrapeFile is the scrape coordinator configuration consumed by the
// external scraper. The service's only obligation under it is to serve
// the metrics path on the configured target within the interval.
type ScrapeFile struct {
	Global        GlobalConfig   `yaml:"global"`
	RuleFiles     []string       `yaml:"rule_files,omitempty"`
	Alerting      AlertingConfig `yaml:"alerting,omitempty"`
	ScrapeConfigs []ScrapeConfig `yaml:"scrape_configs"`
}

// GlobalConfig holds file-wide defaults.
type GlobalConfig struct {
	ScrapeInterval     Duration `yaml:"scrape_interval,omitempty"`
	EvaluationInterval Duration `yaml:"evaluation_interval,omitempty"`
}

// AlertingConfig names the alert routers that receive firing and
// resolved alerts from the rule evaluator.
type AlertingConfig struct {
	Alertmanagers []AlertmanagerConfig `yaml:"alertmanagers,omitempty"`
}

// AlertmanagerConfig is one alert routing target.
type AlertmanagerConfig struct {
	StaticConfigs []StaticConfig `yaml:"static_configs"`
}

// ScrapeConfig is one scrape job: a set of targets pulled on a shared
// interval and path.
type ScrapeConfig struct {
	JobName        string         `yaml:"job_name"`
	ScrapeInterval Duration       `yaml:"scrape_interval,omitempty"`
	MetricsPath    string         `yaml:"metrics_path,omitempty"`
	StaticConfigs  []StaticConfig `yaml:"static_configs"`
}

// StaticConfig is a statically configured target list.
type StaticConfig struct {
	Targets []string          `yaml:"targets"`
	Labels  map[string]string `yaml:"labels,omitempty"`
}

// LoadScrapeFile reads, parses and validates a scrape configuration.
func LoadScrapeFile(path string) (*ScrapeFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scrape config: %w", err)
	}
	var f ScrapeFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse scrape config %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scrape config %s: %w", path, err)
	}
	return &f, nil
}

// Validate normalizes defaults and checks the file: unique job names,
// non-empty host:port targets, absolute metrics paths and positive
// intervals.
func (f *ScrapeFile) Validate() error {
	if f.Global.ScrapeInterval == 0 {
		f.Global.ScrapeInterval = defaultScrapeInterval
	}
	if f.Global.EvaluationInterval == 0 {
		f.Global.EvaluationInterval = f.Global.ScrapeInterval
	}

	if len(f.ScrapeConfigs) == 0 {
		return fmt.Errorf("scrape config has no scrape_configs")
	}

	seen := make(map[string]struct{}, len(f.ScrapeConfigs))
	for i := range f.ScrapeConfigs {
		sc := &f.ScrapeConfigs[i]
		if sc.JobName == "" {
			return fmt.Errorf("scrape job %d has no job_name", i)
		}
		if _, ok := seen[sc.JobName]; ok {
			return fmt.Errorf("duplicate scrape job name %q", sc.JobName)
		}
		seen[sc.JobName] = struct{}{}

		if sc.ScrapeInterval == 0 {
			sc.ScrapeInterval = f.Global.ScrapeInterval
		}
		if sc.MetricsPath == "" {
			sc.MetricsPath = "/metrics"
		}
		if !strings.HasPrefix(sc.MetricsPath, "/") {
			return fmt.Errorf("scrape job %q metrics_path must start with /", sc.JobName)
		}

		if err := validateTargets(sc.JobName, sc.StaticConfigs); err != nil {
			return err
		}
	}

	for _, am := range f.Alerting.Alertmanagers {
		if err := validateTargets("alertmanager", am.StaticConfigs); err != nil {
			return err
		}
	}
	return nil
}

func validateTargets(owner string, configs []StaticConfig) error {
	total := 0
	for _, sc := range configs {
		for _, target := range sc.Targets {
			if _, _, err := net.SplitHostPort(target); err != nil {
				return fmt.Errorf("%s target %q is not host:port: %w", owner, target, err)
			}
			total++
		}
	}
	if total == 0 {
		return fmt.Errorf("%s has no targets", owner)
	}
	return nil
}
