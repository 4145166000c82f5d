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
	"os"

	"gopkg.in/yaml.v3"
)

// Rule is one alerting rule: an expression over the exposed series,
// a minimum duration the condition must hold before the alert fires,
// and static labels/annotations attached to the fired alert.
type Rule struct {
	Alert       string            `yaml:"alert"`
	Expr        string            `yaml:"expr"`
	For         Duration          `yaml:"for,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty"`
}

// RuleGroup is a set of rules evaluated on a shared interval.
type RuleGroup struct {
	Name     string   `yaml:"name"`
	Interval Duration `yaml:"interval,omitempty"`
	Rules    []Rule   `yaml:"rules"`
}

// RuleFile is the alert rule file consumed by the external evaluator.
type RuleFile struct {
	Groups []RuleGroup `yaml:"groups"`
}

// LoadRuleFile reads, parses and validates an alert rule file.
func LoadRuleFile(path string) (*RuleFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	var f RuleFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rule file %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rule file %s: %w", path, err)
	}
	return &f, nil
}

// Validate checks group and rule naming, and that every rule carries
// an expression.
func (f *RuleFile) Validate() error {
	if len(f.Groups) == 0 {
		return fmt.Errorf("rule file has no groups")
	}

	groupNames := make(map[string]struct{}, len(f.Groups))
	for gi, g := range f.Groups {
		if g.Name == "" {
			return fmt.Errorf("rule group %d has no name", gi)
		}
		if _, ok := groupNames[g.Name]; ok {
			return fmt.Errorf("duplicate rule group name %q", g.Name)
		}
		groupNames[g.Name] = struct{}{}

		if len(g.Rules) == 0 {
			return fmt.Errorf("rule group %q has no rules", g.Name)
		}

		ruleNames := make(map[string]struct{}, len(g.Rules))
		for ri, r := range g.Rules {
			if r.Alert == "" {
				return fmt.Errorf("rule %d in group %q has no alert name", ri, g.Name)
			}
			if _, ok := ruleNames[r.Alert]; ok {
				return fmt.Errorf("duplicate rule %q in group %q", r.Alert, g.Name)
			}
			ruleNames[r.Alert] = struct{}{}

			if r.Expr == "" {
				return fmt.Errorf("rule %q in group %q has no expression", r.Alert, g.Name)
			}
		}
	}
	return nil
}

// Rules returns all rules of the file in declaration order.
func (f *RuleFile) Rules() []Rule {
	var all []Rule
	for _, g := range f.Groups {
		all = append(all, g.Rules...)
	}
	return all
}
