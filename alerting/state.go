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
	"sync"
	"time"
)

// State is the lifecycle state of a rule.
type State int

const (
	// StateInactive means the rule condition is false.
	StateInactive State = iota
	// StatePending means the condition is true but has not yet held
	// for the rule's for-duration.
	StatePending
	// StateFiring means the condition has held continuously for at
	// least the for-duration.
	StateFiring
)

func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StatePending:
		return "pending"
	case StateFiring:
		return "firing"
	}
	return "unknown"
}

// Alert is the fire/resolve object forwarded to the alert router.
// EndsAt is zero while the alert is firing.
type Alert struct {
	Name        string
	Labels      map[string]string
	Annotations map[string]string
	StartsAt    time.Time
	EndsAt      time.Time
}

// Resolved reports whether the alert carries an end timestamp.
func (a *Alert) Resolved() bool {
	return !a.EndsAt.IsZero()
}

type ruleStatus struct {
	rule        Rule
	state       State
	activeSince time.Time // condition first observed true
	firedAt     time.Time
}

// StateTracker applies the Pending/Firing/Resolved lifecycle to rule
// condition evaluations. Rule state is created from configuration and
// destroyed on reload; it does not survive a reload.
type StateTracker struct {
	mu    sync.Mutex
	rules map[string]*ruleStatus
}

// NewStateTracker builds a tracker with every rule inactive.
func NewStateTracker(rules []Rule) *StateTracker {
	t := &StateTracker{}
	t.Reload(rules)
	return t
}

// Reload replaces the rule set and discards all lifecycle state.
func (t *StateTracker) Reload(rules []Rule) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rules = make(map[string]*ruleStatus, len(rules))
	for _, r := range rules {
		t.rules[r.Alert] = &ruleStatus{rule: r}
	}
}

// State returns the current state of the named rule.
func (t *StateTracker) State(name string) (State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rs, ok := t.rules[name]
	if !ok {
		return StateInactive, fmt.Errorf("unknown rule %q", name)
	}
	return rs.state, nil
}

// Eval records one evaluation of the named rule's condition at the
// given instant and returns the alert produced by the transition, if
// any: a firing alert when the condition has held for the rule's
// for-duration, or a resolved alert when a firing rule's condition
// reverts to false. A pending rule whose condition reverts never
// produces an alert.
func (t *StateTracker) Eval(name string, conditionTrue bool, now time.Time) (*Alert, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rs, ok := t.rules[name]
	if !ok {
		return nil, fmt.Errorf("unknown rule %q", name)
	}

	if !conditionTrue {
		fired := rs.state == StateFiring
		firedAt := rs.firedAt
		rs.state = StateInactive
		rs.activeSince = time.Time{}
		rs.firedAt = time.Time{}
		if fired {
			return rs.alert(firedAt, now), nil
		}
		return nil, nil
	}

	switch rs.state {
	case StateInactive:
		rs.state = StatePending
		rs.activeSince = now
		if rs.rule.For > 0 {
			return nil, nil
		}
		// No hold period: fire immediately.
		rs.state = StateFiring
		rs.firedAt = now
		return rs.alert(now, time.Time{}), nil
	case StatePending:
		if now.Sub(rs.activeSince) < time.Duration(rs.rule.For) {
			return nil, nil
		}
		rs.state = StateFiring
		rs.firedAt = now
		return rs.alert(now, time.Time{}), nil
	default: // already firing
		return nil, nil
	}
}

func (rs *ruleStatus) alert(startsAt, endsAt time.Time) *Alert {
	labels := make(map[string]string, len(rs.rule.Labels)+1)
	for k, v := range rs.rule.Labels {
		labels[k] = v
	}
	labels["alertname"] = rs.rule.Alert

	annotations := make(map[string]string, len(rs.rule.Annotations))
	for k, v := range rs.rule.Annotations {
		annotations[k] = v
	}

	return &Alert{
		Name:        rs.rule.Alert,
		Labels:      labels,
		Annotations: annotations,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
	}
}
