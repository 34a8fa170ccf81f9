package auth

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Policy maps "METHOD:/route/pattern" actions to the roles allowed to perform them.
type Policy struct {
	Rules map[string][]string `json:"rules"`
}

// Engine answers role checks for a fixed policy. Action and role matching
// ignore case.
type Engine struct {
	rules map[string][]string
}

// NewEngine indexes policy.
func NewEngine(policy Policy) *Engine {
	rules := make(map[string][]string, len(policy.Rules))
	for action, roles := range policy.Rules {
		key := strings.ToUpper(strings.TrimSpace(action))
		for _, role := range roles {
			rules[key] = append(rules[key], strings.ToLower(strings.TrimSpace(role)))
		}
		if _, ok := rules[key]; !ok {
			rules[key] = nil
		}
	}
	return &Engine{rules: rules}
}

// LoadPolicy decodes a JSON policy of the form {"rules": {"POST:/path": ["role"]}}.
func LoadPolicy(r io.Reader) (*Engine, error) {
	var policy Policy
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&policy); err != nil {
		return nil, fmt.Errorf("decode role policy: %w", err)
	}
	return NewEngine(policy), nil
}

// Covers reports whether action is protected.
func (e *Engine) Covers(action string) bool {
	if e == nil {
		return false
	}
	_, ok := e.rules[strings.ToUpper(action)]
	return ok
}

// Allowed reports whether any of roles may perform action. Uncovered actions
// are never allowed here; callers check Covers first.
func (e *Engine) Allowed(action string, roles []string) bool {
	if e == nil {
		return false
	}
	for _, want := range e.rules[strings.ToUpper(action)] {
		for _, role := range roles {
			if strings.EqualFold(strings.TrimSpace(role), want) {
				return true
			}
		}
	}
	return false
}
