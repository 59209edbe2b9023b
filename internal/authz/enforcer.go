// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package authz

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// EnforcerConfig holds configuration for the Casbin enforcer.
type EnforcerConfig struct {
	// DefaultRole is used when a request carries no role.
	DefaultRole string

	// CacheTTL is how long decisions are cached. Zero disables the cache.
	CacheTTL time.Duration
}

// DefaultEnforcerConfig returns default configuration.
func DefaultEnforcerConfig() *EnforcerConfig {
	return &EnforcerConfig{
		DefaultRole: "user",
		CacheTTL:    5 * time.Minute,
	}
}

// Enforcer wraps the Casbin enforcer with a decision cache.
type Enforcer struct {
	config   *EnforcerConfig
	enforcer *casbin.SyncedEnforcer
	cache    *enforcementCache
}

// NewEnforcer builds an enforcer from the embedded model and policy.
func NewEnforcer(config *EnforcerConfig) (*Enforcer, error) {
	if config == nil {
		config = DefaultEnforcerConfig()
	}

	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := loadPolicy(enforcer, embeddedPolicy); err != nil {
		return nil, err
	}

	e := &Enforcer{config: config, enforcer: enforcer}
	if config.CacheTTL > 0 {
		e.cache = newEnforcementCache(config.CacheTTL)
	}
	UpdatePolicyStats(len(e.Policy()), len(e.GroupingPolicy()))
	return e, nil
}

// loadPolicy parses policy CSV lines of the form "p, sub, obj, act" and
// "g, member, role".
func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch ptype, rule := parts[0], parts[1:]; {
		case ptype == "p" && len(rule) == 3:
			if _, err := enforcer.AddPolicy(rule[0], rule[1], rule[2]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", rule, err)
			}
		case ptype == "g" && len(rule) == 2:
			if _, err := enforcer.AddGroupingPolicy(rule[0], rule[1]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", rule, err)
			}
		default:
			return fmt.Errorf("malformed policy line %q", line)
		}
	}
	return nil
}

// Enforce reports whether subject, holding role, may perform action on path.
// A policy naming the subject directly is honored before the role.
func (e *Enforcer) Enforce(subject, role, path, action string) (bool, error) {
	start := time.Now()
	if role == "" {
		role = e.config.DefaultRole
	}

	for _, sub := range []string{subject, role} {
		if sub == "" {
			continue
		}
		allowed, hit, err := e.enforceOne(sub, path, action)
		if err != nil {
			RecordAuthzError("enforce")
			return false, err
		}
		if allowed {
			RecordAuthzDecision(role, path, action, true, time.Since(start), hit)
			return true, nil
		}
	}
	RecordAuthzDecision(role, path, action, false, time.Since(start), false)
	return false, nil
}

func (e *Enforcer) enforceOne(sub, path, action string) (allowed, cacheHit bool, err error) {
	if e.cache != nil {
		if allowed, ok := e.cache.get(sub, path, action); ok {
			RecordAuthzCacheHit()
			return allowed, true, nil
		}
		RecordAuthzCacheMiss()
	}

	allowed, err = e.enforcer.Enforce(sub, path, action)
	if err != nil {
		return false, false, fmt.Errorf("enforcement failed: %w", err)
	}
	if e.cache != nil {
		e.cache.set(sub, path, action, allowed)
	}
	return allowed, false, nil
}

// AddRoleForUser assigns a role to a subject.
func (e *Enforcer) AddRoleForUser(subject, role string) (bool, error) {
	added, err := e.enforcer.AddGroupingPolicy(subject, role)
	if err != nil {
		return false, fmt.Errorf("failed to add role: %w", err)
	}
	if e.cache != nil {
		e.cache.invalidateSubject(subject)
	}
	return added, nil
}

// RolesForUser returns the roles assigned to a subject.
func (e *Enforcer) RolesForUser(subject string) ([]string, error) {
	return e.enforcer.GetRolesForUser(subject)
}

// Policy returns all policy rules.
func (e *Enforcer) Policy() [][]string {
	//nolint:errcheck // only fails on a nil enforcer
	policies, _ := e.enforcer.GetPolicy()
	return policies
}

// GroupingPolicy returns all role inheritance rules.
func (e *Enforcer) GroupingPolicy() [][]string {
	//nolint:errcheck // only fails on a nil enforcer
	policies, _ := e.enforcer.GetGroupingPolicy()
	return policies
}

// Close stops the cache janitor.
func (e *Enforcer) Close() {
	if e.cache != nil {
		e.cache.stop()
	}
}
