// Package featureflags evaluates runtime switches from FEATURE_FLAGS.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Known flags.
const (
	// Signup controls whether /auth/signup/ accepts new accounts.
	Signup = "signup"
	// RateLimit enables Redis-backed limits on login, signup and post submissions.
	RateLimit = "ratelimit"
	// PostEvents enables publishing post events to Redis.
	PostEvents = "post_events"
)

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "signup=on,ratelimit=off,post_events=25%"
type Manager struct {
	flags    map[string]string
	defaults map[string]bool
}

// NewManager creates a feature-flag manager from a comma-separated config string.
func NewManager(raw string) *Manager {
	out := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := normalize(parts[0])
		value := normalize(parts[1])
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{
		flags: out,
		defaults: map[string]bool{
			Signup:     true,
			RateLimit:  false,
			PostEvents: true,
		},
	}
}

// Enabled returns whether a flag is enabled for a given user. Flags missing from
// the config fall back to their built-in default; unknown flags are off.
// Supported values:
// - on/true/1
// - off/false/0
// - N% (deterministic user rollout, e.g. 25%)
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}

	value, ok := m.flags[normalize(name)]
	if !ok {
		return m.defaults[normalize(name)]
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	if strings.HasSuffix(value, "%") {
		pct, err := strconv.Atoi(strings.TrimSuffix(value, "%"))
		if err != nil || pct <= 0 {
			return false
		}
		if pct >= 100 {
			return true
		}
		if userID == 0 {
			return false
		}
		return rolloutBucket(name, userID) < pct
	}

	return false
}

// Snapshot returns evaluated flag status for one user, defaults included.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.defaults)+len(m.flags))
	for name := range m.defaults {
		out[name] = m.Enabled(name, userID)
	}
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", normalize(name), userID)))
	return int(h.Sum32() % 100)
}
