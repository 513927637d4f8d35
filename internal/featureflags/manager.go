// Package featureflags evaluates rollout flags from FEATURE_FLAGS and FEATURE_FLAGS_FILE.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Known flags.
const (
	// FeedCache serves public feeds from Redis.
	FeedCache = "feed_cache"
	// FeedEvents publishes post.created events to followers.
	FeedEvents = "feed_events"
)

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "feed_cache=on,feed_events=25%,legacy_ui=off"
//
// Supported values are on/true/1, off/false/0 and N% (deterministic per-user rollout).
// Anything else evaluates to off.
type Manager struct {
	flags map[string]string
}

// NewManager creates a feature-flag manager from a comma-separated config string.
func NewManager(raw string) *Manager {
	out := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

// Enabled returns whether a flag is enabled for a given user.
// Percentage rollouts below 100% never match the anonymous user 0.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	pct := percentOf(value)
	switch {
	case pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	default:
		return rolloutBucket(name, userID) < pct
	}
}

// percentOf maps a flag value to the share of users it is enabled for.
func percentOf(value string) int {
	switch value {
	case "on", "true", "1":
		return 100
	case "off", "false", "0":
		return 0
	}
	raw, ok := strings.CutSuffix(value, "%")
	if !ok {
		return 0
	}
	pct, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return pct
}

// Raw returns a copy of configured flags.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.flags))
	for k, v := range m.flags {
		out[k] = v
	}
	return out
}

// Snapshot returns evaluated flag status for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags))
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
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}
