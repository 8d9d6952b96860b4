// Package featureflags evaluates policy switches configured through FEATURE_FLAGS.
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// BlacklistGate, when enabled, refuses applications whose IC identity matches an active blacklist entry.
const BlacklistGate = "blacklist_gate"

// rollout is the share of identities a flag is on for, 0 to 100.
type rollout int

const (
	off rollout = 0
	on  rollout = 100
)

// Manager holds flags parsed from a list such as "blacklist_gate=on,panel_feed=25%".
// Unparseable pairs are ignored.
type Manager struct {
	flags map[string]rollout
}

// NewManager parses raw once. Values are on/true/1, off/false/0, or N%.
func NewManager(raw string) *Manager {
	m := &Manager{flags: make(map[string]rollout)}
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key = normalize(key)
		r, ok := parseRollout(normalize(value))
		if key == "" || !ok {
			continue
		}
		m.flags[key] = r
	}
	return m
}

func parseRollout(value string) (rollout, bool) {
	switch value {
	case "on", "true", "1":
		return on, true
	case "off", "false", "0":
		return off, true
	}
	pct, found := strings.CutSuffix(value, "%")
	if !found {
		return off, false
	}
	n, err := strconv.Atoi(pct)
	if err != nil {
		return off, false
	}
	return rollout(min(max(n, 0), 100)), true
}

// Enabled reports whether name is on for identity. Partial rollouts are
// deterministic per identity and always off for an empty identity.
func (m *Manager) Enabled(name, identity string) bool {
	if m == nil {
		return false
	}
	r, ok := m.flags[normalize(name)]
	switch {
	case !ok || r == off:
		return false
	case r == on:
		return true
	case identity == "":
		return false
	}
	return bucket(name, identity) < int(r)
}

// Snapshot evaluates every configured flag for one identity.
func (m *Manager) Snapshot(identity string) map[string]bool {
	if m == nil {
		return map[string]bool{}
	}
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, identity)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name, identity string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + identity))
	return int(h.Sum32() % 100)
}
