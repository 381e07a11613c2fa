package slots

import (
	"strings"
	"sync"
)

// AccessGate evaluates test-mode, whitelist and ban membership for a
// claimant identity. Mutations take effect on the very next admission
// attempt; nothing is cached.
type AccessGate struct {
	clock Clock

	mu            sync.RWMutex
	testMode      bool
	whitelistMode bool
	whitelisted   map[string]struct{}
	banned        map[string]BanEntry // keyed by lower-cased id
}

// NewAccessGate creates a gate with everything open.
func NewAccessGate(clock Clock) *AccessGate {
	if clock == nil {
		clock = SystemClock
	}
	return &AccessGate{
		clock:       clock,
		whitelisted: make(map[string]struct{}),
		banned:      make(map[string]BanEntry),
	}
}

// Check evaluates all access rules for one identity and returns the
// reject reason, or ok. Ban lookups are case-insensitive.
func (g *AccessGate) Check(claimantID string) (Reason, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, banned := g.banned[strings.ToLower(claimantID)]; banned {
		return ReasonBanned, false
	}
	if g.whitelistMode {
		if _, ok := g.whitelisted[claimantID]; !ok {
			return ReasonNotWhitelisted, false
		}
		return "", true
	}
	if g.testMode {
		// Test mode blocks everyone not explicitly whitelisted.
		if _, ok := g.whitelisted[claimantID]; !ok {
			return ReasonTestModeBlocked, false
		}
	}
	return "", true
}

// IsBanned reports whether an identity is banned, case-insensitively.
func (g *AccessGate) IsBanned(claimantID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.banned[strings.ToLower(claimantID)]
	return ok
}

// SetTestMode toggles the maintenance gate.
func (g *AccessGate) SetTestMode(on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.testMode = on
}

// SetWhitelistMode toggles allow-list-only admission.
func (g *AccessGate) SetWhitelistMode(on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.whitelistMode = on
}

// AddWhitelist adds an identity to the allow-list.
func (g *AccessGate) AddWhitelist(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.whitelisted[id] = struct{}{}
}

// RemoveWhitelist drops an identity from the allow-list.
func (g *AccessGate) RemoveWhitelist(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.whitelisted, id)
}

// Ban records a ban with its reason.
func (g *AccessGate) Ban(id, reason string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.banned[strings.ToLower(id)] = BanEntry{Reason: reason, BannedAt: g.clock.Now()}
}

// Unban lifts a ban.
func (g *AccessGate) Unban(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.banned, strings.ToLower(id))
}

// State returns a copy of the access configuration for snapshots and
// the admin surface.
func (g *AccessGate) State() (testMode, whitelistMode bool, whitelisted []string, banned map[string]BanEntry) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	whitelisted = make([]string, 0, len(g.whitelisted))
	for id := range g.whitelisted {
		whitelisted = append(whitelisted, id)
	}
	banned = make(map[string]BanEntry, len(g.banned))
	for id, entry := range g.banned {
		banned[id] = entry
	}
	return g.testMode, g.whitelistMode, whitelisted, banned
}

// Restore replaces the access state from a snapshot.
func (g *AccessGate) Restore(testMode, whitelistMode bool, whitelisted []string, banned map[string]BanEntry) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.testMode = testMode
	g.whitelistMode = whitelistMode
	g.whitelisted = make(map[string]struct{}, len(whitelisted))
	for _, id := range whitelisted {
		g.whitelisted[id] = struct{}{}
	}
	g.banned = make(map[string]BanEntry, len(banned))
	for id, entry := range banned {
		g.banned[strings.ToLower(id)] = entry
	}
}
