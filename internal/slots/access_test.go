package slots

import "testing"

func TestCheckOpenGateAdmitsEveryone(t *testing.T) {
	g := NewAccessGate(newFakeClock(mondayAt(16, 0)))
	if reason, ok := g.Check("anyone"); !ok {
		t.Errorf("open gate rejected with %s", reason)
	}
}

func TestBanIsCaseInsensitive(t *testing.T) {
	g := NewAccessGate(newFakeClock(mondayAt(16, 0)))
	g.Ban("Alice@Example.com", "chargeback")

	for _, id := range []string{"alice@example.com", "ALICE@EXAMPLE.COM", "Alice@Example.com"} {
		if reason, ok := g.Check(id); ok || reason != ReasonBanned {
			t.Errorf("Check(%q) = %s %v, want BANNED", id, reason, ok)
		}
		if !g.IsBanned(id) {
			t.Errorf("IsBanned(%q) = false", id)
		}
	}

	g.Unban("aLiCe@eXaMpLe.CoM")
	if _, ok := g.Check("alice@example.com"); !ok {
		t.Error("unban did not lift the case-variant ban")
	}
}

func TestBanWinsOverWhitelist(t *testing.T) {
	g := NewAccessGate(newFakeClock(mondayAt(16, 0)))
	g.AddWhitelist("alice")
	g.SetWhitelistMode(true)
	g.Ban("alice", "abuse")

	if reason, ok := g.Check("alice"); ok || reason != ReasonBanned {
		t.Errorf("banned whitelisted claimant: got %s %v, want BANNED", reason, ok)
	}
}

func TestWhitelistMode(t *testing.T) {
	g := NewAccessGate(newFakeClock(mondayAt(16, 0)))
	g.SetWhitelistMode(true)
	g.AddWhitelist("alice")

	if _, ok := g.Check("alice"); !ok {
		t.Error("whitelisted claimant rejected")
	}
	if reason, ok := g.Check("bob"); ok || reason != ReasonNotWhitelisted {
		t.Errorf("Check(bob) = %s %v, want NOT_WHITELISTED", reason, ok)
	}

	g.RemoveWhitelist("alice")
	if _, ok := g.Check("alice"); ok {
		t.Error("removed claimant still admitted")
	}
}

func TestTestModeBlocksExceptWhitelisted(t *testing.T) {
	g := NewAccessGate(newFakeClock(mondayAt(16, 0)))
	g.SetTestMode(true)
	g.AddWhitelist("tester")

	if reason, ok := g.Check("regular-buyer"); ok || reason != ReasonTestModeBlocked {
		t.Errorf("Check = %s %v, want TEST_MODE_BLOCKED", reason, ok)
	}
	if _, ok := g.Check("tester"); !ok {
		t.Error("whitelisted tester blocked in test mode")
	}
}

func TestAccessStateRestoreRoundTrip(t *testing.T) {
	clock := newFakeClock(mondayAt(16, 0))
	g := NewAccessGate(clock)
	g.SetTestMode(true)
	g.AddWhitelist("tester")
	g.Ban("Bob", "fraud")

	testMode, whitelistMode, whitelisted, banned := g.State()

	fresh := NewAccessGate(clock)
	fresh.Restore(testMode, whitelistMode, whitelisted, banned)

	if reason, ok := fresh.Check("bob"); ok || reason != ReasonBanned {
		t.Errorf("restored gate: Check(bob) = %s %v, want BANNED", reason, ok)
	}
	if _, ok := fresh.Check("tester"); !ok {
		t.Error("restored gate lost the whitelist entry")
	}
	entry, ok := banned["bob"]
	if !ok || entry.Reason != "fraud" {
		t.Errorf("banned state = %+v, want lowercase key with reason", banned)
	}
	if !entry.BannedAt.Equal(clock.Now()) {
		t.Errorf("bannedAt = %v, want clock time", entry.BannedAt)
	}
}
