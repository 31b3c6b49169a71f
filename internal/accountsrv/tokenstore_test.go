package accountsrv

import (
	"testing"
	"time"
)

func TestTokenSingleUse(t *testing.T) {
	s := NewTokenStore(time.Minute, nil)
	token, ok := s.Issue(7, 3, false)
	if !ok {
		t.Fatal("Issue failed")
	}
	if len(token) != TokenLen {
		t.Fatalf("token length = %d, want %d", len(token), TokenLen)
	}

	charID, accountID, ok := s.Redeem(token)
	if !ok || charID != 7 || accountID != 3 {
		t.Fatalf("Redeem = (%d,%d,%v), want (7,3,true)", charID, accountID, ok)
	}
	if _, _, ok := s.Redeem(token); ok {
		t.Error("token redeemed twice")
	}
}

func TestTokenExclusiveLock(t *testing.T) {
	s := NewTokenStore(time.Minute, nil)
	if _, ok := s.Issue(7, 3, false); !ok {
		t.Fatal("first Issue failed")
	}
	if !s.InFlight(7) {
		t.Error("InFlight(7) = false with outstanding token")
	}
	// A second login attempt for the in-flight character must fail.
	if _, ok := s.Issue(7, 3, false); ok {
		t.Error("second Issue succeeded while in flight")
	}
	s.Release(7)
	if _, ok := s.Issue(7, 3, false); !ok {
		t.Error("Issue failed after Release")
	}
}

func TestTokenExpiry(t *testing.T) {
	var expiredChar int
	var expiredMigrating bool
	s := NewTokenStore(time.Millisecond, func(charID int, migrating bool) {
		expiredChar = charID
		expiredMigrating = migrating
	})
	token, _ := s.Issue(9, 1, true)
	time.Sleep(5 * time.Millisecond)

	s.ExpireStale()
	if expiredChar != 9 || !expiredMigrating {
		t.Errorf("onExpire got (%d,%v), want (9,true)", expiredChar, expiredMigrating)
	}
	if _, _, ok := s.Redeem(token); ok {
		t.Error("expired token redeemed")
	}
	if s.InFlight(9) {
		t.Error("lock still held after expiry")
	}
}

func TestRedeemPastTTLFailsEvenWithoutSweep(t *testing.T) {
	s := NewTokenStore(time.Millisecond, nil)
	token, _ := s.Issue(4, 2, false)
	time.Sleep(5 * time.Millisecond)
	if _, _, ok := s.Redeem(token); ok {
		t.Error("stale token redeemed without sweep")
	}
}
