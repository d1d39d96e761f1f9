package domain

import (
	"testing"
	"time"
)

func TestPurpose_TTL(t *testing.T) {
	testCases := []struct {
		purpose Purpose
		want    time.Duration
	}{
		{PurposePasswordReset, 60 * time.Second},
		{PurposeMobileChange, 120 * time.Second},
	}
	for _, tc := range testCases {
		if got := tc.purpose.TTL(); got != tc.want {
			t.Errorf("%s.TTL() = %v, want %v", tc.purpose, got, tc.want)
		}
	}
}

func TestPurpose_Valid(t *testing.T) {
	if !PurposePasswordReset.Valid() || !PurposeMobileChange.Valid() {
		t.Error("declared purposes should be valid")
	}
	if Purpose("login").Valid() {
		t.Error("undeclared purpose should be invalid")
	}
}

func TestChallenge_Expired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := &Challenge{ExpiresAt: now}
	if c.Expired(now) {
		t.Error("challenge should not be expired at exactly its expiry")
	}
	if !c.Expired(now.Add(time.Millisecond)) {
		t.Error("challenge should be expired after its expiry")
	}
}

func TestChallenge_Check(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	testCases := []struct {
		name     string
		attempts int
		hash     string
		at       time.Time
		want     Outcome
	}{
		{"match", 0, "h1", now, Accepted},
		{"mismatch", 0, "h2", now, Mismatch},
		{"match after two misses", 2, "h1", now, Accepted},
		{"attempts exhausted", MaxAttempts, "h1", now, TooManyAttempts},
		{"expired before attempts", MaxAttempts, "h1", now.Add(time.Minute + time.Second), Expired},
		{"empty hash", 0, "", now, Mismatch},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := &Challenge{CodeHash: "h1", Attempts: tc.attempts, ExpiresAt: now.Add(time.Minute)}
			if got := c.Check(tc.hash, tc.at); got != tc.want {
				t.Errorf("Check = %s, want %s", got, tc.want)
			}
			if c.Attempts != tc.attempts {
				t.Errorf("Check changed Attempts to %d", c.Attempts)
			}
		})
	}
}

func TestOutcome_String(t *testing.T) {
	want := map[Outcome]string{
		Accepted:        "accepted",
		NotFound:        "not_found",
		Expired:         "expired",
		TooManyAttempts: "too_many_attempts",
		Mismatch:        "mismatch",
		Outcome(99):     "unknown",
	}
	for o, s := range want {
		if got := o.String(); got != s {
			t.Errorf("Outcome(%d).String() = %q, want %q", o, got, s)
		}
	}
}
