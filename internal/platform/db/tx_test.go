package db

import "testing"

func TestAdvisoryLockKeyDeterministic(t *testing.T) {
	a := AdvisoryLockKey("cita", "provider-1", "2025-06-02")
	b := AdvisoryLockKey("cita", "provider-1", "2025-06-02")
	if a != b {
		t.Errorf("same parts must map to the same key: %d != %d", a, b)
	}
}

func TestAdvisoryLockKeySeparatesParts(t *testing.T) {
	// The separator keeps ("ab","c") and ("a","bc") from colliding.
	a := AdvisoryLockKey("ab", "c")
	b := AdvisoryLockKey("a", "bc")
	if a == b {
		t.Error("differently split parts must not collide")
	}
}

func TestAdvisoryLockKeyVariesByResource(t *testing.T) {
	base := AdvisoryLockKey("cita", "provider-1", "2025-06-02")
	otherProvider := AdvisoryLockKey("cita", "provider-2", "2025-06-02")
	otherDate := AdvisoryLockKey("cita", "provider-1", "2025-06-03")

	if base == otherProvider {
		t.Error("different providers must use different keys")
	}
	if base == otherDate {
		t.Error("different dates must use different keys")
	}
}
