// AngelaMos | 2026
// security_test.go

package core

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("hash = %q, want argon2id encoding", hash)
	}

	ok, err := VerifyPassword("correct-horse", hash)
	if err != nil || !ok {
		t.Errorf("VerifyPassword(correct) = %v, %v, want true, nil", ok, err)
	}

	ok, err = VerifyPassword("wrong-password", hash)
	if err != nil || ok {
		t.Errorf("VerifyPassword(wrong) = %v, %v, want false, nil", ok, err)
	}

	// Salts differ per call, so re-hashing never repeats.
	other, err := HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if other == hash {
		t.Error("two hashes of the same password are identical")
	}
}

func TestVerifyPasswordTimingSafe(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	ok, err := VerifyPasswordTimingSafe("correct-horse", &hash)
	if err != nil || !ok {
		t.Errorf("VerifyPasswordTimingSafe() = %v, %v, want true, nil", ok, err)
	}

	// A nil hash still burns a full verification and always refuses.
	ok, err = VerifyPasswordTimingSafe("correct-horse", nil)
	if err != nil || ok {
		t.Errorf("VerifyPasswordTimingSafe(nil) = %v, %v, want false, nil", ok, err)
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	if _, err := VerifyPassword("whatever", "not-a-hash"); err == nil {
		t.Error("VerifyPassword() accepted a malformed hash")
	}
}
