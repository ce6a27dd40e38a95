package auth

import (
	"strings"
	"testing"
)

// Cost 4 is bcrypt's minimum — fast enough for tests.
func testPasswordService() *PasswordService {
	return NewPasswordServiceForTest(4)
}

func TestHashAndVerify(t *testing.T) {
	ps := testPasswordService()

	hash, err := ps.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("Hash() returned the plaintext")
	}

	if err := ps.Verify(hash, "correct horse battery staple"); err != nil {
		t.Errorf("Verify() with correct password error = %v", err)
	}
	if err := ps.Verify(hash, "wrong password"); err == nil {
		t.Error("Verify() with wrong password returned nil")
	}
}

func TestHash_SaltsDiffer(t *testing.T) {
	ps := testPasswordService()

	a, err := ps.Hash("same password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	b, err := ps.Hash("same password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if a == b {
		t.Error("two hashes of the same password are identical — salt missing?")
	}
}

func TestHash_RejectsOverlongPassword(t *testing.T) {
	ps := testPasswordService()

	_, err := ps.Hash(strings.Repeat("x", 73))
	if err == nil {
		t.Error("Hash() accepted a password longer than 72 bytes")
	}
}
