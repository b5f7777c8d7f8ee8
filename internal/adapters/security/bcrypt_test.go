package security

import (
	"strings"
	"testing"
)

func TestBcryptHashAndCompare(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(4)
	hash, err := hasher.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatalf("hash must not equal plaintext")
	}
	if err := hasher.Compare(hash, "correct horse battery staple"); err != nil {
		t.Fatalf("compare with right password: %v", err)
	}
	if err := hasher.Compare(hash, "wrong password"); err == nil {
		t.Fatalf("compare with wrong password should fail")
	}
}

func TestBcryptHashRejectsOverlongInput(t *testing.T) {
	t.Parallel()

	// bcrypt refuses inputs past its 72-byte limit; anything longer must
	// go through RefreshTokenHasher's digest instead.
	hasher := NewBcryptHasher(4)
	if _, err := hasher.Hash(strings.Repeat("a", 230)); err == nil {
		t.Fatalf("expected error for input past bcrypt's 72-byte limit")
	}
}

func TestBcryptHashesAreSalted(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(4)
	first, err := hasher.Hash("same input")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := hasher.Hash("same input")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatalf("two hashes of the same input should differ")
	}
}
