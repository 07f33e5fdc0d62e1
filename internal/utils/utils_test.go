package utils

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestGenerateID(t *testing.T) {
	id := GenerateID("acc")
	if !strings.HasPrefix(id, "acc-") {
		t.Errorf("expected prefix acc-, got %q", id)
	}
	if len(id) != len("acc-")+10 {
		t.Errorf("unexpected length for %q", id)
	}

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		next := GenerateID("acc")
		if seen[next] {
			t.Fatalf("duplicate id generated: %q", next)
		}
		seen[next] = true
	}
}

func TestBcryptHasher(t *testing.T) {
	hash, err := BcryptHasher{}.Hash("s3cret")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash must not equal the plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")); err != nil {
		t.Errorf("stored hash does not verify against the plaintext: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("wrong")); err == nil {
		t.Error("stored hash verified against the wrong password")
	}
}
