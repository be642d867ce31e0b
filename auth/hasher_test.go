package auth

import "testing"

func TestHashPasswordRoundTrip(t *testing.T) {
	digest, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if digest == "correct horse battery staple" {
		t.Fatal("digest equals plaintext")
	}

	if !CheckPassword("correct horse battery staple", digest) {
		t.Fatal("CheckPassword = false for matching password")
	}
	if CheckPassword("wrong password", digest) {
		t.Fatal("CheckPassword = true for non-matching password")
	}
}

func TestCheckPasswordGarbageDigest(t *testing.T) {
	if CheckPassword("anything", "not-a-bcrypt-digest") {
		t.Fatal("CheckPassword = true for garbage digest")
	}
}
