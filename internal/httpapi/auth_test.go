package httpapi

import "testing"

func TestPasswordHashing(t *testing.T) {
	first, err := hashPassword("Str0ngPass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := hashPassword("Str0ngPass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatal("expected salted hashes to differ for the same password")
	}
	if !passwordMatches(first, "Str0ngPass") {
		t.Fatal("correct password rejected")
	}
	if passwordMatches(first, "WrongPass1") {
		t.Fatal("wrong password accepted")
	}
}
