package phi

import (
	"strings"
	"testing"
)

func testKey() []byte {
	return []byte("01234567890123456789012345678901")
}

func TestNewEncryptor_RejectsBadKeyLength(t *testing.T) {
	for _, n := range []int{0, 16, 31, 33, 64} {
		if _, err := NewEncryptor(make([]byte, n)); err == nil {
			t.Errorf("expected error for %d-byte key", n)
		}
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	enc, err := NewEncryptor(testKey())
	if err != nil {
		t.Fatalf("new encryptor: %v", err)
	}

	plaintexts := []string{
		"Alice Example",
		"",
		"Jane Doe +1-555-0100",
		"composite value 120/80 with unicode é漢",
	}
	for _, pt := range plaintexts {
		ct, err := enc.Encrypt(pt)
		if err != nil {
			t.Fatalf("encrypt %q: %v", pt, err)
		}
		if ct == pt && pt != "" {
			t.Errorf("ciphertext equals plaintext for %q", pt)
		}
		got, err := enc.Decrypt(ct)
		if err != nil {
			t.Fatalf("decrypt %q: %v", pt, err)
		}
		if got != pt {
			t.Errorf("round trip mismatch: got %q, want %q", got, pt)
		}
	}
}

func TestEncrypt_NonDeterministicNonce(t *testing.T) {
	enc, err := NewEncryptor(testKey())
	if err != nil {
		t.Fatalf("new encryptor: %v", err)
	}

	a, _ := enc.Encrypt("same input")
	b, _ := enc.Encrypt("same input")
	if a == b {
		t.Error("expected distinct ciphertexts for repeated encryption")
	}
}

func TestDecrypt_RejectsGarbage(t *testing.T) {
	enc, err := NewEncryptor(testKey())
	if err != nil {
		t.Fatalf("new encryptor: %v", err)
	}

	if _, err := enc.Decrypt("not-base64!!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
	if _, err := enc.Decrypt("QUJD"); err == nil || !strings.Contains(err.Error(), "too short") {
		t.Errorf("expected ciphertext-too-short error, got %v", err)
	}
}

func TestDecrypt_RejectsTamperedCiphertext(t *testing.T) {
	enc, err := NewEncryptor(testKey())
	if err != nil {
		t.Fatalf("new encryptor: %v", err)
	}

	ct, err := enc.Encrypt("integrity matters")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	// Flip a character in the middle of the base64 payload.
	mid := len(ct) / 2
	replacement := "A"
	if ct[mid] == 'A' {
		replacement = "B"
	}
	flipped := ct[:mid] + replacement + ct[mid+1:]
	if _, err := enc.Decrypt(flipped); err == nil {
		t.Error("expected authentication failure for tampered ciphertext")
	}
}
