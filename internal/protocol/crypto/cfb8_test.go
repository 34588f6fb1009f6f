package crypto

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	secret := bytes.Repeat([]byte{0x2A}, 16)

	enc, err := NewEncryptStream(secret)
	if err != nil {
		t.Fatalf("NewEncryptStream: %v", err)
	}
	dec, err := NewDecryptStream(secret)
	if err != nil {
		t.Fatalf("NewDecryptStream: %v", err)
	}

	plain := []byte("the quick brown fox jumps over the lazy dog, 0123456789")
	cipherText := make([]byte, len(plain))
	enc.XORKeyStream(cipherText, plain)

	if bytes.Equal(cipherText, plain) {
		t.Fatal("ciphertext must differ from plaintext")
	}

	recovered := make([]byte, len(cipherText))
	dec.XORKeyStream(recovered, cipherText)

	if !bytes.Equal(recovered, plain) {
		t.Fatalf("decrypt(encrypt(x)) = %q, want %q", recovered, plain)
	}
}

func TestStreamingAcrossMultipleWrites(t *testing.T) {
	secret := bytes.Repeat([]byte{0x11}, 16)
	enc, _ := NewEncryptStream(secret)
	dec, _ := NewDecryptStream(secret)

	plain := []byte("0123456789abcdef0123456789abcdef0123456789")
	var full []byte
	for i := 0; i < len(plain); i += 7 {
		end := i + 7
		if end > len(plain) {
			end = len(plain)
		}
		chunk := make([]byte, end-i)
		enc.XORKeyStream(chunk, plain[i:end])
		full = append(full, chunk...)
	}

	recovered := make([]byte, len(full))
	dec.XORKeyStream(recovered, full)
	if !bytes.Equal(recovered, plain) {
		t.Fatalf("chunked round trip mismatch: got %q want %q", recovered, plain)
	}
}
