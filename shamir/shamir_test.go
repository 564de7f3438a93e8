package shamir

import (
	"crypto/rand"
	"math/big"
	"testing"
)

func TestSplitRecoverRoundTrip(t *testing.T) {
	secret := big.NewInt(123456789)
	shares, err := Split(rand.Reader, secret, 3, 5)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(shares) != 5 {
		t.Fatalf("len(shares) = %d, want 5", len(shares))
	}

	recovered := Recover(shares[:3])
	if recovered.Cmp(secret) != 0 {
		t.Errorf("Recover(shares[:3]) = %s, want %s", recovered, secret)
	}
	recovered = Recover(shares[1:4])
	if recovered.Cmp(secret) != 0 {
		t.Errorf("Recover(shares[1:4]) = %s, want %s", recovered, secret)
	}
}

func TestSplitRejectsOversizedSecret(t *testing.T) {
	tooBig := new(big.Int).Add(Prime, big.NewInt(1))
	if _, err := Split(rand.Reader, tooBig, 2, 3); err != ErrSecretTooLarge {
		t.Errorf("Split with oversized secret: err = %v, want ErrSecretTooLarge", err)
	}
}

func TestNonceRoundTrip(t *testing.T) {
	var nonce [16]byte
	copy(nonce[:], []byte("0123456789abcdef"))

	shares, err := SplitNonce(rand.Reader, nonce, 4)
	if err != nil {
		t.Fatalf("SplitNonce: %v", err)
	}
	if len(shares) != 4 {
		t.Fatalf("len(shares) = %d, want 4", len(shares))
	}

	got := ReconstructNonce(shares)
	if got != nonce {
		t.Errorf("ReconstructNonce = %x, want %x", got, nonce)
	}
}

func TestNonceRoundTripZeroPrefixed(t *testing.T) {
	var nonce [16]byte
	nonce[0] = 0x01 // a tiny integer (1) as little-endian bytes: needs right-padding back

	shares, err := SplitNonce(rand.Reader, nonce, 3)
	if err != nil {
		t.Fatalf("SplitNonce: %v", err)
	}
	got := ReconstructNonce(shares)
	if got != nonce {
		t.Errorf("ReconstructNonce = %x, want %x", got, nonce)
	}
}
