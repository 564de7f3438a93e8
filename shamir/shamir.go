// Package shamir implements Shamir secret sharing over a fixed 160-bit
// prime field, matching the wire semantics consumed by onionformat: an
// integer secret up to 128 bits, threshold-of-(threshold+1) shares indexed
// 1..=threshold+1, recoverable by Lagrange interpolation at x=0.
package shamir

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

// Prime is the field modulus every Split and Recover call works over. It
// must stay fixed across peers: changing it breaks interoperability with
// anyone still using the old value.
var Prime = mustPrime("927659228076472818176252176283652096798126523793")

func mustPrime(s string) *big.Int {
	p, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("shamir: invalid prime literal")
	}
	return p
}

// ErrSecretTooLarge is returned when a secret does not fit under Prime.
var ErrSecretTooLarge = errors.New("shamir: secret does not fit in the field")

// Share is one point (Index, Value) of a secret sharing, usable in
// Recover together with any other threshold-sized set of shares from the
// same Split call.
type Share struct {
	Index int
	Value *big.Int
}

// Split divides secret into shareAmount points on a random polynomial of
// degree threshold-1 whose constant term is secret, evaluated at
// x = 1..shareAmount. Any threshold of the returned shares reconstructs
// secret via Recover.
func Split(rng io.Reader, secret *big.Int, threshold, shareAmount int) ([]Share, error) {
	if secret.Sign() < 0 || secret.Cmp(Prime) >= 0 {
		return nil, ErrSecretTooLarge
	}
	coeffs := make([]*big.Int, threshold)
	coeffs[0] = new(big.Int).Set(secret)
	for i := 1; i < threshold; i++ {
		c, err := rand.Int(rng, Prime)
		if err != nil {
			return nil, fmt.Errorf("shamir: sample coefficient: %w", err)
		}
		coeffs[i] = c
	}

	shares := make([]Share, shareAmount)
	for i := 1; i <= shareAmount; i++ {
		shares[i-1] = Share{Index: i, Value: evalPoly(coeffs, i)}
	}
	return shares, nil
}

func evalPoly(coeffs []*big.Int, x int) *big.Int {
	result := new(big.Int)
	xBig := big.NewInt(int64(x))
	for i := len(coeffs) - 1; i >= 0; i-- {
		result.Mul(result, xBig)
		result.Add(result, coeffs[i])
		result.Mod(result, Prime)
	}
	return result
}

// Recover reconstructs the secret at x=0 via Lagrange interpolation over
// the given shares.
func Recover(shares []Share) *big.Int {
	secret := new(big.Int)
	for i, si := range shares {
		num := big.NewInt(1)
		den := big.NewInt(1)
		for j, sj := range shares {
			if i == j {
				continue
			}
			num.Mul(num, big.NewInt(int64(-sj.Index)))
			num.Mod(num, Prime)
			den.Mul(den, big.NewInt(int64(si.Index-sj.Index)))
			den.Mod(den, Prime)
		}
		denInv := new(big.Int).ModInverse(den, Prime)
		term := new(big.Int).Mul(si.Value, num)
		term.Mul(term, denInv)
		term.Mod(term, Prime)
		secret.Add(secret, term)
		secret.Mod(secret, Prime)
	}
	return secret
}

// SplitNonce Shamir-shares a 128-bit nonce, read as a little-endian
// integer, with the given threshold. It splits into threshold+1 shares
// (the sharing package's contract) and returns only the first threshold of
// them: the extra share is never generated for any other purpose and is
// discarded here.
func SplitNonce(rng io.Reader, nonce [16]byte, threshold int) ([]Share, error) {
	secret := new(big.Int).SetBytes(reverseBytes(nonce[:]))
	shares, err := Split(rng, secret, threshold, threshold+1)
	if err != nil {
		return nil, err
	}
	return shares[:threshold], nil
}

// ReconstructNonce recovers the integer shared by SplitNonce and re-encodes
// it as 16 little-endian bytes, zero-padding on the right if the integer
// did not use the full width.
func ReconstructNonce(shares []Share) [16]byte {
	secret := Recover(shares)
	var out [16]byte
	be := secret.Bytes()
	for i, j := 0, len(be)-1; j >= 0 && i < len(out); i, j = i+1, j-1 {
		out[i] = be[j]
	}
	return out
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}
