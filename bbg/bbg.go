// Package bbg implements the Boneh-Boyen-Goh hierarchical identity-based
// encryption scheme over BLS12-381, using github.com/consensys/gnark-crypto
// as the pairing library. It is the reference primitive that package hibe
// accelerates: Setup, Encrypt, Decrypt and GenerateKey here are the
// unaccelerated baseline that hibe.CachedHibe's generate/derive must agree
// with.
package bbg

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"golang.org/x/crypto/sha3"
)

// Scalar is an element of the BLS12-381 scalar field, used both as a BBG
// exponent and as a per-level identity element.
type Scalar = fr.Element

// ErrIdentityTooLong is returned when an identity vector exceeds the
// maximum depth a PublicParams was set up for.
var ErrIdentityTooLong = errors.New("bbg: identity vector longer than max depth")

// ErrCiphertextMalformed is returned by Decrypt when a ciphertext isn't the
// expected size, or its KEM points fail to decode.
var ErrCiphertextMalformed = errors.New("bbg: ciphertext malformed or tampered")

// PublicParams is the BBG public key (g, g1, g2, g3, H). g and g1 live in
// G1; g3 and every element of H live in G2; g2 is the G2 generator used
// to fold in the master secret.
type PublicParams struct {
	G     bls12381.G1Affine
	G1    bls12381.G1Affine // g^alpha, used only to derive the KEM mask
	G2Gen bls12381.G2Affine
	G3    bls12381.G2Affine
	H     []bls12381.G2Affine // length MaxDepth
}

// MasterKey is the BBG master secret, g2^alpha (a G2 point) plus the raw
// scalar alpha (kept so GenerateKey need not invert the group operation).
type MasterKey struct {
	Point bls12381.G2Affine
	alpha fr.Element
}

// PrivateKey is a BBG private key (A, B, K) for some identity vector of
// length k: A and the elements of K live in G2, B lives in G1. K holds the
// "unused" h_{k+1}..h_D elements raised to the key's randomizer r.
type PrivateKey struct {
	A bls12381.G2Affine
	B bls12381.G1Affine
	K []bls12381.G2Affine
}

// Clone returns a deep copy, so callers can pass a PrivateKey to
// hibe.DeriveKey by value without aliasing the K slice.
func (pk PrivateKey) Clone() PrivateKey {
	out := PrivateKey{A: pk.A, B: pk.B, K: make([]bls12381.G2Affine, len(pk.K))}
	copy(out.K, pk.K)
	return out
}

// Setup samples a fresh BBG instance supporting identity vectors up to
// maxDepth elements long.
func Setup(rng io.Reader, maxDepth int) (*PublicParams, *MasterKey, error) {
	_, _, g1Gen, g2Gen := bls12381.Generators()

	alpha, err := randomScalar(rng)
	if err != nil {
		return nil, nil, fmt.Errorf("bbg: sample alpha: %w", err)
	}
	g3Scalar, err := randomScalar(rng)
	if err != nil {
		return nil, nil, fmt.Errorf("bbg: sample g3: %w", err)
	}

	var g1 bls12381.G1Affine
	g1.ScalarMultiplication(&g1Gen, scalarToBigInt(&alpha))

	var g3 bls12381.G2Affine
	g3.ScalarMultiplication(&g2Gen, scalarToBigInt(&g3Scalar))

	h := make([]bls12381.G2Affine, maxDepth)
	for i := range h {
		s, err := randomScalar(rng)
		if err != nil {
			return nil, nil, fmt.Errorf("bbg: sample h[%d]: %w", i, err)
		}
		h[i].ScalarMultiplication(&g2Gen, scalarToBigInt(&s))
	}

	var masterPoint bls12381.G2Affine
	masterPoint.ScalarMultiplication(&g2Gen, scalarToBigInt(&alpha))

	pp := &PublicParams{G: g1Gen, G1: g1, G2Gen: g2Gen, G3: g3, H: h}
	mk := &MasterKey{Point: masterPoint, alpha: alpha}
	return pp, mk, nil
}

// sumIdentityTerms returns g3 + sum(H[i] * identity[i]) in G2, the common
// "Σ" used by both GenerateKey and Encapsulate's ciphertext-side computation.
func sumIdentityTerms(pp *PublicParams, identity []Scalar) (bls12381.G2Affine, error) {
	if len(identity) > len(pp.H) {
		return bls12381.G2Affine{}, ErrIdentityTooLong
	}
	acc := pp.G3
	for i, id := range identity {
		var term bls12381.G2Affine
		term.ScalarMultiplication(&pp.H[i], scalarToBigInt(&id))
		acc.Add(&acc, &term)
	}
	return acc, nil
}

// GenerateKey produces a fresh, unaccelerated BBG private key for the given
// identity vector. This is the reference key generation that
// hibe.CachedHibe.GenerateKey must agree with.
func GenerateKey(rng io.Reader, pp *PublicParams, mk *MasterKey, identity []Scalar) (*PrivateKey, error) {
	if len(identity) > len(pp.H) {
		return nil, ErrIdentityTooLong
	}
	r, err := randomScalar(rng)
	if err != nil {
		return nil, fmt.Errorf("bbg: sample r: %w", err)
	}

	sigma, err := sumIdentityTerms(pp, identity)
	if err != nil {
		return nil, err
	}
	var sigmaR bls12381.G2Affine
	sigmaR.ScalarMultiplication(&sigma, scalarToBigInt(&r))

	var a bls12381.G2Affine
	a.Add(&mk.Point, &sigmaR)

	var b bls12381.G1Affine
	b.ScalarMultiplication(&pp.G, scalarToBigInt(&r))

	k := make([]bls12381.G2Affine, len(pp.H)-len(identity))
	for i, h := range pp.H[len(identity):] {
		k[i].ScalarMultiplication(&h, scalarToBigInt(&r))
	}

	return &PrivateKey{A: a, B: b, K: k}, nil
}

// Encapsulate samples a fresh KEM ciphertext and shared secret for the
// given identity vector.
func Encapsulate(rng io.Reader, pp *PublicParams, identity []Scalar) (key [32]byte, c1 bls12381.G1Affine, c2 bls12381.G2Affine, err error) {
	if len(identity) > len(pp.H) {
		err = ErrIdentityTooLong
		return
	}
	s, err := randomScalar(rng)
	if err != nil {
		err = fmt.Errorf("bbg: sample s: %w", err)
		return
	}

	c1.ScalarMultiplication(&pp.G, scalarToBigInt(&s))

	sigma, sErr := sumIdentityTerms(pp, identity)
	if sErr != nil {
		err = sErr
		return
	}
	c2.ScalarMultiplication(&sigma, scalarToBigInt(&s))

	var g1s bls12381.G1Affine
	g1s.ScalarMultiplication(&pp.G1, scalarToBigInt(&s))

	gt, pErr := bls12381.Pair([]bls12381.G1Affine{g1s}, []bls12381.G2Affine{pp.G2Gen})
	if pErr != nil {
		err = fmt.Errorf("bbg: pairing: %w", pErr)
		return
	}
	key = hashGT(&gt)
	return
}

// Decapsulate recovers the shared secret a PrivateKey for this identity
// would have been encapsulated under, given the ciphertext elements (C1,
// C2) Encapsulate produced.
func Decapsulate(pp *PublicParams, sk *PrivateKey, c1 bls12381.G1Affine, c2 bls12381.G2Affine) ([32]byte, error) {
	numerator, err := bls12381.Pair([]bls12381.G1Affine{c1}, []bls12381.G2Affine{sk.A})
	if err != nil {
		return [32]byte{}, fmt.Errorf("bbg: pairing: %w", err)
	}
	denominator, err := bls12381.Pair([]bls12381.G1Affine{sk.B}, []bls12381.G2Affine{c2})
	if err != nil {
		return [32]byte{}, fmt.Errorf("bbg: pairing: %w", err)
	}
	denominator.Inverse(&denominator)
	numerator.Mul(&numerator, &denominator)
	return hashGT(&numerator), nil
}

func hashGT(gt *bls12381.GT) [32]byte {
	b := gt.Bytes()
	return sha3.Sum256(b[:])
}

// CiphertextSize is the wire size of a bbg.Encrypt output: a compressed G1
// point, a compressed G2 point, a uint64 length prefix, and the DEM
// ciphertext (equal in length to the plaintext).
func CiphertextSize(plaintextLen int) int {
	return bls12381.SizeOfG1AffineCompressed + bls12381.SizeOfG2AffineCompressed + 8 + plaintextLen
}

// Encrypt hybrid-encrypts plaintext to the given identity vector: a fresh
// KEM ciphertext (C1, C2) masks an AES-128-CTR key derived from the shared
// secret, which encrypts plaintext under a zero IV (the KEM key is fresh
// per call, so key+IV reuse never occurs).
func Encrypt(rng io.Reader, pp *PublicParams, identity []Scalar, plaintext []byte) ([]byte, error) {
	key, c1, c2, err := Encapsulate(rng, pp, identity)
	if err != nil {
		return nil, err
	}

	ciphertext := make([]byte, len(plaintext))
	if err := xorKeystream(key, ciphertext, plaintext); err != nil {
		return nil, err
	}

	out := make([]byte, 0, CiphertextSize(len(plaintext)))
	c1Bytes := c1.Bytes()
	c2Bytes := c2.Bytes()
	out = append(out, c1Bytes[:]...)
	out = append(out, c2Bytes[:]...)
	var lenPrefix [8]byte
	binary.LittleEndian.PutUint64(lenPrefix[:], uint64(len(ciphertext)))
	out = append(out, lenPrefix[:]...)
	out = append(out, ciphertext...)
	return out, nil
}

// Decrypt reverses Encrypt given the matching PrivateKey.
func Decrypt(pp *PublicParams, sk *PrivateKey, ciphertext []byte) ([]byte, error) {
	const g1Size = bls12381.SizeOfG1AffineCompressed
	const g2Size = bls12381.SizeOfG2AffineCompressed
	if len(ciphertext) < g1Size+g2Size+8 {
		return nil, ErrCiphertextMalformed
	}

	var c1 bls12381.G1Affine
	if _, err := c1.SetBytes(ciphertext[:g1Size]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCiphertextMalformed, err)
	}
	var c2 bls12381.G2Affine
	if _, err := c2.SetBytes(ciphertext[g1Size : g1Size+g2Size]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCiphertextMalformed, err)
	}

	n := binary.LittleEndian.Uint64(ciphertext[g1Size+g2Size : g1Size+g2Size+8])
	rest := ciphertext[g1Size+g2Size+8:]
	if uint64(len(rest)) != n {
		return nil, ErrCiphertextMalformed
	}

	key, err := Decapsulate(pp, sk, c1, c2)
	if err != nil {
		return nil, err
	}

	plaintext := make([]byte, len(rest))
	if err := xorKeystream(key, plaintext, rest); err != nil {
		return nil, err
	}
	return plaintext, nil
}

func xorKeystream(key [32]byte, dst, src []byte) error {
	block, err := aes.NewCipher(key[:16])
	if err != nil {
		return fmt.Errorf("bbg: aes key: %w", err)
	}
	var iv [aes.BlockSize]byte
	stream := cipher.NewCTR(block, iv[:])
	stream.XORKeyStream(dst, src)
	return nil
}

// randomScalar draws uniform randomness from the caller-supplied rng (never
// a package-global generator) and reduces it into the scalar field.
func randomScalar(rng io.Reader) (fr.Element, error) {
	var buf [fr.Bytes]byte
	if _, err := io.ReadFull(rng, buf[:]); err != nil {
		return fr.Element{}, fmt.Errorf("bbg: read randomness: %w", err)
	}
	var s fr.Element
	s.SetBytes(buf[:])
	return s, nil
}

func scalarToBigInt(s *fr.Element) *big.Int {
	var out big.Int
	s.BigInt(&out)
	return &out
}
