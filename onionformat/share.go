package onionformat

import (
	"fmt"
	"io"
	"math/big"

	"github.com/kit-ps/aimless-onions-go/bbg"
	"github.com/kit-ps/aimless-onions-go/nodename"
)

// intSize is the width, in bytes, a Shamir share integer is encoded into
// before HIBE-encrypting it: large enough for shamir.Prime's 160 bits.
const intSize = 20

// ShareSize is the fixed wire size of a Share: a compressed G1 point, a
// compressed G2 point, an 8-byte length prefix, and the intSize-byte DEM
// ciphertext bbg.Encrypt produces for an intSize-byte plaintext.
const ShareSize = 48 + 96 + 8 + intSize

// Share is one Shamir share of a hop nonce, HIBE-encrypted to a target
// identity. The all-zero Share is the canonical "no share yet" marker a
// fresh onion's slots start out holding.
type Share [ShareSize]byte

// IsEmpty reports whether s is the canonical empty marker.
func (s Share) IsEmpty() bool {
	return s == Share{}
}

// WrapShare HIBE-encrypts a Shamir share value to identity under pp.
func WrapShare(rng io.Reader, identity uint64, pp *bbg.PublicParams, share *big.Int) (Share, error) {
	var plaintext [intSize]byte
	encodeLittleEndian(share, plaintext[:])

	identityVector := nodename.IdentityVector(nodename.Number(identity))
	ciphertext, err := bbg.Encrypt(rng, pp, identityVector, plaintext[:])
	if err != nil {
		return Share{}, fmt.Errorf("onionformat: encrypt share: %w", err)
	}
	if len(ciphertext) != ShareSize {
		return Share{}, fmt.Errorf("onionformat: encrypted share has size %d, want %d", len(ciphertext), ShareSize)
	}

	var out Share
	copy(out[:], ciphertext)
	return out, nil
}

// Unwrap decrypts s back into the Shamir share value it holds.
func (s Share) Unwrap(pp *bbg.PublicParams, sk *bbg.PrivateKey) (*big.Int, error) {
	plaintext, err := bbg.Decrypt(pp, sk, s[:])
	if err != nil {
		return nil, fmt.Errorf("onionformat: decrypt share: %w", err)
	}
	return decodeLittleEndian(plaintext), nil
}

// encodeLittleEndian writes v into dst as a little-endian integer,
// zero-padding on the right; it panics if v does not fit.
func encodeLittleEndian(v *big.Int, dst []byte) {
	be := v.Bytes()
	if len(be) > len(dst) {
		panic("onionformat: integer too large for destination width")
	}
	for i, j := 0, len(be)-1; j >= 0; i, j = i+1, j-1 {
		dst[i] = be[j]
	}
	for i := len(be); i < len(dst); i++ {
		dst[i] = 0
	}
}

func decodeLittleEndian(src []byte) *big.Int {
	be := make([]byte, len(src))
	for i, j := 0, len(src)-1; j >= 0; i, j = i+1, j-1 {
		be[i] = src[j]
	}
	return new(big.Int).SetBytes(be)
}
