package nodename

import (
	"github.com/kit-ps/aimless-onions-go/bbg"
	"golang.org/x/crypto/sha3"
)

// identityBitDomain separates the two canonical per-bit scalars from any
// other hash-to-scalar use in this module.
var identityBitDomain = []byte("aimless-onions/nodename/identity-bit\x00")

// bitScalar is the fixed, memoized hash-to-scalar mapping H(0) and H(1)
// that every level of the tree reuses. It is exactly what
// hibe.CachedHibe's product cache is built against, so cache keys and
// on-the-fly identity vectors must agree bit-for-bit with this function.
var bitScalar = [2]bbg.Scalar{hashBitToScalar(0), hashBitToScalar(1)}

func hashBitToScalar(bit byte) bbg.Scalar {
	h := sha3.New256()
	h.Write(identityBitDomain)
	h.Write([]byte{bit})
	sum := h.Sum(nil)
	var s bbg.Scalar
	s.SetBytes(sum)
	return s
}

// IdentityAlphabet returns the two scalars (H(0), H(1)) that can occur at
// any level of the identity vector. It is what hibe.CachedHibe precomputes
// products against.
func IdentityAlphabet() [2]bbg.Scalar {
	return bitScalar
}

// IdentityVector maps n to its HIBE identity vector: a length-n.Length()
// slice whose i-th element (i starting at 1, most-significant bit first)
// is H(bit_i), where bit_i is the i-th most significant of n's
// significant path bits.
func IdentityVector(n NodeName) []bbg.Scalar {
	out := make([]bbg.Scalar, n.length)
	for i := uint8(1); i <= n.length; i++ {
		bit := (n.path >> (n.length - i)) & 1
		out[i-1] = bitScalar[bit]
	}
	return out
}
