package onionformat

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// zeroIV is the layering cipher's IV: safe only because each hop's key is
// the fresh, once-used nonce reconstructed from that hop's Shamir shares.
var zeroIV [aes.BlockSize]byte

func newLayerCipher(nonce [16]byte) (cipher.Stream, error) {
	block, err := aes.NewCipher(nonce[:])
	if err != nil {
		return nil, fmt.Errorf("onionformat: layer cipher: %w", err)
	}
	return cipher.NewCTR(block, zeroIV[:]), nil
}

// tagOnion computes the HMAC-SHA3-256 authentication tag over everything a
// hop must not be able to tamper with: the identity, the shares, the
// whole header except the tag field itself, and the payload.
func tagOnion(key []byte, identity uint64, shares []Share, header, payload []byte) Tag {
	mac := hmac.New(sha3.New256, key)

	var idBuf [8]byte
	binary.LittleEndian.PutUint64(idBuf[:], identity)
	mac.Write(idBuf[:])

	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(shares)))
	mac.Write(lenBuf[:])
	for _, s := range shares {
		mac.Write(s[:])
	}

	mac.Write(header[:hopMaccedPrefixLen])
	mac.Write(header[hopInfoSize:])
	mac.Write(payload)

	var tag Tag
	copy(tag[:], mac.Sum(nil))
	return tag
}
