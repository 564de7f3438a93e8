package hibe

import (
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	"github.com/kit-ps/aimless-onions-go/bbg"
)

func randomScalar(rng io.Reader) (bbg.Scalar, error) {
	var buf [fr.Bytes]byte
	if _, err := io.ReadFull(rng, buf[:]); err != nil {
		return fr.Element{}, fmt.Errorf("hibe: read randomness: %w", err)
	}
	var s fr.Element
	s.SetBytes(buf[:])
	return s, nil
}

func scalarToBigInt(s bbg.Scalar) *big.Int {
	var out big.Int
	s.BigInt(&out)
	return &out
}
