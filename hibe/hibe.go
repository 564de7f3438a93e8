// Package hibe provides CachedHibe, an accelerated BBG key generator: it
// precomputes the products H[level]*alphabetScalar for the fixed two-value
// identity alphabet nodename uses at every level, so GenerateKey and
// DeriveKey never pay for a scalar multiplication nodename.IdentityVector
// could already have told it about in advance.
package hibe

import (
	"fmt"
	"io"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"

	"github.com/kit-ps/aimless-onions-go/bbg"
)

type productKey struct {
	level  int
	scalar bbg.Scalar
}

// CachedHibe accelerates bbg.GenerateKey and a derive-key operation bbg
// itself has no equivalent of, against a fixed public key and a fixed,
// small identity alphabet.
type CachedHibe struct {
	maxDepth int
	pp       *bbg.PublicParams
	products map[productKey]bls12381.G2Affine
}

// New precomputes H[level]*a for every level up to maxDepth and every
// scalar in alphabet. maxDepth must not exceed len(pp.H).
func New(pp *bbg.PublicParams, maxDepth int, alphabet []bbg.Scalar) (*CachedHibe, error) {
	if maxDepth > len(pp.H) {
		return nil, bbg.ErrIdentityTooLong
	}
	products := make(map[productKey]bls12381.G2Affine, maxDepth*len(alphabet))
	for level := 0; level < maxDepth; level++ {
		for _, a := range alphabet {
			var p bls12381.G2Affine
			p.ScalarMultiplication(&pp.H[level], scalarToBigInt(a))
			products[productKey{level: level, scalar: a}] = p
		}
	}
	return &CachedHibe{maxDepth: maxDepth, pp: pp, products: products}, nil
}

func (c *CachedHibe) product(level int, s bbg.Scalar) bls12381.G2Affine {
	if p, ok := c.products[productKey{level: level, scalar: s}]; ok {
		return p
	}
	var p bls12381.G2Affine
	p.ScalarMultiplication(&c.pp.H[level], scalarToBigInt(s))
	return p
}

func (c *CachedHibe) identitySum(identity []bbg.Scalar) bls12381.G2Affine {
	acc := c.pp.G3
	for i, s := range identity {
		p := c.product(i, s)
		acc.Add(&acc, &p)
	}
	return acc
}

// GenerateKey produces a private key for identity, using the precomputed
// products in place of bbg.GenerateKey's per-call scalar multiplications.
// Its output is identical in distribution to bbg.GenerateKey's.
func (c *CachedHibe) GenerateKey(rng io.Reader, mk *bbg.MasterKey, identity []bbg.Scalar) (*bbg.PrivateKey, error) {
	if len(identity) > c.maxDepth {
		return nil, bbg.ErrIdentityTooLong
	}
	r, err := randomScalar(rng)
	if err != nil {
		return nil, fmt.Errorf("hibe: sample r: %w", err)
	}

	sigma := c.identitySum(identity)
	var sigmaR bls12381.G2Affine
	sigmaR.ScalarMultiplication(&sigma, scalarToBigInt(r))

	var a bls12381.G2Affine
	a.Add(&mk.Point, &sigmaR)

	var b bls12381.G1Affine
	b.ScalarMultiplication(&c.pp.G, scalarToBigInt(r))

	k := make([]bls12381.G2Affine, len(c.pp.H)-len(identity))
	for i, h := range c.pp.H[len(identity):] {
		k[i].ScalarMultiplication(&h, scalarToBigInt(r))
	}

	return &bbg.PrivateKey{A: a, B: b, K: k}, nil
}

// DeriveKey extends parent's key (held for identity parentIdentity) one
// level down to child, without access to the master key. parent is taken
// by value: callers that still need the original must Clone it first.
//
// Rerandomization is applied to every remaining K entry; skipping any of
// them would leak the algebraic relation between parent and child keys.
func (c *CachedHibe) DeriveKey(rng io.Reader, parent bbg.PrivateKey, parentIdentity []bbg.Scalar, child bbg.Scalar) (*bbg.PrivateKey, error) {
	if len(parentIdentity) > c.maxDepth-1 {
		return nil, bbg.ErrIdentityTooLong
	}
	if len(parent.K) == 0 {
		return nil, fmt.Errorf("hibe: parent key has no spare K entries")
	}

	first := parent.K[0]
	rest := parent.K[1:]

	t, err := randomScalar(rng)
	if err != nil {
		return nil, fmt.Errorf("hibe: sample t: %w", err)
	}

	hTail := c.pp.H[len(parentIdentity)+1:]
	for i := range rest {
		var term bls12381.G2Affine
		term.ScalarMultiplication(&hTail[i], scalarToBigInt(t))
		rest[i].Add(&rest[i], &term)
	}

	fullIdentity := make([]bbg.Scalar, len(parentIdentity)+1)
	copy(fullIdentity, parentIdentity)
	fullIdentity[len(parentIdentity)] = child

	sigma := c.identitySum(fullIdentity)
	var sigmaT bls12381.G2Affine
	sigmaT.ScalarMultiplication(&sigma, scalarToBigInt(t))

	var firstChild bls12381.G2Affine
	firstChild.ScalarMultiplication(&first, scalarToBigInt(child))

	a := parent.A
	a.Add(&a, &firstChild)
	a.Add(&a, &sigmaT)

	var gT bls12381.G1Affine
	gT.ScalarMultiplication(&c.pp.G, scalarToBigInt(t))
	b := parent.B
	b.Add(&b, &gT)

	return &bbg.PrivateKey{A: a, B: b, K: rest}, nil
}
