// Package onionformat implements the layered onion wrap/unwrap format:
// nested packets keyed by per-hop nonces that are Shamir-shared across
// authorities and HIBE-encrypted to each hop's identity, protected by a
// stream-cipher layer and a per-hop HMAC tag.
package onionformat

import (
	"errors"
	"fmt"
	"io"

	"github.com/kit-ps/aimless-onions-go/bbg"
	"github.com/kit-ps/aimless-onions-go/shamir"
)

// ErrMismatchedLengths is returned by Wrap when identities and delays
// disagree on path length.
var ErrMismatchedLengths = errors.New("onionformat: identities and delays have different lengths")

// ErrTagMismatch is returned by Unwrap when the computed tag does not
// match the one embedded in the header, or when the shares reconstruct a
// value too wide to be a nonce: either the wrong keys were used, or the
// onion was tampered with.
var ErrTagMismatch = errors.New("onionformat: tag mismatch")

// Onion is one onion packet: the identity and Shamir shares exposed at the
// current layer, a fixed-size header carrying every remaining hop's
// (still-encrypted) slot, and the payload.
type Onion struct {
	Identity uint64
	Shares   []Share
	Header   []byte
	Payload  []byte
}

// Fresh builds the innermost onion: identity 0, every share slot empty,
// a header sized for pathLength hops across numAuthorities, and data as
// the payload.
func Fresh(numAuthorities, pathLength int, data []byte) Onion {
	return Onion{
		Identity: 0,
		Shares:   make([]Share, numAuthorities),
		Header:   make([]byte, pathLength*perHopSize(numAuthorities)),
		Payload:  append([]byte(nil), data...),
	}
}

// ComputeFiller extends the header by one hop's worth of pure keystream
// under nonce, then drops that many bytes off the front. Doing this once
// per hop, outside-in, before any real wrapping happens, is what lets
// Unwrap peel a layer off an onion without ever changing its total size:
// each Unwrap call will later regenerate exactly the filler bytes this
// anticipated.
func (o *Onion) ComputeFiller(nonce [16]byte) error {
	phs := perHopSize(len(o.Shares))
	extended := make([]byte, len(o.Header)+phs)
	copy(extended, o.Header)

	stream, err := newLayerCipher(nonce)
	if err != nil {
		return err
	}
	stream.XORKeyStream(extended, extended)

	o.Header = extended[phs:]
	return nil
}

// WrapWithNonce adds one layer of encryption around o, addressed to
// identity and delayed delay, using nonce as this hop's symmetric key.
// nonce is Shamir-split across publicKeys (one share per authority) and
// each share is HIBE-encrypted to identity.
func (o Onion) WrapWithNonce(rng io.Reader, nonce [16]byte, identity uint64, publicKeys []*bbg.PublicParams, delay uint32) (Onion, error) {
	threshold := len(publicKeys)

	nonceShares, err := shamir.SplitNonce(rng, nonce, threshold)
	if err != nil {
		return Onion{}, fmt.Errorf("onionformat: split nonce: %w", err)
	}

	shares := make([]Share, threshold)
	for i, sh := range nonceShares {
		shares[i], err = WrapShare(rng, identity, publicKeys[i], sh.Value)
		if err != nil {
			return Onion{}, err
		}
	}

	slot := serializeHeaderSlot(HopInfo{Delay: delay}, o.Identity, o.Shares)
	if len(slot) != perHopSize(threshold) {
		return Onion{}, fmt.Errorf("onionformat: serialized header slot has size %d, want %d", len(slot), perHopSize(threshold))
	}

	combined := make([]byte, len(slot)+len(o.Header))
	copy(combined, slot)
	copy(combined[len(slot):], o.Header)

	stream, err := newLayerCipher(nonce)
	if err != nil {
		return Onion{}, err
	}
	stream.XORKeyStream(combined, combined)

	header := combined[:len(o.Header)]

	payload := append([]byte(nil), o.Payload...)
	stream.XORKeyStream(payload, payload)

	tag := tagOnion(nonce[:], identity, shares, header, payload)
	setHeaderTag(header, tag)

	return Onion{Identity: identity, Shares: shares, Header: header, Payload: payload}, nil
}

// Wrap is WrapWithNonce with a freshly sampled nonce.
func (o Onion) Wrap(rng io.Reader, identity uint64, publicKeys []*bbg.PublicParams, delay uint32) (Onion, error) {
	var nonce [16]byte
	if _, err := io.ReadFull(rng, nonce[:]); err != nil {
		return Onion{}, fmt.Errorf("onionformat: sample nonce: %w", err)
	}
	return o.WrapWithNonce(rng, nonce, identity, publicKeys, delay)
}

// Unwrap peels one layer off o: it reconstructs this hop's nonce from its
// Shamir shares, verifies the tag, decrypts the header and payload, and
// rotates the header to expose the next hop's (still-encrypted) slot.
func (o Onion) Unwrap(publicKeys []*bbg.PublicParams, privateKeys []*bbg.PrivateKey) (HopInfo, Onion, error) {
	reconstructed := make([]shamir.Share, len(o.Shares))
	for i, share := range o.Shares {
		value, err := share.Unwrap(publicKeys[i], privateKeys[i])
		if err != nil {
			return HopInfo{}, Onion{}, err
		}
		reconstructed[i] = shamir.Share{Index: i + 1, Value: value}
	}
	secret := shamir.Recover(reconstructed)

	var nonce [16]byte
	// A share that decrypted to a wrong value reconstructs an integer wider
	// than any nonce; reject it like any other tag failure.
	if secret.BitLen() > 8*len(nonce) {
		return HopInfo{}, Onion{}, ErrTagMismatch
	}
	encodeLittleEndian(secret, nonce[:])

	if tagOnion(nonce[:], o.Identity, o.Shares, o.Header, o.Payload) != headerTag(o.Header) {
		return HopInfo{}, Onion{}, ErrTagMismatch
	}

	stream, err := newLayerCipher(nonce)
	if err != nil {
		return HopInfo{}, Onion{}, err
	}

	phs := perHopSize(len(publicKeys))
	extended := make([]byte, len(o.Header)+phs)
	copy(extended, o.Header)
	stream.XORKeyStream(extended, extended)

	payload := append([]byte(nil), o.Payload...)
	stream.XORKeyStream(payload, payload)

	hop, identity, shares, err := deserializeHeaderSlot(extended[:phs])
	if err != nil {
		return HopInfo{}, Onion{}, err
	}

	return hop, Onion{Identity: identity, Shares: shares, Header: extended[phs:], Payload: payload}, nil
}

// IsFinalDestination reports whether o has reached the end of its path:
// identity zero and every share slot still empty.
func (o Onion) IsFinalDestination() bool {
	if o.Identity != 0 {
		return false
	}
	for _, s := range o.Shares {
		if !s.IsEmpty() {
			return false
		}
	}
	return true
}

// Wrap layers an onion addressed, inside-out, to each of identities (with
// matching per-hop delays), ending with data as the innermost payload.
func Wrap(rng io.Reader, identities []uint64, delays []uint32, publicKeys []*bbg.PublicParams, data []byte) (Onion, error) {
	if len(identities) != len(delays) {
		return Onion{}, ErrMismatchedLengths
	}

	nonces := make([][16]byte, len(identities))
	for i := range nonces {
		if _, err := io.ReadFull(rng, nonces[i][:]); err != nil {
			return Onion{}, fmt.Errorf("onionformat: sample nonce: %w", err)
		}
	}

	onion := Fresh(len(publicKeys), len(identities), data)
	for _, nonce := range nonces {
		if err := onion.ComputeFiller(nonce); err != nil {
			return Onion{}, err
		}
	}

	for i := len(identities) - 1; i >= 0; i-- {
		var err error
		onion, err = onion.WrapWithNonce(rng, nonces[i], identities[i], publicKeys, delays[i])
		if err != nil {
			return Onion{}, err
		}
	}
	return onion, nil
}
