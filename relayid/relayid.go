// Package relayid derives epoch-scoped blinded relay keys from a relay's
// long-term Ed25519 public key, so a relay's on-the-wire identity changes
// every epoch without the relay holding a different long-term keypair per
// epoch.
package relayid

import (
	"encoding/binary"
	"fmt"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/sha3"
)

// blindDomain separates this package's blinding factor derivation from any
// other SHA3-256 use over the same key material.
var blindDomain = []byte("aimless-onions/relayid/blind\x00")

// ed25519Basepoint mirrors the basepoint used in the Tor v3 blinding
// scheme this construction is adapted from, folded into the blinding
// factor hash so it can never be confused with a point-less derivation.
var ed25519Basepoint = []byte("(15112221349535400772501151409588531511454012693041857206046113283949847762202, 46316835694926478169428394003475163141307993866256225615783033603165251855960)")

// RelayKey is a relay's long-term or epoch-blinded Ed25519 public key.
type RelayKey [32]byte

// BlindedKey derives the epoch-scoped public key longTerm presents for the
// given epoch: A' = h(longTerm, epoch) * A, where h is a SHA3-256-derived
// Ed25519 scalar. Two different epochs for the same longTerm key produce
// unlinkable blinded keys; the same (longTerm, epoch) pair always produces
// the same blinded key.
func BlindedKey(longTerm RelayKey, epoch uint64) (RelayKey, error) {
	var blinded RelayKey

	nonce := blindNonce(epoch)

	h := sha3.New256()
	h.Write(blindDomain)
	h.Write(longTerm[:])
	h.Write(ed25519Basepoint)
	h.Write(nonce)
	hBytes := h.Sum(nil)

	hScalar, err := new(edwards25519.Scalar).SetBytesWithClamping(hBytes)
	if err != nil {
		return blinded, fmt.Errorf("relayid: derive blinding scalar: %w", err)
	}

	point, err := new(edwards25519.Point).SetBytes(longTerm[:])
	if err != nil {
		return blinded, fmt.Errorf("relayid: invalid long-term key: %w", err)
	}

	blindedPoint := new(edwards25519.Point).ScalarMult(hScalar, point)
	copy(blinded[:], blindedPoint.Bytes())
	return blinded, nil
}

// Truncate reduces a blinded key to the 16 bytes apitypes.RelayKey carries
// on the wire. Ed25519 points need the full 32 bytes for scalar
// multiplication, but the registration protocol only has room for 16; the
// leading half of the compressed point still carries enough entropy to
// make blinded keys unlinkable across epochs.
func Truncate(k RelayKey) [16]byte {
	var out [16]byte
	copy(out[:], k[:16])
	return out
}

func blindNonce(epoch uint64) []byte {
	nonce := make([]byte, 0, len(blindDomain)+8)
	nonce = append(nonce, []byte("epoch")...)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], epoch)
	nonce = append(nonce, buf[:]...)
	return nonce
}
