package onionformat

import (
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/kit-ps/aimless-onions-go/bbg"
	"github.com/kit-ps/aimless-onions-go/hibe"
	"github.com/kit-ps/aimless-onions-go/nodename"
)

type authority struct {
	pp *bbg.PublicParams
	mk *bbg.MasterKey
}

func newAuthorities(t *testing.T, n int) []authority {
	t.Helper()
	out := make([]authority, n)
	for i := range out {
		pp, mk, err := bbg.Setup(rand.Reader, nodename.Depth)
		if err != nil {
			t.Fatalf("bbg.Setup: %v", err)
		}
		out[i] = authority{pp: pp, mk: mk}
	}
	return out
}

func publicKeysOf(authorities []authority) []*bbg.PublicParams {
	out := make([]*bbg.PublicParams, len(authorities))
	for i, a := range authorities {
		out[i] = a.pp
	}
	return out
}

func privateKeysFor(t *testing.T, authorities []authority, identity uint64) []*bbg.PrivateKey {
	t.Helper()
	out := make([]*bbg.PrivateKey, len(authorities))
	for i, a := range authorities {
		cached, err := hibe.New(a.pp, nodename.Depth, nodename.IdentityAlphabet()[:])
		if err != nil {
			t.Fatalf("hibe.New: %v", err)
		}
		key, err := cached.GenerateKey(rand.Reader, a.mk, nodename.IdentityVector(nodename.Number(identity)))
		if err != nil {
			t.Fatalf("GenerateKey: %v", err)
		}
		out[i] = key
	}
	return out
}

func TestWrapUnwrapSingleHop(t *testing.T) {
	authorities := newAuthorities(t, 2)
	publicKeys := publicKeysOf(authorities)
	identity := uint64(0xDEADCAFE)
	data := []byte("The quick brown fox jumps over the lazy dog")

	onion := Fresh(len(authorities), 1, data)
	originalHeaderLen := len(onion.Header)

	wrapped, err := onion.Wrap(rand.Reader, identity, publicKeys, 1337)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if len(wrapped.Header) != originalHeaderLen {
		t.Errorf("header length changed: got %d, want %d", len(wrapped.Header), originalHeaderLen)
	}

	privateKeys := privateKeysFor(t, authorities, identity)
	hop, unwrapped, err := wrapped.Unwrap(publicKeys, privateKeys)
	if err != nil {
		t.Fatalf("Unwrap: %v", err)
	}
	if hop.Delay != 1337 {
		t.Errorf("hop.Delay = %d, want 1337", hop.Delay)
	}
	if string(unwrapped.Payload) != string(data) {
		t.Errorf("payload = %q, want %q", unwrapped.Payload, data)
	}
	if len(unwrapped.Header) != originalHeaderLen {
		t.Errorf("header length after unwrap = %d, want %d", len(unwrapped.Header), originalHeaderLen)
	}
	if !unwrapped.IsFinalDestination() {
		t.Error("single-hop onion should be a final destination after unwrap")
	}
}

// positionsOf returns three distinct tamper offsets within a region of the
// given length: start, middle, and end.
func positionsOf(length int) []int {
	return []int{0, length / 2, length - 1}
}

func TestUnwrapDetectsPayloadTamper(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog")
	identity := uint64(0xDEADCAFE)

	for _, pos := range positionsOf(len(data)) {
		t.Run(fmt.Sprintf("pos=%d", pos), func(t *testing.T) {
			authorities := newAuthorities(t, 2)
			publicKeys := publicKeysOf(authorities)

			onion := Fresh(len(authorities), 1, data)
			wrapped, err := onion.Wrap(rand.Reader, identity, publicKeys, 1337)
			if err != nil {
				t.Fatalf("Wrap: %v", err)
			}
			wrapped.Payload[pos] ^= 0x01

			privateKeys := privateKeysFor(t, authorities, identity)
			if _, _, err := wrapped.Unwrap(publicKeys, privateKeys); err != ErrTagMismatch {
				t.Errorf("Unwrap with tampered payload at %d: err = %v, want ErrTagMismatch", pos, err)
			}
		})
	}
}

func TestUnwrapDetectsHeaderTamper(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog")
	identity := uint64(0xDEADCAFE)

	authorities := newAuthorities(t, 2)
	publicKeys := publicKeysOf(authorities)
	onion := Fresh(len(authorities), 1, data)
	headerLen := len(onion.Header)

	for _, pos := range positionsOf(headerLen) {
		t.Run(fmt.Sprintf("pos=%d", pos), func(t *testing.T) {
			wrapped, err := onion.Wrap(rand.Reader, identity, publicKeys, 1337)
			if err != nil {
				t.Fatalf("Wrap: %v", err)
			}
			wrapped.Header[pos] ^= 0x01

			privateKeys := privateKeysFor(t, authorities, identity)
			if _, _, err := wrapped.Unwrap(publicKeys, privateKeys); err != ErrTagMismatch {
				t.Errorf("Unwrap with tampered header at %d: err = %v, want ErrTagMismatch", pos, err)
			}
		})
	}
}

func TestUnwrapDetectsShareTamper(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog")
	identity := uint64(0xDEADCAFE)

	for _, pos := range positionsOf(ShareSize) {
		t.Run(fmt.Sprintf("pos=%d", pos), func(t *testing.T) {
			authorities := newAuthorities(t, 2)
			publicKeys := publicKeysOf(authorities)

			onion := Fresh(len(authorities), 1, data)
			wrapped, err := onion.Wrap(rand.Reader, identity, publicKeys, 1337)
			if err != nil {
				t.Fatalf("Wrap: %v", err)
			}
			wrapped.Shares[0][pos] ^= 0x01

			privateKeys := privateKeysFor(t, authorities, identity)
			if _, _, err := wrapped.Unwrap(publicKeys, privateKeys); err == nil {
				t.Errorf("Unwrap with tampered share at %d should fail, either at decryption or MAC check", pos)
			}
		})
	}
}

func TestWrapMultiHop(t *testing.T) {
	authorities := newAuthorities(t, 2)
	publicKeys := publicKeysOf(authorities)
	identities := []uint64{0xCAFEBABE, 0xDEADBEEF, 0xC001C0DE}
	delays := []uint32{111, 222, 333}
	data := []byte("The quick brown fox jumps over the lazy dog")

	onion, err := Wrap(rand.Reader, identities, delays, publicKeys, data)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	onionSize := len(onion.Header)

	for i, identity := range identities {
		privateKeys := privateKeysFor(t, authorities, identity)
		hop, next, err := onion.Unwrap(publicKeys, privateKeys)
		if err != nil {
			t.Fatalf("Unwrap at hop %d: %v", i, err)
		}
		if hop.Delay != delays[i] {
			t.Errorf("hop %d delay = %d, want %d", i, hop.Delay, delays[i])
		}
		if len(next.Header) != onionSize {
			t.Errorf("hop %d header size = %d, want %d", i, len(next.Header), onionSize)
		}
		onion = next
	}

	if !onion.IsFinalDestination() {
		t.Error("onion should be a final destination after unwrapping every hop")
	}
	if string(onion.Payload) != string(data) {
		t.Errorf("final payload = %q, want %q", onion.Payload, data)
	}
}

func TestShareEmpty(t *testing.T) {
	var s Share
	if !s.IsEmpty() {
		t.Error("zero-value Share should be empty")
	}
	s[0] = 1
	if s.IsEmpty() {
		t.Error("Share with a nonzero byte should not be empty")
	}
}
