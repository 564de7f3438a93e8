// Package apitypes holds the wire types exchanged between relays,
// authorities and clients: relay registration, HIBE key distribution, and
// address lookup.
package apitypes

import (
	"github.com/kit-ps/aimless-onions-go/bbg"
	"github.com/kit-ps/aimless-onions-go/nodename"
)

// RelayKey identifies a relay across authorities; it is also the tie-break
// key allocation.Allocate uses.
type RelayKey [16]byte

// RegisterRelay is what a relay sends an authority to join the consensus.
type RegisterRelay struct {
	Key     RelayKey `json:"key"`
	Address string   `json:"address"`
	Port    uint16   `json:"port"`
	Weight  uint32   `json:"weight"`
}

// GetHibeKeys requests the HIBE key material for the subtrees a relay has
// been allocated.
type GetHibeKeys struct {
	Key RelayKey `json:"key"`
}

// GetRelayAddress resolves the relay currently responsible for identity.
type GetRelayAddress struct {
	Identity uint64 `json:"identity"`
}

// KeyPair is one subtree root and the HIBE private key an authority issued
// for it.
type KeyPair struct {
	Node nodename.NodeName `json:"node"`
	Key  bbg.PrivateKey    `json:"key"`
}
