package onionformat

import (
	"encoding/binary"
	"errors"
)

// Tag is a hop's HMAC-SHA3-256 authentication tag.
type Tag [32]byte

// HopInfo is the metadata a relay reads off of one header slot: how long
// to delay forwarding, and the tag authenticating everything past it.
type HopInfo struct {
	Delay uint32
	Tag   Tag
}

// hopInfoSize and hopMaccedPrefixLen mirror a fixed #[repr(C)] layout:
// Delay occupies the first 4 bytes, Tag the following 32.
const (
	hopInfoSize        = 4 + 32
	hopMaccedPrefixLen = 4
)

// ErrHeaderMalformed is returned when a decrypted header slot does not
// decode to a well-formed hop record.
var ErrHeaderMalformed = errors.New("onionformat: header slot malformed")

// perHopSize is the fixed size of one header slot: hop metadata, the next
// identity, a share-count prefix, and one HIBE-encrypted share per
// authority.
func perHopSize(numAuthorities int) int {
	return hopInfoSize + 8 /* identity */ + 8 /* share count */ + numAuthorities*ShareSize
}

func serializeHeaderSlot(hop HopInfo, identity uint64, shares []Share) []byte {
	out := make([]byte, 0, hopInfoSize+16+len(shares)*ShareSize)
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], hop.Delay)
	out = append(out, buf[:4]...)
	out = append(out, hop.Tag[:]...)
	binary.LittleEndian.PutUint64(buf[:], identity)
	out = append(out, buf[:]...)
	binary.LittleEndian.PutUint64(buf[:], uint64(len(shares)))
	out = append(out, buf[:]...)
	for _, s := range shares {
		out = append(out, s[:]...)
	}
	return out
}

func deserializeHeaderSlot(data []byte) (HopInfo, uint64, []Share, error) {
	if len(data) < hopInfoSize+16 {
		return HopInfo{}, 0, nil, ErrHeaderMalformed
	}
	var hop HopInfo
	hop.Delay = binary.LittleEndian.Uint32(data[:4])
	copy(hop.Tag[:], data[4:hopInfoSize])

	identity := binary.LittleEndian.Uint64(data[hopInfoSize : hopInfoSize+8])
	shareCount := binary.LittleEndian.Uint64(data[hopInfoSize+8 : hopInfoSize+16])

	rest := data[hopInfoSize+16:]
	// Bound shareCount by len(rest) before multiplying: shareCount comes
	// straight off the wire, and shareCount*ShareSize can otherwise wrap
	// uint64 and slip an attacker-chosen allocation size past this check.
	maxShares := uint64(len(rest)) / uint64(ShareSize)
	if shareCount > maxShares || uint64(len(rest)) != shareCount*uint64(ShareSize) {
		return HopInfo{}, 0, nil, ErrHeaderMalformed
	}

	shares := make([]Share, shareCount)
	for i := range shares {
		copy(shares[i][:], rest[i*ShareSize:(i+1)*ShareSize])
	}
	return hop, identity, shares, nil
}

func headerTag(header []byte) Tag {
	var t Tag
	copy(t[:], header[hopMaccedPrefixLen:hopMaccedPrefixLen+len(t)])
	return t
}

func setHeaderTag(header []byte, tag Tag) {
	copy(header[hopMaccedPrefixLen:hopMaccedPrefixLen+len(tag)], tag[:])
}
