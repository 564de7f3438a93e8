package onionformat

import "testing"

// FuzzDeserializeHeaderSlot exercises the header-slot decoder against
// malformed input. A relay runs this decoder on bytes freshly produced by
// AES-CTR decryption under a key it does not control, so it must never
// panic, only return ErrHeaderMalformed or a parsed result.
func FuzzDeserializeHeaderSlot(f *testing.F) {
	hop := HopInfo{Delay: 1337, Tag: Tag{1, 2, 3}}
	f.Add(serializeHeaderSlot(hop, 0xDEADBEEF, nil))
	f.Add(serializeHeaderSlot(hop, 0xDEADBEEF, []Share{{}, {}}))
	f.Add([]byte{})
	f.Add([]byte{0x00})
	f.Add(make([]byte, hopInfoSize+16))
	// A share-count field that, multiplied by ShareSize, overflows
	// uint64 and could otherwise slip past deserializeHeaderSlot's length
	// check.
	overflowing := make([]byte, hopInfoSize+16)
	for i := range overflowing[hopInfoSize+8 : hopInfoSize+16] {
		overflowing[hopInfoSize+8+i] = 0xFF
	}
	f.Add(overflowing)

	f.Fuzz(func(t *testing.T, data []byte) {
		hop, identity, shares, err := deserializeHeaderSlot(data)
		if err != nil {
			return
		}
		reencoded := serializeHeaderSlot(hop, identity, shares)
		if len(reencoded) != len(data) {
			t.Errorf("round trip changed length: got %d, want %d", len(reencoded), len(data))
		}
	})
}
