package jelfrw

import (
	"fmt"

	"github.com/joltwallet/elf2jelf/common"
	"github.com/joltwallet/elf2jelf/exports"
)

// buildHeader packs the final JELF header. Signature and public key are
// zeroed placeholders an external signing step fills in later.
func buildHeader(list *exports.List, entry, count, shoff int, p Params) ([]byte, error) {
	if len(p.BIP32Key) >= 32 {
		return nil, fmt.Errorf("%w: bip32 key %q is %d bytes, limit is 31",
			common.ErrInvalidInput, p.BIP32Key, len(p.BIP32Key))
	}
	packed, err := HeaderSchema.Pack(
		Magic,
		make([]byte, 32),
		make([]byte, 32),
		uint64(list.Major),
		uint64(list.Minor),
		uint64(entry),
		uint64(count),
		uint64(shoff),
		uint64(p.Purpose),
		uint64(p.Coin),
		[]byte(p.BIP32Key),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to pack JELF header: %w", err)
	}
	return packed, nil
}
