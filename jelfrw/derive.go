package jelfrw

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joltwallet/elf2jelf/common"
)

// ParseDerivation parses a two-component key-derivation path such as
// "44'/165". Each component is an unsigned 31-bit integer; a trailing
// apostrophe hardens that component by setting its top bit.
func ParseDerivation(s string) (purpose, coin uint32, err error) {
	first, second, found := strings.Cut(s, "/")
	if !found {
		return 0, 0, fmt.Errorf("%w: derivation path %q must be two /-separated components", common.ErrInvalidInput, s)
	}
	if purpose, err = parseComponent(first); err != nil {
		return 0, 0, err
	}
	if coin, err = parseComponent(second); err != nil {
		return 0, 0, err
	}
	return purpose, coin, nil
}

func parseComponent(s string) (uint32, error) {
	hardened := strings.HasSuffix(s, "'")
	digits := strings.TrimSuffix(s, "'")
	v, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed derivation component %q", common.ErrInvalidInput, s)
	}
	if v >= Harden {
		return 0, fmt.Errorf("%w: derivation component %q does not fit 31 bits", common.ErrInvalidInput, s)
	}
	if hardened {
		v |= Harden
	}
	return uint32(v), nil
}
